package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// TimeKey replaces slog's "time" attribute.
const TimeKey = "ts"

// NewJSONLogger writes one JSON object per line to stdout, timestamped as RFC3339Nano in loc.
func NewJSONLogger(service, level string, loc *time.Location) *slog.Logger {
	return New(os.Stdout, service, ParseLevel(level), loc)
}

// New is NewJSONLogger with an explicit writer. An empty service adds no service attribute.
func New(w io.Writer, service string, level slog.Level, loc *time.Location) *slog.Logger {
	if loc == nil {
		loc = time.Local
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.String(TimeKey, a.Value.Time().In(loc).Format(time.RFC3339Nano))
			}
			return a
		},
	})
	l := slog.New(handler)
	if service != "" {
		l = l.With("service", service)
	}
	return l
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
