package upload

import (
	"errors"
	"path/filepath"
	"strings"
)

// MaxFileSize is the largest accepted file, in bytes (10 MiB).
const MaxFileSize int64 = 10 * 1024 * 1024

var allowedExtensions = []string{".rar", ".zip", ".doc", ".docx", ".pdf"}

var (
	// ErrFileTooLarge is returned for files above MaxFileSize.
	ErrFileTooLarge = errors.New("file size must not exceed 10MB")
	// ErrExtensionNotAllowed is returned for files whose extension is not in the allow list.
	ErrExtensionNotAllowed = errors.New("only " + strings.Join(allowedExtensions, ", ") + " files are allowed")
)

// File describes a candidate upload: only its name and size are inspected.
type File struct {
	Name string
	Size int64
}

// Allowed returns the accepted extensions, lower-case with a leading dot.
func Allowed() []string {
	out := make([]string, len(allowedExtensions))
	copy(out, allowedExtensions)
	return out
}

// Validate accepts f (nil) or rejects it with ErrFileTooLarge or ErrExtensionNotAllowed.
// The size rule is checked first. This is a convenience check, not a content inspection.
func Validate(f File) error {
	if f.Size > MaxFileSize {
		return ErrFileTooLarge
	}
	ext := strings.ToLower(filepath.Ext(f.Name))
	for _, a := range allowedExtensions {
		if ext == a {
			return nil
		}
	}
	return ErrExtensionNotAllowed
}

// Reason returns the user-facing message for a rejection, or "" for nil.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFileTooLarge):
		return ErrFileTooLarge.Error()
	case errors.Is(err, ErrExtensionNotAllowed):
		return ErrExtensionNotAllowed.Error()
	default:
		return err.Error()
	}
}
