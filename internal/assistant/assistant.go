package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"stddocs/internal/model"
)

// Schema is the subset of the OpenAPI schema object a generator can be asked to honor.
type Schema struct {
	Type       string             `json:"type"`
	Properties map[string]*Schema `json:"properties,omitempty"`
	Enum       []string           `json:"enum,omitempty"`
	Required   []string           `json:"required,omitempty"`
}

const (
	SchemaObject = "OBJECT"
	SchemaString = "STRING"
)

// Request is one text-completion call. A nil Schema asks for free text.
type Request struct {
	Prompt string
	Schema *Schema
}

// Generator is the remote text-completion service.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Suggestion is the result of a classification hint. Available is false when
// the service had no opinion or could not be reached; the two are not told apart.
type Suggestion struct {
	Type      model.StandardType `json:"type,omitempty"`
	Available bool               `json:"available"`
}

const unknownToken = "UNKNOWN"

var typeSchema = &Schema{
	Type: SchemaObject,
	Properties: map[string]*Schema{
		"type": {
			Type: SchemaString,
			Enum: []string{
				string(model.StandardTypeNational),
				string(model.StandardTypeIndustry),
				string(model.StandardTypeRegional),
				unknownToken,
			},
		},
	},
}

// Assistant offers advisory helpers for the intake form. Its methods never
// return errors: every failure is logged, counted and reported as "no result".
type Assistant struct {
	gen     Generator
	logger  *slog.Logger
	metrics *Metrics
}

// Option customizes an Assistant.
type Option func(*Assistant)

// WithLogger sets the logger failures are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(a *Assistant) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithMetrics enables outcome counting.
func WithMetrics(m *Metrics) Option {
	return func(a *Assistant) { a.metrics = m }
}

// New builds an Assistant. A nil generator yields an assistant that is always unavailable.
func New(gen Generator, opts ...Option) *Assistant {
	a := &Assistant{gen: gen, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Enabled reports whether a generator is configured.
func (a *Assistant) Enabled() bool {
	return a != nil && a.gen != nil
}

// SuggestStandardType asks the service to classify a document by its name.
func (a *Assistant) SuggestStandardType(ctx context.Context, name string) Suggestion {
	if name == "" {
		a.observe(opSuggest, outcomeSkipped)
		return Suggestion{}
	}
	if !a.Enabled() {
		a.observe(opSuggest, outcomeDisabled)
		return Suggestion{}
	}

	raw, err := a.gen.Generate(ctx, Request{Prompt: suggestTypePrompt(name), Schema: typeSchema})
	if err != nil {
		a.logger.Warn("assistant_suggest_type_failed", "error", err)
		a.observe(opSuggest, outcomeError)
		return Suggestion{}
	}

	t, err := parseTypeAnswer(raw)
	if err != nil {
		a.logger.Warn("assistant_suggest_type_invalid_response", "error", err)
		a.observe(opSuggest, outcomeInvalid)
		return Suggestion{}
	}
	if !t.Valid() {
		a.observe(opSuggest, outcomeUnknown)
		return Suggestion{}
	}
	a.observe(opSuggest, outcomeOK)
	return Suggestion{Type: t, Available: true}
}

// GenerateDescription returns the service's description of the likely document
// content as received, or "" when nothing could be generated.
func (a *Assistant) GenerateDescription(ctx context.Context, name string) string {
	if name == "" {
		a.observe(opDescribe, outcomeSkipped)
		return ""
	}
	if !a.Enabled() {
		a.observe(opDescribe, outcomeDisabled)
		return ""
	}

	text, err := a.gen.Generate(ctx, Request{Prompt: describePrompt(name)})
	if err != nil {
		a.logger.Warn("assistant_describe_failed", "error", err)
		a.observe(opDescribe, outcomeError)
		return ""
	}
	if strings.TrimSpace(text) == "" {
		a.observe(opDescribe, outcomeUnknown)
		return ""
	}
	a.observe(opDescribe, outcomeOK)
	return text
}

func (a *Assistant) observe(op, outcome string) {
	if a == nil || a.metrics == nil {
		return
	}
	a.metrics.requests.WithLabelValues(op, outcome).Inc()
}

// parseTypeAnswer reads {"type": "..."} from raw. UNKNOWN and any other token
// come back as a StandardType that is not Valid.
func parseTypeAnswer(raw string) (model.StandardType, error) {
	var out struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &out); err != nil {
		return "", fmt.Errorf("parse type json: %w", err)
	}
	return model.StandardType(strings.TrimSpace(out.Type)), nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
