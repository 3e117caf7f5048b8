// Package gemini implements assistant.Generator on the Google Gen AI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/genai"

	"stddocs/internal/assistant"
)

const DefaultModel = "gemini-2.5-flash"

// ErrEmptyResponse is returned when the service answers without any candidate text.
var ErrEmptyResponse = errors.New("gemini returned no candidates")

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gemini generate status: %d %s", e.StatusCode, e.Status)
	}
	return fmt.Sprintf("gemini generate status: %d %s: %s", e.StatusCode, e.Status, e.Message)
}

// Client sends prompts to models.generateContent. It implements assistant.Generator.
type Client struct {
	models *genai.Models
	model  string
}

type settings struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

type Option func(*settings)

// WithBaseURL points the client at another endpoint, e.g. a proxy or a test server.
func WithBaseURL(u string) Option {
	return func(s *settings) {
		if u != "" {
			s.baseURL = u
		}
	}
}

func WithModel(m string) Option {
	return func(s *settings) {
		if m != "" {
			s.model = m
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(s *settings) {
		if hc != nil {
			s.httpClient = hc
		}
	}
}

// New builds a Gemini API client authenticated with apiKey. Outgoing requests are traced.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	s := settings{
		model: DefaultModel,
		httpClient: &http.Client{
			Timeout:   60 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(&s)
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  s.httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: s.baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{models: gc.Models, model: s.model}, nil
}

// Generate sends one prompt and returns the trimmed text of the first candidate.
// When req.Schema is set the response is constrained to JSON matching it.
func (c *Client) Generate(ctx context.Context, req assistant.Request) (string, error) {
	var cfg *genai.GenerateContentConfig
	if req.Schema != nil {
		cfg = &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   toSchema(req.Schema),
		}
	}

	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", statusError(err)
	}
	if len(resp.Candidates) == 0 {
		if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
			return "", fmt.Errorf("%w: blocked: %s", ErrEmptyResponse, fb.BlockReason)
		}
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(resp.Text()), nil
}

func statusError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &StatusError{StatusCode: apiErr.Code, Status: apiErr.Status, Message: apiErr.Message}
	}
	return fmt.Errorf("gemini generate request: %w", err)
}

func toSchema(s *assistant.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:     genai.Type(s.Type),
		Enum:     s.Enum,
		Required: s.Required,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, p := range s.Properties {
			out.Properties[name] = toSchema(p)
		}
	}
	return out
}
