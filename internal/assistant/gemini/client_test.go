package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"stddocs/internal/assistant"
	"stddocs/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	c, err := New(context.Background(), "k", append([]Option{WithBaseURL(baseURL)}, opts...)...)
	require.NoError(t, err)
	return c
}

func replyJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestClient_GenerateSendsSchema(t *testing.T) {
	var (
		gotPath string
		gotKey  string
		payload map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		_ = json.NewDecoder(r.Body).Decode(&payload)
		replyJSON(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"type\":"},{"text":"\"NATIONAL\"}"}]}}]}`)(w, r)
	}))
	defer server.Close()

	c, err := New(context.Background(), "secret", WithBaseURL(server.URL+"/"), WithHTTPClient(server.Client()))
	require.NoError(t, err)
	out, err := c.Generate(context.Background(), assistant.Request{
		Prompt: "classify",
		Schema: &assistant.Schema{
			Type: assistant.SchemaObject,
			Properties: map[string]*assistant.Schema{
				"type": {Type: assistant.SchemaString, Enum: []string{"NATIONAL", "UNKNOWN"}},
			},
			Required: []string{"type"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, `{"type":"NATIONAL"}`, out)
	assert.True(t, strings.HasSuffix(gotPath, "models/gemini-2.5-flash:generateContent"), gotPath)
	assert.Equal(t, "secret", gotKey)

	cfg, ok := payload["generationConfig"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "application/json", cfg["responseMimeType"])
	schema, ok := cfg["responseSchema"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "OBJECT", schema["type"])
	props := schema["properties"].(map[string]any)
	assert.Equal(t, []any{"NATIONAL", "UNKNOWN"}, props["type"].(map[string]any)["enum"])

	contents := payload["contents"].([]any)
	first := contents[0].(map[string]any)
	parts := first["parts"].([]any)
	assert.Equal(t, "classify", parts[0].(map[string]any)["text"])
}

func TestClient_GenerateFreeText(t *testing.T) {
	var (
		gotPath string
		payload map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&payload)
		replyJSON(`{"candidates":[{"content":{"parts":[{"text":"  A short description. "}]}}]}`)(w, r)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, WithModel("gemini-test"))
	out, err := c.Generate(context.Background(), assistant.Request{Prompt: "describe"})

	require.NoError(t, err)
	assert.Equal(t, "A short description.", out)
	assert.True(t, strings.HasSuffix(gotPath, "models/gemini-test:generateContent"), gotPath)
	cfg, _ := payload["generationConfig"].(map[string]any)
	assert.Nil(t, cfg["responseMimeType"])
}

func TestClient_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exhausted","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).Generate(context.Background(), assistant.Request{Prompt: "p"})

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr), err)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Contains(t, err.Error(), "quota exhausted")
}

func TestClient_EmptyCandidates(t *testing.T) {
	server := httptest.NewServer(replyJSON(`{"candidates":[],"promptFeedback":{"blockReason":"SAFETY"}}`))
	defer server.Close()

	_, err := newTestClient(t, server.URL).Generate(context.Background(), assistant.Request{Prompt: "p"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
	assert.Contains(t, err.Error(), "SAFETY")
}

func TestClient_WithAssistant(t *testing.T) {
	server := httptest.NewServer(replyJSON(`{"candidates":[{"content":{"parts":[{"text":"{\"type\":\"REGIONAL\"}"}]}}]}`))
	defer server.Close()

	a := assistant.New(newTestClient(t, server.URL))
	got := a.SuggestStandardType(context.Background(), "DB31/T 1311-2021")
	assert.Equal(t, assistant.Suggestion{Type: model.StandardTypeRegional, Available: true}, got)
}

func TestClient_UnreachableServiceYieldsNoSuggestion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	a := assistant.New(newTestClient(t, url))
	got := a.SuggestStandardType(context.Background(), "GB/T 36073-2018")
	assert.False(t, got.Available)
}
