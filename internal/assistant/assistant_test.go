package assistant

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"stddocs/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type generatorFunc func(ctx context.Context, req Request) (string, error)

func (f generatorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

func answer(s string) Generator {
	return generatorFunc(func(context.Context, Request) (string, error) { return s, nil })
}

func failing(err error) Generator {
	return generatorFunc(func(context.Context, Request) (string, error) { return "", err })
}

func newTestAssistant(t *testing.T, gen Generator) (*Assistant, *Metrics, *bytes.Buffer) {
	t.Helper()
	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	return New(gen, WithMetrics(m), WithLogger(logger)), m, &buf
}

func TestSuggestStandardType(t *testing.T) {
	tests := []struct {
		name    string
		gen     Generator
		docName string
		want    Suggestion
		outcome string
	}{
		{"national", answer(`{"type":"NATIONAL"}`), "GB/T 36073-2018", Suggestion{Type: model.StandardTypeNational, Available: true}, outcomeOK},
		{"industry", answer(`{"type":"INDUSTRY"}`), "JR/T 0197-2020", Suggestion{Type: model.StandardTypeIndustry, Available: true}, outcomeOK},
		{"regional wrapped in prose", answer("Sure:\n```json\n{\"type\": \"REGIONAL\"}\n```"), "DB31/T 1234", Suggestion{Type: model.StandardTypeRegional, Available: true}, outcomeOK},
		{"unknown token", answer(`{"type":"UNKNOWN"}`), "Meeting notes", Suggestion{}, outcomeUnknown},
		{"unexpected token", answer(`{"type":"CITY"}`), "x", Suggestion{}, outcomeUnknown},
		{"lower-case token is not accepted", answer(`{"type":"national"}`), "x", Suggestion{}, outcomeUnknown},
		{"unparseable", answer("no idea"), "x", Suggestion{}, outcomeInvalid},
		{"failing remote service", failing(errors.New("connection refused")), "GB/T 1.1-2020", Suggestion{}, outcomeError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, m, _ := newTestAssistant(t, tt.gen)
			got := a.SuggestStandardType(context.Background(), tt.docName)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues(opSuggest, tt.outcome)))
		})
	}
}

func TestSuggestStandardType_FailureIsLogged(t *testing.T) {
	a, _, logs := newTestAssistant(t, failing(errors.New("upstream 503")))

	got := a.SuggestStandardType(context.Background(), "GB/T 22239-2019")

	assert.False(t, got.Available)
	assert.Contains(t, logs.String(), "assistant_suggest_type_failed")
	assert.Contains(t, logs.String(), "upstream 503")
}

func TestSuggestStandardType_SendsRulesAndSchema(t *testing.T) {
	var captured Request
	gen := generatorFunc(func(_ context.Context, req Request) (string, error) {
		captured = req
		return `{"type":"NATIONAL"}`, nil
	})
	New(gen).SuggestStandardType(context.Background(), "GB/T 36073-2018")

	assert.Contains(t, captured.Prompt, `"GB/T 36073-2018"`)
	assert.Contains(t, captured.Prompt, "GB/Z")
	assert.Contains(t, captured.Prompt, "DB31")
	require.NotNil(t, captured.Schema)
	assert.Equal(t, SchemaObject, captured.Schema.Type)
	assert.Equal(t, []string{"NATIONAL", "INDUSTRY", "REGIONAL", "UNKNOWN"}, captured.Schema.Properties["type"].Enum)
}

func TestSuggestStandardType_EmptyNameSkipsRemote(t *testing.T) {
	called := false
	gen := generatorFunc(func(context.Context, Request) (string, error) {
		called = true
		return `{"type":"NATIONAL"}`, nil
	})
	a, m, _ := newTestAssistant(t, gen)

	assert.Equal(t, Suggestion{}, a.SuggestStandardType(context.Background(), ""))
	assert.Empty(t, a.GenerateDescription(context.Background(), ""))
	assert.False(t, called)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues(opSuggest, outcomeSkipped)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues(opDescribe, outcomeSkipped)))
}

func TestDisabledAssistant(t *testing.T) {
	a, m, _ := newTestAssistant(t, nil)
	assert.False(t, a.Enabled())
	assert.Equal(t, Suggestion{}, a.SuggestStandardType(context.Background(), "GB/T 1"))
	assert.Empty(t, a.GenerateDescription(context.Background(), "GB/T 1"))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues(opSuggest, outcomeDisabled)))

	var nilAssistant *Assistant
	assert.False(t, nilAssistant.Enabled())
	assert.Equal(t, Suggestion{}, nilAssistant.SuggestStandardType(context.Background(), "GB/T 1"))
}

func TestGenerateDescription(t *testing.T) {
	t.Run("returns text verbatim", func(t *testing.T) {
		var captured Request
		gen := generatorFunc(func(_ context.Context, req Request) (string, error) {
			captured = req
			return "  Covers data maturity assessment.\n", nil
		})
		a, _, _ := newTestAssistant(t, gen)
		assert.Equal(t, "  Covers data maturity assessment.\n", a.GenerateDescription(context.Background(), "DCMM"))
		assert.Nil(t, captured.Schema)
		assert.Contains(t, captured.Prompt, `"DCMM"`)
	})

	t.Run("failure yields empty string", func(t *testing.T) {
		a, m, _ := newTestAssistant(t, failing(context.DeadlineExceeded))
		assert.Empty(t, a.GenerateDescription(context.Background(), "DCMM"))
		assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues(opDescribe, outcomeError)))
	})

	t.Run("whitespace name still reaches the service", func(t *testing.T) {
		called := false
		gen := generatorFunc(func(context.Context, Request) (string, error) {
			called = true
			return "Nothing to go on.", nil
		})
		a, _, _ := newTestAssistant(t, gen)
		assert.Equal(t, "Nothing to go on.", a.GenerateDescription(context.Background(), "  "))
		assert.True(t, called)
	})

	t.Run("blank answer yields empty string", func(t *testing.T) {
		a, _, _ := newTestAssistant(t, answer("   "))
		assert.Empty(t, a.GenerateDescription(context.Background(), "DCMM"))
	})
}

func TestExtractJSONObject(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSONObject(`xx {"a":1} yy`))
	assert.Equal(t, "plain", extractJSONObject("plain"))
}
