package assistant

import "github.com/prometheus/client_golang/prometheus"

const (
	opSuggest  = "suggest_type"
	opDescribe = "describe"

	outcomeOK       = "ok"
	outcomeUnknown  = "unknown"
	outcomeInvalid  = "invalid_response"
	outcomeError    = "error"
	outcomeSkipped  = "skipped"
	outcomeDisabled = "disabled"
)

// Metrics counts assistant calls by operation and outcome.
type Metrics struct {
	requests *prometheus.CounterVec
}

// NewMetrics registers the assistant counters on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_requests_total",
				Help: "Total number of classification assistant calls by outcome.",
			},
			[]string{"operation", "outcome"},
		),
	}
	if err := reg.Register(m.requests); err != nil {
		return nil, err
	}
	return m, nil
}
