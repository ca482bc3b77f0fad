package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the agent's Prometheus collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	fetches         *prometheus.CounterVec
	fetchDuration   prometheus.Histogram
	toolCalls       *prometheus.CounterVec
	modelCalls      *prometheus.CounterVec
	budgetExhausted prometheus.Counter
}

// New creates the collectors on a dedicated registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agent",
			Name:      "page_fetches_total",
			Help:      "Page fetches by outcome (ok, cached, transport, http_status, unsupported_type, parse).",
		}, []string{"outcome"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "agent",
			Name:      "page_fetch_duration_seconds",
			Help:      "Time spent fetching and extracting one page.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 12, 20},
		}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agent",
			Name:      "tool_calls_total",
			Help:      "Tool invocations requested by the model.",
		}, []string{"tool"}),
		modelCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agent",
			Name:      "model_calls_total",
			Help:      "Model invocations by result.",
		}, []string{"result"}),
		budgetExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agent",
			Name:      "turns_step_budget_exhausted_total",
			Help:      "Turns that stopped because the step budget ran out.",
		}),
	}
	m.registry.MustRegister(m.fetches, m.fetchDuration, m.toolCalls, m.modelCalls, m.budgetExhausted)
	return m
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveFetch records the outcome and latency of one page fetch
func (m *Metrics) ObserveFetch(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(outcome).Inc()
	m.fetchDuration.Observe(d.Seconds())
}

// IncToolCall counts one tool invocation
func (m *Metrics) IncToolCall(tool string) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool).Inc()
}

// IncModelCall counts one model invocation
func (m *Metrics) IncModelCall(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.modelCalls.WithLabelValues(result).Inc()
}

// IncBudgetExhausted counts a turn that ran out of steps
func (m *Metrics) IncBudgetExhausted() {
	if m == nil {
		return
	}
	m.budgetExhausted.Inc()
}
