// Package metrics holds the Prometheus collectors for the comparator.
// Collectors live on a private registry so tests can build fresh sets.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "serp_comparator"

// Outcome label values shared by the request counters.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomePartial = "partial"
	OutcomeInvalid = "invalid"
	OutcomeOpen    = "circuit_open"
)

// Metrics groups every collector the service exports.
type Metrics struct {
	registry *prometheus.Registry

	SerpRequests    *prometheus.CounterVec
	SerpDuration    prometheus.Histogram
	IntentRequests  *prometheus.CounterVec
	IntentTokens    *prometheus.CounterVec
	CompareRequests *prometheus.CounterVec
	SimilarityScore prometheus.Histogram
	HTTPDuration    *prometheus.HistogramVec

	BreakerState   *prometheus.GaugeVec
	BreakerEvents  *prometheus.CounterVec
	BreakerLatency *prometheus.HistogramVec
}

// Default is the process-wide set used by main and by components built without one.
var Default = New()

// New creates and registers a full set of collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SerpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "serp_requests_total",
			Help:      "SERP API calls by outcome",
		}, []string{"outcome"}),
		SerpDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "serp_request_duration_seconds",
			Help:      "SERP API call latency in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30},
		}),
		IntentRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intent_requests_total",
			Help:      "Intent classification calls by outcome",
		}, []string{"outcome"}),
		IntentTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intent_tokens_total",
			Help:      "Tokens consumed by intent classification",
		}, []string{"kind"}),
		CompareRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compare_requests_total",
			Help:      "Comparison requests by outcome",
		}, []string{"outcome"}),
		SimilarityScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "similarity_score",
			Help:      "Distribution of computed similarity scores",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status"}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		}, []string{"name"}),
		BreakerEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_events_total",
			Help:      "Circuit breaker events (open, half_open, success, failure, timeout, slow)",
		}, []string{"name", "event"}),
		BreakerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_call_duration_seconds",
			Help:      "Latency of calls made through a circuit breaker",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"name"}),
	}

	m.registry.MustRegister(
		m.SerpRequests,
		m.SerpDuration,
		m.IntentRequests,
		m.IntentTokens,
		m.CompareRequests,
		m.SimilarityScore,
		m.HTTPDuration,
		m.BreakerState,
		m.BreakerEvents,
		m.BreakerLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Handler serves the Default registry.
func Handler() http.Handler { return Default.Handler() }

// ObserveSerp records one SERP call.
func (m *Metrics) ObserveSerp(outcome string, d time.Duration) {
	m.SerpRequests.WithLabelValues(outcome).Inc()
	m.SerpDuration.Observe(d.Seconds())
}

// ObserveIntent records one classification call and its token usage.
func (m *Metrics) ObserveIntent(outcome string, promptTokens, completionTokens int) {
	m.IntentRequests.WithLabelValues(outcome).Inc()
	if promptTokens > 0 {
		m.IntentTokens.WithLabelValues("prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.IntentTokens.WithLabelValues("completion").Add(float64(completionTokens))
	}
}

// ObserveCompare records a finished comparison. score is ignored unless outcome
// produced an analysis.
func (m *Metrics) ObserveCompare(outcome string, score float64) {
	m.CompareRequests.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess || outcome == OutcomePartial {
		m.SimilarityScore.Observe(score)
	}
}
