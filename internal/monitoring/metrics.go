// Package monitoring exposes Prometheus metrics for the backend chain and
// the session store.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sells-group/research-assistant/internal/backend"
)

// FallbackRuleBased is the fallback kind counted when the chain answers from
// its last resort backend. Other kinds come from ObserveFallback callers.
const FallbackRuleBased = "rule_based"

// Metrics holds the assistant's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	attempts  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	fallbacks *prometheus.CounterVec
	sessions  prometheus.Gauge
	recent    prometheus.Gauge
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assistant",
			Name:      "backend_attempts_total",
			Help:      "Backend generate attempts by backend and outcome.",
		}, []string{"backend", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "assistant",
			Name:      "backend_latency_seconds",
			Help:      "Latency of backend generate attempts.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"backend"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assistant",
			Name:      "fallbacks_total",
			Help:      "Degraded responses by kind.",
		}, []string{"kind"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "assistant",
			Name:      "sessions",
			Help:      "Sessions currently held by the store.",
		}),
		recent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "assistant",
			Name:      "sessions_recent",
			Help:      "Sessions uploaded within the lookback window.",
		}),
	}
	m.registry.MustRegister(m.attempts, m.latency, m.fallbacks, m.sessions, m.recent)
	return m
}

// ObserveAttempt implements backend.Observer.
func (m *Metrics) ObserveAttempt(name string, outcome backend.Outcome, elapsed time.Duration) {
	m.attempts.WithLabelValues(name, string(outcome)).Inc()
	if outcome != backend.OutcomeCircuitOpen {
		m.latency.WithLabelValues(name).Observe(elapsed.Seconds())
	}
	if name == FallbackRuleBased {
		m.fallbacks.WithLabelValues(FallbackRuleBased).Inc()
	}
}

// ObserveFallback counts a degraded result of the given kind.
func (m *Metrics) ObserveFallback(kind string) {
	m.fallbacks.WithLabelValues(kind).Inc()
}

// SetSnapshot publishes store gauges.
func (m *Metrics) SetSnapshot(s *Snapshot) {
	m.sessions.Set(float64(s.TotalSessions))
	m.recent.Set(float64(s.RecentSessions))
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
