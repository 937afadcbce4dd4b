package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveSessions     prometheus.Gauge
	SessionEvents      *prometheus.CounterVec
	Turns              *prometheus.CounterVec
	StoreErrors        *prometheus.CounterVec
	EntitlementLookups *prometheus.CounterVec
	TurnLatency        prometheus.Histogram

	window *stageWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of active skill conversations.",
		}),
		SessionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session events by type.",
		}, []string{"event"}),
		Turns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Handled turns by intent and outcome.",
		}, []string{"intent", "outcome"}),
		StoreErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Collection store failures by operation.",
		}, []string{"op"}),
		EntitlementLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entitlement_lookups_total",
			Help:      "In-skill product lookups by result.",
		}, []string{"result"}),
		TurnLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_latency_ms",
			Help:      "Time to build a skill response in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}),
		window: newStageWindow(256),
	}
}

// The methods below accept a nil receiver so callers can run without metrics.

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
	m.SessionEvents.WithLabelValues("started").Inc()
}

func (m *Metrics) SessionEnded(event string) {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
	m.SessionEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) ObserveTurn(intent, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	if intent == "" {
		intent = "none"
	}
	m.Turns.WithLabelValues(intent, outcome).Inc()
	ms := float64(d.Microseconds()) / 1000
	m.TurnLatency.Observe(ms)
	m.window.Observe(StageTurnTotal, ms)
	m.window.ObserveIndicator("outcome_" + outcome)
}

func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.window.Observe(stage, float64(d.Microseconds())/1000)
}

func (m *Metrics) StoreError(op string) {
	if m == nil {
		return
	}
	m.StoreErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) EntitlementLookup(result string) {
	if m == nil {
		return
	}
	m.EntitlementLookups.WithLabelValues(result).Inc()
}

// LatencySnapshot summarizes the recent latency window.
func (m *Metrics) LatencySnapshot() StageSnapshot {
	if m == nil {
		return StageSnapshot{GeneratedAt: time.Now().UTC(), Stages: []StageStats{}}
	}
	return m.window.Snapshot()
}

func (m *Metrics) ResetLatency() {
	if m == nil {
		return
	}
	m.window.Reset()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
