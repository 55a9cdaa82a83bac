// Package metrics exposes Prometheus instrumentation for the engine,
// the HTTP layer, and the planner. A process-wide singleton keeps
// registration on the default registry single-shot no matter how many
// engines tests construct.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	JobsEnqueued  prometheus.Counter
	JobsCompleted prometheus.Counter
	JobsFailed    *prometheus.CounterVec
	QueueDepth    prometheus.Gauge

	LedgerEvents *prometheus.CounterVec

	PlannerRequests  *prometheus.CounterVec
	PlannerFallbacks *prometheus.CounterVec

	Checkins        *prometheus.CounterVec
	DraftsGenerated prometheus.Counter
	DraftsFinalized prometheus.Counter

	HealthScore *prometheus.GaugeVec

	HTTPDuration  *prometheus.HistogramVec
	StreamClients prometheus.Gauge
}

var (
	once sync.Once
	def  *Metrics
)

// Default returns the process-wide metrics instance.
func Default() *Metrics {
	once.Do(func() { def = newMetrics() })
	return def
}

func newMetrics() *Metrics {
	return &Metrics{
		JobsEnqueued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pantry_jobs_enqueued_total",
			Help: "Receipt-processing jobs accepted into the queue",
		}),
		JobsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pantry_jobs_completed_total",
			Help: "Jobs completed by a worker result submission",
		}),
		JobsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pantry_jobs_failed_total",
			Help: "Job failures by disposition",
		}, []string{"disposition"}), // disposition: requeued, dead_letter
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pantry_queue_depth",
			Help: "Jobs currently waiting in the FIFO queue",
		}),
		LedgerEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pantry_ledger_events_total",
			Help: "Inventory events appended, by type",
		}, []string{"type"}),
		PlannerRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pantry_planner_requests_total",
			Help: "Planner invocations by run type and variant",
		}, []string{"run_type", "variant"}), // variant: heuristic, llm
		PlannerFallbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pantry_planner_fallbacks_total",
			Help: "LLM planner failures recovered by the heuristic",
		}, []string{"run_type"}),
		Checkins: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pantry_checkins_total",
			Help: "Meal check-in submissions by outcome",
		}, []string{"outcome"}),
		DraftsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pantry_drafts_generated_total",
			Help: "Shopping drafts generated",
		}),
		DraftsFinalized: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pantry_drafts_finalized_total",
			Help: "Shopping drafts finalized",
		}),
		HealthScore: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pantry_health_score",
			Help: "Latest pantry health composite per household",
		}, []string{"household_id"}),
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pantry_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		StreamClients: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pantry_stream_clients",
			Help: "Connected WebSocket event-stream clients",
		}),
	}
}

// JobFailed records a failure with its disposition.
func (m *Metrics) JobFailed(deadLettered bool) {
	disposition := "requeued"
	if deadLettered {
		disposition = "dead_letter"
	}
	m.JobsFailed.WithLabelValues(disposition).Inc()
}

// LedgerEvent counts n appended events of the given type.
func (m *Metrics) LedgerEvent(eventType string, n int) {
	if n <= 0 {
		return
	}
	m.LedgerEvents.WithLabelValues(eventType).Add(float64(n))
}

// PlannerRequest records one planner invocation.
func (m *Metrics) PlannerRequest(runType, variant string) {
	m.PlannerRequests.WithLabelValues(runType, variant).Inc()
}

// PlannerFallback records an LLM failure recovered by the heuristic.
func (m *Metrics) PlannerFallback(runType string) {
	m.PlannerFallbacks.WithLabelValues(runType).Inc()
}

// CheckinSubmitted records a check-in by outcome.
func (m *Metrics) CheckinSubmitted(outcome string) {
	m.Checkins.WithLabelValues(outcome).Inc()
}

// SetHealthScore publishes the latest composite for a household.
func (m *Metrics) SetHealthScore(householdID string, score float64) {
	m.HealthScore.WithLabelValues(householdID).Set(score)
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route, method, status string, seconds float64) {
	m.HTTPDuration.WithLabelValues(route, method, status).Observe(seconds)
}
