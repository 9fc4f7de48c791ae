package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the procedure module.
type Metrics struct {
	// Transitions by operation and outcome
	Transitions *prometheus.CounterVec

	// Transition latency by operation, including the transaction
	TransitionLatency *prometheus.HistogramVec

	// Registrations by initial flow status
	Registrations *prometheus.CounterVec

	// Allocation conflicts retried during registration
	AllocationRetries prometheus.Counter

	// Best-effort side effects that failed after commit, by kind
	SideEffectFailures *prometheus.CounterVec

	// Flows released from PENDING_SCHEDULE by the batch job
	PendingReleased prometheus.Counter

	// Inbox query latency by kind
	InboxLatency *prometheus.HistogramVec
}

// New creates a new Metrics instance with all procedure metrics registered.
func New() *Metrics {
	return &Metrics{
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tramite_flow_transitions_total",
			Help: "Flow transitions by operation and result",
		}, []string{"operation", "result"}),

		TransitionLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tramite_flow_transition_duration_seconds",
			Help:    "Duration of flow transitions including the transaction",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),

		Registrations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tramite_procedure_registrations_total",
			Help: "Procedures registered by initial status and channel",
		}, []string{"status", "channel"}), // channel: "desk", "virtual"

		AllocationRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tramite_code_allocation_retries_total",
			Help: "Registrations retried after a code allocation conflict",
		}),

		SideEffectFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tramite_side_effect_failures_total",
			Help: "Post-commit side effects that failed, by kind",
		}, []string{"kind"}), // kind: "notify", "upload", "delete_blob"

		PendingReleased: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tramite_pending_flows_released_total",
			Help: "Flows moved from PENDING_SCHEDULE to SENT by the batch job",
		}),

		InboxLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tramite_inbox_query_duration_seconds",
			Help:    "Duration of inbox queries by kind",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"kind"}),
	}
}

// IncrementTransition records a transition outcome.
func (m *Metrics) IncrementTransition(operation, result string) {
	if m != nil {
		m.Transitions.WithLabelValues(operation, result).Inc()
	}
}

// ObserveTransitionLatency records how long a transition took.
func (m *Metrics) ObserveTransitionLatency(operation string, d time.Duration) {
	if m != nil {
		m.TransitionLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}

// IncrementRegistration records one created procedure.
func (m *Metrics) IncrementRegistration(status, channel string) {
	if m != nil {
		m.Registrations.WithLabelValues(status, channel).Inc()
	}
}

func (m *Metrics) IncrementAllocationRetry() {
	if m != nil {
		m.AllocationRetries.Inc()
	}
}

func (m *Metrics) IncrementSideEffectFailure(kind string) {
	if m != nil {
		m.SideEffectFailures.WithLabelValues(kind).Inc()
	}
}

// AddPendingReleased counts flows released by one batch run.
func (m *Metrics) AddPendingReleased(n int) {
	if m != nil && n > 0 {
		m.PendingReleased.Add(float64(n))
	}
}

// ObserveInboxLatency records one inbox query.
func (m *Metrics) ObserveInboxLatency(kind string, d time.Duration) {
	if m != nil {
		m.InboxLatency.WithLabelValues(kind).Observe(d.Seconds())
	}
}
