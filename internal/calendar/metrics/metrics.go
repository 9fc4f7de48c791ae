package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"tramite/internal/calendar/models"
)

// Metrics provides observability for schedule classification.
type Metrics struct {
	Classifications *prometheus.CounterVec
}

// New creates a new Metrics instance with all calendar metrics registered.
func New() *Metrics {
	return &Metrics{
		Classifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tramite_schedule_classifications_total",
			Help: "Schedule classifications by result",
		}, []string{"result"}),
	}
}

// IncrementClassification records one classification outcome. Safe on nil.
func (m *Metrics) IncrementClassification(r models.Result) {
	if m == nil {
		return
	}
	m.Classifications.WithLabelValues(string(r)).Inc()
}
