package metrics

import "github.com/prometheus/client_golang/prometheus"

// Index operation statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Indexing Prometheus metrics.
var (
	IndexOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geodex",
			Name:      "index_operations_total",
			Help:      "Index writes by entity kind and outcome",
		},
		[]string{"kind", "status"},
	)

	ProjectionDegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geodex",
			Name:      "projection_degraded_total",
			Help:      "Projected fields that fell back to their absent or zero value after a lookup failure",
		},
		[]string{"field"},
	)
)

func init() {
	prometheus.MustRegister(IndexOperationsTotal)
	prometheus.MustRegister(ProjectionDegradedTotal)
}

// Indexing records index outcomes and degraded projections. The zero
// value is ready to use.
type Indexing struct{}

// IndexOperation counts one index write for kind.
func (Indexing) IndexOperation(kind string, err error) {
	status := StatusOK
	if err != nil {
		status = StatusFailed
	}
	IndexOperationsTotal.WithLabelValues(kind, status).Inc()
}

// ProjectionDegraded counts a projected field that fell back to its default.
func (Indexing) ProjectionDegraded(field string) {
	ProjectionDegradedTotal.WithLabelValues(field).Inc()
}
