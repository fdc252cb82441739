package bdimetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initFoldingMetrics() {
	r.NodesFoldedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "bdi_folding_nodes_folded_total",
			Help: "Total number of nodes replaced with constants by the folding pass",
		},
		[]string{"op"},
	)

	r.FoldingPassDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bdi_folding_pass_duration_seconds",
			Help:    "Wall-clock duration of a full constant-folding run",
			Buckets: prometheus.DefBuckets,
		},
	)

	r.FoldingIterations = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bdi_folding_iterations",
			Help:    "Number of worklist iterations consumed by a folding run",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		},
	)
}
