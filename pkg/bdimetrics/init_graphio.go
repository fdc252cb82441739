package bdimetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initGraphIOMetrics() {
	r.GraphEncodeDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bdi_graphio_encode_duration_seconds",
			Help:    "Duration of encoding a graph to the binary wire format",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"version"},
	)

	r.GraphDecodeErrors = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "bdi_graphio_decode_errors_total",
			Help: "Total number of graph decode failures by cause",
		},
		[]string{"cause"},
	)
}
