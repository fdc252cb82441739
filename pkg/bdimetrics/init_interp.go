package bdimetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initInterpreterMetrics() {
	r.StepsExecutedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "bdi_interpreter_steps_executed_total",
			Help: "Total number of fetch/decode/execute steps run by the interpreter",
		},
		[]string{"op"},
	)

	r.InterpreterRunDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bdi_interpreter_run_duration_seconds",
			Help:    "Wall-clock duration of a single Run call",
			Buckets: prometheus.DefBuckets,
		},
	)

	r.HaltsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "bdi_interpreter_halts_total",
			Help: "Total number of interpreter halts by reason",
		},
		[]string{"reason"},
	)
}
