package bdimetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initMemoryMetrics() {
	r.MemoryBytesAllocated = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "bdi_memory_bytes_allocated",
			Help: "Bytes currently allocated out of the memory arena",
		},
	)

	r.MemoryRegionsTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "bdi_memory_regions_total",
			Help: "Number of live memory regions",
		},
	)

	r.MemoryAllocOpsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "bdi_memory_alloc_ops_total",
			Help: "Total number of allocate/free calls by outcome",
		},
		[]string{"op", "status"},
	)
}
