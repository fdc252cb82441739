// Package bdimetrics exposes Prometheus instrumentation for the
// interpreter, the memory manager, and the constant-folding pass,
// modeled directly on the teacher's pkg/metrics Registry: one struct of
// pre-registered collectors built against a private *prometheus.Registry,
// with Record*/Set* methods instead of direct collector access.
package bdimetrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every BDI metric collector.
type Registry struct {
	// Interpreter metrics
	StepsExecutedTotal     *prometheus.CounterVec
	InterpreterRunDuration prometheus.Histogram
	HaltsTotal             *prometheus.CounterVec

	// Memory manager metrics
	MemoryBytesAllocated prometheus.Gauge
	MemoryRegionsTotal   prometheus.Gauge
	MemoryAllocOpsTotal  *prometheus.CounterVec

	// Constant-folding metrics
	NodesFoldedTotal     *prometheus.CounterVec
	FoldingPassDuration  prometheus.Histogram
	FoldingIterations    prometheus.Histogram

	// Graph IO metrics
	GraphEncodeDuration *prometheus.HistogramVec
	GraphDecodeErrors   *prometheus.CounterVec

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the process-global metrics registry.
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry(prometheus.NewRegistry())
	})
	return defaultRegistry
}

// NewRegistry creates a Registry with every collector registered against
// reg, or against a fresh prometheus.NewRegistry() if reg is nil. Passing a
// fresh *prometheus.Registry per test avoids duplicate registration panics
// across parallel tests.
func NewRegistry(reg *prometheus.Registry) *Registry {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	r := &Registry{registry: reg}
	r.initInterpreterMetrics()
	r.initMemoryMetrics()
	r.initFoldingMetrics()
	r.initGraphIOMetrics()
	return r
}

// PrometheusRegistry returns the underlying Prometheus registry, e.g. for
// wiring an HTTP /metrics handler.
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.registry
}
