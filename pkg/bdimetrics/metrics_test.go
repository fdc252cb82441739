package bdimetrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(prometheus.NewRegistry())
}

func TestNewRegistryInitializesAllCollectors(t *testing.T) {
	r := newTestRegistry(t)

	if r.StepsExecutedTotal == nil || r.InterpreterRunDuration == nil || r.HaltsTotal == nil {
		t.Fatal("interpreter metrics not initialized")
	}
	if r.MemoryBytesAllocated == nil || r.MemoryRegionsTotal == nil || r.MemoryAllocOpsTotal == nil {
		t.Fatal("memory metrics not initialized")
	}
	if r.NodesFoldedTotal == nil || r.FoldingPassDuration == nil || r.FoldingIterations == nil {
		t.Fatal("folding metrics not initialized")
	}
	if r.GraphEncodeDuration == nil || r.GraphDecodeErrors == nil {
		t.Fatal("graph io metrics not initialized")
	}
	if r.PrometheusRegistry() == nil {
		t.Fatal("prometheus registry not initialized")
	}
}

func TestDefaultRegistryIsSingleton(t *testing.T) {
	r1 := DefaultRegistry()
	r2 := DefaultRegistry()
	if r1 != r2 {
		t.Fatal("expected DefaultRegistry to return the same instance")
	}
}

func TestRecordStepIncrementsByOp(t *testing.T) {
	r := newTestRegistry(t)
	r.RecordStep("ADD")
	r.RecordStep("ADD")
	r.RecordStep("SUB")

	counter, err := r.StepsExecutedTotal.GetMetricWithLabelValues("ADD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if metric.Counter.GetValue() != 2 {
		t.Fatalf("expected ADD counted twice, got %v", metric.Counter.GetValue())
	}
}

func TestRecordHaltByReason(t *testing.T) {
	r := newTestRegistry(t)
	r.RecordHalt("step_limit")

	counter, err := r.HaltsTotal.GetMetricWithLabelValues("step_limit")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if metric.Counter.GetValue() != 1 {
		t.Fatalf("expected step_limit halt counted once, got %v", metric.Counter.GetValue())
	}
}

func TestSetMemoryUsageUpdatesGauges(t *testing.T) {
	r := newTestRegistry(t)
	r.SetMemoryUsage(4096, 3)

	var metric dto.Metric
	if err := r.MemoryBytesAllocated.Write(&metric); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if metric.Gauge.GetValue() != 4096 {
		t.Fatalf("expected 4096 bytes allocated, got %v", metric.Gauge.GetValue())
	}

	var regionsMetric dto.Metric
	if err := r.MemoryRegionsTotal.Write(&regionsMetric); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if regionsMetric.Gauge.GetValue() != 3 {
		t.Fatalf("expected 3 regions, got %v", regionsMetric.Gauge.GetValue())
	}
}

func TestRecordFoldingPass(t *testing.T) {
	r := newTestRegistry(t)
	r.RecordFold("ADD")
	r.RecordFoldingPass(5*time.Millisecond, 3)

	counter, err := r.NodesFoldedTotal.GetMetricWithLabelValues("ADD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if metric.Counter.GetValue() != 1 {
		t.Fatalf("expected ADD folded once, got %v", metric.Counter.GetValue())
	}
}

func TestRecordGraphDecodeError(t *testing.T) {
	r := newTestRegistry(t)
	r.RecordGraphDecodeError("bad_magic")

	counter, err := r.GraphDecodeErrors.GetMetricWithLabelValues("bad_magic")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if metric.Counter.GetValue() != 1 {
		t.Fatalf("expected bad_magic counted once, got %v", metric.Counter.GetValue())
	}
}
