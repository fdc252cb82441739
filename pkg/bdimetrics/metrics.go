package bdimetrics

import "time"

// RecordStep records a single interpreter step for op.
func (r *Registry) RecordStep(op string) {
	r.StepsExecutedTotal.WithLabelValues(op).Inc()
}

// RecordRun records the wall-clock duration of a completed Run call.
func (r *Registry) RecordRun(duration time.Duration) {
	r.InterpreterRunDuration.Observe(duration.Seconds())
}

// RecordHalt records why a Run call stopped ("end", "error", "step_limit").
func (r *Registry) RecordHalt(reason string) {
	r.HaltsTotal.WithLabelValues(reason).Inc()
}

// SetMemoryUsage updates the current arena allocation and region gauges.
func (r *Registry) SetMemoryUsage(bytesAllocated uint64, regions int) {
	r.MemoryBytesAllocated.Set(float64(bytesAllocated))
	r.MemoryRegionsTotal.Set(float64(regions))
}

// RecordMemoryOp records an allocate/free call and its outcome.
func (r *Registry) RecordMemoryOp(op, status string) {
	r.MemoryAllocOpsTotal.WithLabelValues(op, status).Inc()
}

// RecordFold records a single node folded to a constant during an
// optimization pass.
func (r *Registry) RecordFold(op string) {
	r.NodesFoldedTotal.WithLabelValues(op).Inc()
}

// RecordFoldingPass records a completed folding pass's duration and the
// number of worklist iterations it took to converge.
func (r *Registry) RecordFoldingPass(duration time.Duration, iterations int) {
	r.FoldingPassDuration.Observe(duration.Seconds())
	r.FoldingIterations.Observe(float64(iterations))
}

// RecordGraphEncode records the duration of encoding a graph at the given
// wire format version.
func (r *Registry) RecordGraphEncode(version string, duration time.Duration) {
	r.GraphEncodeDuration.WithLabelValues(version).Observe(duration.Seconds())
}

// RecordGraphDecodeError records a decode failure by cause ("bad_magic",
// "bad_version", "short_buffer", etc.).
func (r *Registry) RecordGraphDecodeError(cause string) {
	r.GraphDecodeErrors.WithLabelValues(cause).Inc()
}
