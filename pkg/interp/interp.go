// Package interp implements the BDI interpreter (C9): the fetch/decode/
// execute loop over a graph.Graph, dispatching each node's op against
// pkg/variant values read from and written to pkg/execctx, performing
// memory operations through pkg/memory, and reporting failures through
// pkg/bdierrors. Modeled on the teacher's single-threaded, step-bounded
// query executor loop, generalized from a query plan to an arbitrary
// control-flow graph.
package interp

import (
	"time"

	"github.com/dd0wney/bdi/pkg/bdierrors"
	"github.com/dd0wney/bdi/pkg/bdilog"
	"github.com/dd0wney/bdi/pkg/bdimetrics"
	"github.com/dd0wney/bdi/pkg/execctx"
	"github.com/dd0wney/bdi/pkg/graph"
	"github.com/dd0wney/bdi/pkg/memory"
	"github.com/dd0wney/bdi/pkg/metadata"
	"github.com/dd0wney/bdi/pkg/variant"
)

// DefaultStepLimit is the safety bound on a single Run call's
// fetch/decode/execute steps, used when callers pass 0.
const DefaultStepLimit = 1_000_000

// Interpreter owns a memory arena and an execution context for exactly
// one graph execution at a time (spec.md §5: "not re-entrant"). Callers
// construct one Interpreter per logical execution session and may Reset
// it between runs to reuse the arena and context.
type Interpreter struct {
	mem       *memory.Manager
	ctx       *execctx.Context
	meta      *metadata.Store
	logger    bdilog.Logger
	metrics   *bdimetrics.Registry
	stepLimit uint64
}

// New creates an Interpreter with a memorySize-byte arena and the given
// step limit (DefaultStepLimit if 0). A nil logger defaults to a no-op
// logger; a nil metrics registry disables metrics recording.
func New(meta *metadata.Store, memorySize, stepLimit uint64, logger bdilog.Logger, metrics *bdimetrics.Registry) *Interpreter {
	if stepLimit == 0 {
		stepLimit = DefaultStepLimit
	}
	if logger == nil {
		logger = bdilog.NewNopLogger()
	}
	return &Interpreter{
		mem:       memory.New(memorySize),
		ctx:       execctx.New(),
		meta:      meta,
		logger:    logger,
		metrics:   metrics,
		stepLimit: stepLimit,
	}
}

// Memory exposes the interpreter's owned memory manager.
func (in *Interpreter) Memory() *memory.Manager { return in.mem }

// Context exposes the interpreter's owned execution context.
func (in *Interpreter) Context() *execctx.Context { return in.ctx }

// Reset clears the execution context (port values and call stack) for
// reuse across runs. The memory arena is NOT reset: spec.md §5 states
// allocations are not released on halt.
func (in *Interpreter) Reset() {
	in.ctx.Clear()
}

// Run drives the fetch/decode/execute loop from entry until a HALT_OK
// (current node id reaches graph.NoNode), a HALT_ERR (execution failure
// or missing node), or the step limit is exceeded, per spec.md §4.8.
func (in *Interpreter) Run(g *graph.Graph, entry graph.NodeID) error {
	start := time.Now()
	current := entry

	for step := uint64(0); step < in.stepLimit; step++ {
		if current == graph.NoNode {
			in.recordHalt("end", start)
			return nil
		}
		node, ok := g.Get(current)
		if !ok {
			err := bdierrors.New("run", bdierrors.Structural).Detail("node %d not found", current).Err()
			in.recordHalt("error", start)
			return err
		}

		if in.metrics != nil {
			in.metrics.RecordStep(node.Op.String())
		}
		in.logger.Debug("step", bdilog.NodeID(uint64(current)), bdilog.Op(node.Op.String()))

		if err := in.execute(g, node); err != nil {
			in.recordHalt("error", start)
			return err
		}

		next, err := in.nextOf(g, node)
		if err != nil {
			in.recordHalt("error", start)
			return err
		}
		current = next
	}

	err := bdierrors.StepLimitExceeded(in.stepLimit)
	in.recordHalt("step_limit", start)
	return err
}

func (in *Interpreter) recordHalt(reason string, start time.Time) {
	if in.metrics == nil {
		return
	}
	in.metrics.RecordHalt(reason)
	in.metrics.RecordRun(time.Since(start))
}

// operand resolves node's data input idx to the variant it currently
// carries, via the execution context.
func (in *Interpreter) operand(node *graph.Node, idx int) (variant.Variant, error) {
	if idx >= len(node.DataInputs) {
		return variant.Monostate, bdierrors.New("operand", bdierrors.Structural).
			Detail("node %d: missing data input %d", node.ID, idx).Err()
	}
	ref := node.DataInputs[idx]
	if ref.Unbound() {
		return variant.Monostate, bdierrors.New("operand", bdierrors.Structural).
			Detail("node %d: data input %d is unbound", node.ID, idx).Err()
	}
	v, ok := in.ctx.Get(execctx.PortRef{Node: uint64(ref.Node), Port: ref.Port})
	if !ok {
		return variant.Monostate, bdierrors.New("operand", bdierrors.Structural).
			Detail("node %d: port (%d,%d) has no recorded value", node.ID, ref.Node, ref.Port).Err()
	}
	return v, nil
}

// setOutput records v as the value produced at node's output slot.
func (in *Interpreter) setOutput(node *graph.Node, slot uint32, v variant.Variant) {
	in.ctx.Set(execctx.PortRef{Node: uint64(node.ID), Port: slot}, v)
}
