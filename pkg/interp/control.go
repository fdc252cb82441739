package interp

import (
	"github.com/dd0wney/bdi/pkg/bdierrors"
	"github.com/dd0wney/bdi/pkg/bdilog"
	"github.com/dd0wney/bdi/pkg/graph"
	"github.com/dd0wney/bdi/pkg/variant"
)

// nextOf computes the successor node id for node, per spec.md §4.8's
// next_of routing table. Control-flow decisions (BRANCH_COND, CALL,
// RETURN) live here rather than in execute, since routing depends on
// the node's control_outputs and the call stack, not on its data
// outputs.
func (in *Interpreter) nextOf(g *graph.Graph, node *graph.Node) (graph.NodeID, error) {
	switch node.Op {
	case graph.OpEnd:
		return graph.NoNode, nil

	case graph.OpJump:
		if len(node.ControlOutputs) > 0 {
			return node.ControlOutputs[0], nil
		}
		return graph.NoNode, nil

	case graph.OpBranchCond:
		return in.nextBranchCond(node)

	case graph.OpCall:
		if len(node.ControlOutputs) == 0 {
			return graph.NoNode, nil
		}
		if len(node.ControlOutputs) > 1 {
			in.ctx.PushCall(uint64(node.ControlOutputs[1]))
		}
		return node.ControlOutputs[0], nil

	case graph.OpReturn:
		target, ok := in.ctx.PopCall()
		if !ok {
			return graph.NoNode, nil
		}
		return graph.NodeID(target), nil

	default:
		switch len(node.ControlOutputs) {
		case 0:
			return graph.NoNode, nil
		case 1:
			return node.ControlOutputs[0], nil
		default:
			// Ambiguous fan-out for a non-branching op: spec.md §4.8 says
			// to halt with a warning rather than guess a successor.
			in.logger.Warn("ambiguous control fan-out, halting",
				bdilog.NodeID(uint64(node.ID)), bdilog.Op(node.Op.String()),
				bdilog.Count(len(node.ControlOutputs)))
			return graph.NoNode, nil
		}
	}
}

func (in *Interpreter) nextBranchCond(node *graph.Node) (graph.NodeID, error) {
	if len(node.ControlOutputs) == 0 {
		return graph.NoNode, nil
	}
	if len(node.ControlOutputs) == 1 {
		return node.ControlOutputs[0], nil
	}

	cond, err := in.operand(node, 0)
	if err != nil {
		return graph.NoNode, err
	}
	b, ok := variant.ConvertTo[bool](cond)
	if !ok {
		return graph.NoNode, bdierrors.New("BRANCH_COND", bdierrors.TypeErr).
			Detail("node %d: input 0 is not convertible to BOOL", node.ID).Err()
	}
	if b {
		return node.ControlOutputs[0], nil
	}
	return node.ControlOutputs[1], nil
}
