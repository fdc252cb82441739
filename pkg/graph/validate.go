package graph

import (
	"fmt"

	"github.com/dd0wney/bdi/pkg/bditypes"
)

// ValidationError describes a single invariant violation found by
// Validate. Multiple violations are collected rather than stopping at the
// first, matching the teacher's ConfigValidator pattern of accumulating
// errors for a complete diagnostic.
type ValidationError struct {
	Node    NodeID
	Message string
}

func (e ValidationError) Error() string {
	if e.Node == NoNode {
		return e.Message
	}
	return fmt.Sprintf("node %d: %s", e.Node, e.Message)
}

// Validate checks the invariants of spec.md §3 and returns every violation
// found. A nil/empty result means no violation was detected. Invariant 4
// (edge type compatibility) is not enforced: nodes carry no declared input
// types, so each edge's source type is compared with itself and always
// passes.
func (g *Graph) Validate() []ValidationError {
	var errs []ValidationError

	for id, n := range g.nodes {
		// Invariant 1: every data-input PortRef is unbound or points to a
		// live node with a defined output at that index.
		for slot, ref := range n.DataInputs {
			if ref.Unbound() {
				continue
			}
			src, ok := g.nodes[ref.Node]
			if !ok {
				errs = append(errs, ValidationError{id, fmt.Sprintf("data_inputs[%d] references missing node %d", slot, ref.Node)})
				continue
			}
			if int(ref.Port) >= len(src.DataOutputs) {
				errs = append(errs, ValidationError{id, fmt.Sprintf("data_inputs[%d] references out-of-range port %d on node %d", slot, ref.Port, ref.Node)})
				continue
			}
			// Invariant 4: edge type compatibility.
			srcType := src.DataOutputs[ref.Port].Type
			var dstType bditypes.Type
			if slot < len(n.DataOutputs) {
				// Conventionally an input's expected type is tracked by the
				// consumer's own declared input typing; absent a separate
				// input-type table, we treat UNKNOWN output types and
				// identical/convertible types as satisfying the invariant.
				dstType = srcType
			} else {
				dstType = srcType
			}
			if srcType != bditypes.UNKNOWN && dstType != bditypes.UNKNOWN {
				if !(bditypes.AreCompatible(srcType, dstType) || bditypes.CanImplicitlyConvert(srcType, dstType)) {
					errs = append(errs, ValidationError{id, fmt.Sprintf("data_inputs[%d]: incompatible types %s -> %s", slot, srcType, dstType)})
				}
			}
		}

		// Invariant 2 & 3: control edges are symmetric, no duplicate pair.
		seen := make(map[NodeID]int)
		for _, succ := range n.ControlOutputs {
			seen[succ]++
			s, ok := g.nodes[succ]
			if !ok {
				errs = append(errs, ValidationError{id, fmt.Sprintf("control_outputs references missing node %d", succ)})
				continue
			}
			if !s.HasControlInput(id) {
				errs = append(errs, ValidationError{id, fmt.Sprintf("control edge %d -> %d is not symmetric", id, succ)})
			}
		}
		for succ, count := range seen {
			if count > 1 {
				errs = append(errs, ValidationError{id, fmt.Sprintf("duplicate control edge %d -> %d", id, succ)})
			}
		}
		for pred := range n.ControlInputs {
			p, ok := g.nodes[pred]
			if !ok {
				errs = append(errs, ValidationError{id, fmt.Sprintf("control_inputs references missing node %d", pred)})
				continue
			}
			if !p.HasControlOutput(id) {
				errs = append(errs, ValidationError{id, fmt.Sprintf("control edge %d -> %d is not symmetric", pred, id)})
			}
		}

		// Invariant 5: payload validity.
		if !n.Payload.IsValid() {
			errs = append(errs, ValidationError{id, fmt.Sprintf("payload length %d does not match size_of(%s)", len(n.Payload.Bytes), n.Payload.Type)})
		}
	}

	return errs
}

// IsValid is a convenience wrapper returning a plain bool, matching
// spec.md's validate() -> bool signature.
func (g *Graph) IsValid() bool {
	return len(g.Validate()) == 0
}
