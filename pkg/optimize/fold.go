// Package optimize implements BDI's constant-folding pass (C10): a
// fixed-point worklist rewrite over a graph.Graph that evaluates
// side-effect-free nodes with constant inputs and replaces them with
// constant-payload NOP nodes, rewiring their data consumers and control
// edges. Modeled on the teacher's query planner rewrite passes (small,
// pure graph-to-graph transforms applied to a fixed point), reusing
// pkg/interp's pure-op evaluator so the interpreter and the folder never
// disagree about a computed value.
package optimize

import (
	"sort"
	"time"

	"github.com/dd0wney/bdi/pkg/bdimetrics"
	"github.com/dd0wney/bdi/pkg/bditypes"
	"github.com/dd0wney/bdi/pkg/graph"
	"github.com/dd0wney/bdi/pkg/interp"
	"github.com/dd0wney/bdi/pkg/variant"
)

// MaxIterations bounds the outer fixed-point loop, per spec.md §4.10.
const MaxIterations = 10

// binaryFoldable, unaryFoldable, and conversionFoldable are exactly the
// pure, fold-safe op sets named in spec.md §4.10. Shifts, rotates, and
// bit-count ops are deliberately excluded: the spec's fold-safe set does
// not include them.
var binaryFoldable = map[graph.OpCode]bool{
	graph.OpAdd: true, graph.OpSub: true, graph.OpMul: true, graph.OpDiv: true, graph.OpMod: true,
	graph.OpAnd: true, graph.OpOr: true, graph.OpXor: true,
	graph.OpEQ: true, graph.OpNE: true, graph.OpLT: true, graph.OpLE: true, graph.OpGT: true, graph.OpGE: true,
	graph.OpLAnd: true, graph.OpLOr: true, graph.OpLXor: true,
}

var unaryFoldable = map[graph.OpCode]bool{
	graph.OpNeg: true, graph.OpNot: true, graph.OpLNot: true,
}

var conversionFoldable = map[graph.OpCode]bool{
	graph.OpTrunc: true, graph.OpExtendSign: true, graph.OpExtendZero: true,
	graph.OpIntToFloat: true, graph.OpFloatToInt: true,
}

// Result reports what a Fold call did, for callers (e.g. the CLI's fold
// subcommand) that want to report progress.
type Result struct {
	Iterations  int
	NodesFolded int
}

// Fold runs the fixed-point constant-folding pass over g in place.
// Evaluation failure (a type error, divide-by-zero, etc.) is treated as
// "not foldable, leave the node alone" per spec.md §7 — folding never
// mutates a node it cannot fully evaluate.
func Fold(g *graph.Graph) Result {
	return fold(g, nil)
}

// FoldWithMetrics is Fold plus C13 observability (SPEC_FULL.md §2): per-op
// NodesFoldedTotal counts and a FoldingPassDuration/FoldingIterations
// observation for the whole call, recorded to reg. Used by "bdi fold" so
// the metrics the registry already exposes are actually populated; reg may
// be nil, in which case this behaves exactly like Fold.
func FoldWithMetrics(g *graph.Graph, reg *bdimetrics.Registry) Result {
	start := time.Now()
	res := fold(g, reg)
	if reg != nil {
		reg.RecordFoldingPass(time.Since(start), res.Iterations)
	}
	return res
}

func fold(g *graph.Graph, reg *bdimetrics.Registry) Result {
	var res Result
	for res.Iterations = 0; res.Iterations < MaxIterations; res.Iterations++ {
		n := foldOnePass(g, reg)
		res.NodesFolded += n
		if n == 0 {
			break
		}
	}
	return res
}

func foldOnePass(g *graph.Graph, reg *bdimetrics.Registry) int {
	ids := g.Nodes()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	folded := 0
	for _, id := range ids {
		node, ok := g.Get(id)
		if !ok {
			continue // removed earlier in this same pass
		}
		k, ok := tryFold(g, node)
		if !ok {
			continue
		}
		if reg != nil {
			reg.RecordFold(node.Op.String())
		}
		rewrite(g, node, k)
		folded++
	}
	return folded
}

func tryFold(g *graph.Graph, node *graph.Node) (variant.Variant, bool) {
	switch {
	case binaryFoldable[node.Op]:
		return tryFoldBinary(g, node)
	case unaryFoldable[node.Op]:
		return tryFoldUnary(g, node)
	case conversionFoldable[node.Op]:
		return tryFoldConversion(g, node)
	default:
		return variant.Monostate, false
	}
}

func tryFoldBinary(g *graph.Graph, node *graph.Node) (variant.Variant, bool) {
	lhs, ok := constantInput(g, node, 0)
	if !ok {
		return variant.Monostate, false
	}
	rhs, ok := constantInput(g, node, 1)
	if !ok {
		return variant.Monostate, false
	}
	k, err := interp.EvalBinary(node.Op, lhs, rhs)
	if err != nil {
		return variant.Monostate, false
	}
	return k, true
}

func tryFoldUnary(g *graph.Graph, node *graph.Node) (variant.Variant, bool) {
	v, ok := constantInput(g, node, 0)
	if !ok {
		return variant.Monostate, false
	}
	k, err := interp.EvalUnary(node.Op, v)
	if err != nil {
		return variant.Monostate, false
	}
	return k, true
}

func tryFoldConversion(g *graph.Graph, node *graph.Node) (variant.Variant, bool) {
	if len(node.DataOutputs) == 0 {
		return variant.Monostate, false
	}
	v, ok := constantInput(g, node, 0)
	if !ok {
		return variant.Monostate, false
	}
	k, err := interp.EvalConversion(node.Op, v, node.DataOutputs[0].Type)
	if err != nil {
		return variant.Monostate, false
	}
	return k, true
}

// constantInput resolves node's data input idx to a constant value. A
// producer counts as constant iff it is a NOP node carrying a non-VOID
// payload at output slot 0 — exactly the shape every fold rewrite (and
// every builder-level literal node) produces. A single check serves both
// of spec.md §4.10's resolution cases, "constant-payload NOP output" and
// "previously folded output", because rewrite immediately repoints every
// consumer at the new constant node (see rewrite's step 2): later lookups
// within the same pass already see the replacement directly, so no
// separate pass-local known_constants map is needed.
func constantInput(g *graph.Graph, node *graph.Node, idx int) (variant.Variant, bool) {
	if idx >= len(node.DataInputs) {
		return variant.Monostate, false
	}
	ref := node.DataInputs[idx]
	if ref.Unbound() {
		return variant.Monostate, false
	}
	producer, ok := g.Get(ref.Node)
	if !ok {
		return variant.Monostate, false
	}
	if producer.Op != graph.OpNop || ref.Port != 0 {
		return variant.Monostate, false
	}
	if producer.Payload.Type == bditypes.VOID {
		return variant.Monostate, false
	}
	return variant.PayloadToVariant(producer.Payload), true
}

// rewrite replaces n, which has just evaluated to k, with a fresh
// constant-payload NOP node, per spec.md §4.10's five-step rewrite:
// create the constant node; repoint every data consumer of n's output 0
// at it; splice it into n's control predecessors/successors; remove n.
func rewrite(g *graph.Graph, n *graph.Node, k variant.Variant) {
	c := g.AddNode(graph.OpNop)
	cNode, _ := g.GetMutable(c)
	cNode.Payload = variant.VariantToPayload(k)
	cNode.DataOutputs = append(cNode.DataOutputs, graph.PortInfo{Type: k.Tag})

	for _, consumer := range g.Consumers(n.ID, 0) {
		g.ConnectData(c, 0, consumer.Node, consumer.Port)
	}

	for _, pred := range g.ControlPredecessors(n.ID) {
		g.ConnectControl(pred, c)
		g.DisconnectControl(pred, n.ID)
	}
	for _, succ := range g.ControlSuccessors(n.ID) {
		g.ConnectControl(c, succ)
		g.DisconnectControl(n.ID, succ)
	}

	g.RemoveNode(n.ID)
}
