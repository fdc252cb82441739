package optimize

import (
	"testing"

	"github.com/dd0wney/bdi/pkg/bditypes"
	"github.com/dd0wney/bdi/pkg/graph"
	"github.com/dd0wney/bdi/pkg/variant"
)

func constNode(g *graph.Graph, t bditypes.Type, v variant.Variant) graph.NodeID {
	id := g.AddNode(graph.OpNop)
	n, _ := g.GetMutable(id)
	n.DataOutputs = append(n.DataOutputs, graph.PortInfo{Type: t})
	n.Payload = variant.VariantToPayload(v)
	return id
}

func TestFoldReplacesConstantAddWithConstantNode(t *testing.T) {
	g := graph.New("t")
	a := constNode(g, bditypes.INT32, variant.FromI32(2))
	b := constNode(g, bditypes.INT32, variant.FromI32(3))

	add := g.AddNode(graph.OpAdd)
	addN, _ := g.GetMutable(add)
	addN.DataOutputs = append(addN.DataOutputs, graph.PortInfo{Type: bditypes.INT32})
	g.ConnectData(a, 0, add, 0)
	g.ConnectData(b, 0, add, 1)

	// a consumer downstream of add to verify data rewiring.
	sink := g.AddNode(graph.OpPrint)
	g.ConnectData(add, 0, sink, 0)

	res := Fold(g)
	if res.NodesFolded != 1 {
		t.Fatalf("expected 1 node folded, got %d", res.NodesFolded)
	}
	if _, ok := g.Get(add); ok {
		t.Fatal("expected ADD node to be removed after folding")
	}

	sinkNode, _ := g.Get(sink)
	producer, ok := g.Get(sinkNode.DataInputs[0].Node)
	if !ok {
		t.Fatal("expected sink's input to be rewired to a live node")
	}
	if producer.Op != graph.OpNop || producer.Payload.Type != bditypes.INT32 {
		t.Fatalf("expected sink rewired to a constant NOP, got op=%v", producer.Op)
	}
	got, _ := variant.ConvertTo[int32](variant.PayloadToVariant(producer.Payload))
	if got != 5 {
		t.Fatalf("expected folded constant 5, got %d", got)
	}
}

func TestFoldRewiresControlEdges(t *testing.T) {
	g := graph.New("t")
	a := constNode(g, bditypes.INT32, variant.FromI32(10))
	b := constNode(g, bditypes.INT32, variant.FromI32(4))

	sub := g.AddNode(graph.OpSub)
	subN, _ := g.GetMutable(sub)
	subN.DataOutputs = append(subN.DataOutputs, graph.PortInfo{Type: bditypes.INT32})
	g.ConnectData(a, 0, sub, 0)
	g.ConnectData(b, 0, sub, 1)

	pred := g.AddNode(graph.OpNop)
	succ := g.AddNode(graph.OpEnd)
	g.ConnectControl(pred, sub)
	g.ConnectControl(sub, succ)

	Fold(g)

	predNode, _ := g.Get(pred)
	if len(predNode.ControlOutputs) != 1 {
		t.Fatalf("expected pred to have exactly one control successor, got %d", len(predNode.ControlOutputs))
	}
	newConst, ok := g.Get(predNode.ControlOutputs[0])
	if !ok || newConst.Op != graph.OpNop {
		t.Fatal("expected pred's control successor rewired to the new constant node")
	}
	if !newConst.HasControlOutput(succ) {
		t.Fatal("expected the new constant node to route control to succ")
	}
}

func TestFoldLeavesNonConstantInputsAlone(t *testing.T) {
	g := graph.New("t")
	a := constNode(g, bditypes.INT32, variant.FromI32(2))
	param := g.AddNode(graph.OpReadPort) // not a constant producer
	paramN, _ := g.GetMutable(param)
	paramN.DataOutputs = append(paramN.DataOutputs, graph.PortInfo{Type: bditypes.INT32})

	add := g.AddNode(graph.OpAdd)
	addN, _ := g.GetMutable(add)
	addN.DataOutputs = append(addN.DataOutputs, graph.PortInfo{Type: bditypes.INT32})
	g.ConnectData(a, 0, add, 0)
	g.ConnectData(param, 0, add, 1)

	res := Fold(g)
	if res.NodesFolded != 0 {
		t.Fatalf("expected 0 nodes folded with a non-constant operand, got %d", res.NodesFolded)
	}
	if _, ok := g.Get(add); !ok {
		t.Fatal("expected ADD node to survive unfolded")
	}
}

func TestFoldSkipsDivideByZeroWithoutMutating(t *testing.T) {
	g := graph.New("t")
	a := constNode(g, bditypes.INT32, variant.FromI32(10))
	b := constNode(g, bditypes.INT32, variant.FromI32(0))

	div := g.AddNode(graph.OpDiv)
	divN, _ := g.GetMutable(div)
	divN.DataOutputs = append(divN.DataOutputs, graph.PortInfo{Type: bditypes.INT32})
	g.ConnectData(a, 0, div, 0)
	g.ConnectData(b, 0, div, 1)

	res := Fold(g)
	if res.NodesFolded != 0 {
		t.Fatalf("expected divide-by-zero to be left unfolded, got %d folds", res.NodesFolded)
	}
	if _, ok := g.Get(div); !ok {
		t.Fatal("expected DIV node to survive when evaluation fails")
	}
}

func TestFoldChainsThroughFoldedConstant(t *testing.T) {
	g := graph.New("t")
	a := constNode(g, bditypes.INT32, variant.FromI32(1))
	b := constNode(g, bditypes.INT32, variant.FromI32(2))
	c := constNode(g, bditypes.INT32, variant.FromI32(3))

	add1 := g.AddNode(graph.OpAdd)
	add1N, _ := g.GetMutable(add1)
	add1N.DataOutputs = append(add1N.DataOutputs, graph.PortInfo{Type: bditypes.INT32})
	g.ConnectData(a, 0, add1, 0)
	g.ConnectData(b, 0, add1, 1)

	add2 := g.AddNode(graph.OpAdd)
	add2N, _ := g.GetMutable(add2)
	add2N.DataOutputs = append(add2N.DataOutputs, graph.PortInfo{Type: bditypes.INT32})
	g.ConnectData(add1, 0, add2, 0)
	g.ConnectData(c, 0, add2, 1)

	res := Fold(g)
	if res.NodesFolded != 2 {
		t.Fatalf("expected both ADD nodes to fold, got %d", res.NodesFolded)
	}

	final, ok := g.Get(add2)
	if ok {
		t.Fatalf("expected add2 itself to be replaced, found op=%v", final.Op)
	}
}

func TestFoldUnaryNeg(t *testing.T) {
	g := graph.New("t")
	a := constNode(g, bditypes.INT32, variant.FromI32(7))
	neg := g.AddNode(graph.OpNeg)
	negN, _ := g.GetMutable(neg)
	negN.DataOutputs = append(negN.DataOutputs, graph.PortInfo{Type: bditypes.INT32})
	g.ConnectData(a, 0, neg, 0)

	res := Fold(g)
	if res.NodesFolded != 1 {
		t.Fatalf("expected NEG to fold, got %d", res.NodesFolded)
	}
}

func TestFoldConversionIntToFloat(t *testing.T) {
	g := graph.New("t")
	a := constNode(g, bditypes.INT32, variant.FromI32(4))
	conv := g.AddNode(graph.OpIntToFloat)
	convN, _ := g.GetMutable(conv)
	convN.DataOutputs = append(convN.DataOutputs, graph.PortInfo{Type: bditypes.FLOAT64})
	g.ConnectData(a, 0, conv, 0)

	res := Fold(g)
	if res.NodesFolded != 1 {
		t.Fatalf("expected INT_TO_FLOAT to fold, got %d", res.NodesFolded)
	}
}
