package graph

import (
	"testing"

	"github.com/dd0wney/bdi/pkg/bditypes"
)

func TestAddNodeAssignsIncreasingIDs(t *testing.T) {
	g := New("t")
	a := g.AddNode(OpNop)
	b := g.AddNode(OpNop)
	if a == NoNode || b == NoNode {
		t.Fatal("expected nonzero node ids")
	}
	if b <= a {
		t.Fatalf("expected b > a, got a=%d b=%d", a, b)
	}
	if g.NextID() <= b {
		t.Fatalf("expected NextID > max existing id, got %d", g.NextID())
	}
}

func TestConnectDataGrowsAndOverwrites(t *testing.T) {
	g := New("t")
	src := g.AddNode(OpNop)
	srcNode, _ := g.GetMutable(src)
	srcNode.DataOutputs = append(srcNode.DataOutputs, PortInfo{Type: bditypes.INT32})

	dst := g.AddNode(OpAdd)
	if !g.ConnectData(src, 0, dst, 1) {
		t.Fatal("expected ConnectData to succeed")
	}
	dstNode, _ := g.Get(dst)
	if len(dstNode.DataInputs) != 2 {
		t.Fatalf("expected data_inputs grown to length 2, got %d", len(dstNode.DataInputs))
	}
	if dstNode.DataInputs[1].Node != src {
		t.Fatalf("expected slot 1 bound to src, got %+v", dstNode.DataInputs[1])
	}

	other := g.AddNode(OpNop)
	otherNode, _ := g.GetMutable(other)
	otherNode.DataOutputs = append(otherNode.DataOutputs, PortInfo{Type: bditypes.INT32})
	if !g.ConnectData(other, 0, dst, 1) {
		t.Fatal("expected overwrite ConnectData to succeed")
	}
	if dstNode.DataInputs[1].Node != other {
		t.Fatalf("expected slot 1 rebound to other, got %+v", dstNode.DataInputs[1])
	}
}

func TestConnectDataRejectsOutOfRangeSourcePort(t *testing.T) {
	g := New("t")
	src := g.AddNode(OpNop) // no outputs declared
	dst := g.AddNode(OpAdd)
	if g.ConnectData(src, 0, dst, 0) {
		t.Fatal("expected ConnectData to fail for out-of-range src port")
	}
}

func TestConnectControlIsSymmetricAndIdempotent(t *testing.T) {
	g := New("t")
	a := g.AddNode(OpJump)
	b := g.AddNode(OpEnd)

	if !g.ConnectControl(a, b) {
		t.Fatal("expected ConnectControl to succeed")
	}
	aNode, _ := g.Get(a)
	bNode, _ := g.Get(b)
	if !aNode.HasControlOutput(b) || !bNode.HasControlInput(a) {
		t.Fatal("expected symmetric control edge")
	}

	// Idempotent: connecting again should not duplicate.
	if !g.ConnectControl(a, b) {
		t.Fatal("expected repeated ConnectControl to succeed")
	}
	if len(aNode.ControlOutputs) != 1 {
		t.Fatalf("expected exactly one control edge, got %d", len(aNode.ControlOutputs))
	}
}

func TestRemoveNodeStripsAllReferences(t *testing.T) {
	g := New("t")
	a := g.AddNode(OpNop)
	aNode, _ := g.GetMutable(a)
	aNode.DataOutputs = append(aNode.DataOutputs, PortInfo{Type: bditypes.INT32})

	b := g.AddNode(OpAdd)
	g.ConnectData(a, 0, b, 0)
	g.ConnectControl(a, b)

	if !g.RemoveNode(a) {
		t.Fatal("expected RemoveNode to succeed")
	}
	if _, ok := g.Get(a); ok {
		t.Fatal("expected node a to be gone")
	}
	bNode, _ := g.Get(b)
	if !bNode.DataInputs[0].Unbound() {
		t.Fatalf("expected b's data input to be stripped, got %+v", bNode.DataInputs[0])
	}
	if bNode.HasControlInput(a) {
		t.Fatal("expected control edge to be removed")
	}
}

func TestValidateCatchesDanglingDataInput(t *testing.T) {
	g := New("t")
	n := g.AddNode(OpAdd)
	node, _ := g.GetMutable(n)
	node.DataInputs = append(node.DataInputs, PortRef{Node: 999, Port: 0})

	errs := g.Validate()
	if len(errs) == 0 {
		t.Fatal("expected validation error for dangling data input")
	}
}

func TestValidateCatchesAsymmetricControlEdge(t *testing.T) {
	g := New("t")
	a := g.AddNode(OpJump)
	b := g.AddNode(OpEnd)
	aNode, _ := g.GetMutable(a)
	aNode.ControlOutputs = append(aNode.ControlOutputs, b) // one-sided, bypassing ConnectControl

	errs := g.Validate()
	if len(errs) == 0 {
		t.Fatal("expected validation error for asymmetric control edge")
	}
}

func TestValidateCatchesBadPayload(t *testing.T) {
	g := New("t")
	n := g.AddNode(OpNop)
	node, _ := g.GetMutable(n)
	node.Payload.Type = bditypes.INT32
	node.Payload.Bytes = []byte{1, 2} // should be 4 bytes

	errs := g.Validate()
	if len(errs) == 0 {
		t.Fatal("expected validation error for malformed payload")
	}
}

func TestValidEmptyGraphHasNoErrors(t *testing.T) {
	g := New("t")
	g.AddNode(OpNop)
	if !g.IsValid() {
		t.Fatalf("expected valid graph, got errors: %v", g.Validate())
	}
}
