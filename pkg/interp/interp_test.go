package interp

import (
	"testing"

	"github.com/dd0wney/bdi/pkg/bditypes"
	"github.com/dd0wney/bdi/pkg/execctx"
	"github.com/dd0wney/bdi/pkg/graph"
	"github.com/dd0wney/bdi/pkg/metadata"
	"github.com/dd0wney/bdi/pkg/variant"
)

func mustNode(g *graph.Graph, id graph.NodeID) *graph.Node {
	n, _ := g.Get(id)
	return n
}

func portRefFor(id graph.NodeID, port uint32) execctx.PortRef {
	return execctx.PortRef{Node: uint64(id), Port: port}
}

// constNode creates a node with one declared output slot of type typ and
// records v as that slot's value directly in ctx, as if an earlier constant
// producer step had already run.
func constNode(t *testing.T, in *Interpreter, g *graph.Graph, typ bditypes.Type, v variant.Variant) graph.NodeID {
	id := g.AddNode(graph.OpNop)
	n, _ := g.GetMutable(id)
	n.DataOutputs = append(n.DataOutputs, graph.PortInfo{Type: typ})
	in.setOutput(n, 0, v)
	return id
}

func TestRunHaltsOkOnEndSentinel(t *testing.T) {
	g := graph.New("t")
	start := g.AddNode(graph.OpStart)
	end := g.AddNode(graph.OpEnd)
	g.ConnectControl(start, end)

	in := New(metadata.NewStore(), 4096, 0, nil, nil)
	if err := in.Run(g, start); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunMissingNodeHaltsErr(t *testing.T) {
	g := graph.New("t")
	in := New(metadata.NewStore(), 4096, 0, nil, nil)
	if err := in.Run(g, graph.NodeID(99)); err == nil {
		t.Fatal("expected error for missing entry node")
	}
}

func TestRunAddProducesSum(t *testing.T) {
	g := graph.New("t")
	in := New(metadata.NewStore(), 4096, 0, nil, nil)

	a := constNode(t, in, g, bditypes.INT32, variant.FromI32(2))
	b := constNode(t, in, g, bditypes.INT32, variant.FromI32(3))

	add := g.AddNode(graph.OpAdd)
	addN, _ := g.GetMutable(add)
	addN.DataOutputs = append(addN.DataOutputs, graph.PortInfo{Type: bditypes.INT32})
	g.ConnectData(a, 0, add, 0)
	g.ConnectData(b, 0, add, 1)

	end := g.AddNode(graph.OpEnd)
	g.ConnectControl(add, end)

	if err := in.Run(g, add); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sum, ok := in.ctx.Get(portRefFor(add, 0))
	if !ok {
		t.Fatal("expected ADD to record its output")
	}
	got, _ := variant.ConvertTo[int32](sum)
	if got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
}

func TestRunDivideByZeroHalts(t *testing.T) {
	g := graph.New("t")
	in := New(metadata.NewStore(), 4096, 0, nil, nil)

	a := constNode(t, in, g, bditypes.INT32, variant.FromI32(10))
	b := constNode(t, in, g, bditypes.INT32, variant.FromI32(0))
	div := g.AddNode(graph.OpDiv)
	divN, _ := g.GetMutable(div)
	divN.DataOutputs = append(divN.DataOutputs, graph.PortInfo{Type: bditypes.INT32})
	g.ConnectData(a, 0, div, 0)
	g.ConnectData(b, 0, div, 1)

	if err := in.Run(g, div); err == nil {
		t.Fatal("expected divide-by-zero error")
	}
}

func TestRunStepLimitExceeded(t *testing.T) {
	g := graph.New("t")
	a := g.AddNode(graph.OpNop)
	b := g.AddNode(graph.OpNop)
	g.ConnectControl(a, b)
	g.ConnectControl(b, a) // infinite loop

	in := New(metadata.NewStore(), 4096, 5, nil, nil)
	if err := in.Run(g, a); err == nil {
		t.Fatal("expected step-limit error")
	}
}

func TestNextOfJumpAndEnd(t *testing.T) {
	g := graph.New("t")
	j := g.AddNode(graph.OpJump)
	target := g.AddNode(graph.OpEnd)
	g.ConnectControl(j, target)

	in := New(metadata.NewStore(), 4096, 0, nil, nil)
	next, err := in.nextOf(g, mustNode(g, j))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != target {
		t.Fatalf("expected jump target %d, got %d", target, next)
	}

	next, err = in.nextOf(g, mustNode(g, target))
	if err != nil || next != graph.NoNode {
		t.Fatalf("expected END to route to NoNode, got %d err=%v", next, err)
	}
}

func TestNextOfBranchCondRoutesOnBool(t *testing.T) {
	g := graph.New("t")
	in := New(metadata.NewStore(), 4096, 0, nil, nil)

	cond := constNode(t, in, g, bditypes.BOOL, variant.FromBool(true))
	br := g.AddNode(graph.OpBranchCond)
	g.ConnectData(cond, 0, br, 0)
	trueTarget := g.AddNode(graph.OpEnd)
	falseTarget := g.AddNode(graph.OpEnd)
	g.ConnectControl(br, trueTarget)
	g.ConnectControl(br, falseTarget)

	next, err := in.nextOf(g, mustNode(g, br))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != trueTarget {
		t.Fatalf("expected true branch target %d, got %d", trueTarget, next)
	}

	in.setOutput(mustNode(g, cond), 0, variant.FromBool(false))
	next, err = in.nextOf(g, mustNode(g, br))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != falseTarget {
		t.Fatalf("expected false branch target %d, got %d", falseTarget, next)
	}
}

func TestNextOfCallPushesReturnAddress(t *testing.T) {
	g := graph.New("t")
	call := g.AddNode(graph.OpCall)
	callee := g.AddNode(graph.OpEnd)
	retAddr := g.AddNode(graph.OpEnd)
	g.ConnectControl(call, callee)
	g.ConnectControl(call, retAddr)

	ret := g.AddNode(graph.OpReturn)

	in := New(metadata.NewStore(), 4096, 0, nil, nil)
	next, err := in.nextOf(g, mustNode(g, call))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != callee {
		t.Fatalf("expected CALL to route to callee %d, got %d", callee, next)
	}
	if in.Context().IsCallStackEmpty() {
		t.Fatal("expected return address pushed onto call stack")
	}

	next, err = in.nextOf(g, mustNode(g, ret))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != retAddr {
		t.Fatalf("expected RETURN to pop return address %d, got %d", retAddr, next)
	}
}

func TestNextOfReturnOnEmptyStackHaltsOk(t *testing.T) {
	g := graph.New("t")
	ret := g.AddNode(graph.OpReturn)

	in := New(metadata.NewStore(), 4096, 0, nil, nil)
	next, err := in.nextOf(g, mustNode(g, ret))
	if err != nil || next != graph.NoNode {
		t.Fatalf("expected RETURN on empty stack to halt ok, got %d err=%v", next, err)
	}
}

func TestNextOfAmbiguousFanOutHalts(t *testing.T) {
	g := graph.New("t")
	n := g.AddNode(graph.OpNop)
	a := g.AddNode(graph.OpEnd)
	b := g.AddNode(graph.OpEnd)
	g.ConnectControl(n, a)
	g.ConnectControl(n, b)

	in := New(metadata.NewStore(), 4096, 0, nil, nil)
	next, err := in.nextOf(g, mustNode(g, n))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != graph.NoNode {
		t.Fatalf("expected ambiguous fan-out to halt, got %d", next)
	}
}

func TestExecuteAssertFailurePropagatesDescription(t *testing.T) {
	g := graph.New("t")
	meta := metadata.NewStore()
	in := New(meta, 4096, 0, nil, nil)

	cond := constNode(t, in, g, bditypes.BOOL, variant.FromBool(false))
	assertNode := g.AddNode(graph.OpAssert)
	g.ConnectData(cond, 0, assertNode, 0)

	h := meta.AddSemanticTag("my-assert", "value must be positive")
	n, _ := g.GetMutable(assertNode)
	n.MetadataHandle = uint64(h)

	if err := in.execute(g, mustNode(g, assertNode)); err == nil {
		t.Fatal("expected assertion failure")
	}
}

func TestExecuteUnsupportedConcurrencyOp(t *testing.T) {
	g := graph.New("t")
	spawn := g.AddNode(graph.OpSpawn)

	in := New(metadata.NewStore(), 4096, 0, nil, nil)
	if err := in.execute(g, mustNode(g, spawn)); err == nil {
		t.Fatal("expected unsupported error for SPAWN")
	}
}

func TestMemoryAllocStoreLoadRoundTrip(t *testing.T) {
	g := graph.New("t")
	in := New(metadata.NewStore(), 4096, 0, nil, nil)

	size := constNode(t, in, g, bditypes.UINT64, variant.FromU64(8))
	alloc := g.AddNode(graph.OpAlloc)
	allocN, _ := g.GetMutable(alloc)
	allocN.DataOutputs = append(allocN.DataOutputs, graph.PortInfo{Type: bditypes.POINTER})
	g.ConnectData(size, 0, alloc, 0)

	if err := in.execute(g, mustNode(g, alloc)); err != nil {
		t.Fatalf("unexpected ALLOC error: %v", err)
	}
	addr, ok := in.ctx.Get(portRefFor(alloc, 0))
	if !ok {
		t.Fatal("expected ALLOC to record its output address")
	}
	addrWord, _ := addr.AsAddress()

	addrConst := constNode(t, in, g, bditypes.POINTER, variant.FromPtrWord(bditypes.POINTER, addrWord))
	value := constNode(t, in, g, bditypes.UINT32, variant.FromU32(0xDEADBEEF))

	store := g.AddNode(graph.OpStore)
	g.ConnectData(addrConst, 0, store, 0)
	g.ConnectData(value, 0, store, 1)
	if err := in.execute(g, mustNode(g, store)); err != nil {
		t.Fatalf("unexpected STORE error: %v", err)
	}

	load := g.AddNode(graph.OpLoad)
	loadN, _ := g.GetMutable(load)
	loadN.DataOutputs = append(loadN.DataOutputs, graph.PortInfo{Type: bditypes.UINT32})
	g.ConnectData(addrConst, 0, load, 0)

	if err := in.execute(g, mustNode(g, load)); err != nil {
		t.Fatalf("unexpected LOAD error: %v", err)
	}
	loaded, ok := in.ctx.Get(portRefFor(load, 0))
	if !ok {
		t.Fatal("expected LOAD to record its output")
	}
	got, _ := variant.ConvertTo[uint32](loaded)
	if got != 0xDEADBEEF {
		t.Fatalf("expected round-tripped value 0xDEADBEEF, got %x", got)
	}
}

func TestMemoryOutOfBoundsReadFails(t *testing.T) {
	g := graph.New("t")
	in := New(metadata.NewStore(), 16, 0, nil, nil)

	addrConst := constNode(t, in, g, bditypes.UINT64, variant.FromU64(1000))
	load := g.AddNode(graph.OpLoad)
	loadN, _ := g.GetMutable(load)
	loadN.DataOutputs = append(loadN.DataOutputs, graph.PortInfo{Type: bditypes.UINT32})
	g.ConnectData(addrConst, 0, load, 0)

	if err := in.execute(g, mustNode(g, load)); err == nil {
		t.Fatal("expected out-of-bounds error")
	}
}
