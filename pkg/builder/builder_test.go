package builder

import (
	"testing"

	"github.com/dd0wney/bdi/pkg/bditypes"
	"github.com/dd0wney/bdi/pkg/graph"
	"github.com/dd0wney/bdi/pkg/metadata"
	"github.com/dd0wney/bdi/pkg/variant"
)

func TestAddNodeAttachesSemanticTag(t *testing.T) {
	store := metadata.NewStore()
	b := New("t", store, nil)

	id := b.AddNode(graph.OpAssert, "check_positive", "value must be positive")

	g, err := b.Graph()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, ok := g.Get(id)
	if !ok {
		t.Fatal("expected node to exist")
	}
	if n.MetadataHandle == 0 {
		t.Fatal("expected nonzero metadata handle")
	}
	entry, ok := store.Get(metadata.Handle(n.MetadataHandle))
	if !ok || entry.Kind != metadata.KindSemanticTag {
		t.Fatalf("expected semantic tag entry, got %+v", entry)
	}
	if entry.Semantic.DSLRef != "check_positive" || entry.Semantic.Description != "value must be positive" {
		t.Fatalf("unexpected semantic tag contents: %+v", entry.Semantic)
	}
}

func TestAddNodeWithoutNamesSkipsMetadata(t *testing.T) {
	b := New("t", metadata.NewStore(), nil)
	id := b.AddNode(graph.OpNop, "", "")
	g, _ := b.Graph()
	n, _ := g.Get(id)
	if n.MetadataHandle != 0 {
		t.Fatalf("expected no metadata handle, got %d", n.MetadataHandle)
	}
}

func TestSetPayloadRejectsMismatchedLength(t *testing.T) {
	b := New("t", metadata.NewStore(), nil)
	id := b.AddNode(graph.OpNop, "", "")

	ok := b.SetPayload(id, variant.Payload{Type: bditypes.INT32, Bytes: []byte{1, 2}})
	if ok {
		t.Fatal("expected SetPayload to reject a 2-byte payload for INT32")
	}

	ok = b.SetPayload(id, variant.Payload{Type: bditypes.INT32, Bytes: []byte{1, 2, 3, 4}})
	if !ok {
		t.Fatal("expected SetPayload to accept a correctly sized payload")
	}
}

func TestSetPayloadUnknownNodeFails(t *testing.T) {
	b := New("t", metadata.NewStore(), nil)
	ok := b.SetPayload(graph.NodeID(999), variant.Payload{Type: bditypes.INT32, Bytes: []byte{0, 0, 0, 0}})
	if ok {
		t.Fatal("expected SetPayload to fail for unknown node")
	}
}

func TestDefineOutputAppendsSlot(t *testing.T) {
	b := New("t", metadata.NewStore(), nil)
	id := b.AddNode(graph.OpAdd, "", "")

	idx, ok := b.DefineOutput(id, bditypes.INT32, "sum")
	if !ok || idx != 0 {
		t.Fatalf("expected first output at index 0, got idx=%d ok=%v", idx, ok)
	}
	idx2, ok := b.DefineOutput(id, bditypes.FLOAT32, "overflow")
	if !ok || idx2 != 1 {
		t.Fatalf("expected second output at index 1, got idx=%d ok=%v", idx2, ok)
	}
}

func TestConnectDataAndControl(t *testing.T) {
	b := New("t", metadata.NewStore(), nil)
	src := b.AddNode(graph.OpNop, "", "")
	b.DefineOutput(src, bditypes.INT32, "")
	dst := b.AddNode(graph.OpAdd, "", "")

	if !b.ConnectData(src, 0, dst, 0) {
		t.Fatal("expected ConnectData to succeed")
	}
	if !b.ConnectControl(src, dst) {
		t.Fatal("expected ConnectControl to succeed")
	}

	g, _ := b.Graph()
	dstNode, _ := g.Get(dst)
	if dstNode.DataInputs[0].Node != src {
		t.Fatalf("expected dst input bound to src, got %+v", dstNode.DataInputs[0])
	}
	if !dstNode.HasControlInput(src) {
		t.Fatal("expected control edge recorded")
	}
}

func TestSetMetadataAddsThenUpdates(t *testing.T) {
	store := metadata.NewStore()
	b := New("t", store, nil)
	id := b.AddNode(graph.OpNop, "", "")

	if !b.SetMetadata(id, metadata.Entry{Kind: metadata.KindHardwareHints, Hardware: metadata.HardwareHints{Cache: metadata.CacheL1}}) {
		t.Fatal("expected first SetMetadata to succeed")
	}
	g, _ := b.Graph()
	n, _ := g.Get(id)
	firstHandle := n.MetadataHandle
	if firstHandle == 0 {
		t.Fatal("expected nonzero handle after first SetMetadata")
	}

	if !b.SetMetadata(id, metadata.Entry{Kind: metadata.KindHardwareHints, Hardware: metadata.HardwareHints{Cache: metadata.CacheL3}}) {
		t.Fatal("expected second SetMetadata to succeed")
	}
	n, _ = g.Get(id)
	if n.MetadataHandle != firstHandle {
		t.Fatalf("expected handle to be reused on update, got %d want %d", n.MetadataHandle, firstHandle)
	}
	entry, _ := store.Get(metadata.Handle(firstHandle))
	if entry.Hardware.Cache != metadata.CacheL3 {
		t.Fatalf("expected updated cache hint, got %+v", entry.Hardware)
	}
}

func TestSetRegion(t *testing.T) {
	b := New("t", metadata.NewStore(), nil)
	id := b.AddNode(graph.OpNop, "", "")
	if !b.SetRegion(id, 42) {
		t.Fatal("expected SetRegion to succeed")
	}
	g, _ := b.Graph()
	n, _ := g.Get(id)
	if n.RegionID != 42 {
		t.Fatalf("expected region id 42, got %d", n.RegionID)
	}
}

func TestFinalizeSurrendersGraph(t *testing.T) {
	b := New("t", metadata.NewStore(), nil)
	b.AddNode(graph.OpNop, "", "")

	g := b.Finalize()
	if g == nil || g.Len() != 1 {
		t.Fatalf("expected finalized graph with one node, got %+v", g)
	}

	if _, err := b.Graph(); err == nil {
		t.Fatal("expected error reading graph after Finalize")
	}
	if errs := b.Validate(); len(errs) == 0 {
		t.Fatal("expected Validate to report an error after Finalize")
	}
}

func TestValidateDelegatesToGraph(t *testing.T) {
	b := New("t", metadata.NewStore(), nil)
	id := b.AddNode(graph.OpAdd, "", "")
	g, _ := b.Graph()
	n, _ := g.GetMutable(id)
	n.DataInputs = append(n.DataInputs, graph.PortRef{Node: 999, Port: 0})

	errs := b.Validate()
	if len(errs) == 0 {
		t.Fatal("expected Validate to surface dangling data input error")
	}
}
