// Package builder provides an ergonomic, invariant-preserving layer over
// pkg/graph and pkg/metadata for DSL front-ends to construct BDI graphs,
// mirroring the teacher's pattern of a thin builder type wrapping a
// lower-level store.
package builder

import (
	"github.com/dd0wney/bdi/pkg/bdierrors"
	"github.com/dd0wney/bdi/pkg/bdilog"
	"github.com/dd0wney/bdi/pkg/bditypes"
	"github.com/dd0wney/bdi/pkg/graph"
	"github.com/dd0wney/bdi/pkg/metadata"
	"github.com/dd0wney/bdi/pkg/variant"
)

// Builder accumulates a graph under construction. Fallible methods report
// failure by returning false (or an error), matching spec.md §7's "builder
// returns false from connection/payload calls" error-propagation rule;
// SetPayload, DefineOutput, ConnectData, ConnectControl and StampProofTag
// also log a Warn-level diagnostic, while SetMetadata and SetRegion do not.
// After Finalize only Validate and Graph check for the missing graph; the
// other methods dereference it.
type Builder struct {
	g      *graph.Graph
	meta   *metadata.Store
	logger bdilog.Logger
}

// New creates a Builder over a fresh named graph, using store for metadata
// (callers typically share one Store across a whole compilation unit).
// A nil logger defaults to a no-op logger.
func New(name string, store *metadata.Store, logger bdilog.Logger) *Builder {
	if logger == nil {
		logger = bdilog.NewNopLogger()
	}
	return &Builder{
		g:      graph.New(name),
		meta:   store,
		logger: logger,
	}
}

// AddNode creates a node of the given op. If debugName is non-empty, it is
// merged into a SemanticTag metadata entry and attached via
// metadata_handle. initialDescription is stored alongside debugName in the
// same SemanticTag (e.g. for ASSERT nodes' failure message).
func (b *Builder) AddNode(op graph.OpCode, debugName, initialDescription string) graph.NodeID {
	id := b.g.AddNode(op)
	if debugName != "" || initialDescription != "" {
		h := b.meta.AddSemanticTag(debugName, initialDescription)
		n, _ := b.g.GetMutable(id)
		n.MetadataHandle = uint64(h)
	}
	return id
}

// SetPayload sets a constant-like node's immediate typed payload, failing
// (and logging) if the bytes don't match size_of(payload.Type).
func (b *Builder) SetPayload(id graph.NodeID, payload variant.Payload) bool {
	n, ok := b.g.GetMutable(id)
	if !ok {
		b.logger.Warn("set_payload: unknown node", bdilog.NodeID(uint64(id)))
		return false
	}
	if !payload.IsValid() {
		b.logger.Warn("set_payload: invalid payload length",
			bdilog.NodeID(uint64(id)), bdilog.String("type", payload.Type.String()))
		return false
	}
	n.Payload = payload
	return true
}

// DefineOutput appends a typed output slot to node id's data_outputs,
// returning the new slot's index and true on success.
func (b *Builder) DefineOutput(id graph.NodeID, t bditypes.Type, name string) (uint32, bool) {
	n, ok := b.g.GetMutable(id)
	if !ok {
		b.logger.Warn("define_output: unknown node", bdilog.NodeID(uint64(id)))
		return 0, false
	}
	n.DataOutputs = append(n.DataOutputs, graph.PortInfo{Type: t, Name: name})
	return uint32(len(n.DataOutputs) - 1), true
}

// ConnectData wires dst's input slot dstPort to (src, srcPort).
func (b *Builder) ConnectData(src graph.NodeID, srcPort uint32, dst graph.NodeID, dstPort uint32) bool {
	ok := b.g.ConnectData(src, srcPort, dst, dstPort)
	if !ok {
		b.logger.Warn("connect_data failed",
			bdilog.NodeID(uint64(src)), bdilog.Uint64("src_port", uint64(srcPort)),
			bdilog.NodeID(uint64(dst)), bdilog.Uint64("dst_port", uint64(dstPort)))
	}
	return ok
}

// ConnectControl wires a control edge src -> dst.
func (b *Builder) ConnectControl(src, dst graph.NodeID) bool {
	ok := b.g.ConnectControl(src, dst)
	if !ok {
		b.logger.Warn("connect_control failed", bdilog.NodeID(uint64(src)), bdilog.NodeID(uint64(dst)))
	}
	return ok
}

// SetMetadata attaches (or replaces) a metadata handle on node id,
// recording entry in the shared store.
func (b *Builder) SetMetadata(id graph.NodeID, entry metadata.Entry) bool {
	n, ok := b.g.GetMutable(id)
	if !ok {
		return false
	}
	if n.MetadataHandle != 0 {
		b.meta.Update(metadata.Handle(n.MetadataHandle), entry)
		return true
	}
	n.MetadataHandle = uint64(b.meta.Add(entry))
	return true
}

// StampProofTag attaches a ProofTag to node id, hashing payloadBytes under
// the INTERNAL_HASH system (blake2b-256, see pkg/metadata.ComputeInternalHash)
// when system is metadata.ProofInternalHash. Other proof systems are
// recorded with whatever hash the caller already computed (e.g. a Lean or
// Coq checker's own digest) and are passed through unhashed.
func (b *Builder) StampProofTag(id graph.NodeID, system metadata.ProofSystem, payloadBytes []byte) bool {
	var tag metadata.ProofTag
	switch system {
	case metadata.ProofInternalHash:
		t, err := metadata.NewInternalHashProofTag(payloadBytes)
		if err != nil {
			b.logger.Warn("stamp_proof_tag: hashing failed", bdilog.NodeID(uint64(id)), bdilog.Error(err))
			return false
		}
		tag = t
	default:
		tag = metadata.ProofTag{System: system, HashBytes: payloadBytes}
	}
	return b.SetMetadata(id, metadata.Entry{Kind: metadata.KindProofTag, Proof: tag})
}

// SetRegion sets node id's opaque logical region grouping.
func (b *Builder) SetRegion(id graph.NodeID, regionID uint64) bool {
	n, ok := b.g.GetMutable(id)
	if !ok {
		return false
	}
	n.RegionID = regionID
	return true
}

// Finalize surrenders ownership of the built graph, returning it and
// resetting the builder to an unusable state (further calls operate on a
// nil graph and fail loudly rather than silently corrupt a returned
// graph).
func (b *Builder) Finalize() *graph.Graph {
	g := b.g
	b.g = nil
	return g
}

// Validate runs pkg/graph's invariant checks against the in-progress
// graph without finalizing, useful for CI-time graph linting.
func (b *Builder) Validate() []graph.ValidationError {
	if b.g == nil {
		return []graph.ValidationError{{Message: "builder already finalized"}}
	}
	return b.g.Validate()
}

// errNotBuilding is returned by defensive helpers called after Finalize.
var errNotBuilding = bdierrors.New("builder", bdierrors.Structural).Detail("builder already finalized").Err()

// Graph exposes the in-progress graph for read-only inspection (e.g. the
// optimizer driving a second builder pass). Returns nil, errNotBuilding
// after Finalize.
func (b *Builder) Graph() (*graph.Graph, error) {
	if b.g == nil {
		return nil, errNotBuilding
	}
	return b.g, nil
}
