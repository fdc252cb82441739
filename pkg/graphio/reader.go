package graphio

import (
	"encoding/binary"
	"hash"
	"hash/crc32"
	"io"

	"github.com/golang/snappy"

	"github.com/dd0wney/bdi/pkg/bdierrors"
	"github.com/dd0wney/bdi/pkg/bdimetrics"
	"github.com/dd0wney/bdi/pkg/bditypes"
	"github.com/dd0wney/bdi/pkg/graph"
	"github.com/dd0wney/bdi/pkg/variant"
)

// ReaderOptions mirrors WriterOptions: the reader must be told whether the
// stream carries a per-node crc32 trailer, since the v2 layout is
// otherwise self-describing but not self-announcing about framing.
type ReaderOptions struct {
	ChecksumFramed bool

	// Metrics, when non-nil, records GraphDecodeErrors (C13) by cause for
	// a failed Read. Nil is the zero value, so existing callers that
	// don't care about metrics are unaffected.
	Metrics *bdimetrics.Registry
}

func (o ReaderOptions) recordDecodeError(cause string) {
	if o.Metrics != nil {
		o.Metrics.RecordGraphDecodeError(cause)
	}
}

// Read decodes a graph.Graph previously written by Write. It rejects any
// magic/version it does not recognize, per spec.md §6.
func Read(r io.Reader, opts ReaderOptions) (*graph.Graph, error) {
	var magic uint32
	if err := binary.Read(r, order, &magic); err != nil {
		opts.recordDecodeError("short_buffer")
		return nil, bdierrors.CodecErr("graphio.Read", "reading magic", err)
	}
	if magic == MagicV1 {
		opts.recordDecodeError("bad_magic")
		return nil, bdierrors.CodecErr("graphio.Read", "v1 stream: use ReadLegacyV1", nil)
	}
	if magic != MagicV2 {
		opts.recordDecodeError("bad_magic")
		return nil, bdierrors.CodecErr("graphio.Read", "unrecognized magic", nil)
	}

	var version uint16
	if err := binary.Read(r, order, &version); err != nil {
		opts.recordDecodeError("short_buffer")
		return nil, bdierrors.CodecErr("graphio.Read", "reading version", err)
	}
	if version != VersionV2 {
		opts.recordDecodeError("bad_version")
		return nil, bdierrors.CodecErr("graphio.Read", "unrecognized version", nil)
	}

	name, err := readString(r)
	if err != nil {
		opts.recordDecodeError("short_buffer")
		return nil, bdierrors.CodecErr("graphio.Read", "reading graph name", err)
	}

	var count uint64
	if err := binary.Read(r, order, &count); err != nil {
		opts.recordDecodeError("short_buffer")
		return nil, bdierrors.CodecErr("graphio.Read", "reading node count", err)
	}

	g := graph.New(name)
	for i := uint64(0); i < count; i++ {
		node, err := readNode(r, opts.ChecksumFramed)
		if err != nil {
			// readNode's own errors (a crc32 mismatch, or a snappy decode
			// failure of a compressed payload) are already *BDIErrors and are
			// both counted as checksum_mismatch; anything else is a raw
			// short-read from the underlying stream.
			if _, ok := bdierrors.KindOf(err); ok {
				opts.recordDecodeError("checksum_mismatch")
			} else {
				opts.recordDecodeError("short_buffer")
			}
			return nil, bdierrors.CodecErr("graphio.Read", "reading node record", err)
		}
		g.AddNodeOwned(node)
	}
	return g, nil
}

// ReadLegacyV1 decodes the deprecated v1 stream format: no region_id, no
// metadata_handle, no payload compression flag. Nodes are upgraded
// in-memory to the current shape, filling the fields v1 never had with
// their zero values.
func ReadLegacyV1(r io.Reader) (*graph.Graph, error) {
	var magic uint32
	if err := binary.Read(r, order, &magic); err != nil {
		return nil, bdierrors.CodecErr("graphio.ReadLegacyV1", "reading magic", err)
	}
	if magic != MagicV1 {
		return nil, bdierrors.CodecErr("graphio.ReadLegacyV1", "unrecognized magic", nil)
	}

	var version uint16
	if err := binary.Read(r, order, &version); err != nil {
		return nil, bdierrors.CodecErr("graphio.ReadLegacyV1", "reading version", err)
	}
	if version != VersionV1 {
		return nil, bdierrors.CodecErr("graphio.ReadLegacyV1", "unrecognized version", nil)
	}

	name, err := readString(r)
	if err != nil {
		return nil, bdierrors.CodecErr("graphio.ReadLegacyV1", "reading graph name", err)
	}

	var count uint64
	if err := binary.Read(r, order, &count); err != nil {
		return nil, bdierrors.CodecErr("graphio.ReadLegacyV1", "reading node count", err)
	}

	g := graph.New(name)
	for i := uint64(0); i < count; i++ {
		node, err := readNodeV1(r)
		if err != nil {
			return nil, bdierrors.CodecErr("graphio.ReadLegacyV1", "reading v1 node record", err)
		}
		g.AddNodeOwned(node)
	}
	return g, nil
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, order, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func readNode(r io.Reader, framed bool) (*graph.Node, error) {
	var hasher hash.Hash32
	var src io.Reader = r
	if framed {
		hasher = crc32.NewIEEE()
		src = io.TeeReader(r, hasher)
	}

	node := &graph.Node{ControlInputs: make(map[graph.NodeID]struct{})}

	var id uint64
	if err := binary.Read(src, order, &id); err != nil {
		return nil, err
	}
	node.ID = graph.NodeID(id)

	var op uint16
	if err := binary.Read(src, order, &op); err != nil {
		return nil, err
	}
	node.Op = graph.OpCode(op)

	if err := binary.Read(src, order, &node.MetadataHandle); err != nil {
		return nil, err
	}
	if err := binary.Read(src, order, &node.RegionID); err != nil {
		return nil, err
	}

	payload, err := readPayload(src)
	if err != nil {
		return nil, err
	}
	node.Payload = payload

	dataIns, err := readDataInputs(src)
	if err != nil {
		return nil, err
	}
	node.DataInputs = dataIns

	dataOuts, err := readDataOutputs(src)
	if err != nil {
		return nil, err
	}
	node.DataOutputs = dataOuts

	preds, err := readNodeIDs(src)
	if err != nil {
		return nil, err
	}
	for _, p := range preds {
		node.ControlInputs[p] = struct{}{}
	}

	succs, err := readNodeIDs(src)
	if err != nil {
		return nil, err
	}
	node.ControlOutputs = succs

	if framed {
		var want uint32
		if err := binary.Read(r, order, &want); err != nil {
			return nil, err
		}
		if want != hasher.Sum32() {
			return nil, bdierrors.CodecErr("graphio.readNode", "crc32 mismatch: corrupt record", nil)
		}
	}

	return node, nil
}

// readNodeV1 decodes a v1-layout node record: id, op, payload (no
// compression flag), data/control edges — no region_id, no
// metadata_handle.
func readNodeV1(r io.Reader) (*graph.Node, error) {
	node := &graph.Node{ControlInputs: make(map[graph.NodeID]struct{})}

	var id uint64
	if err := binary.Read(r, order, &id); err != nil {
		return nil, err
	}
	node.ID = graph.NodeID(id)

	var op uint16
	if err := binary.Read(r, order, &op); err != nil {
		return nil, err
	}
	node.Op = graph.OpCode(op)

	var typ uint8
	if err := binary.Read(r, order, &typ); err != nil {
		return nil, err
	}
	var size uint64
	if err := binary.Read(r, order, &size); err != nil {
		return nil, err
	}
	bytes := make([]byte, size)
	if _, err := io.ReadFull(r, bytes); err != nil {
		return nil, err
	}
	node.Payload = variant.Payload{Type: bditypes.Type(typ), Bytes: bytes}

	dataIns, err := readDataInputs(r)
	if err != nil {
		return nil, err
	}
	node.DataInputs = dataIns

	dataOuts, err := readDataOutputs(r)
	if err != nil {
		return nil, err
	}
	node.DataOutputs = dataOuts

	preds, err := readNodeIDs(r)
	if err != nil {
		return nil, err
	}
	for _, p := range preds {
		node.ControlInputs[p] = struct{}{}
	}

	succs, err := readNodeIDs(r)
	if err != nil {
		return nil, err
	}
	node.ControlOutputs = succs

	return node, nil
}

func readPayload(r io.Reader) (variant.Payload, error) {
	var typ uint8
	if err := binary.Read(r, order, &typ); err != nil {
		return variant.Payload{}, err
	}
	var flag uint8
	if err := binary.Read(r, order, &flag); err != nil {
		return variant.Payload{}, err
	}
	var size uint64
	if err := binary.Read(r, order, &size); err != nil {
		return variant.Payload{}, err
	}
	raw := make([]byte, size)
	if _, err := io.ReadFull(r, raw); err != nil {
		return variant.Payload{}, err
	}
	if flag == compressionSnappy {
		decoded, err := snappy.Decode(nil, raw)
		if err != nil {
			return variant.Payload{}, bdierrors.CodecErr("graphio.readPayload", "snappy decode failed", err)
		}
		raw = decoded
	}
	return variant.Payload{Type: bditypes.Type(typ), Bytes: raw}, nil
}

func readDataInputs(r io.Reader) ([]graph.PortRef, error) {
	var count uint32
	if err := binary.Read(r, order, &count); err != nil {
		return nil, err
	}
	refs := make([]graph.PortRef, count)
	for i := range refs {
		var node uint64
		if err := binary.Read(r, order, &node); err != nil {
			return nil, err
		}
		var port uint32
		if err := binary.Read(r, order, &port); err != nil {
			return nil, err
		}
		refs[i] = graph.PortRef{Node: graph.NodeID(node), Port: port}
	}
	return refs, nil
}

func readDataOutputs(r io.Reader) ([]graph.PortInfo, error) {
	var count uint32
	if err := binary.Read(r, order, &count); err != nil {
		return nil, err
	}
	outs := make([]graph.PortInfo, count)
	for i := range outs {
		var typ uint8
		if err := binary.Read(r, order, &typ); err != nil {
			return nil, err
		}
		name, err := readString(r)
		if err != nil {
			return nil, err
		}
		outs[i] = graph.PortInfo{Type: bditypes.Type(typ), Name: name}
	}
	return outs, nil
}

func readNodeIDs(r io.Reader) ([]graph.NodeID, error) {
	var count uint32
	if err := binary.Read(r, order, &count); err != nil {
		return nil, err
	}
	ids := make([]graph.NodeID, count)
	for i := range ids {
		var id uint64
		if err := binary.Read(r, order, &id); err != nil {
			return nil, err
		}
		ids[i] = graph.NodeID(id)
	}
	return ids, nil
}
