package graphio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"
	"sort"
	"time"

	"github.com/golang/snappy"

	"github.com/dd0wney/bdi/pkg/bdimetrics"
	"github.com/dd0wney/bdi/pkg/graph"
	"github.com/dd0wney/bdi/pkg/variant"
)

var order = binary.LittleEndian

// WriterOptions configures Write's on-disk framing.
type WriterOptions struct {
	// ChecksumFramed, when true, appends a crc32.ChecksumIEEE trailer
	// after every node record, mirroring the teacher's WAL entry framing.
	// Disabled by default so the plain v2 layout in spec.md §6 stays
	// byte-exact for callers that don't need it.
	ChecksumFramed bool

	// Metrics, when non-nil, records GraphEncodeDuration (C13) for a
	// successful Write. Nil is the zero value, so existing callers that
	// don't care about metrics are unaffected.
	Metrics *bdimetrics.Registry
}

// Write serializes g to w in the current (v2) format.
func Write(w io.Writer, g *graph.Graph, opts WriterOptions) error {
	start := time.Now()
	bw := bufio.NewWriter(w)

	if err := binary.Write(bw, order, MagicV2); err != nil {
		return err
	}
	if err := binary.Write(bw, order, VersionV2); err != nil {
		return err
	}
	if err := writeString(bw, g.Name); err != nil {
		return err
	}

	ids := g.Nodes()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if err := binary.Write(bw, order, uint64(len(ids))); err != nil {
		return err
	}

	for _, id := range ids {
		node, _ := g.Get(id)
		if err := writeNode(bw, node, opts.ChecksumFramed); err != nil {
			return err
		}
	}

	if err := bw.Flush(); err != nil {
		return err
	}
	if opts.Metrics != nil {
		opts.Metrics.RecordGraphEncode("v2", time.Since(start))
	}
	return nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, order, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// writeNode encodes a single node record per spec.md §6's field order. It
// always buffers the record first so a crc32 trailer, when requested, can
// be computed over exactly the bytes written.
func writeNode(w io.Writer, n *graph.Node, framed bool) error {
	var buf bytes.Buffer

	if err := binary.Write(&buf, order, uint64(n.ID)); err != nil {
		return err
	}
	if err := binary.Write(&buf, order, uint16(n.Op)); err != nil {
		return err
	}
	if err := binary.Write(&buf, order, n.MetadataHandle); err != nil {
		return err
	}
	if err := binary.Write(&buf, order, n.RegionID); err != nil {
		return err
	}
	if err := writePayload(&buf, n.Payload); err != nil {
		return err
	}
	if err := writeDataInputs(&buf, n.DataInputs); err != nil {
		return err
	}
	if err := writeDataOutputs(&buf, n.DataOutputs); err != nil {
		return err
	}
	if err := writeControlInputs(&buf, n.ControlInputs); err != nil {
		return err
	}
	if err := writeNodeIDs(&buf, n.ControlOutputs); err != nil {
		return err
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return err
	}
	if framed {
		sum := crc32.ChecksumIEEE(buf.Bytes())
		return binary.Write(w, order, sum)
	}
	return nil
}

// writePayload writes payload.type, a one-byte compression flag, the
// on-disk byte length, and the (possibly snappy-compressed) bytes. The
// flag is always present, ahead of size, so the layout stays
// self-describing even when compression never engages.
func writePayload(w io.Writer, p variant.Payload) error {
	if err := binary.Write(w, order, uint8(p.Type)); err != nil {
		return err
	}

	raw := p.Bytes
	flag := compressionNone
	if largePayload(len(raw)) {
		flag = compressionSnappy
		raw = snappy.Encode(nil, raw)
	}

	if err := binary.Write(w, order, flag); err != nil {
		return err
	}
	if err := binary.Write(w, order, uint64(len(raw))); err != nil {
		return err
	}
	_, err := w.Write(raw)
	return err
}

func writeDataInputs(w io.Writer, refs []graph.PortRef) error {
	if err := binary.Write(w, order, uint32(len(refs))); err != nil {
		return err
	}
	for _, r := range refs {
		if err := binary.Write(w, order, uint64(r.Node)); err != nil {
			return err
		}
		if err := binary.Write(w, order, r.Port); err != nil {
			return err
		}
	}
	return nil
}

func writeDataOutputs(w io.Writer, outs []graph.PortInfo) error {
	if err := binary.Write(w, order, uint32(len(outs))); err != nil {
		return err
	}
	for _, o := range outs {
		if err := binary.Write(w, order, uint8(o.Type)); err != nil {
			return err
		}
		if err := writeString(w, o.Name); err != nil {
			return err
		}
	}
	return nil
}

func writeControlInputs(w io.Writer, preds map[graph.NodeID]struct{}) error {
	ids := make([]graph.NodeID, 0, len(preds))
	for id := range preds {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return writeNodeIDs(w, ids)
}

func writeNodeIDs(w io.Writer, ids []graph.NodeID) error {
	if err := binary.Write(w, order, uint32(len(ids))); err != nil {
		return err
	}
	for _, id := range ids {
		if err := binary.Write(w, order, uint64(id)); err != nil {
			return err
		}
	}
	return nil
}
