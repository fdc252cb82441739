// Package graphio implements BDI's binary on-disk graph codec (spec.md
// §6): a length-framed, little-endian encoding of a graph.Graph, modeled
// on the teacher's pkg/wal entry framing (explicit binary.Write/Read
// against a buffered stream, an optional crc32 trailer per record).
package graphio

// MagicV2 and VersionV2 identify the current on-disk format (spec.md §6).
const (
	MagicV2   uint32 = 0xBADBEEF1
	VersionV2 uint16 = 2
)

// MagicV1 and VersionV1 identify the deprecated format ReadLegacyV1
// still accepts: no region_id, no metadata_handle per node.
const (
	MagicV1   uint32 = 0xDEADBEEF
	VersionV1 uint16 = 1
)

// compressionThreshold is the payload byte size at or above which Write
// engages snappy compression (SPEC_FULL.md §4.14). Every scalar payload
// defined by bditypes.SizeOf, POINTER included, is well under this, so
// compression only ever engages for larger vector-like blobs.
const compressionThreshold = 64

const (
	compressionNone   byte = 0
	compressionSnappy byte = 1
)

// largePayload reports whether a payload of the given byte size is a
// candidate for snappy compression: every scalar type bditypes.SizeOf
// describes, POINTER included, is far below compressionThreshold, so in
// practice this only ever engages for larger vector-like blobs.
func largePayload(size int) bool {
	return size >= compressionThreshold
}
