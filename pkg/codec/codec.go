// Package codec is the sole canonical route between scalar in-memory values
// and their on-the-wire byte representation. It fixes a target endianness
// independent of host architecture, matching the teacher storage layer's
// convention of encoding every scalar with explicit byte-order calls rather
// than relying on unsafe casts.
package codec

import (
	"encoding/binary"
	"math"
)

// TargetLittleEndian is the wire byte order for every BDI scalar encoding.
// It is a named constant rather than a build-time toggle because the spec
// fixes it permanently; a big-endian target would be a different wire
// format, not a runtime option.
const TargetLittleEndian = true

var order binary.ByteOrder = binary.LittleEndian

// shortBufferError is the concrete type behind ErrShortBuffer.
type shortBufferError struct {
	want, have int
}

func (e *shortBufferError) Error() string {
	return "codec: short buffer"
}

// ErrShortBuffer is returned, unwrapped, by every Decode* function when the
// supplied byte slice does not hold enough bytes at the given offset.
// Callers should use errors.Is against this value.
var ErrShortBuffer error = &shortBufferError{}

func checkBounds(b []byte, offset, size int) bool {
	return offset >= 0 && size >= 0 && offset+size <= len(b)
}

// EncodeBool appends a one-byte encoding of v to dst and returns the result.
func EncodeBool(dst []byte, v bool) []byte {
	if v {
		return append(dst, 1)
	}
	return append(dst, 0)
}

// DecodeBool decodes a bool at *offset, advancing it by 1 on success.
func DecodeBool(b []byte, offset *int) (bool, error) {
	if !checkBounds(b, *offset, 1) {
		return false, ErrShortBuffer
	}
	v := b[*offset] != 0
	*offset++
	return v, nil
}

// EncodeI8 appends the one-byte encoding of v to dst.
func EncodeI8(dst []byte, v int8) []byte {
	return append(dst, byte(v))
}

// DecodeI8 decodes an int8 at *offset, advancing it by 1 on success.
func DecodeI8(b []byte, offset *int) (int8, error) {
	if !checkBounds(b, *offset, 1) {
		return 0, ErrShortBuffer
	}
	v := int8(b[*offset])
	*offset++
	return v, nil
}

// EncodeU8 appends the one-byte encoding of v to dst.
func EncodeU8(dst []byte, v uint8) []byte {
	return append(dst, v)
}

// DecodeU8 decodes a uint8 at *offset, advancing it by 1 on success.
func DecodeU8(b []byte, offset *int) (uint8, error) {
	if !checkBounds(b, *offset, 1) {
		return 0, ErrShortBuffer
	}
	v := b[*offset]
	*offset++
	return v, nil
}

// EncodeI16 appends the target-endian two-byte encoding of v to dst.
func EncodeI16(dst []byte, v int16) []byte {
	var tmp [2]byte
	order.PutUint16(tmp[:], uint16(v))
	return append(dst, tmp[:]...)
}

// DecodeI16 decodes an int16 at *offset, advancing it by 2 on success.
func DecodeI16(b []byte, offset *int) (int16, error) {
	if !checkBounds(b, *offset, 2) {
		return 0, ErrShortBuffer
	}
	v := int16(order.Uint16(b[*offset : *offset+2]))
	*offset += 2
	return v, nil
}

// EncodeU16 appends the target-endian two-byte encoding of v to dst.
func EncodeU16(dst []byte, v uint16) []byte {
	var tmp [2]byte
	order.PutUint16(tmp[:], v)
	return append(dst, tmp[:]...)
}

// DecodeU16 decodes a uint16 at *offset, advancing it by 2 on success.
func DecodeU16(b []byte, offset *int) (uint16, error) {
	if !checkBounds(b, *offset, 2) {
		return 0, ErrShortBuffer
	}
	v := order.Uint16(b[*offset : *offset+2])
	*offset += 2
	return v, nil
}

// EncodeI32 appends the target-endian four-byte encoding of v to dst.
func EncodeI32(dst []byte, v int32) []byte {
	var tmp [4]byte
	order.PutUint32(tmp[:], uint32(v))
	return append(dst, tmp[:]...)
}

// DecodeI32 decodes an int32 at *offset, advancing it by 4 on success.
func DecodeI32(b []byte, offset *int) (int32, error) {
	if !checkBounds(b, *offset, 4) {
		return 0, ErrShortBuffer
	}
	v := int32(order.Uint32(b[*offset : *offset+4]))
	*offset += 4
	return v, nil
}

// EncodeU32 appends the target-endian four-byte encoding of v to dst.
func EncodeU32(dst []byte, v uint32) []byte {
	var tmp [4]byte
	order.PutUint32(tmp[:], v)
	return append(dst, tmp[:]...)
}

// DecodeU32 decodes a uint32 at *offset, advancing it by 4 on success.
func DecodeU32(b []byte, offset *int) (uint32, error) {
	if !checkBounds(b, *offset, 4) {
		return 0, ErrShortBuffer
	}
	v := order.Uint32(b[*offset : *offset+4])
	*offset += 4
	return v, nil
}

// EncodeI64 appends the target-endian eight-byte encoding of v to dst.
func EncodeI64(dst []byte, v int64) []byte {
	var tmp [8]byte
	order.PutUint64(tmp[:], uint64(v))
	return append(dst, tmp[:]...)
}

// DecodeI64 decodes an int64 at *offset, advancing it by 8 on success.
func DecodeI64(b []byte, offset *int) (int64, error) {
	if !checkBounds(b, *offset, 8) {
		return 0, ErrShortBuffer
	}
	v := int64(order.Uint64(b[*offset : *offset+8]))
	*offset += 8
	return v, nil
}

// EncodeU64 appends the target-endian eight-byte encoding of v to dst.
func EncodeU64(dst []byte, v uint64) []byte {
	var tmp [8]byte
	order.PutUint64(tmp[:], v)
	return append(dst, tmp[:]...)
}

// DecodeU64 decodes a uint64 at *offset, advancing it by 8 on success.
func DecodeU64(b []byte, offset *int) (uint64, error) {
	if !checkBounds(b, *offset, 8) {
		return 0, ErrShortBuffer
	}
	v := order.Uint64(b[*offset : *offset+8])
	*offset += 8
	return v, nil
}

// EncodeF32 appends the target-endian four-byte IEEE-754 encoding of v.
func EncodeF32(dst []byte, v float32) []byte {
	return EncodeU32(dst, math.Float32bits(v))
}

// DecodeF32 decodes a float32 at *offset, advancing it by 4 on success.
func DecodeF32(b []byte, offset *int) (float32, error) {
	bits, err := DecodeU32(b, offset)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(bits), nil
}

// EncodeF64 appends the target-endian eight-byte IEEE-754 encoding of v.
func EncodeF64(dst []byte, v float64) []byte {
	return EncodeU64(dst, math.Float64bits(v))
}

// DecodeF64 decodes a float64 at *offset, advancing it by 8 on success.
func DecodeF64(b []byte, offset *int) (float64, error) {
	bits, err := DecodeU64(b, offset)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

// EncodeF16 appends v, a raw IEEE-754-binary16 bit pattern, as two
// target-endian bytes. No float conversion or rounding happens here.
func EncodeF16(dst []byte, v uint16) []byte {
	return EncodeU16(dst, v)
}

// DecodeF16 decodes the raw two-byte half-precision bit pattern at *offset.
// Conversion to/from float32 is left to callers (pkg/variant), since Go has
// no native float16 arithmetic type.
func DecodeF16(b []byte, offset *int) (uint16, error) {
	return DecodeU16(b, offset)
}

// EncodeU64Ptr appends the target-endian eight-byte encoding of a
// pointer-width value (used for POINTER, MEM_REF, FUNC_PTR, NODE_ID,
// REGION_ID, which are all unsigned-integer-of-pointer-width).
func EncodeU64Ptr(dst []byte, v uint64) []byte {
	return EncodeU64(dst, v)
}

// DecodeU64Ptr decodes a pointer-width value at *offset.
func DecodeU64Ptr(b []byte, offset *int) (uint64, error) {
	return DecodeU64(b, offset)
}
