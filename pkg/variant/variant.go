// Package variant implements the BDI runtime value variant: a tagged union
// over the scalar types, plus bidirectional conversion to/from typed
// payload bytes via pkg/codec, and the guarded implicit-conversion routine
// that refuses narrowing pkg/bditypes forbids.
package variant

import (
	"github.com/dd0wney/bdi/pkg/bdierrors"
	"github.com/dd0wney/bdi/pkg/bditypes"
	"github.com/dd0wney/bdi/pkg/codec"
)

// Variant is the runtime tagged-sum value. Exactly one of the typed fields
// is meaningful, selected by Tag; Tag == bditypes.VOID means monostate
// (void or error), matching the C++ source's std::monostate case.
type Variant struct {
	Tag Tag
	b   bool
	i8  int8
	u8  uint8
	i16 int16
	u16 uint16
	i32 int32
	u32 uint32
	i64 int64
	u64 uint64
	f32 float32
	f64 float64
	ptr uint64 // also used for MEM_REF/FUNC_PTR/NODE_ID/REGION_ID
}

// Tag aliases bditypes.Type: the variant's discriminant is exactly the
// type tag it carries.
type Tag = bditypes.Type

// Monostate is the zero Variant: VOID tag, no payload. It represents both
// "no value" and "error producing no value".
var Monostate = Variant{Tag: bditypes.VOID}

// TypeOf returns the type tag of v.
func TypeOf(v Variant) bditypes.Type {
	return v.Tag
}

// Constructors, one per scalar type.

func FromBool(v bool) Variant       { return Variant{Tag: bditypes.BOOL, b: v} }
func FromI8(v int8) Variant         { return Variant{Tag: bditypes.INT8, i8: v} }
func FromU8(v uint8) Variant        { return Variant{Tag: bditypes.UINT8, u8: v} }
func FromI16(v int16) Variant       { return Variant{Tag: bditypes.INT16, i16: v} }
func FromU16(v uint16) Variant      { return Variant{Tag: bditypes.UINT16, u16: v} }
func FromI32(v int32) Variant       { return Variant{Tag: bditypes.INT32, i32: v} }
func FromU32(v uint32) Variant      { return Variant{Tag: bditypes.UINT32, u32: v} }
func FromI64(v int64) Variant       { return Variant{Tag: bditypes.INT64, i64: v} }
func FromU64(v uint64) Variant      { return Variant{Tag: bditypes.UINT64, u64: v} }
func FromF32(v float32) Variant     { return Variant{Tag: bditypes.FLOAT32, f32: v} }
func FromF64(v float64) Variant     { return Variant{Tag: bditypes.FLOAT64, f64: v} }
func FromPtrWord(t bditypes.Type, v uint64) Variant {
	return Variant{Tag: t, ptr: v}
}

// AsAddress returns v's value as a flat 64-bit address, accepting any of
// the pointer-family tags (POINTER, MEM_REF, FUNC_PTR, NODE_ID, REGION_ID)
// in addition to any integer tag ConvertTo would already accept. Memory
// operations (pkg/interp's LOAD/STORE/ALLOC output) use this instead of
// ConvertTo[uint64] because CanImplicitlyConvert deliberately does not
// relate POINTER to UINT64 — they are distinct domains everywhere except
// here, at the arena boundary.
func (v Variant) AsAddress() (uint64, bool) {
	switch v.Tag {
	case bditypes.POINTER, bditypes.MEM_REF, bditypes.FUNC_PTR, bditypes.NODE_ID, bditypes.REGION_ID:
		return v.ptr, true
	default:
		return v.asUint64()
	}
}

// asFloat64 returns the value of a numeric or BOOL variant widened to
// float64, and ok=false for every other tag.
func (v Variant) asFloat64() (float64, bool) {
	switch v.Tag {
	case bditypes.FLOAT32:
		return float64(v.f32), true
	case bditypes.FLOAT64:
		return v.f64, true
	case bditypes.INT8:
		return float64(v.i8), true
	case bditypes.INT16:
		return float64(v.i16), true
	case bditypes.INT32:
		return float64(v.i32), true
	case bditypes.INT64:
		return float64(v.i64), true
	case bditypes.UINT8:
		return float64(v.u8), true
	case bditypes.UINT16:
		return float64(v.u16), true
	case bditypes.UINT32:
		return float64(v.u32), true
	case bditypes.UINT64:
		return float64(v.u64), true
	case bditypes.BOOL:
		if v.b {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func (v Variant) asInt64() (int64, bool) {
	switch v.Tag {
	case bditypes.INT8:
		return int64(v.i8), true
	case bditypes.INT16:
		return int64(v.i16), true
	case bditypes.INT32:
		return int64(v.i32), true
	case bditypes.INT64:
		return v.i64, true
	case bditypes.UINT8:
		return int64(v.u8), true
	case bditypes.UINT16:
		return int64(v.u16), true
	case bditypes.UINT32:
		return int64(v.u32), true
	case bditypes.UINT64:
		return int64(v.u64), true
	case bditypes.BOOL:
		if v.b {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func (v Variant) asUint64() (uint64, bool) {
	switch v.Tag {
	case bditypes.UINT8:
		return uint64(v.u8), true
	case bditypes.UINT16:
		return uint64(v.u16), true
	case bditypes.UINT32:
		return uint64(v.u32), true
	case bditypes.UINT64:
		return v.u64, true
	case bditypes.INT8:
		return uint64(v.i8), true
	case bditypes.INT16:
		return uint64(v.i16), true
	case bditypes.INT32:
		return uint64(v.i32), true
	case bditypes.INT64:
		return uint64(v.i64), true
	case bditypes.BOOL:
		if v.b {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// AsInt64 returns v's value permissively widened to int64: any integer or
// BOOL tag converts, regardless of signedness (float tags return ok=false),
// mirroring the C++ source's
// getAs<T>() static_cast. Unlike ConvertTo, this never refuses a
// cross-signedness read — it is for internal arithmetic on an already
// promoted result type (pkg/interp's evalArithmetic/evalBitwise/
// evalComparison), not for checking whether a graph-level conversion is
// allowed.
func (v Variant) AsInt64() (int64, bool) { return v.asInt64() }

// AsUint64 is AsInt64's unsigned counterpart.
func (v Variant) AsUint64() (uint64, bool) { return v.asUint64() }

// Bool returns v's value as a bool, if v's tag is BOOL or any integer type
// (nonzero is true).
func (v Variant) Bool() (bool, bool) {
	if v.Tag == bditypes.BOOL {
		return v.b, true
	}
	if i, ok := v.asInt64(); ok {
		return i != 0, true
	}
	return false, false
}

// ConvertTo attempts to convert v to Go type T, succeeding only if v's
// source type is can-implicitly-convert-compatible (pkg/bditypes) with T's
// corresponding BDI type. This is how the core prevents silent narrowing;
// e.g. converting an INT64 variant to int32 fails here and requires an
// explicit TRUNC node in the graph.
func ConvertTo[T bool | int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64 | float32 | float64](v Variant) (T, bool) {
	var zero T
	target := bdiTypeOf(zero)
	if !bditypes.CanImplicitlyConvert(v.Tag, target) {
		return zero, false
	}
	switch p := any(&zero).(type) {
	case *bool:
		b, ok := v.Bool()
		*p = b
		return zero, ok
	case *float32:
		f, ok := v.asFloat64()
		*p = float32(f)
		return zero, ok
	case *float64:
		f, ok := v.asFloat64()
		*p = f
		return zero, ok
	case *uint8:
		u, ok := v.asUint64()
		*p = uint8(u)
		return zero, ok
	case *uint16:
		u, ok := v.asUint64()
		*p = uint16(u)
		return zero, ok
	case *uint32:
		u, ok := v.asUint64()
		*p = uint32(u)
		return zero, ok
	case *uint64:
		u, ok := v.asUint64()
		*p = u
		return zero, ok
	case *int8:
		i, ok := v.asInt64()
		*p = int8(i)
		return zero, ok
	case *int16:
		i, ok := v.asInt64()
		*p = int16(i)
		return zero, ok
	case *int32:
		i, ok := v.asInt64()
		*p = int32(i)
		return zero, ok
	case *int64:
		i, ok := v.asInt64()
		*p = i
		return zero, ok
	default:
		return zero, false
	}
}

func bdiTypeOf(zero any) bditypes.Type {
	switch zero.(type) {
	case bool:
		return bditypes.BOOL
	case int8:
		return bditypes.INT8
	case int16:
		return bditypes.INT16
	case int32:
		return bditypes.INT32
	case int64:
		return bditypes.INT64
	case uint8:
		return bditypes.UINT8
	case uint16:
		return bditypes.UINT16
	case uint32:
		return bditypes.UINT32
	case uint64:
		return bditypes.UINT64
	case float32:
		return bditypes.FLOAT32
	case float64:
		return bditypes.FLOAT64
	default:
		return bditypes.UNKNOWN
	}
}

// Payload is a typed immediate byte blob: (type tag, bytes), used for node
// immediate data and the on-disk format.
type Payload struct {
	Type  bditypes.Type
	Bytes []byte
}

// IsValid reports whether p satisfies invariant I3: bytes length matches
// size_of(type), or the payload is VOID.
func (p Payload) IsValid() bool {
	if p.Type == bditypes.VOID {
		return len(p.Bytes) == 0
	}
	return len(p.Bytes) == bditypes.SizeOf(p.Type)
}

// VariantToPayload encodes v into a TypedPayload using pkg/codec. A
// monostate variant yields a VOID payload.
func VariantToPayload(v Variant) Payload {
	switch v.Tag {
	case bditypes.VOID, bditypes.UNKNOWN:
		return Payload{Type: bditypes.VOID}
	case bditypes.BOOL:
		return Payload{Type: v.Tag, Bytes: codec.EncodeBool(nil, v.b)}
	case bditypes.INT8:
		return Payload{Type: v.Tag, Bytes: codec.EncodeI8(nil, v.i8)}
	case bditypes.UINT8:
		return Payload{Type: v.Tag, Bytes: codec.EncodeU8(nil, v.u8)}
	case bditypes.INT16:
		return Payload{Type: v.Tag, Bytes: codec.EncodeI16(nil, v.i16)}
	case bditypes.UINT16:
		return Payload{Type: v.Tag, Bytes: codec.EncodeU16(nil, v.u16)}
	case bditypes.INT32:
		return Payload{Type: v.Tag, Bytes: codec.EncodeI32(nil, v.i32)}
	case bditypes.UINT32:
		return Payload{Type: v.Tag, Bytes: codec.EncodeU32(nil, v.u32)}
	case bditypes.INT64:
		return Payload{Type: v.Tag, Bytes: codec.EncodeI64(nil, v.i64)}
	case bditypes.UINT64:
		return Payload{Type: v.Tag, Bytes: codec.EncodeU64(nil, v.u64)}
	case bditypes.FLOAT32:
		return Payload{Type: v.Tag, Bytes: codec.EncodeF32(nil, v.f32)}
	case bditypes.FLOAT64:
		return Payload{Type: v.Tag, Bytes: codec.EncodeF64(nil, v.f64)}
	case bditypes.POINTER, bditypes.MEM_REF, bditypes.FUNC_PTR, bditypes.NODE_ID, bditypes.REGION_ID:
		return Payload{Type: v.Tag, Bytes: codec.EncodeU64Ptr(nil, v.ptr)}
	default:
		return Payload{Type: bditypes.VOID}
	}
}

// PayloadToVariant decodes p into a Variant using pkg/codec. A type/length
// mismatch (invariant I3 violated) yields Monostate rather than an error,
// matching the source's std::optional-to-monostate collapse.
func PayloadToVariant(p Payload) Variant {
	if !p.IsValid() {
		return Monostate
	}
	off := 0
	switch p.Type {
	case bditypes.VOID:
		return Monostate
	case bditypes.BOOL:
		v, err := codec.DecodeBool(p.Bytes, &off)
		if err != nil {
			return Monostate
		}
		return FromBool(v)
	case bditypes.INT8:
		v, err := codec.DecodeI8(p.Bytes, &off)
		if err != nil {
			return Monostate
		}
		return FromI8(v)
	case bditypes.UINT8:
		v, err := codec.DecodeU8(p.Bytes, &off)
		if err != nil {
			return Monostate
		}
		return FromU8(v)
	case bditypes.INT16:
		v, err := codec.DecodeI16(p.Bytes, &off)
		if err != nil {
			return Monostate
		}
		return FromI16(v)
	case bditypes.UINT16:
		v, err := codec.DecodeU16(p.Bytes, &off)
		if err != nil {
			return Monostate
		}
		return FromU16(v)
	case bditypes.INT32:
		v, err := codec.DecodeI32(p.Bytes, &off)
		if err != nil {
			return Monostate
		}
		return FromI32(v)
	case bditypes.UINT32:
		v, err := codec.DecodeU32(p.Bytes, &off)
		if err != nil {
			return Monostate
		}
		return FromU32(v)
	case bditypes.INT64:
		v, err := codec.DecodeI64(p.Bytes, &off)
		if err != nil {
			return Monostate
		}
		return FromI64(v)
	case bditypes.UINT64:
		v, err := codec.DecodeU64(p.Bytes, &off)
		if err != nil {
			return Monostate
		}
		return FromU64(v)
	case bditypes.FLOAT32:
		v, err := codec.DecodeF32(p.Bytes, &off)
		if err != nil {
			return Monostate
		}
		return FromF32(v)
	case bditypes.FLOAT64:
		v, err := codec.DecodeF64(p.Bytes, &off)
		if err != nil {
			return Monostate
		}
		return FromF64(v)
	case bditypes.POINTER, bditypes.MEM_REF, bditypes.FUNC_PTR, bditypes.NODE_ID, bditypes.REGION_ID:
		v, err := codec.DecodeU64Ptr(p.Bytes, &off)
		if err != nil {
			return Monostate
		}
		return FromPtrWord(p.Type, v)
	default:
		return Monostate
	}
}

// Bitcast reinterprets v's bytes as type `to`, requiring equal size_of
// (spec.md BITCAST semantics). Returns an error if the sizes differ.
func Bitcast(v Variant, to bditypes.Type) (Variant, error) {
	if bditypes.SizeOf(v.Tag) != bditypes.SizeOf(to) {
		return Monostate, bdierrors.New("BITCAST", bdierrors.TypeErr).
			Detail("size_of(%s)=%d != size_of(%s)=%d", v.Tag, bditypes.SizeOf(v.Tag), to, bditypes.SizeOf(to)).Err()
	}
	p := VariantToPayload(v)
	p.Type = to
	return PayloadToVariant(p), nil
}
