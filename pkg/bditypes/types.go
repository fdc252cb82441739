// Package bditypes implements the BDI type system: the closed set of scalar
// type tags, their byte sizes, and the promotion/conversion rules used by
// the value variant, the interpreter, and the graph IR's edge-type checks.
package bditypes

import "fmt"

// Type is the closed enum of scalar type tags a BDI value or port can carry.
type Type uint8

const (
	VOID Type = iota
	BOOL
	INT8
	INT16
	INT32
	INT64
	UINT8
	UINT16
	UINT32
	UINT64
	FLOAT16
	FLOAT32
	FLOAT64
	POINTER
	MEM_REF
	FUNC_PTR
	NODE_ID
	REGION_ID
	UNKNOWN
)

// pointerWidthBytes is the byte width used for every pointer-like type
// (POINTER, MEM_REF, FUNC_PTR, NODE_ID, REGION_ID). BDI models a flat
// 64-bit address space regardless of host architecture.
const pointerWidthBytes = 8

func (t Type) String() string {
	switch t {
	case VOID:
		return "VOID"
	case BOOL:
		return "BOOL"
	case INT8:
		return "INT8"
	case INT16:
		return "INT16"
	case INT32:
		return "INT32"
	case INT64:
		return "INT64"
	case UINT8:
		return "UINT8"
	case UINT16:
		return "UINT16"
	case UINT32:
		return "UINT32"
	case UINT64:
		return "UINT64"
	case FLOAT16:
		return "FLOAT16"
	case FLOAT32:
		return "FLOAT32"
	case FLOAT64:
		return "FLOAT64"
	case POINTER:
		return "POINTER"
	case MEM_REF:
		return "MEM_REF"
	case FUNC_PTR:
		return "FUNC_PTR"
	case NODE_ID:
		return "NODE_ID"
	case REGION_ID:
		return "REGION_ID"
	case UNKNOWN:
		return "UNKNOWN"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// SizeOf returns the fixed byte size of a scalar type. VOID and UNKNOWN
// have size 0.
func SizeOf(t Type) int {
	switch t {
	case VOID, UNKNOWN:
		return 0
	case BOOL, INT8, UINT8:
		return 1
	case INT16, UINT16, FLOAT16:
		return 2
	case INT32, UINT32, FLOAT32:
		return 4
	case INT64, UINT64, FLOAT64:
		return 8
	case POINTER, MEM_REF, FUNC_PTR, NODE_ID, REGION_ID:
		return pointerWidthBytes
	default:
		return 0
	}
}

// IsInteger reports whether t is a signed or unsigned integer type.
func IsInteger(t Type) bool {
	switch t {
	case INT8, INT16, INT32, INT64, UINT8, UINT16, UINT32, UINT64:
		return true
	default:
		return false
	}
}

// IsFloating reports whether t is a floating-point type.
func IsFloating(t Type) bool {
	switch t {
	case FLOAT16, FLOAT32, FLOAT64:
		return true
	default:
		return false
	}
}

// IsNumeric reports whether t is an integer or floating-point type.
func IsNumeric(t Type) bool {
	return IsInteger(t) || IsFloating(t)
}

// IsSigned reports whether t is a signed integer or floating-point type.
// Unsigned integers and non-numeric types report false.
func IsSigned(t Type) bool {
	switch t {
	case INT8, INT16, INT32, INT64, FLOAT16, FLOAT32, FLOAT64:
		return true
	default:
		return false
	}
}

// isUnsignedInteger reports whether t is an unsigned integer type.
func isUnsignedInteger(t Type) bool {
	switch t {
	case UINT8, UINT16, UINT32, UINT64:
		return true
	default:
		return false
	}
}

// AreCompatible reports whether two types can be used interchangeably
// in a single data edge without conversion. Per spec.md this is currently
// identity only.
func AreCompatible(a, b Type) bool {
	return a == b
}

// CanImplicitlyConvert reports whether a value of type `from` may be
// implicitly converted to type `to` without an explicit CONV_* node.
// Allowed: identity; widening among same-signedness integers; widening
// floats; BOOL to any integer; any integer to any float.
func CanImplicitlyConvert(from, to Type) bool {
	if from == to {
		return true
	}
	if from == BOOL && IsInteger(to) {
		return true
	}
	if IsInteger(from) && IsFloating(to) {
		return true
	}
	if IsInteger(from) && IsInteger(to) {
		fromSigned := IsSigned(from) && !isUnsignedInteger(from)
		toSigned := IsSigned(to) && !isUnsignedInteger(to)
		if fromSigned == toSigned && SizeOf(to) >= SizeOf(from) {
			return true
		}
		return false
	}
	if IsFloating(from) && IsFloating(to) && SizeOf(to) >= SizeOf(from) {
		return true
	}
	return false
}

// Promoted computes the binary numeric promotion of a and b, per the
// rules in spec.md §4.1: if either operand is floating point, the result
// is the widest float among {a, b, FLOAT32}; otherwise, for two integer
// operands, the result is the widest byte width, with the result unsigned
// iff the unsigned operand is the (or tied for) widest. Non-numeric
// inputs yield UNKNOWN.
func Promoted(a, b Type) Type {
	if !IsNumeric(a) || !IsNumeric(b) {
		return UNKNOWN
	}
	if IsFloating(a) || IsFloating(b) {
		best := FLOAT32
		for _, t := range []Type{a, b} {
			if IsFloating(t) && SizeOf(t) > SizeOf(best) {
				best = t
			}
		}
		return best
	}
	// Both integer.
	widthA, widthB := SizeOf(a), SizeOf(b)
	maxWidth := widthA
	if widthB > maxWidth {
		maxWidth = widthB
	}
	unsignedWins := false
	if widthA >= widthB && isUnsignedInteger(a) {
		unsignedWins = true
	}
	if widthB >= widthA && isUnsignedInteger(b) {
		unsignedWins = true
	}
	return integerOfWidth(maxWidth, unsignedWins)
}

func integerOfWidth(width int, unsigned bool) Type {
	switch width {
	case 1:
		if unsigned {
			return UINT8
		}
		return INT8
	case 2:
		if unsigned {
			return UINT16
		}
		return INT16
	case 4:
		if unsigned {
			return UINT32
		}
		return INT32
	default:
		if unsigned {
			return UINT64
		}
		return INT64
	}
}
