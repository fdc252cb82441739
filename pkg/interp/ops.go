package interp

import (
	"github.com/dd0wney/bdi/pkg/bdierrors"
	"github.com/dd0wney/bdi/pkg/bditypes"
	"github.com/dd0wney/bdi/pkg/graph"
	"github.com/dd0wney/bdi/pkg/variant"
)

// EvalBinary applies a pure binary arithmetic, bitwise, logical, or
// comparison op to lhs/rhs, per spec.md §4.8. It is the shared
// "pure-op evaluator" used by both the interpreter's execute dispatch and
// the constant-folding pass (pkg/optimize), so the two always agree on
// results.
func EvalBinary(op graph.OpCode, lhs, rhs variant.Variant) (variant.Variant, error) {
	switch op {
	case graph.OpAdd, graph.OpSub, graph.OpMul, graph.OpDiv, graph.OpMod:
		return evalArithmetic(op, lhs, rhs)
	case graph.OpAnd, graph.OpOr, graph.OpXor, graph.OpShl, graph.OpShr, graph.OpAShr, graph.OpRol, graph.OpRor:
		return evalBitwise(op, lhs, rhs)
	case graph.OpLAnd, graph.OpLOr, graph.OpLXor:
		return evalLogical(op, lhs, rhs)
	case graph.OpEQ, graph.OpNE, graph.OpLT, graph.OpLE, graph.OpGT, graph.OpGE:
		return evalComparison(op, lhs, rhs)
	default:
		return variant.Monostate, bdierrors.UnsupportedErr(op.String(), "not a binary pure op")
	}
}

// EvalUnary applies a pure unary arithmetic, bitwise, or logical op to v.
func EvalUnary(op graph.OpCode, v variant.Variant) (variant.Variant, error) {
	switch op {
	case graph.OpNeg:
		return evalNeg(v)
	case graph.OpAbs:
		return evalAbs(v)
	case graph.OpInc, graph.OpDec:
		return evalIncDec(op, v)
	case graph.OpNot:
		return evalNot(v)
	case graph.OpLNot:
		b, ok := variant.ConvertTo[bool](v)
		if !ok {
			return variant.Monostate, bdierrors.TypeMismatch(op.String(), bditypes.BOOL, v.Tag)
		}
		return variant.FromBool(!b), nil
	case graph.OpPopcount, graph.OpLZCnt, graph.OpTZCnt:
		return evalBitCount(op, v)
	default:
		return variant.Monostate, bdierrors.UnsupportedErr(op.String(), "not a unary pure op")
	}
}

// EvalConversion applies a pure numeric conversion op (everything except
// BITCAST, which pkg/variant.Bitcast already serves directly) to v,
// producing a value of type target. Shared by the interpreter's
// executeConversion and the constant-folding pass, so both agree on
// truncation/rounding/saturation behavior.
func EvalConversion(op graph.OpCode, v variant.Variant, target bditypes.Type) (variant.Variant, error) {
	switch op {
	case graph.OpTrunc:
		if !bditypes.IsInteger(v.Tag) || !bditypes.IsInteger(target) {
			return variant.Monostate, bdierrors.New("TRUNC", bdierrors.TypeErr).Detail("TRUNC requires integer source and target").Err()
		}
		return castByTargetSign(v, target), nil
	case graph.OpExtendSign:
		if !bditypes.IsInteger(v.Tag) || !bditypes.IsInteger(target) {
			return variant.Monostate, bdierrors.New(op.String(), bdierrors.TypeErr).Detail("extend ops require integer source and target").Err()
		}
		i, _ := v.AsInt64()
		return castSignedResult(target, i), nil
	case graph.OpExtendZero:
		if !bditypes.IsInteger(v.Tag) || !bditypes.IsInteger(target) {
			return variant.Monostate, bdierrors.New(op.String(), bdierrors.TypeErr).Detail("extend ops require integer source and target").Err()
		}
		u, _ := v.AsUint64()
		return castUnsignedResult(target, u), nil
	case graph.OpIntToFloat:
		if !bditypes.IsNumeric(v.Tag) || !bditypes.IsFloating(target) {
			return variant.Monostate, bdierrors.New("INT_TO_FLOAT", bdierrors.TypeErr).Detail("requires a numeric source and floating target").Err()
		}
		f, _ := variant.ConvertTo[float64](v)
		return castFloatResult(target, f), nil
	case graph.OpFloatToInt:
		if !bditypes.IsFloating(v.Tag) || !bditypes.IsInteger(target) {
			return variant.Monostate, bdierrors.New("FLOAT_TO_INT", bdierrors.TypeErr).Detail("requires a floating source and integer target").Err()
		}
		f, _ := variant.ConvertTo[float64](v)
		if bditypes.IsSigned(target) {
			return castSignedResult(target, int64(f)), nil
		}
		if f < 0 {
			f = 0
		}
		return castUnsignedResult(target, uint64(f)), nil
	default:
		return variant.Monostate, bdierrors.UnsupportedErr(op.String(), "not a pure conversion op")
	}
}

func evalArithmetic(op graph.OpCode, lhs, rhs variant.Variant) (variant.Variant, error) {
	if !bditypes.IsNumeric(lhs.Tag) || !bditypes.IsNumeric(rhs.Tag) {
		return variant.Monostate, bdierrors.New(op.String(), bdierrors.TypeErr).Detail("required numeric, got %s", lhs.Tag).Err()
	}
	result := bditypes.Promoted(lhs.Tag, rhs.Tag)
	if bditypes.IsFloating(result) {
		a, _ := variant.ConvertTo[float64](lhs)
		b, _ := variant.ConvertTo[float64](rhs)
		var r float64
		switch op {
		case graph.OpAdd:
			r = a + b
		case graph.OpSub:
			r = a - b
		case graph.OpMul:
			r = a * b
		case graph.OpDiv:
			if b == 0 {
				return variant.Monostate, bdierrors.DivideByZero(op.String())
			}
			r = a / b
		case graph.OpMod:
			return variant.Monostate, bdierrors.New(op.String(), bdierrors.TypeErr).Detail("MOD requires an integer-promoted type").Err()
		}
		return castFloatResult(result, r), nil
	}

	// Integer path.
	if bditypes.IsSigned(result) {
		a := asSignedOperand(lhs)
		b := asSignedOperand(rhs)
		var r int64
		switch op {
		case graph.OpAdd:
			r = a + b
		case graph.OpSub:
			r = a - b
		case graph.OpMul:
			r = a * b
		case graph.OpDiv:
			if b == 0 {
				return variant.Monostate, bdierrors.DivideByZero(op.String())
			}
			r = a / b
		case graph.OpMod:
			if b == 0 {
				return variant.Monostate, bdierrors.ModuloByZero(op.String())
			}
			r = a % b
		}
		return castSignedResult(result, r), nil
	}
	a := asUnsignedOperand(lhs)
	b := asUnsignedOperand(rhs)
	var r uint64
	switch op {
	case graph.OpAdd:
		r = a + b
	case graph.OpSub:
		r = a - b
	case graph.OpMul:
		r = a * b
	case graph.OpDiv:
		if b == 0 {
			return variant.Monostate, bdierrors.DivideByZero(op.String())
		}
		r = a / b
	case graph.OpMod:
		if b == 0 {
			return variant.Monostate, bdierrors.ModuloByZero(op.String())
		}
		r = a % b
	}
	return castUnsignedResult(result, r), nil
}

func evalBitwise(op graph.OpCode, lhs, rhs variant.Variant) (variant.Variant, error) {
	if !bditypes.IsInteger(lhs.Tag) || !bditypes.IsInteger(rhs.Tag) {
		return variant.Monostate, bdierrors.New(op.String(), bdierrors.TypeErr).Detail("required integer, got %s", lhs.Tag).Err()
	}
	switch op {
	case graph.OpShl, graph.OpShr, graph.OpAShr, graph.OpRol, graph.OpRor:
		return evalShiftOrRotate(op, lhs, rhs)
	}
	result := bditypes.Promoted(lhs.Tag, rhs.Tag)
	a := asUnsignedOperand(lhs)
	b := asUnsignedOperand(rhs)
	var r uint64
	switch op {
	case graph.OpAnd:
		r = a & b
	case graph.OpOr:
		r = a | b
	case graph.OpXor:
		r = a ^ b
	}
	if bditypes.IsSigned(result) {
		return castSignedResult(result, int64(r)), nil
	}
	return castUnsignedResult(result, r), nil
}

func evalShiftOrRotate(op graph.OpCode, lhs, rhs variant.Variant) (variant.Variant, error) {
	width := bditypes.SizeOf(lhs.Tag) * 8
	// Permissive reads: the shift amount and the shiftee are read by their
	// own bit pattern regardless of signedness, not validated against each
	// other's type.
	amount, _ := rhs.AsUint64()
	amount %= uint64(width)

	if op == graph.OpAShr {
		v, _ := lhs.AsInt64()
		// Sign-extend from the operand's own width before shifting.
		shifted := signExtend(v, width) >> amount
		return castSignedResult(lhs.Tag, shifted), nil
	}

	u, _ := lhs.AsUint64()
	mask := uint64(1)<<uint(width) - 1
	u &= mask
	var r uint64
	switch op {
	case graph.OpShl:
		r = (u << amount) & mask
	case graph.OpShr:
		r = u >> amount
	case graph.OpRol:
		r = ((u << amount) | (u >> (uint64(width) - amount))) & mask
		if amount == 0 {
			r = u
		}
	case graph.OpRor:
		r = ((u >> amount) | (u << (uint64(width) - amount))) & mask
		if amount == 0 {
			r = u
		}
	}
	if bditypes.IsSigned(lhs.Tag) {
		return castSignedResult(lhs.Tag, int64(r)), nil
	}
	return castUnsignedResult(lhs.Tag, r), nil
}

func signExtend(v int64, width int) int64 {
	if width >= 64 {
		return v
	}
	shift := 64 - width
	return (v << uint(shift)) >> uint(shift)
}

func evalLogical(op graph.OpCode, lhs, rhs variant.Variant) (variant.Variant, error) {
	a, ok1 := variant.ConvertTo[bool](lhs)
	b, ok2 := variant.ConvertTo[bool](rhs)
	if !ok1 || !ok2 {
		return variant.Monostate, bdierrors.New(op.String(), bdierrors.TypeErr).Detail("LAND/LOR/LXOR require BOOL operands").Err()
	}
	var r bool
	switch op {
	case graph.OpLAnd:
		r = a && b
	case graph.OpLOr:
		r = a || b
	case graph.OpLXor:
		r = a != b
	}
	return variant.FromBool(r), nil
}

func evalComparison(op graph.OpCode, lhs, rhs variant.Variant) (variant.Variant, error) {
	if !bditypes.IsNumeric(lhs.Tag) || !bditypes.IsNumeric(rhs.Tag) {
		return variant.Monostate, bdierrors.New(op.String(), bdierrors.TypeErr).Detail("required numeric, got %s", lhs.Tag).Err()
	}
	promoted := bditypes.Promoted(lhs.Tag, rhs.Tag)
	var cmp int
	if bditypes.IsFloating(promoted) {
		a, _ := variant.ConvertTo[float64](lhs)
		b, _ := variant.ConvertTo[float64](rhs)
		cmp = compareFloat(a, b)
	} else if bditypes.IsSigned(promoted) {
		a := asSignedOperand(lhs)
		b := asSignedOperand(rhs)
		cmp = compareInt64(a, b)
	} else {
		a := asUnsignedOperand(lhs)
		b := asUnsignedOperand(rhs)
		cmp = compareUint64(a, b)
	}
	var r bool
	switch op {
	case graph.OpEQ:
		r = cmp == 0
	case graph.OpNE:
		r = cmp != 0
	case graph.OpLT:
		r = cmp < 0
	case graph.OpLE:
		r = cmp <= 0
	case graph.OpGT:
		r = cmp > 0
	case graph.OpGE:
		r = cmp >= 0
	}
	return variant.FromBool(r), nil
}

func evalNeg(v variant.Variant) (variant.Variant, error) {
	if !bditypes.IsSigned(v.Tag) {
		return variant.Monostate, bdierrors.New("NEG", bdierrors.TypeErr).Detail("NEG requires a signed numeric operand").Err()
	}
	if bditypes.IsFloating(v.Tag) {
		f, _ := variant.ConvertTo[float64](v)
		return castFloatResult(v.Tag, -f), nil
	}
	i, _ := variant.ConvertTo[int64](v)
	return castSignedResult(v.Tag, -i), nil
}

func evalAbs(v variant.Variant) (variant.Variant, error) {
	if !bditypes.IsNumeric(v.Tag) {
		return variant.Monostate, bdierrors.New("ABS", bdierrors.TypeErr).Detail("required numeric, got %s", v.Tag).Err()
	}
	if bditypes.IsFloating(v.Tag) {
		f, _ := variant.ConvertTo[float64](v)
		if f < 0 {
			f = -f
		}
		return castFloatResult(v.Tag, f), nil
	}
	if bditypes.IsSigned(v.Tag) {
		i, _ := variant.ConvertTo[int64](v)
		if i < 0 {
			i = -i
		}
		return castSignedResult(v.Tag, i), nil
	}
	return v, nil
}

func evalIncDec(op graph.OpCode, v variant.Variant) (variant.Variant, error) {
	if !bditypes.IsInteger(v.Tag) {
		return variant.Monostate, bdierrors.New(op.String(), bdierrors.TypeErr).Detail("required integer, got %s", v.Tag).Err()
	}
	delta := int64(1)
	if op == graph.OpDec {
		delta = -1
	}
	if bditypes.IsSigned(v.Tag) {
		i, _ := variant.ConvertTo[int64](v)
		return castSignedResult(v.Tag, i+delta), nil
	}
	u, _ := variant.ConvertTo[uint64](v)
	return castUnsignedResult(v.Tag, uint64(int64(u)+delta)), nil
}

func evalNot(v variant.Variant) (variant.Variant, error) {
	if !bditypes.IsInteger(v.Tag) {
		return variant.Monostate, bdierrors.New("NOT", bdierrors.TypeErr).Detail("required integer, got %s", v.Tag).Err()
	}
	width := bditypes.SizeOf(v.Tag) * 8
	mask := uint64(1)<<uint(width) - 1
	u, _ := v.AsUint64()
	r := (^u) & mask
	if bditypes.IsSigned(v.Tag) {
		return castSignedResult(v.Tag, int64(r)), nil
	}
	return castUnsignedResult(v.Tag, r), nil
}

func evalBitCount(op graph.OpCode, v variant.Variant) (variant.Variant, error) {
	if !bditypes.IsInteger(v.Tag) {
		return variant.Monostate, bdierrors.New(op.String(), bdierrors.TypeErr).Detail("required integer, got %s", v.Tag).Err()
	}
	width := bditypes.SizeOf(v.Tag) * 8
	u, _ := v.AsUint64()
	mask := uint64(1)<<uint(width) - 1
	u &= mask

	var count int
	switch op {
	case graph.OpPopcount:
		count = popcount64(u)
	case graph.OpLZCnt:
		count = leadingZeros(u, width)
	case graph.OpTZCnt:
		count = trailingZeros(u, width)
	}
	return variant.FromU32(uint32(count)), nil
}

func popcount64(u uint64) int {
	n := 0
	for u != 0 {
		n += int(u & 1)
		u >>= 1
	}
	return n
}

func leadingZeros(u uint64, width int) int {
	n := 0
	for i := width - 1; i >= 0; i-- {
		if u&(1<<uint(i)) != 0 {
			break
		}
		n++
	}
	return n
}

func trailingZeros(u uint64, width int) int {
	if u == 0 {
		return width
	}
	n := 0
	for u&1 == 0 {
		u >>= 1
		n++
	}
	return n
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// asSignedOperand/asUnsignedOperand read an already-numeric-checked operand
// into the promoted result's arithmetic domain. They use the permissive
// Variant.AsInt64/AsUint64 accessors, not the guarded ConvertTo: the
// promoted type's signedness is a property of the *pair* (bditypes.Promoted
// already decided it), not of each operand individually, so a per-operand
// CanImplicitlyConvert check is wrong here — it would read a cross-sign
// operand as 0 instead of reinterpreting its bits, exactly the mixed-sign
// promotion case spec.md §4.1 and the C++ source's getAs<T>() require.
func asSignedOperand(v variant.Variant) int64 {
	i, _ := v.AsInt64()
	return i
}

func asUnsignedOperand(v variant.Variant) uint64 {
	u, _ := v.AsUint64()
	return u
}

// castByTargetSign truncates v's bit pattern to target's width, tagging the
// result signed or unsigned per target (TRUNC may narrow either way,
// unlike EXTEND_SIGN/EXTEND_ZERO which fix the direction).
func castByTargetSign(v variant.Variant, target bditypes.Type) variant.Variant {
	if bditypes.IsSigned(target) {
		i, _ := v.AsInt64()
		return castSignedResult(target, i)
	}
	u, _ := v.AsUint64()
	return castUnsignedResult(target, u)
}

func castFloatResult(t bditypes.Type, f float64) variant.Variant {
	if t == bditypes.FLOAT32 {
		return variant.FromF32(float32(f))
	}
	return variant.FromF64(f)
}

func castSignedResult(t bditypes.Type, i int64) variant.Variant {
	switch t {
	case bditypes.INT8:
		return variant.FromI8(int8(i))
	case bditypes.INT16:
		return variant.FromI16(int16(i))
	case bditypes.INT32:
		return variant.FromI32(int32(i))
	default:
		return variant.FromI64(i)
	}
}

func castUnsignedResult(t bditypes.Type, u uint64) variant.Variant {
	switch t {
	case bditypes.UINT8:
		return variant.FromU8(uint8(u))
	case bditypes.UINT16:
		return variant.FromU16(uint16(u))
	case bditypes.UINT32:
		return variant.FromU32(uint32(u))
	default:
		return variant.FromU64(u)
	}
}
