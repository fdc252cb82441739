package interp

import (
	"github.com/dd0wney/bdi/pkg/bdierrors"
	"github.com/dd0wney/bdi/pkg/bdilog"
	"github.com/dd0wney/bdi/pkg/bditypes"
	"github.com/dd0wney/bdi/pkg/graph"
	"github.com/dd0wney/bdi/pkg/metadata"
	"github.com/dd0wney/bdi/pkg/variant"
)

// execute dispatches node by its op, per spec.md §4.8's "execute(node)
// dispatch" table. Control-flow ops (JUMP, BRANCH_COND, CALL, RETURN,
// SWITCH) are no-ops here; their routing happens entirely in nextOf.
func (in *Interpreter) execute(g *graph.Graph, node *graph.Node) error {
	switch node.Op {
	case graph.OpNop, graph.OpStart, graph.OpComment, graph.OpEnd:
		return nil
	case graph.OpAssert:
		return in.executeAssert(node)
	case graph.OpVerifyProof:
		return nil // proof verification backends are out of scope for this core.

	case graph.OpAdd, graph.OpSub, graph.OpMul, graph.OpDiv, graph.OpMod,
		graph.OpAnd, graph.OpOr, graph.OpXor, graph.OpShl, graph.OpShr, graph.OpAShr, graph.OpRol, graph.OpRor,
		graph.OpLAnd, graph.OpLOr, graph.OpLXor,
		graph.OpEQ, graph.OpNE, graph.OpLT, graph.OpLE, graph.OpGT, graph.OpGE:
		return in.executeBinary(node)

	case graph.OpNeg, graph.OpAbs, graph.OpInc, graph.OpDec, graph.OpNot, graph.OpLNot,
		graph.OpPopcount, graph.OpLZCnt, graph.OpTZCnt:
		return in.executeUnary(node)

	case graph.OpLoad:
		return in.executeLoad(node)
	case graph.OpStore:
		return in.executeStore(node)
	case graph.OpAlloc:
		return in.executeAlloc(node)
	case graph.OpFree:
		return in.executeFree(node)
	case graph.OpCopy:
		return in.executeCopy(node)
	case graph.OpSet:
		return in.executeSet(node)

	case graph.OpTrunc, graph.OpExtendSign, graph.OpExtendZero,
		graph.OpFloatToInt, graph.OpIntToFloat, graph.OpBitcast:
		return in.executeConversion(node)

	case graph.OpReadPort, graph.OpWritePort, graph.OpPrint:
		return in.executeIO(node)

	case graph.OpJump, graph.OpBranchCond, graph.OpCall, graph.OpReturn, graph.OpSwitch:
		return nil

	case graph.OpSpawn, graph.OpJoin, graph.OpMutexLock, graph.OpMutexUnlock,
		graph.OpAtomicRMW, graph.OpChanSend, graph.OpChanRecv:
		return bdierrors.UnsupportedErr(node.Op.String(), "concurrency primitives are reserved but unimplemented in this core")

	case graph.OpDSLResolve, graph.OpLambdaCreate, graph.OpLambdaApply,
		graph.OpLearnUpdateParam, graph.OpFeedbackCalcError, graph.OpRecurPropagateState,
		graph.OpVecAdd, graph.OpVecDot, graph.OpVecScale, graph.OpMatMul:
		return bdierrors.UnsupportedErr(node.Op.String(), "DSL/ML placeholder op is not lowered in this core")

	default:
		return bdierrors.UnsupportedErr(node.Op.String(), "unknown opcode")
	}
}

func (in *Interpreter) executeAssert(node *graph.Node) error {
	operand, err := in.operand(node, 0)
	if err != nil {
		return err
	}
	ok, valid := variant.ConvertTo[bool](operand)
	if !valid {
		return bdierrors.New("ASSERT", bdierrors.TypeErr).Detail("input 0 is not convertible to BOOL").Err()
	}
	if ok {
		return nil
	}
	desc := ""
	if in.meta != nil {
		desc = in.meta.DescriptionOf(metadata.Handle(node.MetadataHandle))
	}
	return bdierrors.AssertionFailedErr("ASSERT", desc)
}

func (in *Interpreter) executeBinary(node *graph.Node) error {
	lhs, err := in.operand(node, 0)
	if err != nil {
		return err
	}
	rhs, err := in.operand(node, 1)
	if err != nil {
		return err
	}
	result, err := EvalBinary(node.Op, lhs, rhs)
	if err != nil {
		return err
	}
	in.setOutput(node, 0, result)
	return nil
}

func (in *Interpreter) executeUnary(node *graph.Node) error {
	v, err := in.operand(node, 0)
	if err != nil {
		return err
	}
	result, err := EvalUnary(node.Op, v)
	if err != nil {
		return err
	}
	in.setOutput(node, 0, result)
	return nil
}

func (in *Interpreter) executeLoad(node *graph.Node) error {
	addrVariant, err := in.operand(node, 0)
	if err != nil {
		return err
	}
	addr, ok := addrVariant.AsAddress()
	if !ok {
		return bdierrors.New("LOAD", bdierrors.TypeErr).Detail("address operand is not convertible to an address").Err()
	}
	if len(node.DataOutputs) == 0 {
		return bdierrors.New("LOAD", bdierrors.Structural).Detail("node %d declares no output", node.ID).Err()
	}
	outType := node.DataOutputs[0].Type
	buf := make([]byte, bditypes.SizeOf(outType))
	if err := in.mem.Read(addr, buf); err != nil {
		return err
	}
	in.setOutput(node, 0, variant.PayloadToVariant(variant.Payload{Type: outType, Bytes: buf}))
	return nil
}

func (in *Interpreter) executeStore(node *graph.Node) error {
	addrVariant, err := in.operand(node, 0)
	if err != nil {
		return err
	}
	addr, ok := addrVariant.AsAddress()
	if !ok {
		return bdierrors.New("STORE", bdierrors.TypeErr).Detail("address operand is not convertible to an address").Err()
	}
	valueVariant, err := in.operand(node, 1)
	if err != nil {
		return err
	}
	payload := variant.VariantToPayload(valueVariant)
	return in.mem.Write(addr, payload.Bytes)
}

func (in *Interpreter) executeAlloc(node *graph.Node) error {
	sizeVariant, err := in.operand(node, 0)
	if err != nil {
		return err
	}
	size, ok := variant.ConvertTo[uint64](sizeVariant)
	if !ok {
		return bdierrors.New("ALLOC", bdierrors.TypeErr).Detail("size operand is not convertible to u64").Err()
	}
	region, err := in.mem.Allocate(size, false)
	if err != nil {
		if in.metrics != nil {
			in.metrics.RecordMemoryOp("allocate", "error")
		}
		return err
	}
	if in.metrics != nil {
		in.metrics.RecordMemoryOp("allocate", "ok")
		in.metrics.SetMemoryUsage(in.mem.Used(), in.mem.RegionCount())
	}
	info, _ := in.mem.Info(region)
	in.setOutput(node, 0, variant.FromPtrWord(bditypes.POINTER, info.Base))
	return nil
}

func (in *Interpreter) executeFree(node *graph.Node) error {
	// FREE is advisory given the bump allocator (spec.md §4.6); it has no
	// region-id operand convention defined, so it is always a successful
	// no-op against the arena's bookkeeping.
	if in.metrics != nil {
		in.metrics.RecordMemoryOp("free", "ok")
	}
	return nil
}

func (in *Interpreter) executeCopy(node *graph.Node) error {
	dstVariant, err := in.operand(node, 0)
	if err != nil {
		return err
	}
	srcVariant, err := in.operand(node, 1)
	if err != nil {
		return err
	}
	lenVariant, err := in.operand(node, 2)
	if err != nil {
		return err
	}
	dst, _ := dstVariant.AsAddress()
	src, _ := srcVariant.AsAddress()
	n, _ := variant.ConvertTo[uint64](lenVariant)

	buf := make([]byte, n)
	if err := in.mem.Read(src, buf); err != nil {
		return err
	}
	return in.mem.Write(dst, buf)
}

func (in *Interpreter) executeSet(node *graph.Node) error {
	addrVariant, err := in.operand(node, 0)
	if err != nil {
		return err
	}
	byteVariant, err := in.operand(node, 1)
	if err != nil {
		return err
	}
	lenVariant, err := in.operand(node, 2)
	if err != nil {
		return err
	}
	addr, _ := addrVariant.AsAddress()
	b, _ := variant.ConvertTo[uint8](byteVariant)
	n, _ := variant.ConvertTo[uint64](lenVariant)

	buf := make([]byte, n)
	for i := range buf {
		buf[i] = b
	}
	return in.mem.Write(addr, buf)
}

func (in *Interpreter) executeConversion(node *graph.Node) error {
	v, err := in.operand(node, 0)
	if err != nil {
		return err
	}
	if len(node.DataOutputs) == 0 {
		return bdierrors.New(node.Op.String(), bdierrors.Structural).Detail("node %d declares no output", node.ID).Err()
	}
	target := node.DataOutputs[0].Type

	if node.Op == graph.OpBitcast {
		result, err := variant.Bitcast(v, target)
		if err != nil {
			return err
		}
		in.setOutput(node, 0, result)
		return nil
	}

	// TRUNC/EXTEND_SIGN/EXTEND_ZERO/INT_TO_FLOAT/FLOAT_TO_INT: out-of-range
	// float-to-int conversions do not crash (spec.md's "MUST NOT crash"
	// rule) but are not saturated either: the value goes through Go's
	// float-to-integer conversion and is then truncated to the target
	// width, with negative inputs to an unsigned target becoming 0. All of
	// this happens in EvalConversion, the same evaluator pkg/optimize's
	// constant-folding pass reuses.
	result, err := EvalConversion(node.Op, v, target)
	if err != nil {
		return err
	}
	in.setOutput(node, 0, result)
	return nil
}

// executeIO handles READ_PORT/WRITE_PORT/PRINT. spec.md reserves these
// for a front-end-defined external port abstraction it does not specify
// further; this core treats READ_PORT/WRITE_PORT as pass-through data
// relays against the execution context, and PRINT as a structured-log
// side effect, so graphs using them remain runnable without an external
// host.
func (in *Interpreter) executeIO(node *graph.Node) error {
	switch node.Op {
	case graph.OpReadPort, graph.OpWritePort:
		v, err := in.operand(node, 0)
		if err != nil {
			return err
		}
		in.setOutput(node, 0, v)
		return nil
	case graph.OpPrint:
		v, err := in.operand(node, 0)
		if err != nil {
			return err
		}
		in.logger.Info("print", bdilog.NodeID(uint64(node.ID)), bdilog.Any("value", v))
		return nil
	default:
		return bdierrors.UnsupportedErr(node.Op.String(), "unhandled I/O op")
	}
}
