// Package graph implements the BDI graph IR: nodes, ports, typed payloads,
// and the node container with edge insertion/removal and validation.
// Cross-node references use stable NodeID values into an arena-style map
// rather than owning pointers, so node removal is a purely index-level
// operation (see spec.md §9, "Pointer-heavy node container").
package graph

import (
	"github.com/dd0wney/bdi/pkg/bditypes"
	"github.com/dd0wney/bdi/pkg/variant"
)

// NodeID uniquely identifies a node within a single Graph's lifetime.
// 0 is the reserved "no node" / halt sentinel and is never allocated.
type NodeID uint64

// NoNode is the sentinel NodeID meaning "unbound" or "halt".
const NoNode NodeID = 0

// PortRef identifies a data output slot on a node: (node, port index).
// A PortRef with NodeID == NoNode is unbound.
type PortRef struct {
	Node NodeID
	Port uint32
}

// Unbound reports whether r refers to no node.
func (r PortRef) Unbound() bool {
	return r.Node == NoNode
}

// PortInfo describes a data output slot: its type, and an optional name.
type PortInfo struct {
	Type bditypes.Type
	Name string
}

// OpCode is the closed operation taxonomy from spec.md §4.4.
type OpCode uint16

const (
	// Meta
	OpNop OpCode = iota
	OpStart
	OpEnd
	OpComment
	OpAssert
	OpVerifyProof

	// Memory
	OpAlloc
	OpFree
	OpLoad
	OpStore
	OpCopy
	OpSet

	// Arithmetic
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNeg
	OpAbs
	OpInc
	OpDec
	OpFMA

	// Bitwise
	OpAnd
	OpOr
	OpXor
	OpNot
	OpShl
	OpShr
	OpAShr
	OpRol
	OpRor
	OpPopcount
	OpLZCnt
	OpTZCnt

	// Logical (BOOL-only)
	OpLAnd
	OpLOr
	OpLXor
	OpLNot

	// Comparison (result BOOL)
	OpEQ
	OpNE
	OpLT
	OpLE
	OpGT
	OpGE

	// Control
	OpJump
	OpBranchCond
	OpCall
	OpReturn
	OpSwitch

	// Conversion
	OpTrunc
	OpExtendSign
	OpExtendZero
	OpFloatToInt
	OpIntToFloat
	OpBitcast

	// I/O
	OpReadPort
	OpWritePort
	OpPrint

	// Concurrency primitives (reserved; interpreter refuses)
	OpSpawn
	OpJoin
	OpMutexLock
	OpMutexUnlock
	OpAtomicRMW
	OpChanSend
	OpChanRecv

	// DSL/ML placeholders (may be lowered)
	OpDSLResolve
	OpLambdaCreate
	OpLambdaApply
	OpLearnUpdateParam
	OpFeedbackCalcError
	OpRecurPropagateState
	OpVecAdd
	OpVecDot
	OpVecScale
	OpMatMul
)

var opNames = map[OpCode]string{
	OpNop: "NOP", OpStart: "START", OpEnd: "END", OpComment: "COMMENT",
	OpAssert: "ASSERT", OpVerifyProof: "VERIFY_PROOF",
	OpAlloc: "ALLOC", OpFree: "FREE", OpLoad: "LOAD", OpStore: "STORE",
	OpCopy: "COPY", OpSet: "SET",
	OpAdd: "ADD", OpSub: "SUB", OpMul: "MUL", OpDiv: "DIV", OpMod: "MOD",
	OpNeg: "NEG", OpAbs: "ABS", OpInc: "INC", OpDec: "DEC", OpFMA: "FMA",
	OpAnd: "AND", OpOr: "OR", OpXor: "XOR", OpNot: "NOT", OpShl: "SHL",
	OpShr: "SHR", OpAShr: "ASHR", OpRol: "ROL", OpRor: "ROR",
	OpPopcount: "POPCOUNT", OpLZCnt: "LZCNT", OpTZCnt: "TZCNT",
	OpLAnd: "LAND", OpLOr: "LOR", OpLXor: "LXOR", OpLNot: "LNOT",
	OpEQ: "EQ", OpNE: "NE", OpLT: "LT", OpLE: "LE", OpGT: "GT", OpGE: "GE",
	OpJump: "JUMP", OpBranchCond: "BRANCH_COND", OpCall: "CALL",
	OpReturn: "RETURN", OpSwitch: "SWITCH",
	OpTrunc: "TRUNC", OpExtendSign: "EXTEND_SIGN", OpExtendZero: "EXTEND_ZERO",
	OpFloatToInt: "FLOAT_TO_INT", OpIntToFloat: "INT_TO_FLOAT", OpBitcast: "BITCAST",
	OpReadPort: "READ_PORT", OpWritePort: "WRITE_PORT", OpPrint: "PRINT",
	OpSpawn: "SPAWN", OpJoin: "JOIN", OpMutexLock: "MUTEX_LOCK",
	OpMutexUnlock: "MUTEX_UNLOCK", OpAtomicRMW: "ATOMIC_RMW",
	OpChanSend: "CHAN_SEND", OpChanRecv: "CHAN_RECV",
	OpDSLResolve: "DSL_RESOLVE", OpLambdaCreate: "LAMBDA_CREATE",
	OpLambdaApply: "LAMBDA_APPLY", OpLearnUpdateParam: "LEARN_UPDATE_PARAM",
	OpFeedbackCalcError: "FEEDBACK_CALC_ERROR", OpRecurPropagateState: "RECUR_PROPAGATE_STATE",
	OpVecAdd: "VEC_ADD", OpVecDot: "VEC_DOT", OpVecScale: "VEC_SCALE", OpMatMul: "MAT_MUL",
}

func (op OpCode) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "UNKNOWN_OP"
}

// Node is a single vertex in the BDI graph. Data inputs are an ordered
// sequence of operand references; data outputs are an ordered sequence of
// typed slots this node may produce. Control inputs/outputs route the
// interpreter's fetch/decode/execute loop; control_outputs order is
// semantic (slot 0 = true/target, slot 1 = false/return, etc.).
type Node struct {
	ID             NodeID
	Op             OpCode
	DataInputs     []PortRef
	DataOutputs    []PortInfo
	ControlInputs  map[NodeID]struct{}
	ControlOutputs []NodeID
	Payload        variant.Payload
	MetadataHandle uint64
	RegionID       uint64
}

// newNode creates a bare node with the given id and op, ready for the
// builder/container to populate.
func newNode(id NodeID, op OpCode) *Node {
	return &Node{
		ID:            id,
		Op:            op,
		ControlInputs: make(map[NodeID]struct{}),
	}
}

// HasControlInput reports whether pred is a direct control predecessor.
func (n *Node) HasControlInput(pred NodeID) bool {
	_, ok := n.ControlInputs[pred]
	return ok
}

// HasControlOutput reports whether succ appears in n's control outputs.
func (n *Node) HasControlOutput(succ NodeID) bool {
	for _, s := range n.ControlOutputs {
		if s == succ {
			return true
		}
	}
	return false
}
