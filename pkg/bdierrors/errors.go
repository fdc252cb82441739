// Package bdierrors defines the closed set of error kinds the BDI core can
// report and a structured error type used throughout the builder, the
// interpreter, and the memory manager, modeled on the storage layer's
// StorageError/ErrorBuilder pattern.
package bdierrors

import (
	"errors"
	"fmt"
)

// Kind is the closed set of BDI error categories.
type Kind uint8

const (
	// Structural covers invalid node references, bad port indices, type
	// mismatches on edges, and broken graph invariants.
	Structural Kind = iota
	// TypeErr covers a required input type that cannot be converted, or an
	// operation unsupported for the actual operand types.
	TypeErr
	// Arithmetic covers divide-by-zero and modulo-by-zero.
	Arithmetic
	// Memory covers out-of-bounds reads/writes and out-of-memory allocation.
	Memory
	// Unsupported covers opcodes reserved but not implemented in this core.
	Unsupported
	// AssertionFailed covers a failed ASSERT node.
	AssertionFailed
	// LimitExceeded covers exhaustion of the interpreter step limit.
	LimitExceeded
	// Codec covers malformed on-disk bytes.
	Codec
)

func (k Kind) String() string {
	switch k {
	case Structural:
		return "structural"
	case TypeErr:
		return "type"
	case Arithmetic:
		return "arithmetic"
	case Memory:
		return "memory"
	case Unsupported:
		return "unsupported"
	case AssertionFailed:
		return "assertion_failed"
	case LimitExceeded:
		return "limit_exceeded"
	case Codec:
		return "codec"
	default:
		return "unknown"
	}
}

// Sentinel causes, for errors.Is matching independent of the wrapping
// BDIError's Op/Detail fields.
var (
	ErrDivideByZero      = errors.New("divide by zero")
	ErrModuloByZero      = errors.New("modulo by zero")
	ErrNodeNotFound      = errors.New("node not found")
	ErrPortUnbound       = errors.New("port reference unbound")
	ErrOutOfBounds       = errors.New("out of bounds")
	ErrOutOfMemory       = errors.New("out of memory")
	ErrStepLimitExceeded = errors.New("step limit exceeded")
	ErrAssertionFailed   = errors.New("assertion failed")
	ErrUnsupportedOp     = errors.New("operation unsupported")
	ErrBadMagic          = errors.New("bad magic number")
	ErrBadVersion        = errors.New("unsupported format version")
)

// BDIError is the structured error type returned by every fallible BDI
// operation.
type BDIError struct {
	Kind   Kind
	Op     string // e.g. "execute", "connect_data", "allocate"
	Detail string // human-readable extra context
	Cause  error
}

// Error implements the error interface.
func (e *BDIError) Error() string {
	if e.Detail != "" {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s (%s): %v", e.Op, e.Kind, e.Detail, e.Cause)
		}
		return fmt.Sprintf("%s: %s (%s)", e.Op, e.Kind, e.Detail)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

// Unwrap returns the underlying cause for error chain support.
func (e *BDIError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error's cause.
func (e *BDIError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// Builder provides a fluent interface for constructing a BDIError.
type Builder struct {
	err BDIError
}

// New starts a new error builder for the given operation and kind.
func New(op string, kind Kind) *Builder {
	return &Builder{err: BDIError{Op: op, Kind: kind}}
}

// Detail sets additional human-readable context.
func (b *Builder) Detail(format string, args ...any) *Builder {
	b.err.Detail = fmt.Sprintf(format, args...)
	return b
}

// Cause sets the underlying sentinel or wrapped error.
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Err returns the constructed error.
func (b *Builder) Err() error {
	return &b.err
}

// StructuralErr builds a *BDIError of kind Structural.
func StructuralErr(op, detail string) error {
	return New(op, Structural).Detail("%s", detail).Err()
}

// TypeMismatch builds a *BDIError of kind TypeErr for a required-vs-actual
// type mismatch.
func TypeMismatch(op string, required, actual fmt.Stringer) error {
	return New(op, TypeErr).Detail("required %s, got %s", required, actual).Err()
}

// DivideByZero builds a *BDIError of kind Arithmetic wrapping
// ErrDivideByZero.
func DivideByZero(op string) error {
	return New(op, Arithmetic).Cause(ErrDivideByZero).Err()
}

// ModuloByZero builds a *BDIError of kind Arithmetic wrapping
// ErrModuloByZero.
func ModuloByZero(op string) error {
	return New(op, Arithmetic).Cause(ErrModuloByZero).Err()
}

// OutOfBounds builds a *BDIError of kind Memory wrapping ErrOutOfBounds.
func OutOfBounds(op string, addr, size, limit uint64) error {
	return New(op, Memory).Detail("addr=%d size=%d limit=%d", addr, size, limit).Cause(ErrOutOfBounds).Err()
}

// OutOfMemory builds a *BDIError of kind Memory wrapping ErrOutOfMemory.
func OutOfMemory(op string, requested, available uint64) error {
	return New(op, Memory).Detail("requested=%d available=%d", requested, available).Cause(ErrOutOfMemory).Err()
}

// StepLimitExceeded builds a *BDIError of kind LimitExceeded.
func StepLimitExceeded(limit uint64) error {
	return New("execute", LimitExceeded).Detail("limit=%d", limit).Cause(ErrStepLimitExceeded).Err()
}

// UnsupportedErr builds a *BDIError of kind Unsupported for a reserved opcode.
func UnsupportedErr(op string, detail string) error {
	return New(op, Unsupported).Detail("%s", detail).Cause(ErrUnsupportedOp).Err()
}

// AssertionFailedErr builds a *BDIError of kind AssertionFailed.
func AssertionFailedErr(op, detail string) error {
	return New(op, AssertionFailed).Detail("%s", detail).Cause(ErrAssertionFailed).Err()
}

// CodecErr builds a *BDIError of kind Codec.
func CodecErr(op, detail string, cause error) error {
	return New(op, Codec).Detail("%s", detail).Cause(cause).Err()
}

// KindOf extracts the Kind of err if it (or something it wraps) is a
// *BDIError, and ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var be *BDIError
	if errors.As(err, &be) {
		return be.Kind, true
	}
	return 0, false
}
