// Package execctx implements the BDI execution context: the
// interpreter's "register file" of port values plus its call stack,
// per spec.md §4.7. Modeled as a thin, non-reentrant owned state object
// in the same spirit as the teacher's per-connection session state — one
// instance per interpreter, mutated only by its owning goroutine.
package execctx

import "github.com/dd0wney/bdi/pkg/variant"

// PortRef identifies a data output slot: (node id, port index). Declared
// locally (rather than importing pkg/graph) to avoid a dependency cycle;
// pkg/graph.PortRef and this type share the same field layout by
// convention and are interchangeable via explicit field copy at call
// sites (see pkg/interp).
type PortRef struct {
	Node uint64
	Port uint32
}

// Context is the interpreter's runtime port-value store and call stack.
// Not safe for concurrent use: exactly one interpreter owns a Context at
// a time, per spec.md §5.
type Context struct {
	portValues map[PortRef]variant.Variant
	callStack  []uint64
}

// New creates an empty execution context.
func New() *Context {
	return &Context{
		portValues: make(map[PortRef]variant.Variant),
	}
}

// Set records v as the value produced at ref.
func (c *Context) Set(ref PortRef, v variant.Variant) {
	c.portValues[ref] = v
}

// Get retrieves the value previously set at ref, if any.
func (c *Context) Get(ref PortRef) (variant.Variant, bool) {
	v, ok := c.portValues[ref]
	return v, ok
}

// Clear empties the port-value table and call stack, e.g. between
// successive Run calls that reuse one Context.
func (c *Context) Clear() {
	c.portValues = make(map[PortRef]variant.Variant)
	c.callStack = c.callStack[:0]
}

// PushCall pushes a return-address node id onto the call stack.
func (c *Context) PushCall(nodeID uint64) {
	c.callStack = append(c.callStack, nodeID)
}

// PopCall pops the most recently pushed return address, ok=false if the
// stack is empty.
func (c *Context) PopCall() (uint64, bool) {
	if len(c.callStack) == 0 {
		return 0, false
	}
	n := len(c.callStack) - 1
	id := c.callStack[n]
	c.callStack = c.callStack[:n]
	return id, true
}

// IsCallStackEmpty reports whether the call stack has no pending return
// addresses.
func (c *Context) IsCallStackEmpty() bool {
	return len(c.callStack) == 0
}

// CallDepth reports the number of pending return addresses, for
// diagnostics.
func (c *Context) CallDepth() int {
	return len(c.callStack)
}
