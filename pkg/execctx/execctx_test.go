package execctx

import (
	"testing"

	"github.com/dd0wney/bdi/pkg/variant"
)

func TestSetGetRoundTrip(t *testing.T) {
	c := New()
	ref := PortRef{Node: 1, Port: 0}
	c.Set(ref, variant.FromI32(42))

	v, ok := c.Get(ref)
	if !ok {
		t.Fatal("expected value to be present")
	}
	got, ok := variant.ConvertTo[int32](v)
	if !ok || got != 42 {
		t.Fatalf("expected 42, got %d ok=%v", got, ok)
	}
}

func TestGetUnsetPortReturnsFalse(t *testing.T) {
	c := New()
	if _, ok := c.Get(PortRef{Node: 99, Port: 0}); ok {
		t.Fatal("expected unset port to report ok=false")
	}
}

func TestCallStackLIFO(t *testing.T) {
	c := New()
	if !c.IsCallStackEmpty() {
		t.Fatal("expected new context to have empty call stack")
	}
	c.PushCall(10)
	c.PushCall(20)
	if c.CallDepth() != 2 {
		t.Fatalf("expected depth 2, got %d", c.CallDepth())
	}
	top, ok := c.PopCall()
	if !ok || top != 20 {
		t.Fatalf("expected to pop 20, got %d ok=%v", top, ok)
	}
	top, ok = c.PopCall()
	if !ok || top != 10 {
		t.Fatalf("expected to pop 10, got %d ok=%v", top, ok)
	}
	if !c.IsCallStackEmpty() {
		t.Fatal("expected call stack empty after draining")
	}
}

func TestPopCallOnEmptyStack(t *testing.T) {
	c := New()
	if _, ok := c.PopCall(); ok {
		t.Fatal("expected PopCall on empty stack to report ok=false")
	}
}

func TestClearResetsPortValuesAndCallStack(t *testing.T) {
	c := New()
	c.Set(PortRef{Node: 1, Port: 0}, variant.FromBool(true))
	c.PushCall(5)

	c.Clear()

	if _, ok := c.Get(PortRef{Node: 1, Port: 0}); ok {
		t.Fatal("expected port values cleared")
	}
	if !c.IsCallStackEmpty() {
		t.Fatal("expected call stack cleared")
	}
}
