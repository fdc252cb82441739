package bdierrors

import (
	"errors"
	"strings"
	"testing"
)

func TestDivideByZeroIsMatchable(t *testing.T) {
	err := DivideByZero("DIV")
	if !errors.Is(err, ErrDivideByZero) {
		t.Fatalf("expected errors.Is to match ErrDivideByZero, got %v", err)
	}
	var be *BDIError
	if !errors.As(err, &be) {
		t.Fatalf("expected *BDIError, got %T", err)
	}
	if be.Kind != Arithmetic {
		t.Errorf("expected Arithmetic kind, got %v", be.Kind)
	}
}

func TestKindOf(t *testing.T) {
	kind, ok := KindOf(OutOfBounds("read", 10, 4, 8))
	if !ok || kind != Memory {
		t.Fatalf("expected Memory kind, got %v ok=%v", kind, ok)
	}

	if _, ok := KindOf(errors.New("plain")); ok {
		t.Errorf("expected ok=false for a non-BDIError")
	}
}

func TestErrorMessageIncludesOpAndDetail(t *testing.T) {
	err := StepLimitExceeded(1000)
	msg := err.Error()
	if msg == "" {
		t.Fatal("expected non-empty error message")
	}
	if !strings.Contains(msg, "execute") {
		t.Errorf("expected message to include op %q, got %q", "execute", msg)
	}
	if !strings.Contains(msg, "limit=1000") {
		t.Errorf("expected message to include detail %q, got %q", "limit=1000", msg)
	}
}
