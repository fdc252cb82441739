package memory

import (
	"testing"

	"github.com/dd0wney/bdi/pkg/bdierrors"
)

func TestAllocateBumpsCursorAndReturnsBase(t *testing.T) {
	m := New(64)
	a, err := m.Allocate(16, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	regionA, _ := m.Info(a)
	if regionA.Base != 0 || regionA.Size != 16 {
		t.Fatalf("unexpected region: %+v", regionA)
	}

	b, err := m.Allocate(8, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	regionB, _ := m.Info(b)
	if regionB.Base != 16 || !regionB.ReadOnly {
		t.Fatalf("unexpected region: %+v", regionB)
	}

	if m.Used() != 24 {
		t.Fatalf("expected 24 bytes used, got %d", m.Used())
	}
}

func TestAllocateFailsWhenArenaExhausted(t *testing.T) {
	m := New(8)
	if _, err := m.Allocate(16, false); err == nil {
		t.Fatal("expected out-of-memory error")
	} else if kind, ok := bdierrors.KindOf(err); !ok || kind != bdierrors.Memory {
		t.Fatalf("expected Memory kind error, got %v", err)
	}
}

func TestFreeDoesNotReclaimCursor(t *testing.T) {
	m := New(16)
	a, _ := m.Allocate(8, false)
	if !m.Free(a) {
		t.Fatal("expected Free to succeed")
	}
	if m.RegionCount() != 0 {
		t.Fatalf("expected 0 live regions after free, got %d", m.RegionCount())
	}
	// cursor does not rewind: only 8 bytes remain even though a is freed.
	if _, err := m.Allocate(16, false); err == nil {
		t.Fatal("expected allocate to still fail after free, cursor should not rewind")
	}
	if _, err := m.Allocate(8, false); err != nil {
		t.Fatalf("expected remaining 8 bytes to still be allocatable: %v", err)
	}
}

func TestFreeUnknownRegionFails(t *testing.T) {
	m := New(16)
	if m.Free(999) {
		t.Fatal("expected Free to fail for unknown region")
	}
}

func TestReadWriteRoundTrip(t *testing.T) {
	m := New(32)
	region, _ := m.Allocate(8, false)
	info, _ := m.Info(region)

	want := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if err := m.Write(info.Base, want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := make([]byte, 8)
	if err := m.Read(info.Base, got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("round trip mismatch at %d: got %d want %d", i, got[i], want[i])
		}
	}
}

func TestReadWriteRejectOutOfBounds(t *testing.T) {
	m := New(4)
	if err := m.Write(0, make([]byte, 8)); err == nil {
		t.Fatal("expected out-of-bounds write error")
	}
	if err := m.Read(2, make([]byte, 4)); err == nil {
		t.Fatal("expected out-of-bounds read error")
	}
}
