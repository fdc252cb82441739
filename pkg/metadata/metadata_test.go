package metadata

import "testing"

func TestAddGetUpdateRemove(t *testing.T) {
	s := NewStore()

	h := s.AddSemanticTag("dsl.foo", "a test node")
	if h == 0 {
		t.Fatal("expected nonzero handle")
	}

	entry, ok := s.Get(h)
	if !ok || entry.Kind != KindSemanticTag || entry.Semantic.Description != "a test node" {
		t.Fatalf("unexpected entry: %+v ok=%v", entry, ok)
	}

	if ok := s.Update(h, Entry{Kind: KindSemanticTag, Semantic: SemanticTag{Description: "updated"}}); !ok {
		t.Fatal("expected Update to succeed")
	}
	if s.DescriptionOf(h) != "updated" {
		t.Fatalf("expected updated description, got %q", s.DescriptionOf(h))
	}

	if ok := s.Remove(h); !ok {
		t.Fatal("expected Remove to succeed")
	}
	if _, ok := s.Get(h); ok {
		t.Fatal("expected Get to fail after Remove")
	}
}

func TestHandleZeroIsReserved(t *testing.T) {
	s := NewStore()
	if _, ok := s.Get(0); ok {
		t.Fatal("expected Get(0) to fail")
	}
	if s.Update(0, Entry{}) {
		t.Fatal("expected Update(0, ...) to fail")
	}
	if s.Remove(0) {
		t.Fatal("expected Remove(0) to fail")
	}
}

func TestHandlesAreMonotonicAndUnique(t *testing.T) {
	s := NewStore()
	seen := make(map[Handle]bool)
	for i := 0; i < 100; i++ {
		h := s.Add(Entry{Kind: KindAttentionInfo, Attention: AttentionInfo{Score: float64(i)}})
		if seen[h] {
			t.Fatalf("handle %d reused", h)
		}
		seen[h] = true
	}
}
