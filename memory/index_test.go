package memory

import (
	"path/filepath"
	"testing"
)

func newMemIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := NewMemIndex()
	if err != nil {
		t.Fatalf("NewMemIndex failed: %v", err)
	}
	t.Cleanup(func() { ix.Close() })
	return ix
}

func TestIndex_SearchScopedToUser(t *testing.T) {
	ix := newMemIndex(t)

	ix.Add("u1", "adopted a corgi named Biscuit")
	ix.Add("u1", "plays jazz trombone")
	ix.Add("u2", "allergic to corgis")

	hits, err := ix.Search("u1", "corgi", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected exactly one hit for u1, got %v", hits)
	}
	if hits[0] != "adopted a corgi named Biscuit" {
		t.Errorf("unexpected hit: %q", hits[0])
	}
}

func TestIndex_SearchNoMatch(t *testing.T) {
	ix := newMemIndex(t)
	ix.Add("u1", "collects typewriters")

	hits, err := ix.Search("u1", "submarine", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits, got %v", hits)
	}
}

func TestIndex_Remove(t *testing.T) {
	ix := newMemIndex(t)

	ix.Add("u1", "keeps bees on the roof")
	ix.Add("u2", "keeps bees in the garden")

	if err := ix.Remove("u1"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	hits, _ := ix.Search("u1", "bees", 5)
	if len(hits) != 0 {
		t.Errorf("u1's facts should be gone, got %v", hits)
	}
	hits, _ = ix.Search("u2", "bees", 5)
	if len(hits) != 1 {
		t.Errorf("u2's facts should survive, got %v", hits)
	}
}

func TestStore_WithIndex(t *testing.T) {
	ix := newMemIndex(t)
	s, err := NewStore(StoreConfig{
		Path:  filepath.Join(t.TempDir(), "memory.json"),
		Index: ix,
	})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	s.Add("u1", "runs a sourdough bakery")
	hits, err := ix.Search("u1", "sourdough", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("stored facts should be searchable, got %v", hits)
	}

	s.Clear("u1")
	hits, _ = ix.Search("u1", "sourdough", 5)
	if len(hits) != 0 {
		t.Errorf("cleared facts should leave the index, got %v", hits)
	}
}
