package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/SkiLark1/galobalist-jr/errors"
)

func newTestStore(t *testing.T, cfg StoreConfig) *Store {
	t.Helper()
	if cfg.Path == "" {
		cfg.Path = filepath.Join(t.TempDir(), "memory.json")
	}
	s, err := NewStore(cfg)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_Facts_UnknownUser(t *testing.T) {
	s := newTestStore(t, StoreConfig{})

	facts := s.Facts("nobody")
	if facts == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(facts) != 0 {
		t.Errorf("expected no facts, got %v", facts)
	}
}

func TestStore_Add_Dedup(t *testing.T) {
	s := newTestStore(t, StoreConfig{})

	added, err := s.Add("u1", "likes cats")
	if err != nil || !added {
		t.Fatalf("first add should succeed: added=%v err=%v", added, err)
	}

	added, err = s.Add("u1", "likes cats")
	if err != nil {
		t.Fatalf("duplicate add should not error: %v", err)
	}
	if added {
		t.Error("duplicate add should report false")
	}

	if got := s.Facts("u1"); len(got) != 1 || got[0] != "likes cats" {
		t.Errorf("expected exactly one copy, got %v", got)
	}
}

func TestStore_Add_CaseSensitive(t *testing.T) {
	s := newTestStore(t, StoreConfig{})

	s.Add("u1", "likes cats")
	added, _ := s.Add("u1", "Likes Cats")
	if !added {
		t.Error("dedup is exact-match; different case is a distinct fact")
	}
}

func TestStore_Add_PreservesOrder(t *testing.T) {
	s := newTestStore(t, StoreConfig{})

	want := []string{"plays bass", "afraid of pigeons", "collects typewriters"}
	for _, f := range want {
		if added, err := s.Add("u1", f); !added || err != nil {
			t.Fatalf("Add(%q) = %v, %v", f, added, err)
		}
	}

	got := s.Facts("u1")
	if len(got) != len(want) {
		t.Fatalf("expected %d facts, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("fact %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestStore_Add_EmptyFact(t *testing.T) {
	s := newTestStore(t, StoreConfig{})

	added, err := s.Add("u1", "   ")
	if added {
		t.Error("blank fact must not be stored")
	}
	if errors.CodeOf(err) != errors.CodeInvalidInput {
		t.Errorf("expected CodeInvalidInput, got %v", err)
	}
}

func TestStore_Add_CapEvictsOldest(t *testing.T) {
	s := newTestStore(t, StoreConfig{MaxFactsPerUser: 3})

	for i := 1; i <= 4; i++ {
		if added, err := s.Add("u1", fmt.Sprintf("fact %d", i)); !added || err != nil {
			t.Fatalf("Add fact %d: added=%v err=%v", i, added, err)
		}
	}

	got := s.Facts("u1")
	if len(got) != 3 {
		t.Fatalf("expected cap of 3, got %d facts", len(got))
	}
	if got[0] != "fact 2" || got[2] != "fact 4" {
		t.Errorf("expected oldest-first eviction, got %v", got)
	}
}

func TestStore_Clear(t *testing.T) {
	s := newTestStore(t, StoreConfig{})

	s.Add("u1", "has a boat")
	removed, err := s.Clear("u1")
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if !removed {
		t.Error("expected removal to be reported")
	}
	if len(s.Facts("u1")) != 0 {
		t.Error("facts should be gone after Clear")
	}

	removed, err = s.Clear("u1")
	if err != nil {
		t.Fatalf("Clear on empty user should not error: %v", err)
	}
	if removed {
		t.Error("nothing removed should be reported for an empty user")
	}
}

func TestStore_ConcurrentAdds_NoLostUpdate(t *testing.T) {
	s := newTestStore(t, StoreConfig{})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.Add("u1", "A")
	}()
	go func() {
		defer wg.Done()
		s.Add("u1", "B")
	}()
	wg.Wait()

	got := s.Facts("u1")
	if len(got) != 2 {
		t.Fatalf("lost update: expected both facts, got %v", got)
	}
	seen := map[string]bool{got[0]: true, got[1]: true}
	if !seen["A"] || !seen["B"] {
		t.Errorf("expected A and B regardless of interleaving, got %v", got)
	}
}

func TestStore_ConcurrentAdds_ManyUsersAndFacts(t *testing.T) {
	s := newTestStore(t, StoreConfig{})

	const perUser = 10
	var wg sync.WaitGroup
	for _, user := range []string{"u1", "u2", "u3"} {
		for i := 0; i < perUser; i++ {
			wg.Add(1)
			go func(user string, i int) {
				defer wg.Done()
				s.Add(user, fmt.Sprintf("fact %d", i))
			}(user, i)
		}
	}
	wg.Wait()

	for _, user := range []string{"u1", "u2", "u3"} {
		if got := s.Count(user); got != perUser {
			t.Errorf("user %s: expected %d facts, got %d", user, perUser, got)
		}
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")

	s1 := newTestStore(t, StoreConfig{Path: path})
	s1.Add("u1", "grows bonsai trees")
	s1.Close()

	s2 := newTestStore(t, StoreConfig{Path: path})
	got := s2.Facts("u1")
	if len(got) != 1 || got[0] != "grows bonsai trees" {
		t.Errorf("facts should survive a reopen, got %v", got)
	}
}

func TestStore_CorruptFileResetsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	s := newTestStore(t, StoreConfig{Path: path})
	if len(s.Users()) != 0 {
		t.Error("corrupt file should reset to an empty mapping")
	}

	// The reset must also be durable.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reset file unreadable: %v", err)
	}
	if strings.Contains(string(data), "not json") {
		t.Error("corrupt content should have been replaced")
	}
}

func TestStore_DumpPrefix_Bounded(t *testing.T) {
	s := newTestStore(t, StoreConfig{DumpLimit: 50})

	for i := 0; i < 30; i++ {
		s.Add("u1", fmt.Sprintf("a reasonably long fact number %d about the user", i))
	}

	if got := s.DumpPrefix(0); len(got) > 50 {
		t.Errorf("dump prefix must respect the configured bound, got %d bytes", len(got))
	}
	if got := s.DumpPrefix(10); len(got) > 10 {
		t.Errorf("explicit limit must bound the dump, got %d bytes", len(got))
	}
}

func TestStore_DumpPrefix_CutsOnRuneBoundary(t *testing.T) {
	s := newTestStore(t, StoreConfig{})

	s.Add("u1", strings.Repeat("héberge un chat très câlin 🐈 ", 10))

	// Sweep limits around the multi-byte runes; every cut must stay
	// valid UTF-8 and within bound.
	for limit := 20; limit < 80; limit++ {
		got := s.DumpPrefix(limit)
		if len(got) > limit {
			t.Fatalf("limit %d: prefix is %d bytes", limit, len(got))
		}
		if !utf8.ValidString(got) {
			t.Fatalf("limit %d: prefix is not valid UTF-8: %q", limit, got)
		}
	}
}

func TestStore_Dump_RoundTrips(t *testing.T) {
	s := newTestStore(t, StoreConfig{})
	s.Add("u1", "fact one")

	dump := s.Dump()
	if !strings.Contains(dump, "u1") || !strings.Contains(dump, "fact one") {
		t.Errorf("dump should include stored state: %s", dump)
	}
}
