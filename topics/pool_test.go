package topics

import (
	"context"
	"encoding/json"
	gerrors "errors"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/SkiLark1/galobalist-jr/llm"
)

func TestNewPool_SeedsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.json")
	pool, err := NewPool(Config{Path: path})
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}

	got := pool.Topics()
	if len(got) != len(defaultTopics) {
		t.Fatalf("topics = %v, want defaults", got)
	}
	if got[0] != "Cereal is a soup." {
		t.Errorf("first topic = %q", got[0])
	}

	// Seeding persists immediately.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading seeded file: %v", err)
	}
	var stored []string
	if err := json.Unmarshal(data, &stored); err != nil {
		t.Fatalf("seeded file is not valid JSON: %v", err)
	}
	if len(stored) != len(defaultTopics) {
		t.Errorf("stored = %v", stored)
	}
}

func TestNewPool_KeepsExistingTopics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.json")
	if err := os.WriteFile(path, []byte(`["Water is wet."]`), 0644); err != nil {
		t.Fatal(err)
	}

	pool, err := NewPool(Config{Path: path})
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	got := pool.Topics()
	if len(got) != 1 || got[0] != "Water is wet." {
		t.Errorf("topics = %v, want the existing topic untouched", got)
	}
}

func TestNewPool_ResetsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	pool, err := NewPool(Config{Path: path})
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	if got := pool.Topics(); len(got) != len(defaultTopics) {
		t.Errorf("topics = %v, want defaults after reset", got)
	}
}

func TestPool_Suggest_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.json")
	pool, err := NewPool(Config{Path: path})
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}

	if err := pool.Suggest("Hot dogs are sandwiches."); err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}

	reopened, err := NewPool(Config{Path: path})
	if err != nil {
		t.Fatalf("reopening pool: %v", err)
	}
	got := reopened.Topics()
	if got[len(got)-1] != "Hot dogs are sandwiches." {
		t.Errorf("topics after reopen = %v", got)
	}
}

func TestPool_Suggest_RejectsEmpty(t *testing.T) {
	pool, err := NewPool(Config{Path: filepath.Join(t.TempDir(), "topics.json")})
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	if err := pool.Suggest("   "); err == nil {
		t.Error("Suggest accepted a blank topic")
	}
}

func TestPool_Draw_UsesGateway(t *testing.T) {
	mock := llm.NewMock()
	mock.SetResponse("Ketchup is a smoothie.")
	pool, err := NewPool(Config{
		Path:    filepath.Join(t.TempDir(), "topics.json"),
		Gateway: mock,
	})
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}

	got := pool.Draw(context.Background())
	if got != "Ketchup is a smoothie." {
		t.Errorf("Draw = %q", got)
	}
}

func TestPool_Draw_ConcurrentFallbacks(t *testing.T) {
	pool, err := NewPool(Config{
		Path: filepath.Join(t.TempDir(), "topics.json"),
		Rand: rand.New(rand.NewSource(3)),
	})
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				if got := pool.Draw(context.Background()); got == "" {
					t.Error("Draw returned an empty topic")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestPool_Draw_FallsBackToStored(t *testing.T) {
	mock := llm.NewMock()
	mock.SetError(gerrors.New("quota exceeded"))
	pool, err := NewPool(Config{
		Path:    filepath.Join(t.TempDir(), "topics.json"),
		Gateway: mock,
		Rand:    rand.New(rand.NewSource(7)),
	})
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}

	got := pool.Draw(context.Background())
	found := false
	for _, topic := range defaultTopics {
		if got == topic {
			found = true
		}
	}
	if !found {
		t.Errorf("Draw = %q, want one of the stored topics", got)
	}
}
