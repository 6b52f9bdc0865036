package memory

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/SkiLark1/galobalist-jr/errors"
	"github.com/SkiLark1/galobalist-jr/logging"
)

// DefaultMaxFactsPerUser caps a user's fact list when no cap is configured.
const DefaultMaxFactsPerUser = 100

// DefaultDumpLimit bounds the debug dump to fit host platform message limits.
const DefaultDumpLimit = 1800

// StoreConfig configures the fact store.
type StoreConfig struct {
	// Path is the JSON document holding the user → facts mapping.
	Path string

	// MaxFactsPerUser caps each user's list; oldest facts are evicted
	// silently when the cap is hit. 0 means DefaultMaxFactsPerUser.
	MaxFactsPerUser int

	// DumpLimit bounds DumpPrefix output. 0 means DefaultDumpLimit.
	DumpLimit int

	// Index, when set, receives every stored fact for full-text search.
	// Index failures never fail the mutation.
	Index *Index

	// Logger for store events. nil disables logging.
	Logger *logging.Logger
}

// Store is the durable per-user fact store.
type Store struct {
	mu    sync.RWMutex
	facts map[string][]string

	// userMu serializes mutations per user identifier so that two
	// concurrent Adds for the same user go through read-modify-write
	// one at a time.
	userMuMu sync.Mutex
	userMu   map[string]*sync.Mutex

	path      string
	maxFacts  int
	dumpLimit int
	index     *Index
	logger    *logging.Logger
}

// NewStore creates a fact store backed by the JSON document at cfg.Path.
// An unreadable or corrupt document is reset to an empty mapping: losing
// data is preferred over refusing to start, and the reset is logged loudly.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New(errors.CodeInvalidInput, "store path is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.New()
		logger.SetLevel(logging.LevelError)
	}
	logger = logger.WithComponent("memory")

	maxFacts := cfg.MaxFactsPerUser
	if maxFacts <= 0 {
		maxFacts = DefaultMaxFactsPerUser
	}
	dumpLimit := cfg.DumpLimit
	if dumpLimit <= 0 {
		dumpLimit = DefaultDumpLimit
	}

	s := &Store{
		facts:     make(map[string][]string),
		userMu:    make(map[string]*sync.Mutex),
		path:      cfg.Path,
		maxFacts:  maxFacts,
		dumpLimit: dumpLimit,
		index:     cfg.Index,
		logger:    logger,
	}

	if err := s.load(); err != nil {
		s.logger.StorageReset(s.path, err)
		s.facts = make(map[string][]string)
		if saveErr := s.save(); saveErr != nil {
			return nil, errors.Storage(saveErr, "resetting memory file")
		}
	}

	return s, nil
}

// load reads the JSON document. A missing file yields an empty mapping.
func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, &s.facts)
}

// save writes the whole mapping atomically. Callers must hold s.mu.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.facts, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".memory-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.path)
}

// lockUser returns the mutex serializing mutations for one user.
func (s *Store) lockUser(userID string) *sync.Mutex {
	s.userMuMu.Lock()
	defer s.userMuMu.Unlock()
	mu, ok := s.userMu[userID]
	if !ok {
		mu = &sync.Mutex{}
		s.userMu[userID] = mu
	}
	return mu
}

// Facts returns a copy of the stored facts for a user in insertion order.
// A user with no facts yields an empty slice. Never fails.
func (s *Store) Facts(userID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	facts := s.facts[userID]
	out := make([]string, len(facts))
	copy(out, facts)
	return out
}

// Count returns the number of facts stored for a user.
func (s *Store) Count(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.facts[userID])
}

// Users returns the IDs of all users with at least one stored fact.
func (s *Store) Users() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.facts))
	for id := range s.facts {
		out = append(out, id)
	}
	return out
}

// Add appends a fact to the user's list unless it is already present
// (case-sensitive exact match). When the per-user cap is hit the oldest
// fact is evicted silently before the append. On success the whole store
// is persisted before Add returns. Reports whether the fact was added.
func (s *Store) Add(userID, fact string) (bool, error) {
	if userID == "" {
		return false, errors.New(errors.CodeInvalidInput, "user id is required")
	}
	if strings.TrimSpace(fact) == "" {
		return false, errors.New(errors.CodeInvalidInput, "fact must not be empty")
	}

	userLock := s.lockUser(userID)
	userLock.Lock()
	defer userLock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.facts[userID] {
		if existing == fact {
			s.logger.FactDuplicate(userID)
			return false, nil
		}
	}

	if len(s.facts[userID]) >= s.maxFacts {
		evict := len(s.facts[userID]) - s.maxFacts + 1
		s.facts[userID] = append([]string(nil), s.facts[userID][evict:]...)
		s.logger.FactEvicted(userID, s.maxFacts)
	}
	s.facts[userID] = append(s.facts[userID], fact)

	if err := s.save(); err != nil {
		s.logger.Error("persist_failed", map[string]interface{}{"error": err.Error()})
		return true, errors.Storage(err, "saving memory file")
	}

	if s.index != nil {
		if err := s.index.Add(userID, fact); err != nil {
			// Search is an enhancement; the fact is already durable.
			s.logger.Warn("index_failed", map[string]interface{}{"error": err.Error()})
		}
	}

	s.logger.FactStored(userID, fact)
	return true, nil
}

// Clear removes all facts for a user. Reports whether anything was removed.
func (s *Store) Clear(userID string) (bool, error) {
	userLock := s.lockUser(userID)
	userLock.Lock()
	defer userLock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.facts[userID]; !ok {
		return false, nil
	}
	delete(s.facts, userID)

	if err := s.save(); err != nil {
		return true, errors.Storage(err, "saving memory file")
	}

	if s.index != nil {
		if err := s.index.Remove(userID); err != nil {
			s.logger.Warn("index_failed", map[string]interface{}{"error": err.Error()})
		}
	}

	return true, nil
}

// Dump returns the serialized store for diagnostics.
func (s *Store) Dump() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := json.MarshalIndent(s.facts, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// DumpPrefix returns at most limit bytes of the serialized store,
// respecting the configured bound when limit <= 0. The cut lands on a
// rune boundary so the prefix is always valid UTF-8.
func (s *Store) DumpPrefix(limit int) string {
	if limit <= 0 {
		limit = s.dumpLimit
	}
	dump := s.Dump()
	if len(dump) <= limit {
		return dump
	}
	for limit > 0 && !utf8.RuneStart(dump[limit]) {
		limit--
	}
	return dump[:limit]
}

// Close releases the optional index. The store itself holds no other
// resources; every mutation has already been flushed.
func (s *Store) Close() error {
	if s.index != nil {
		return s.index.Close()
	}
	return nil
}
