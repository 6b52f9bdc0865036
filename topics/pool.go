// Package topics maintains the debate topic pool: a JSON-backed list of
// contrarian statements the bot can throw at a channel. Topics come from
// user suggestions and from the language model; when the model is
// unreachable a stored topic is served instead, so Draw never fails.
package topics

import (
	"context"
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/SkiLark1/galobalist-jr/errors"
	"github.com/SkiLark1/galobalist-jr/llm"
	"github.com/SkiLark1/galobalist-jr/logging"
	"github.com/SkiLark1/galobalist-jr/prompt"
)

// defaultTopics seed the pool on first boot.
var defaultTopics = []string{
	"Cereal is a soup.",
	"Pineapple belongs on pizza.",
	"Cats are better than dogs.",
}

// Config configures the topic pool.
type Config struct {
	// Path is the JSON document holding the topic list.
	Path string

	// Gateway, when set, generates fresh topics. nil means Draw always
	// serves a stored topic.
	Gateway llm.Gateway

	// Rand drives topic selection. nil means time-seeded.
	Rand *rand.Rand

	// Logger for pool events. nil disables logging.
	Logger *logging.Logger
}

// Pool is the durable debate topic pool.
type Pool struct {
	mu     sync.RWMutex
	topics []string

	path    string
	gateway llm.Gateway
	logger  *logging.Logger

	// rand.Rand is not goroutine-safe; rngMu serializes draws.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewPool creates a topic pool backed by the JSON document at cfg.Path.
// A missing or corrupt document is reset to the default topic list.
func NewPool(cfg Config) (*Pool, error) {
	if cfg.Path == "" {
		return nil, errors.New(errors.CodeInvalidInput, "pool path is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.New()
		logger.SetLevel(logging.LevelError)
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	p := &Pool{
		path:    cfg.Path,
		gateway: cfg.Gateway,
		rng:     rng,
		logger:  logger.WithComponent("topics"),
	}

	if err := p.load(); err != nil || len(p.topics) == 0 {
		if err != nil {
			p.logger.StorageReset(p.path, err)
		}
		p.topics = append([]string(nil), defaultTopics...)
		if saveErr := p.save(); saveErr != nil {
			return nil, errors.Storage(saveErr, "seeding topics file")
		}
	}

	return p, nil
}

// load reads the topic list. A missing or empty file leaves the list empty
// so the caller seeds it.
func (p *Pool) load() error {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, &p.topics)
}

// save writes the whole list atomically. Callers must hold p.mu for writes.
func (p *Pool) save() error {
	data, err := json.MarshalIndent(p.topics, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".topics-*.json")
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
	return os.Rename(tmpName, p.path)
}

// Topics returns a copy of the stored topics in insertion order.
func (p *Pool) Topics() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]string, len(p.topics))
	copy(out, p.topics)
	return out
}

// Suggest appends a user-suggested topic and persists the list before
// returning.
func (p *Pool) Suggest(topic string) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return errors.New(errors.CodeInvalidInput, "topic must not be empty")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.topics = append(p.topics, topic)
	if err := p.save(); err != nil {
		return errors.Storage(err, "saving topics file")
	}
	return nil
}

// Draw returns a debate topic. It asks the language model for a fresh one
// and falls back to a uniformly random stored topic when the call fails,
// so the caller always gets something to post.
func (p *Pool) Draw(ctx context.Context) string {
	if p.gateway != nil {
		start := time.Now()
		reply, err := p.gateway.Generate(ctx, prompt.DebateTopic())
		if err == nil {
			if topic := strings.TrimSpace(reply); topic != "" {
				p.logger.GatewayCall("debate_topic", time.Since(start))
				return topic
			}
		} else {
			p.logger.GatewayFailure("debate_topic", err)
		}
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	p.rngMu.Lock()
	n := p.rng.Intn(len(p.topics))
	p.rngMu.Unlock()
	return p.topics[n]
}
