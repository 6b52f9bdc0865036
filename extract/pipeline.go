package extract

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SkiLark1/galobalist-jr/errors"
	"github.com/SkiLark1/galobalist-jr/llm"
	"github.com/SkiLark1/galobalist-jr/logging"
	"github.com/SkiLark1/galobalist-jr/memory"
	"github.com/SkiLark1/galobalist-jr/prompt"
)

// DefaultSentinel is the literal reply meaning "nothing worth keeping".
const DefaultSentinel = "NOTHING NOTABLE"

// Default word-count window for accepted fact candidates. Responses
// outside it are treated as noise or oracle malfunction.
const (
	DefaultMinWords = 3
	DefaultMaxWords = 40
)

// Outcome is the terminal result of processing one message.
type Outcome int

const (
	// OutcomeSkipped: the message was authored by the bot or is an
	// explicit command; the pipeline never consulted the oracle.
	OutcomeSkipped Outcome = iota

	// OutcomeNothing: the oracle returned the sentinel.
	OutcomeNothing

	// OutcomeRejected: the oracle's reply fell outside the word-count
	// window and was discarded as noise.
	OutcomeRejected

	// OutcomeDuplicate: the extracted fact was already stored.
	OutcomeDuplicate

	// OutcomeStored: a new fact was committed durably.
	OutcomeStored

	// OutcomeFailed: the gateway call failed; logged and swallowed,
	// no state change.
	OutcomeFailed
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeNothing:
		return "nothing"
	case OutcomeRejected:
		return "rejected"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeStored:
		return "stored"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Message is one inbound chat message as seen by the pipeline.
type Message struct {
	AuthorID    string
	AuthorIsBot bool
	Content     string
}

// Result is what the pipeline reports back to the dispatcher glue.
type Result struct {
	Outcome Outcome

	// Fact is the committed fact text when Outcome is OutcomeStored.
	Fact string

	// Remark requests a best-effort "that was boring" aside. It fires
	// probabilistically and is never guaranteed.
	Remark bool
}

// Config configures the pipeline.
type Config struct {
	Gateway llm.Gateway
	Store   *memory.Store

	// MinWords and MaxWords bound accepted candidates. 0 means the default.
	MinWords int
	MaxWords int

	// Sentinel overrides DefaultSentinel.
	Sentinel string

	// CommandPrefix marks explicit commands the pipeline ignores.
	CommandPrefix string

	// BoringOdds is the probability of requesting a boring-remark on a
	// message that yielded nothing. 0 disables it.
	BoringOdds float64

	// Rand drives the boring-remark roll. nil means time-seeded.
	Rand *rand.Rand

	// Logger for pipeline events. nil disables logging.
	Logger *logging.Logger
}

// Pipeline runs the per-message extraction state machine.
type Pipeline struct {
	gateway       llm.Gateway
	store         *memory.Store
	minWords      int
	maxWords      int
	sentinel      string
	commandPrefix string
	boringOdds    float64
	logger        *logging.Logger

	// rand.Rand is not goroutine-safe; rngMu serializes the remark rolls.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewPipeline creates a pipeline.
func NewPipeline(cfg Config) (*Pipeline, error) {
	if cfg.Gateway == nil {
		return nil, errors.New(errors.CodeInvalidInput, "gateway is required")
	}
	if cfg.Store == nil {
		return nil, errors.New(errors.CodeInvalidInput, "store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.New()
		logger.SetLevel(logging.LevelError)
	}

	minWords := cfg.MinWords
	if minWords <= 0 {
		minWords = DefaultMinWords
	}
	maxWords := cfg.MaxWords
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	sentinel := cfg.Sentinel
	if sentinel == "" {
		sentinel = DefaultSentinel
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Pipeline{
		gateway:       cfg.Gateway,
		store:         cfg.Store,
		minWords:      minWords,
		maxWords:      maxWords,
		sentinel:      sentinel,
		commandPrefix: cfg.CommandPrefix,
		boringOdds:    cfg.BoringOdds,
		rng:           rng,
		logger:        logger.WithComponent("extract"),
	}, nil
}

// ignoreReason reports why a message is filtered before the oracle is
// consulted, or "" when it should be processed.
func (p *Pipeline) ignoreReason(msg Message) string {
	if msg.AuthorIsBot {
		return "bot_author"
	}
	if p.commandPrefix != "" && strings.HasPrefix(strings.TrimSpace(msg.Content), p.commandPrefix) {
		return "command"
	}
	return ""
}

// Ignores reports whether Process would skip the message without a
// gateway call. Lets callers avoid charging quota for filtered traffic.
func (p *Pipeline) Ignores(msg Message) bool {
	return p.ignoreReason(msg) != ""
}

// Process runs the state machine for one message. It is terminal in one
// pass: no retries, and no error ever propagates to the caller.
func (p *Pipeline) Process(ctx context.Context, msg Message) Result {
	logger := p.logger.WithTraceID(uuid.NewString())

	// Filter: the bot's own messages and explicit commands are no-ops.
	if reason := p.ignoreReason(msg); reason != "" {
		logger.ExtractionSkipped(msg.AuthorID, reason)
		return Result{Outcome: OutcomeSkipped}
	}

	// Query the oracle.
	start := time.Now()
	reply, err := p.gateway.Generate(ctx, prompt.Extraction(p.sentinel, msg.Content))
	if err != nil {
		// Gateway failures are final for this message: no state change,
		// nothing visible to the user beyond logs.
		logger.GatewayFailure("extract", err)
		return Result{Outcome: OutcomeFailed}
	}
	logger.GatewayCall("extract", time.Since(start))

	// Validate the candidate.
	candidate := strings.TrimSpace(reply)
	if candidate == "" || strings.EqualFold(candidate, p.sentinel) {
		return Result{Outcome: OutcomeNothing, Remark: p.rollRemark()}
	}
	words := len(strings.Fields(candidate))
	if words < p.minWords || words > p.maxWords {
		logger.ExtractionSkipped(msg.AuthorID, "word_count")
		return Result{Outcome: OutcomeRejected}
	}

	// Commit.
	added, err := p.store.Add(msg.AuthorID, candidate)
	if err != nil {
		logger.Error("commit_failed", map[string]interface{}{
			"user":  msg.AuthorID,
			"error": err.Error(),
		})
		if !added {
			return Result{Outcome: OutcomeFailed}
		}
		// The fact landed in memory even though the flush failed; treat
		// it as stored so the user still gets their acknowledgement.
	}
	if !added {
		return Result{Outcome: OutcomeDuplicate, Remark: p.rollRemark()}
	}

	return Result{Outcome: OutcomeStored, Fact: candidate}
}

// rollRemark decides probabilistically whether to request a boring-remark.
func (p *Pipeline) rollRemark() bool {
	if p.boringOdds <= 0 {
		return false
	}
	p.rngMu.Lock()
	roll := p.rng.Float64()
	p.rngMu.Unlock()
	return roll < p.boringOdds
}
