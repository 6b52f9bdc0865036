package engine

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/SkiLark1/galobalist-jr/config"
	"github.com/SkiLark1/galobalist-jr/errors"
	"github.com/SkiLark1/galobalist-jr/extract"
	"github.com/SkiLark1/galobalist-jr/llm"
	"github.com/SkiLark1/galobalist-jr/logging"
	"github.com/SkiLark1/galobalist-jr/memory"
	"github.com/SkiLark1/galobalist-jr/persona"
	"github.com/SkiLark1/galobalist-jr/prompt"
	"github.com/SkiLark1/galobalist-jr/ratelimit"
	"github.com/SkiLark1/galobalist-jr/topics"
)

// Apology is the reply served when the gateway fails mid-conversation.
const Apology = "Sorry, my brain is buffering. Try me again in a minute."

// SlowDown is the reply served when a user exhausts their rate budget.
const SlowDown = "Easy there. Give me a minute to catch my breath."

// Notifier receives best-effort acknowledgements from the auto-extraction
// path. Implementations talk to the host platform (a reaction emoji, a
// short aside); failures there are the platform glue's problem.
type Notifier interface {
	// React acknowledges a newly stored fact.
	React(msg extract.Message, fact string)

	// Remark delivers a "that was boring" aside.
	Remark(msg extract.Message)
}

// Config wires an Engine from already-constructed components.
type Config struct {
	Gateway  llm.Gateway
	Store    *memory.Store
	Personas *persona.Catalog
	Pipeline *extract.Pipeline

	// Index, when set, backs RecallQuery with full-text search. nil falls
	// back to substring matching over the stored list.
	Index *memory.Index

	// Topics, when set, enables Debate and SuggestTopic.
	Topics *topics.Pool

	// Limiter, when set, throttles gateway-bound requests per user.
	Limiter *ratelimit.Limiter

	// Notifier receives extraction acknowledgements. nil disables them.
	Notifier Notifier

	// Logger for engine events. nil disables logging.
	Logger *logging.Logger
}

// Engine exposes the bot's command surface to the platform dispatcher.
type Engine struct {
	gateway  llm.Gateway
	store    *memory.Store
	personas *persona.Catalog
	pipeline *extract.Pipeline
	index    *memory.Index
	topics   *topics.Pool
	limiter  *ratelimit.Limiter
	notifier Notifier
	logger   *logging.Logger
}

// New creates an Engine from components.
func New(cfg Config) (*Engine, error) {
	if cfg.Gateway == nil {
		return nil, errors.New(errors.CodeInvalidInput, "gateway is required")
	}
	if cfg.Store == nil {
		return nil, errors.New(errors.CodeInvalidInput, "store is required")
	}
	if cfg.Personas == nil {
		return nil, errors.New(errors.CodeInvalidInput, "persona catalog is required")
	}
	if cfg.Pipeline == nil {
		return nil, errors.New(errors.CodeInvalidInput, "pipeline is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.New()
		logger.SetLevel(logging.LevelError)
	}

	return &Engine{
		gateway:  cfg.Gateway,
		store:    cfg.Store,
		personas: cfg.Personas,
		pipeline: cfg.Pipeline,
		index:    cfg.Index,
		topics:   cfg.Topics,
		limiter:  cfg.Limiter,
		notifier: cfg.Notifier,
		logger:   logger.WithComponent("engine"),
	}, nil
}

// Build constructs a fully wired Engine from file configuration: gateway,
// disk-backed store with search index, persona catalog, extraction
// pipeline and topic pool.
func Build(cfg config.Config) (*Engine, error) {
	logger := logging.New()

	gateway, err := llm.New(cfg.Gateway.LLM())
	if err != nil {
		return nil, err
	}

	index, err := memory.NewIndex(cfg.Store.Path + ".bleve")
	if err != nil {
		return nil, err
	}

	store, err := memory.NewStore(memory.StoreConfig{
		Path:            cfg.Store.Path,
		MaxFactsPerUser: cfg.Store.MaxFactsPerUser,
		DumpLimit:       cfg.Store.DumpLimit,
		Index:           index,
		Logger:          logger,
	})
	if err != nil {
		index.Close()
		return nil, err
	}

	var rng *rand.Rand
	if cfg.Persona.Seed != 0 {
		rng = rand.New(rand.NewSource(cfg.Persona.Seed))
	}
	personas, err := persona.New(persona.Config{
		CatalogPath: cfg.Persona.CatalogPath,
		StatePath:   cfg.Persona.StatePath,
		Rand:        rng,
		Logger:      logger,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	pipeline, err := extract.NewPipeline(extract.Config{
		Gateway:       gateway,
		Store:         store,
		MinWords:      cfg.Extract.MinWords,
		MaxWords:      cfg.Extract.MaxWords,
		CommandPrefix: cfg.Extract.CommandPrefix,
		BoringOdds:    cfg.Extract.BoringOdds,
		Logger:        logger,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	pool, err := topics.NewPool(topics.Config{
		Path:    cfg.Topics.Path,
		Gateway: gateway,
		Logger:  logger,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Burst > 0 {
		limiter = ratelimit.New(cfg.RateLimit.Burst, time.Duration(cfg.RateLimit.WindowSeconds)*time.Second)
	}

	return New(Config{
		Gateway:  gateway,
		Store:    store,
		Personas: personas,
		Pipeline: pipeline,
		Index:    index,
		Topics:   pool,
		Limiter:  limiter,
		Logger:   logger,
	})
}

// SetNotifier installs the acknowledgement sink after construction, for
// callers that build the engine before the platform session exists.
func (e *Engine) SetNotifier(n Notifier) {
	e.notifier = n
}

// Talk produces a conversational reply to a user's message. The prompt
// carries the active persona template and everything stored about the
// user. A gateway failure is logged and answered with Apology rather
// than surfaced, so the dispatcher always has something to post.
func (e *Engine) Talk(ctx context.Context, userID, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", errors.New(errors.CodeInvalidInput, "message must not be empty")
	}
	if e.limiter != nil && !e.limiter.Allow(userID) {
		e.logger.Warn("rate_limited", map[string]interface{}{"user": userID, "op": "talk"})
		return SlowDown, nil
	}

	promptText := prompt.Compile(e.personas.ActiveTemplate(), e.store.Facts(userID), message)

	start := time.Now()
	reply, err := e.gateway.Generate(ctx, promptText)
	if err != nil {
		e.logger.GatewayFailure("talk", err)
		return Apology, nil
	}
	e.logger.GatewayCall("talk", time.Since(start))

	return strings.TrimSpace(reply), nil
}

// Remember stores a fact for a user directly, bypassing extraction.
// Reports whether the fact was new.
func (e *Engine) Remember(userID, fact string) (bool, error) {
	return e.store.Add(userID, fact)
}

// Recall returns everything stored about a user, oldest first.
func (e *Engine) Recall(userID string) []string {
	return e.store.Facts(userID)
}

// RecallQuery returns the user's facts matching a free-text query. With a
// search index wired it is relevance-ranked; without one it degrades to
// case-insensitive substring matching over the stored list.
func (e *Engine) RecallQuery(userID, query string) ([]string, error) {
	if e.index != nil {
		return e.index.Search(userID, query, 5)
	}

	needle := strings.ToLower(query)
	var out []string
	for _, fact := range e.store.Facts(userID) {
		if strings.Contains(strings.ToLower(fact), needle) {
			out = append(out, fact)
		}
	}
	return out, nil
}

// SetPersona switches the active persona. An unknown name is rejected
// with an error listing the valid options; the active persona is
// unchanged in that case.
func (e *Engine) SetPersona(name string) error {
	return e.personas.SetActive(name)
}

// Persona returns the active persona name.
func (e *Engine) Persona() string {
	return e.personas.Active()
}

// Personas returns the catalog's persona names, sorted.
func (e *Engine) Personas() []string {
	return e.personas.Names()
}

// Forget drops everything stored about a user. Reports whether anything
// was removed.
func (e *Engine) Forget(userID string) (bool, error) {
	return e.store.Clear(userID)
}

// DebugMemory returns a bounded prefix of the serialized memory store,
// sized to fit host platform message limits.
func (e *Engine) DebugMemory() string {
	return e.store.DumpPrefix(0)
}

// Help returns the command summary posted in response to a help request.
func (e *Engine) Help() string {
	lines := []string{
		"!talk <message> — chat with me (I remember things about you)",
		"!remember <fact> — store a fact about yourself directly",
		"!recall [query] — list what I know about you, optionally filtered",
		"!persona <name> — switch my persona (" + strings.Join(e.personas.Names(), ", ") + ")",
		"!forget — wipe everything I know about you",
		"!debugmemory — show the raw memory store (truncated)",
	}
	if e.topics != nil {
		lines = append(lines,
			"!debate — post a debate topic",
			"!suggestdebate <topic> — add a topic to the pool",
		)
	}
	return strings.Join(lines, "\n")
}

// Debate returns a debate topic, freshly generated when the gateway is
// healthy and drawn from the stored pool otherwise.
func (e *Engine) Debate(ctx context.Context) (string, error) {
	if e.topics == nil {
		return "", errors.New(errors.CodeNotFound, "debate topics are not configured")
	}
	return fmt.Sprintf("🔥 Daily Debate 🔥\n%s", e.topics.Draw(ctx)), nil
}

// SuggestTopic adds a user-suggested debate topic to the pool.
func (e *Engine) SuggestTopic(topic string) error {
	if e.topics == nil {
		return errors.New(errors.CodeNotFound, "debate topics are not configured")
	}
	return e.topics.Suggest(topic)
}

// HandleMessage feeds one inbound message through the extraction
// pipeline and fires the notifier on outcomes the user should notice.
// It never fails; the returned outcome is informational. A user over
// their rate budget is skipped silently rather than answered. Messages
// the pipeline filters anyway cost no budget.
func (e *Engine) HandleMessage(ctx context.Context, msg extract.Message) extract.Outcome {
	if e.limiter != nil && !e.pipeline.Ignores(msg) && !e.limiter.Allow(msg.AuthorID) {
		e.logger.Warn("rate_limited", map[string]interface{}{"user": msg.AuthorID, "op": "extract"})
		return extract.OutcomeSkipped
	}

	result := e.pipeline.Process(ctx, msg)

	if e.notifier != nil {
		if result.Outcome == extract.OutcomeStored {
			e.notifier.React(msg, result.Fact)
		}
		if result.Remark {
			e.notifier.Remark(msg)
		}
	}

	return result.Outcome
}

// Close releases the engine's resources.
func (e *Engine) Close() error {
	return e.store.Close()
}
