// Package config loads engine configuration from a TOML file.
// Every field has a sensible default; a missing file yields a fully
// defaulted configuration. File paths, gateway credentials, and policy
// knobs all live here so the core packages stay free of ambient state.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/SkiLark1/galobalist-jr/llm"
)

// Config is the full engine configuration.
type Config struct {
	Store     StoreConfig     `toml:"store"`
	Persona   PersonaConfig   `toml:"persona"`
	Extract   ExtractConfig   `toml:"extract"`
	Topics    TopicsConfig    `toml:"topics"`
	Gateway   GatewayConfig   `toml:"gateway"`
	RateLimit RateLimitConfig `toml:"ratelimit"`
}

// StoreConfig configures the fact memory store.
type StoreConfig struct {
	// Path is the JSON document mapping user IDs to fact lists.
	Path string `toml:"path"`

	// MaxFactsPerUser caps each user's list; oldest facts are evicted first.
	MaxFactsPerUser int `toml:"max_facts_per_user"`

	// DumpLimit bounds the debug dump length in bytes.
	DumpLimit int `toml:"dump_limit"`
}

// PersonaConfig configures the persona catalog and active-persona state.
type PersonaConfig struct {
	CatalogPath string `toml:"catalog_path"`
	StatePath   string `toml:"state_path"`

	// Seed pins the first-boot random persona pick. 0 means time-seeded.
	Seed int64 `toml:"seed"`
}

// ExtractConfig configures the fact extraction pipeline.
type ExtractConfig struct {
	// MinWords and MaxWords bound accepted fact candidates.
	MinWords int `toml:"min_words"`
	MaxWords int `toml:"max_words"`

	// CommandPrefix marks explicit commands the pipeline must ignore.
	CommandPrefix string `toml:"command_prefix"`

	// BoringOdds is the probability of a "that was boring" remark when
	// a message yields nothing worth keeping. 0 disables it.
	BoringOdds float64 `toml:"boring_odds"`
}

// TopicsConfig configures the debate topic pool.
type TopicsConfig struct {
	Path string `toml:"path"`
}

// GatewayConfig configures the generation gateway.
type GatewayConfig struct {
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	MaxTokens      int    `toml:"max_tokens"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// RateLimitConfig throttles gateway-bound requests per user.
type RateLimitConfig struct {
	// Burst is the number of model calls a user may make per window.
	// 0 or negative disables throttling.
	Burst int `toml:"burst"`

	// WindowSeconds is the refill period.
	WindowSeconds int `toml:"window_seconds"`
}

// Default returns the fully defaulted configuration.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Path:            "data/memory.json",
			MaxFactsPerUser: 100,
			DumpLimit:       1800,
		},
		Persona: PersonaConfig{
			CatalogPath: "data/personas.json",
			StatePath:   "data/persona_state.json",
		},
		Extract: ExtractConfig{
			MinWords:      3,
			MaxWords:      40,
			CommandPrefix: "!",
			BoringOdds:    0.1,
		},
		Topics: TopicsConfig{
			Path: "data/topics.json",
		},
		Gateway: GatewayConfig{
			Provider:       "openai",
			Model:          "gpt-4o-mini",
			MaxTokens:      1024,
			TimeoutSeconds: 30,
		},
		RateLimit: RateLimitConfig{
			Burst:         5,
			WindowSeconds: 60,
		},
	}
}

// Load reads configuration from path, layering the file's values over the
// defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg.fillAPIKeyFromEnv()
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.fillAPIKeyFromEnv()
	return cfg, nil
}

// applyDefaults restores defaults for fields the file zeroed or omitted.
func (c *Config) applyDefaults() {
	d := Default()
	if c.Store.Path == "" {
		c.Store.Path = d.Store.Path
	}
	if c.Store.MaxFactsPerUser <= 0 {
		c.Store.MaxFactsPerUser = d.Store.MaxFactsPerUser
	}
	if c.Store.DumpLimit <= 0 {
		c.Store.DumpLimit = d.Store.DumpLimit
	}
	if c.Persona.CatalogPath == "" {
		c.Persona.CatalogPath = d.Persona.CatalogPath
	}
	if c.Persona.StatePath == "" {
		c.Persona.StatePath = d.Persona.StatePath
	}
	if c.Extract.MinWords <= 0 {
		c.Extract.MinWords = d.Extract.MinWords
	}
	if c.Extract.MaxWords <= 0 {
		c.Extract.MaxWords = d.Extract.MaxWords
	}
	if c.Extract.CommandPrefix == "" {
		c.Extract.CommandPrefix = d.Extract.CommandPrefix
	}
	if c.Topics.Path == "" {
		c.Topics.Path = d.Topics.Path
	}
	if c.Gateway.Provider == "" {
		c.Gateway.Provider = d.Gateway.Provider
	}
	if c.Gateway.Model == "" {
		c.Gateway.Model = d.Gateway.Model
	}
	if c.Gateway.MaxTokens <= 0 {
		c.Gateway.MaxTokens = d.Gateway.MaxTokens
	}
	if c.Gateway.TimeoutSeconds <= 0 {
		c.Gateway.TimeoutSeconds = d.Gateway.TimeoutSeconds
	}
	if c.RateLimit.Burst > 0 && c.RateLimit.WindowSeconds <= 0 {
		c.RateLimit.WindowSeconds = d.RateLimit.WindowSeconds
	}
}

// fillAPIKeyFromEnv falls back to the provider's environment variable
// when the file carries no key.
func (c *Config) fillAPIKeyFromEnv() {
	if c.Gateway.APIKey != "" {
		return
	}
	c.Gateway.APIKey = os.Getenv(envVarForProvider(c.Gateway.Provider))
}

// envVarForProvider returns the environment variable name for a provider.
func envVarForProvider(provider string) string {
	switch provider {
	case "openai":
		return "OPENAI_API_KEY"
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "google":
		return "GOOGLE_API_KEY"
	default:
		return strings.ToUpper(strings.ReplaceAll(provider, "-", "_")) + "_API_KEY"
	}
}

// LLM converts the gateway section into an llm.Config.
func (g GatewayConfig) LLM() llm.Config {
	return llm.Config{
		Provider:  g.Provider,
		Model:     g.Model,
		APIKey:    g.APIKey,
		BaseURL:   g.BaseURL,
		MaxTokens: g.MaxTokens,
		Timeout:   time.Duration(g.TimeoutSeconds) * time.Second,
	}
}
