package llm

import (
	"fmt"
	"strings"

	"github.com/SkiLark1/galobalist-jr/errors"
)

// New creates a gateway based on the configuration.
// If Provider is empty, it is inferred from the model name.
func New(cfg Config) (Gateway, error) {
	if cfg.Provider == "" && cfg.Model != "" {
		cfg.Provider = InferProviderFromModel(cfg.Model)
		if cfg.Provider == "" {
			return nil, fmt.Errorf("cannot determine provider for model %q; set provider explicitly", cfg.Model)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()

	switch cfg.Provider {
	case "openai":
		return NewOpenAIGateway(cfg)
	case "anthropic":
		return NewAnthropicGateway(cfg)
	case "google":
		return NewGoogleGateway(cfg)
	default:
		return nil, fmt.Errorf("unknown provider %q (supported: openai, anthropic, google)", cfg.Provider)
	}
}

// InferProviderFromModel guesses the provider from a model name.
func InferProviderFromModel(model string) string {
	model = strings.ToLower(model)
	switch {
	case strings.HasPrefix(model, "gpt"), strings.HasPrefix(model, "o1"), strings.HasPrefix(model, "o3"):
		return "openai"
	case strings.HasPrefix(model, "claude"):
		return "anthropic"
	case strings.HasPrefix(model, "gemini"):
		return "google"
	default:
		return ""
	}
}

// isRateLimitError checks if the error looks like a rate/capacity rejection.
func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "overloaded") ||
		strings.Contains(errStr, "capacity")
}

// classify maps a raw transport error onto the engine's error taxonomy.
// Context deadline errors become CodeTimeout inside Wrap.
func classify(err error, op string) *errors.Error {
	if err == nil {
		return nil
	}
	if isRateLimitError(err) {
		return errors.Wrap(err, errors.CodeRateLimited, op)
	}
	return errors.Wrap(err, errors.CodeGateway, op)
}
