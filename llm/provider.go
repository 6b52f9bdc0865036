// Package llm provides the generation gateway: the external
// text-generation oracle consulted for replies, fact extraction,
// and debate topics.
package llm

import (
	"context"
	"fmt"
	"time"
)

// Gateway is the request/response contract with the text-generation
// oracle. A call makes exactly one attempt; a failure is final for that
// invocation and retry policy, if any, belongs to the caller.
type Gateway interface {
	// Generate sends a prompt and returns the generated reply text.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config holds configuration for constructing a Gateway.
type Config struct {
	Provider  string        `json:"provider"` // openai, anthropic, google
	Model     string        `json:"model"`
	APIKey    string        `json:"api_key"`
	BaseURL   string        `json:"base_url"` // custom endpoint, where supported
	MaxTokens int           `json:"max_tokens"`
	Timeout   time.Duration `json:"timeout"` // per-call deadline, 0 = caller's context only
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("api key is required")
	}
	return nil
}

// ApplyDefaults fills in defaults for optional fields.
func (c *Config) ApplyDefaults() {
	if c.MaxTokens <= 0 {
		c.MaxTokens = 1024
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
}

// callContext derives the per-call context from the configured timeout.
func callContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

// --- Mock Gateway for Testing ---

// Mock is a scripted Gateway for tests.
type Mock struct {
	response   string
	err        error
	lastPrompt string
	callCount  int

	// GenerateFunc can be overridden for custom behavior.
	GenerateFunc func(ctx context.Context, prompt string) (string, error)
}

// NewMock creates a new mock gateway.
func NewMock() *Mock {
	return &Mock{}
}

// SetResponse sets the reply text to return.
func (m *Mock) SetResponse(text string) {
	m.response = text
}

// SetError sets an error to return.
func (m *Mock) SetError(err error) {
	m.err = err
}

// LastPrompt returns the prompt from the most recent Generate call.
func (m *Mock) LastPrompt() string {
	return m.lastPrompt
}

// CallCount returns the number of Generate calls made.
func (m *Mock) CallCount() int {
	return m.callCount
}

// Reset clears the call count and captured prompt.
func (m *Mock) Reset() {
	m.callCount = 0
	m.lastPrompt = ""
}

// Generate implements the Gateway interface.
func (m *Mock) Generate(ctx context.Context, prompt string) (string, error) {
	m.callCount++
	m.lastPrompt = prompt

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}
