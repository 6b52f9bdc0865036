package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GoogleGateway implements the Gateway interface using the official Google Gemini SDK.
type GoogleGateway struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
}

// NewGoogleGateway creates a new Google Gemini gateway.
func NewGoogleGateway(cfg Config) (*GoogleGateway, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api_key is required for google")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required for google")
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create google client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	if cfg.MaxTokens > 0 {
		maxTokens := int32(cfg.MaxTokens)
		model.MaxOutputTokens = &maxTokens
	}

	return &GoogleGateway{
		client:  client,
		model:   model,
		timeout: cfg.Timeout,
	}, nil
}

// Close closes the underlying client.
func (g *GoogleGateway) Close() error {
	return g.client.Close()
}

// Generate implements the Gateway interface. One attempt, no retry.
func (g *GoogleGateway) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := callContext(ctx, g.timeout)
	defer cancel()

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classify(err, "google generate")
	}

	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
	}
	if b.Len() == 0 {
		return "", classify(fmt.Errorf("empty completion"), "google generate")
	}

	return b.String(), nil
}
