// Package llm talks to chat-completion providers and turns their answers
// into entity attribute updates.
//
// Two providers are supported:
//   - OpenAI-compatible chat completions over HTTP (OpenAI, OpenRouter, local gateways)
//   - Google Gemini through the genai SDK
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Provider names accepted by NewClient.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

var (
	// ErrNotConfigured means the selected provider has no credentials.
	ErrNotConfigured = errors.New("llm: provider not configured")
	// ErrInvalidResponse means the provider answered with something unusable.
	ErrInvalidResponse = errors.New("llm: invalid response")
)

// CompletionRequest is a single system+user exchange.
type CompletionRequest struct {
	System string
	User   string
	// JSON asks the provider to constrain output to a JSON object.
	JSON bool
}

// Client performs one non-streaming completion.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Config selects and configures a provider.
type Config struct {
	Provider      string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	GeminiAPIKey  string
	GeminiModel   string
	Timeout       time.Duration
}

// NewClient builds the client for cfg.Provider.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI, "":
		return NewOpenAIClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.Timeout), nil
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return unconfigured{provider: ProviderGemini}, nil
		}
		return NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

// unconfigured lets the server start without credentials; every call fails.
type unconfigured struct {
	provider string
}

func (u unconfigured) Complete(context.Context, CompletionRequest) (string, error) {
	return "", fmt.Errorf("%s: %w", u.provider, ErrNotConfigured)
}
