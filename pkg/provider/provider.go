// Package provider abstracts the model backends the analyzer runs on.
// Three implementations exist: an OpenAI-compatible chat completions
// client, a Gemini client, and an offline keyword scorer used when no
// credential is configured.
package provider

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Prompt is one completion request: an instruction block plus the user
// payload.
type Prompt struct {
	System string
	User   string
}

// Provider generates model completions. Stream delivers chunks through
// fn as they arrive and returns the full accumulated text; Complete
// returns it in one piece. A non-nil error from fn aborts the stream
// and is returned as-is.
type Provider interface {
	Name() string
	Model() string
	Complete(ctx context.Context, prompt Prompt) (string, error)
	Stream(ctx context.Context, prompt Prompt, fn func(chunk string) error) (string, error)
}

// Config selects and parameterizes a provider.
type Config struct {
	// Provider is "openai", "gemini" or "keyword". Empty selects the
	// keyword scorer so the system works without credentials.
	Provider string
	// Model overrides the provider's default model.
	Model string
	// APIKey is the explicit credential. Providers never read the
	// environment themselves.
	APIKey string
	// BaseURL overrides the OpenAI-compatible endpoint.
	BaseURL string
	// MaxTokens caps generated tokens when > 0 (openai only).
	MaxTokens int
	// Temperature overrides sampling temperature when set (openai only).
	Temperature *float64
}

// New creates the configured provider.
func New(ctx context.Context, config Config, logger *zap.Logger) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAI(config, logger)
	case "gemini":
		return NewGemini(ctx, config, logger)
	case "keyword", "":
		return NewKeyword(logger), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", config.Provider)
	}
}
