package provider

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	defaultGeminiModel = "gemini-2.5-flash"

	// geminiChunkSize is the replay granularity for Stream.
	geminiChunkSize = 80

	geminiMaxRetries = 3
)

// Gemini generates completions through the Gemini API.
type Gemini struct {
	config Config
	client *genai.Client
	logger *zap.Logger
}

// NewGemini creates the Gemini provider. The API key is required.
func NewGemini(ctx context.Context, config Config, logger *zap.Logger) (*Gemini, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini provider requires an API key")
	}
	if config.Model == "" {
		config.Model = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: config.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Gemini{config: config, client: client, logger: logger}, nil
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Model() string { return g.config.Model }

// Complete runs a single generation with exponential backoff on
// transient failures.
func (g *Gemini) Complete(ctx context.Context, prompt Prompt) (string, error) {
	var cfg *genai.GenerateContentConfig
	if prompt.System != "" {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: prompt.System}}},
		}
	}

	var lastErr error
	for attempt := 0; attempt < geminiMaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(1<<attempt) * time.Second):
			}
		}

		resp, err := g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(prompt.User), cfg)
		if err != nil {
			lastErr = err
			g.logger.Warn("gemini generation failed",
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			continue
		}
		return resp.Text(), nil
	}

	return "", fmt.Errorf("gemini generation failed after %d attempts: %w", geminiMaxRetries, lastErr)
}

// Stream generates the full response once and replays it to fn in
// fixed-size chunks, so callers see the same incremental behavior as
// with the streaming backends.
func (g *Gemini) Stream(ctx context.Context, prompt Prompt, fn func(chunk string) error) (string, error) {
	full, err := g.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}

	for i := 0; i < len(full); i += geminiChunkSize {
		end := min(i+geminiChunkSize, len(full))
		if err := fn(full[i:end]); err != nil {
			return full, err
		}
	}
	return full, nil
}
