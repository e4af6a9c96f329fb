package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o-mini"
)

// chatRequest is an OpenAI-compatible chat completion request.
type chatRequest struct {
	Model       string        `json:"model"`                 // Model name (e.g., "gpt-4o-mini")
	Messages    []chatMessage `json:"messages"`              // Conversation so far
	Stream      bool          `json:"stream,omitempty"`      // Whether to stream the response
	MaxTokens   int           `json:"max_tokens,omitempty"`  // Cap on generated tokens
	Temperature *float64      `json:"temperature,omitempty"` // Sampling temperature
}

// chatMessage is a single message in a conversation.
type chatMessage struct {
	Role    string `json:"role"`    // "system", "user", "assistant"
	Content string `json:"content"` // The message content
}

// chatResponse is a non-streaming chat completion response.
type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// chatChunk is one decoded frame of a streaming response.
type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (p Prompt) messages() []chatMessage {
	msgs := make([]chatMessage, 0, 2)
	if p.System != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: p.System})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: p.User})
	return msgs
}

// OpenAI talks to an OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	config Config
	client *http.Client
	logger *zap.Logger
}

// NewOpenAI creates the OpenAI provider. The API key is required;
// base URL and model fall back to the public defaults.
func NewOpenAI(config Config, logger *zap.Logger) (*OpenAI, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai provider requires an API key")
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultOpenAIBaseURL
	}
	if config.Model == "" {
		config.Model = defaultOpenAIModel
	}

	return &OpenAI{
		config: config,
		client: &http.Client{
			// LLM requests can be slow, especially with long analyses
			Timeout: 5 * time.Minute,
		},
		logger: logger,
	}, nil
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Model() string { return o.config.Model }

// Complete runs a single non-streaming completion.
func (o *OpenAI) Complete(ctx context.Context, prompt Prompt) (string, error) {
	resp, err := o.post(ctx, chatRequest{
		Model:       o.config.Model,
		Messages:    prompt.messages(),
		MaxTokens:   o.config.MaxTokens,
		Temperature: o.config.Temperature,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}

// Stream runs a streaming completion, feeding each content delta to fn
// and returning the accumulated text.
func (o *OpenAI) Stream(ctx context.Context, prompt Prompt, fn func(chunk string) error) (string, error) {
	resp, err := o.post(ctx, chatRequest{
		Model:       o.config.Model,
		Messages:    prompt.messages(),
		Stream:      true,
		MaxTokens:   o.config.MaxTokens,
		Temperature: o.config.Temperature,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("openai returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimSpace(line[len("data: "):])
		if payload == "" {
			continue
		}
		if payload == "[DONE]" {
			break
		}

		var chunk chatChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			o.logger.Warn("failed to parse chunk", zap.Error(err), zap.String("line", truncate(payload, 100)))
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}

		full.WriteString(delta)
		if err := fn(delta); err != nil {
			return full.String(), err
		}
	}
	if err := scanner.Err(); err != nil {
		return full.String(), fmt.Errorf("read stream: %w", err)
	}

	return full.String(), nil
}

func (o *OpenAI) post(ctx context.Context, req chatRequest) (*http.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.config.APIKey)

	o.logger.Debug("openai request",
		zap.String("model", req.Model),
		zap.Bool("stream", req.Stream),
		zap.Int("body_size", len(body)),
	)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	return resp, nil
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
