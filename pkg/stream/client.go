// Package stream implements the client side of the streaming analysis
// protocol: it posts a job description to the analysis endpoint, reads
// the chunked response as framed records, and folds decoded events into
// a session state that observers can watch.
package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Config holds the stream client configuration.
type Config struct {
	// BaseURL is the server origin, e.g. "http://localhost:8335".
	BaseURL string
	// Token authenticates requests when set. It is sent as a bearer
	// token; no ambient credential source is consulted.
	Token string
	// OnUpdate, when set, receives a state snapshot after every state
	// change. Calls are serialized per session.
	OnUpdate func(State)
}

// Client starts analysis sessions against a careercraft server.
type Client struct {
	config Config
	client *http.Client
	logger *zap.Logger
}

// NewClient creates a stream client with the given config and logger.
// The underlying HTTP client carries no timeout: sessions are long
// lived and are bounded by their context instead.
func NewClient(config Config, logger *zap.Logger) *Client {
	return &Client{
		config: config,
		client: &http.Client{},
		logger: logger,
	}
}

// Request is the analysis request body.
type Request struct {
	JobDescription    string `json:"job_description"`
	AdditionalContext string `json:"additional_context,omitempty"`
	SaveJob           bool   `json:"save_job"`
}

// NewRequest builds an analysis request for a job description with job
// persistence enabled.
func NewRequest(jobDescription string) Request {
	return Request{JobDescription: jobDescription, SaveJob: true}
}

// Start begins an analysis session and returns immediately. The
// returned session already holds the initial state; the read loop runs
// in the background until a terminal event, a transport failure, or
// cancellation. Each call creates an independent session.
func (c *Client) Start(ctx context.Context, req Request) *Session {
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		state:    NewState(),
		onUpdate: c.config.OnUpdate,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	s.notify(s.State())

	go c.run(ctx, req, s)
	return s
}

// run executes the request and drains the response body, feeding each
// framed record through the session state machine.
func (c *Client) run(ctx context.Context, req Request, s *Session) {
	defer close(s.done)
	defer s.finish()

	body, err := json.Marshal(req)
	if err != nil {
		s.fail(err.Error())
		return
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+AnalyzePath, bytes.NewReader(body))
	if err != nil {
		s.fail(err.Error())
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if !s.isCancelled() {
			s.fail(err.Error())
		}
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.fail(fmt.Sprintf("HTTP error! status: %d", resp.StatusCode))
		return
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		s.fail("No response body")
		return
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		payload := strings.TrimSpace(line[len(dataPrefix):])
		if payload == "" {
			continue
		}

		var ev Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			c.logger.Warn("skipping malformed stream record",
				zap.String("payload", truncate(payload, 200)),
				zap.Error(err))
			continue
		}

		switch ev.Type {
		case EventStatus, EventPartialAnalysis, EventPartialMetric,
			EventMetricsComplete, EventComplete, EventFinal, EventError:
			if s.apply(ev) {
				return
			}
		default:
			c.logger.Debug("ignoring unknown stream event",
				zap.String("type", string(ev.Type)))
		}
	}

	if err := scanner.Err(); err != nil && !s.isCancelled() {
		s.fail(err.Error())
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
