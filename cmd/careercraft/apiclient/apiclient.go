// Package apiclient is the CLI's thin client for the careercraft
// server's JSON endpoints. The streaming analyze endpoint has its own
// client in pkg/stream; everything else goes through here.
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// DefaultServerURL is used when neither the flag nor the environment
// names a server.
const DefaultServerURL = "http://localhost:8335"

// ResolveServer picks the server URL from the flag value, the
// CAREERCRAFT_SERVER environment variable, or the default, in that
// order.
func ResolveServer(flagValue string) string {
	if flagValue != "" {
		return strings.TrimRight(flagValue, "/")
	}
	if v := os.Getenv("CAREERCRAFT_SERVER"); v != "" {
		return strings.TrimRight(v, "/")
	}
	return DefaultServerURL
}

// ResolveToken picks the bearer token from the flag value or the
// CAREERCRAFT_TOKEN environment variable.
func ResolveToken(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv("CAREERCRAFT_TOKEN")
}

// Client issues authenticated JSON requests against one server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Get fetches path and decodes the JSON response into v.
func (c *Client) Get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s: %s", resp.Status, errorDetail(resp.Body))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// errorDetail pulls the server's {"error": ...} message out of an
// error response body.
func errorDetail(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(body) == 0 {
		return "no error detail"
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(body))
}
