// Package client talks to the multi-agent collaboration backend over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/zhubert/agenttalk/internal/version"
)

const (
	defaultTimeout  = 30 * time.Second
	maxErrorExcerpt = 512
	maxJSONBodySize = 8 * 1024 * 1024
)

// ErrUnsuccessful is returned when the server answers with success=false.
var ErrUnsuccessful = errors.New("server reported failure")

// HTTPError is a non-2xx response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Client is a backend API client.
type Client struct {
	baseURL string
	// api has a request timeout; stream relies on the caller's context
	// since workflow responses stay open for minutes.
	api    *http.Client
	stream *http.Client
	logger *slog.Logger
}

// New creates a client for baseURL. A zero timeout uses the default; a nil
// logger discards output.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		api:     &http.Client{Timeout: timeout},
		stream:  &http.Client{},
		logger:  logger,
	}
}

// BaseURL returns the server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) newRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", "agenttalk/"+version.Version)
	return req, nil
}

// OpenStream submits a workflow and returns the streaming response body.
// The caller must close it. Cancelling ctx aborts the read in progress.
func (c *Client) OpenStream(ctx context.Context, r Request) (io.ReadCloser, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, r.path(), r.body())
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	c.logger.Info("opening stream", "workflow", string(r.Workflow), "url", req.URL.String())
	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting %s: %w", r.path(), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, fmt.Errorf("posting %s: %w", r.path(), readHTTPError(resp))
	}

	c.logger.Debug("stream opened", "status", resp.StatusCode, "content_type", resp.Header.Get("Content-Type"))
	return resp.Body, nil
}

func readHTTPError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorExcerpt))
	return &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
}

// envelope is the common shape of every JSON response.
type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// do sends a JSON request and decodes the response into out after checking
// the success flag. The flag is checked before the HTTP status since the
// server reports failures as {"success": false} with a 4xx or 5xx.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	req, err := c.newRequest(ctx, method, path, payload)
	if err != nil {
		return err
	}

	resp, err := c.api.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxJSONBodySize))
	if err != nil {
		return fmt.Errorf("reading %s response: %w", path, err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("%s %s: %w", method, path, &HTTPError{StatusCode: resp.StatusCode, Body: excerpt(data)})
		}
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return fmt.Errorf("%s %s: %w: %s", method, path, ErrUnsuccessful, msg)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding %s response: %w", path, err)
		}
	}
	return nil
}

func excerpt(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) > maxErrorExcerpt {
		s = s[:maxErrorExcerpt] + "..."
	}
	return s
}

// Status fetches the configured agents and conversation state.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var resp struct {
		Data Status `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Agents lists the names of the available agents.
func (c *Client) Agents(ctx context.Context) ([]string, error) {
	var resp struct {
		Agents []string `json:"agents"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/agents", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Agents, nil
}

// Reset clears the server-side conversation.
func (c *Client) Reset(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/reset", nil, nil)
}

// Conversation fetches the server-side conversation history.
func (c *Client) Conversation(ctx context.Context) ([]HistoryMessage, error) {
	var resp struct {
		Conversation []HistoryMessage `json:"conversation"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/conversation", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Conversation, nil
}

// CallAgent sends a single prompt to one agent without streaming.
func (c *Client) CallAgent(ctx context.Context, agent, prompt string) (*AgentReply, error) {
	if strings.TrimSpace(agent) == "" || strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyRequest
	}
	payload := struct {
		Agent  string `json:"agent"`
		Prompt string `json:"prompt"`
	}{agent, prompt}

	var reply AgentReply
	if err := c.do(ctx, http.MethodPost, "/api/call-agent", payload, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}
