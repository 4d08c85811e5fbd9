package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// AskResult is the settled outcome of one ask request.
type AskResult struct {
	// Text is the raw streamed body accumulated so far. On an aborted
	// request it holds whatever arrived before the cancel.
	Text         string
	ThreadID     string
	ThreadStatus string
	Aborted      bool
}

// ValidateResult reports whether a thread id is still live server-side.
type ValidateResult struct {
	Exists       bool   `json:"exists"`
	ThreadID     string `json:"threadId"`
	MessageCount int    `json:"messageCount,omitempty"`
}

// Reasons for a thread reuse decision.
const (
	ReasonExists           = "exists"
	ReasonExpired          = "expired"
	ReasonValidationFailed = "validation_failed"
)

// ThreadDecision says whether to keep using a thread id or start fresh.
type ThreadDecision struct {
	UseExisting bool
	ThreadID    string
	Reason      string
}

// Client drives the ask API for a single consumer. At most one ask
// request is in flight at a time: starting a new one cancels the
// previous request first, and the previous caller sees an aborted
// result rather than an error.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	gen    uint64
}

func New(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Busy reports whether an ask request is currently in flight.
func (c *Client) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

// Abort cancels the in-flight ask request, if any.
func (c *Client) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

// begin supersedes any in-flight request and registers this one.
func (c *Client) begin(ctx context.Context) (context.Context, context.CancelFunc, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	c.gen++
	c.cancel = cancel
	return ctx, cancel, c.gen
}

// end clears the in-flight slot, unless a newer request already took it.
func (c *Client) end(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen == gen {
		c.cancel = nil
	}
}

// Ask sends one prompt and streams the answer. onUpdate, when non-nil,
// receives the full accumulated text after every chunk. A request that
// was cancelled, either by a newer Ask or through ctx, returns
// Aborted=true with a nil error.
func (c *Client) Ask(ctx context.Context, prompt, threadID string, onUpdate func(text string)) (*AskResult, error) {
	ctx, cancel, gen := c.begin(ctx)
	defer c.end(gen)
	defer cancel()

	body, err := json.Marshal(map[string]string{
		"prompt":   prompt,
		"threadId": threadID,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/ask", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return &AskResult{Aborted: true}, nil
		}
		return nil, fmt.Errorf("ask request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ask returned status %d", resp.StatusCode)
	}

	result := &AskResult{
		ThreadID:     resp.Header.Get("X-Thread-Id"),
		ThreadStatus: resp.Header.Get("X-Thread-Status"),
	}

	var text strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			text.WriteString(string(buf[:n]))
			result.Text = text.String()
			if onUpdate != nil {
				onUpdate(result.Text)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				result.Aborted = true
				return result, nil
			}
			return nil, fmt.Errorf("failed to read ask stream: %w", err)
		}
	}
	return result, nil
}

// ValidateThread checks whether a thread id is still live. Failures
// degrade to exists=false so callers always get a usable decision.
func (c *Client) ValidateThread(ctx context.Context, threadID string) ValidateResult {
	fallback := ValidateResult{Exists: false, ThreadID: threadID}

	body, err := json.Marshal(map[string]string{"threadId": threadID})
	if err != nil {
		return fallback
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/validate-thread", bytes.NewReader(body))
	if err != nil {
		return fallback
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("thread validation failed", zap.Error(err), zap.String("threadId", threadID))
		return fallback
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("thread validation failed",
			zap.Int("status", resp.StatusCode),
			zap.String("threadId", threadID))
		return fallback
	}

	var out ValidateResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.logger.Warn("thread validation returned a bad body", zap.Error(err), zap.String("threadId", threadID))
		return fallback
	}
	return out
}

// DecideThread turns a validation result into a reuse decision: keep the
// id when the thread still exists, otherwise start a fresh one.
func (c *Client) DecideThread(ctx context.Context, threadID string) ThreadDecision {
	if ctx.Err() != nil {
		return ThreadDecision{UseExisting: false, Reason: ReasonValidationFailed}
	}

	validation := c.ValidateThread(ctx, threadID)
	if validation.Exists {
		return ThreadDecision{UseExisting: true, ThreadID: threadID, Reason: ReasonExists}
	}
	return ThreadDecision{UseExisting: false, Reason: ReasonExpired}
}
