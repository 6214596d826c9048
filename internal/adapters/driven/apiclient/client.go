// Package apiclient is the JSON-over-HTTPS transport shared by the hosted
// model providers. It adds authentication headers, decodes the
// {"error":{"message":...}} envelope both OpenAI and Anthropic use, and
// retries calls that were rate limited or failed on the server side.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/docrag/internal/logger"
)

const (
	defaultRetries = 2
	baseBackoff    = 500 * time.Millisecond
	maxBackoff     = 8 * time.Second

	// maxErrorBody caps how much of an unparseable error body is quoted.
	maxErrorBody = 512
)

// StatusError is a non-2xx answer from a provider.
type StatusError struct {
	Provider string
	Status   int
	Message  string

	retryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: API returned status %d: %s", e.Provider, e.Status, e.Message)
}

// Retryable reports whether repeating the call may succeed.
func (e *StatusError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError
}

// Client sends JSON requests to one provider.
type Client struct {
	provider string
	baseURL  string
	http     *http.Client
	header   http.Header
	retries  int
}

// Option configures a Client.
type Option func(*Client)

// WithHeader sets a header on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.header.Set(key, value) }
}

// WithBearer authenticates with "Authorization: Bearer <token>".
func WithBearer(token string) Option {
	return WithHeader("Authorization", "Bearer "+token)
}

// WithRetries sets how often a retryable failure is repeated. Negative
// values disable retries.
func WithRetries(n int) Option {
	return func(c *Client) { c.retries = max(n, 0) }
}

// New returns a client for baseURL. provider prefixes error messages.
func New(provider, baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		provider: provider,
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: timeout},
		header:   http.Header{},
		retries:  defaultRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Post sends in as JSON to path and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: encoding request: %w", c.provider, err)
	}
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Get fetches path and decodes the response into out, which may be nil.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = c.once(ctx, method, path, body, out)

		var status *StatusError
		if err == nil || !errors.As(err, &status) || !status.Retryable() || attempt >= c.retries {
			return err
		}

		wait := status.retryAfter
		if wait < 0 {
			wait = min(baseBackoff<<attempt, maxBackoff)
		}
		logger.Debug("%s: %s %s returned %d, retrying in %s", c.provider, method, path, status.Status, wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
}

func (c *Client) once(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", c.provider, err)
	}
	for k, v := range c.header {
		req.Header[k] = v
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", c.provider, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: reading response: %w", c.provider, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Provider:   c.provider,
			Status:     resp.StatusCode,
			Message:    errorMessage(raw),
			retryAfter: retryAfter(resp.Header.Get("Retry-After")),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", c.provider, err)
	}
	return nil
}

func errorMessage(raw []byte) string {
	var envelope struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &envelope) == nil && envelope.Error != nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody] + "..."
	}
	return msg
}

// retryAfter parses a delay in seconds. It returns -1 when the header is
// absent or not a number.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return -1
	}
	return time.Duration(secs) * time.Second
}
