// Package segment is a minimal client for the Segment HTTP tracking API,
// covering the alias call only.
package segment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dbsmedya/goalias/internal/config"
	"github.com/dbsmedya/goalias/internal/logger"
)

const aliasPath = "/v1/alias"

// messageNamespace scopes the deterministic message ids generated by goalias.
var messageNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/dbsmedya/goalias/alias"))

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("segment API returned HTTP %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Temporary reports whether the request may succeed when retried.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type aliasMessage struct {
	Type       string         `json:"type"`
	PreviousID string         `json:"previousId"`
	UserID     string         `json:"userId"`
	MessageID  string         `json:"messageId"`
	Timestamp  string         `json:"timestamp"`
	Context    messageContext `json:"context"`
}

type messageContext struct {
	Library library `json:"library"`
}

type library struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Client sends alias calls. It satisfies replay.Aliaser.
type Client struct {
	endpoint   *url.URL
	writeKey   string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	location   *time.Location
	version    string
	now        func() time.Time
	logger     *logger.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *Client) { c.logger = log }
}

// WithLocation sets the timezone timestamps are rendered in.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) { c.location = loc }
}

// WithVersion sets the library version reported in the message context.
func WithVersion(v string) Option {
	return func(c *Client) { c.version = v }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient builds a client from configuration.
func NewClient(cfg config.SegmentConfig, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.WriteKey) == "" {
		return nil, fmt.Errorf("segment write key is empty")
	}
	u, err := url.Parse(strings.TrimSpace(cfg.Endpoint))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid segment endpoint: %q", cfg.Endpoint)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		endpoint:   u,
		writeKey:   cfg.WriteKey,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.RetryBackoff,
		location:   time.UTC,
		version:    "dev",
		now:        time.Now,
		logger:     logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// MessageID returns the id sent for a pair. It depends only on the pair, so
// the API can drop a repeated alias.
func MessageID(previousID, userID string) string {
	return uuid.NewSHA1(messageNamespace, []byte(previousID+"\x00"+userID)).String()
}

// Alias links previousID to userID. Network errors, 429 and 5xx responses are
// retried with exponential backoff; other failures return immediately.
func (c *Client) Alias(ctx context.Context, previousID, userID string) error {
	body, err := json.Marshal(aliasMessage{
		Type:       "alias",
		PreviousID: previousID,
		UserID:     userID,
		MessageID:  MessageID(previousID, userID),
		Timestamp:  c.now().In(c.location).Format(time.RFC3339),
		Context:    messageContext{Library: library{Name: "goalias", Version: c.version}},
	})
	if err != nil {
		return fmt.Errorf("json marshal alias: %w", err)
	}

	backoff := c.backoff
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Debugw("Retrying alias", "attempt", attempt, "previous_id", previousID, "error", lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
		}

		lastErr = c.post(ctx, body)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var apiErr *APIError
		if errors.As(lastErr, &apiErr) && !apiErr.Temporary() {
			return apiErr
		}
	}

	if c.maxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

func (c *Client) post(ctx context.Context, body []byte) error {
	u := *c.endpoint
	u.Path = strings.TrimRight(u.Path, "/") + aliasPath

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.writeKey, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return nil
}
