// Package chat talks to the remote question-answering backend.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/starford/swashbuckle/internal/apperr"
)

// maxResponseBytes caps how much of an upstream body is read.
const maxResponseBytes = 4 << 20

// StatusError reports a non-2xx reply from the backend.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("chat: upstream status %d", e.Code)
	}
	return fmt.Sprintf("chat: upstream status %d: %s", e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return apperr.ErrUpstream }

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout bounds each request. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// Client issues chat queries. It is safe for concurrent use.
type Client struct {
	baseURL  string
	variants Variants
	http     *http.Client
	timeout  time.Duration
	logger   *slog.Logger
}

// NewClient creates a client for baseURL. An empty variant list means
// DefaultVariants.
func NewClient(baseURL string, variants []Variant, opts ...Option) *Client {
	if len(variants) == 0 {
		variants = DefaultVariants()
	}
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		variants: Variants(variants),
		http:     http.DefaultClient,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Variants returns the configured presets in order.
func (c *Client) Variants() Variants {
	return c.variants
}

// DefaultVariant returns the name of the first preset.
func (c *Client) DefaultVariant() string {
	if len(c.variants) == 0 {
		return ""
	}
	return c.variants[0].Name
}

// URL returns the endpoint for a variant.
func (c *Client) URL(variant string) (string, error) {
	v, err := c.variants.Lookup(variant)
	if err != nil {
		return "", err
	}
	return c.baseURL + "/" + strings.TrimLeft(v.Route, "/"), nil
}

type askRequest struct {
	Query string `json:"query"`
}

// Ask sends one query to the route of variant. It never retries.
func (c *Client) Ask(ctx context.Context, variant, query string) (*Response, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("chat: %w", apperr.ErrEmptyQuery)
	}
	endpoint, err := c.URL(variant)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(askRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("chat: encode request: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("chat: build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("chat: request failed",
			slog.String("request_id", requestID),
			slog.String("variant", variant),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("chat: %w: %v", apperr.ErrUpstream, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("chat: read body: %w: %v", apperr.ErrUpstream, err)
	}

	c.logger.Debug("chat: response",
		slog.String("request_id", requestID),
		slog.String("variant", variant),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: truncate(string(data), 200)}
	}
	return ParseResponse(data)
}

// truncate caps s at n bytes without splitting a rune.
func truncate(s string, n int) string {
	s = strings.ToValidUTF8(strings.TrimSpace(s), "\uFFFD")
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
