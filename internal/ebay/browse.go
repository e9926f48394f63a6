package ebay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/donaldgifford/ebaybuy/internal/metrics"
)

const (
	defaultMarketplace    = "EBAY_US"
	defaultRequestTimeout = 30 * time.Second
)

// BrowseClient executes authenticated Browse API requests. It fetches a
// bearer token from its TokenManager for every call.
type BrowseClient struct {
	tokens      *TokenManager
	marketplace string
	client      *http.Client
	timeout     time.Duration
	rateLimiter *RateLimiter
	logger      *slog.Logger
}

// BrowseOption configures the BrowseClient.
type BrowseOption func(*BrowseClient)

// WithMarketplace overrides the default marketplace.
func WithMarketplace(m string) BrowseOption {
	return func(c *BrowseClient) {
		c.marketplace = m
	}
}

// WithBrowseHTTPClient overrides the default HTTP client.
func WithBrowseHTTPClient(hc *http.Client) BrowseOption {
	return func(c *BrowseClient) {
		c.client = hc
	}
}

// WithRequestTimeout bounds every outbound API call.
func WithRequestTimeout(d time.Duration) BrowseOption {
	return func(c *BrowseClient) {
		c.timeout = d
	}
}

// WithRateLimiter injects a rate limiter that controls per-second and daily
// API call limits. When set, every request goes through Wait() first.
func WithRateLimiter(r *RateLimiter) BrowseOption {
	return func(c *BrowseClient) {
		c.rateLimiter = r
	}
}

// WithBrowseLogger sets the logger.
func WithBrowseLogger(l *slog.Logger) BrowseOption {
	return func(c *BrowseClient) {
		c.logger = l
	}
}

// NewBrowseClient creates a Browse API client authenticated by tokens.
func NewBrowseClient(tokens *TokenManager, opts ...BrowseOption) *BrowseClient {
	c := &BrowseClient{
		tokens:      tokens,
		marketplace: defaultMarketplace,
		client:      &http.Client{},
		timeout:     defaultRequestTimeout,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tokens returns the TokenManager used to authenticate requests.
func (c *BrowseClient) Tokens() *TokenManager {
	return c.tokens
}

// RateLimiter returns the configured rate limiter, or nil.
func (c *BrowseClient) RateLimiter() *RateLimiter {
	return c.rateLimiter
}

// Search runs q against the current environment and returns the first
// page of results.
func (c *BrowseClient) Search(ctx context.Context, q SearchQuery) (*Page, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	page, err := c.fetch(ctx, "search", q.searchURL(c.tokens.BaseURL()))
	if err != nil {
		return nil, err
	}
	metrics.PagesFetchedTotal.WithLabelValues("first").Inc()
	return page, nil
}

// Fetch GETs rawURL, typically a next or prev link, and wraps the
// response in a Page.
func (c *BrowseClient) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	return c.fetch(ctx, "page", rawURL)
}

func (c *BrowseClient) fetch(ctx context.Context, op, rawURL string) (*Page, error) {
	body, err := c.get(ctx, op, rawURL)
	if err != nil {
		return nil, err
	}
	return NewPage(body, c)
}

// Get performs an authenticated GET of rawURL and returns the body of a
// 2xx response.
func (c *BrowseClient) Get(ctx context.Context, rawURL string) ([]byte, error) {
	return c.get(ctx, "get", rawURL)
}

func (c *BrowseClient) get(ctx context.Context, op, rawURL string) ([]byte, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting auth token: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-EBAY-C-MARKETPLACE-ID", c.marketplace)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.APICallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.APICallsTotal.WithLabelValues(op, "error").Inc()
		return nil, transportError("executing "+op+" request", err)
	}
	defer resp.Body.Close()

	metrics.APICallsTotal.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError("reading response body", err)
	}

	c.logger.Debug("eBay API call",
		"operation", op,
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp.StatusCode, body)
		if resp.StatusCode == http.StatusUnauthorized {
			c.tokens.Invalidate()
		}
		return nil, apiErr
	}

	return body, nil
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: string(body)}
	var payload struct {
		Errors []APIErrorDetail `json:"errors"`
	}
	if json.Unmarshal(body, &payload) == nil {
		apiErr.Errors = payload.Errors
	}
	return apiErr
}
