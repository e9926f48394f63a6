// Package client is a thin HTTP client for a running ebaybuy proxy.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"syscall"

	"github.com/danielgtaylor/huma/v2"
)

const requestIDHeader = "X-Request-ID"

// Client calls the proxy's /api/v1 operations.
type Client struct {
	base      string
	hc        *http.Client
	userAgent string
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.hc = hc
	}
}

// WithUserAgent sets the User-Agent sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New returns a Client for the proxy at base, e.g. http://localhost:8080.
func New(base string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(base, "/"),
		hc:   http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StatusError is a 4xx or 5xx answer from the proxy. Detail is taken
// from the problem+json body when there is one.
type StatusError struct {
	StatusCode int
	Title      string
	Detail     string
	RequestID  string
	Body       string
}

func (e *StatusError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = e.Body
	}
	if e.RequestID != "" {
		return fmt.Sprintf("API error (HTTP %d): %s [request %s]", e.StatusCode, msg, e.RequestID)
	}
	return fmt.Sprintf("API error (HTTP %d): %s", e.StatusCode, msg)
}

func newStatusError(resp *http.Response, body []byte) *StatusError {
	se := &StatusError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get(requestIDHeader),
		Body:       string(body),
	}
	var problem huma.ErrorModel
	if json.Unmarshal(body, &problem) == nil {
		se.Title = problem.Title
		se.Detail = problem.Detail
	}
	return se
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.roundTrip(ctx, http.MethodGet, path, nil)
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s body: %w", path, err)
	}
	return c.roundTrip(ctx, http.MethodPost, path, data)
}

func (c *Client) roundTrip(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, fmt.Errorf("building %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.hc.Do(req)
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return nil, fmt.Errorf("API server not running at %s", c.base)
	case err != nil:
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", path, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, newStatusError(resp, data)
	}
	return data, nil
}

func decode(data []byte, dst any) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
