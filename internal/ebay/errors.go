package ebay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	// ErrAuthentication is returned when the token endpoint rejects the
	// credentials or answers without a usable access token, and when the
	// Browse API rejects a bearer token.
	ErrAuthentication = errors.New("authentication failed")

	// ErrMalformedResponse is returned when a response body cannot be
	// parsed as the expected JSON document.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrPagination is returned by Page.Next and Page.Previous when the
	// requested page does not exist.
	ErrPagination = errors.New("page not available")

	// ErrTransport is returned for network failures talking to eBay.
	ErrTransport = errors.New("transport error")

	// ErrTimeout is returned when an outbound call exceeds its deadline.
	// Errors wrapping ErrTimeout also match ErrTransport.
	ErrTimeout = fmt.Errorf("%w: timeout", ErrTransport)
)

// APIError describes a non-2xx response from the Browse API.
type APIError struct {
	StatusCode int
	Errors     []APIErrorDetail
	Body       string
}

// APIErrorDetail is a single entry of the eBay "errors" array.
type APIErrorDetail struct {
	ErrorID  int    `json:"errorId"`
	Domain   string `json:"domain"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("eBay API error (status %d): %s", e.StatusCode, e.Body)
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, d := range e.Errors {
		msgs = append(msgs, d.Message)
	}
	return fmt.Sprintf("eBay API error (status %d): %s", e.StatusCode, strings.Join(msgs, "; "))
}

// Unwrap lets errors.Is(err, ErrAuthentication) match a 401 response.
func (e *APIError) Unwrap() error {
	if e.StatusCode == 401 {
		return ErrAuthentication
	}
	return nil
}

// transportError classifies a failed http.Client.Do call.
func transportError(op string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%s: %w: %w", op, ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrTransport, err)
}
