// Package ebaytest provides an in-process fake of the eBay OAuth token
// endpoint and Browse search API for tests and local development.
package ebaytest

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

const (
	TokenPath     = "/identity/v1/oauth2/token" //nolint:gosec // not a credential
	SearchPath    = "/buy/browse/v1/item_summary/search"
	AnalyticsPath = "/developer/analytics/v1_beta/rate_limit/"

	defaultLimit = 50
)

// TokenRequest records one call to the token endpoint.
type TokenRequest struct {
	Host      string
	User      string
	Password  string
	GrantType string
	Scope     string
	RawBody   string
}

// Fake serves canned eBay responses. Tokens are issued as "token-1",
// "token-2", ... and search requests must present one of them.
type Fake struct {
	items      []json.RawMessage
	expiresIn  int
	rejectAuth bool
	omitLinks  bool
	quota      string
	logger     *slog.Logger

	tokenCalls  atomic.Int32
	searchCalls atomic.Int32

	mu       sync.Mutex
	issued   map[string]bool
	requests []TokenRequest
}

// Option configures the Fake.
type Option func(*Fake)

// WithItems sets the searchable items. Item titles are matched
// case-insensitively against q.
func WithItems(items []json.RawMessage) Option {
	return func(f *Fake) {
		f.items = items
	}
}

// WithExpiresIn sets expires_in for issued tokens.
func WithExpiresIn(seconds int) Option {
	return func(f *Fake) {
		f.expiresIn = seconds
	}
}

// WithRejectedCredentials makes the token endpoint answer invalid_client.
func WithRejectedCredentials() Option {
	return func(f *Fake) {
		f.rejectAuth = true
	}
}

// WithoutLinks omits next and prev links from search responses.
func WithoutLinks() Option {
	return func(f *Fake) {
		f.omitLinks = true
	}
}

// WithQuotaResponse sets the raw Developer Analytics response body.
func WithQuotaResponse(body string) Option {
	return func(f *Fake) {
		f.quota = body
	}
}

// WithLogger logs every request at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fake) {
		f.logger = l
	}
}

// New creates a Fake.
func New(opts ...Option) *Fake {
	f := &Fake{
		expiresIn: 7200,
		issued:    make(map[string]bool),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewServer starts the Fake on a local httptest server. Callers close it.
func NewServer(opts ...Option) (*httptest.Server, *Fake) {
	f := New(opts...)
	return httptest.NewServer(f.Handler()), f
}

// Handler returns the HTTP handler serving the fake API.
func (f *Fake) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+TokenPath, f.handleToken)
	mux.HandleFunc("GET "+SearchPath, f.handleSearch)
	mux.HandleFunc("GET "+AnalyticsPath, f.handleQuota)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		mux.ServeHTTP(w, r)
	})
}

// TokenCalls returns how many token requests were served.
func (f *Fake) TokenCalls() int {
	return int(f.tokenCalls.Load())
}

// SearchCalls returns how many search requests were served.
func (f *Fake) SearchCalls() int {
	return int(f.searchCalls.Load())
}

// TokenRequests returns the recorded token requests in order.
func (f *Fake) TokenRequests() []TokenRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]TokenRequest(nil), f.requests...)
}

func (f *Fake) handleToken(w http.ResponseWriter, r *http.Request) {
	n := f.tokenCalls.Add(1)

	user, pass, ok := r.BasicAuth()
	raw := readBody(r)
	form, _ := url.ParseQuery(raw) //nolint:errcheck // best-effort parse of recorded body

	f.mu.Lock()
	f.requests = append(f.requests, TokenRequest{
		Host:      r.Host,
		User:      user,
		Password:  pass,
		GrantType: form.Get("grant_type"),
		Scope:     form.Get("scope"),
		RawBody:   raw,
	})
	f.mu.Unlock()

	if !ok || f.rejectAuth {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error":             "invalid_client",
			"error_description": "client authentication failed",
		})
		return
	}

	token := "token-" + strconv.Itoa(int(n))
	f.mu.Lock()
	f.issued[token] = true
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"expires_in":   f.expiresIn,
		"token_type":   "Application Access Token",
	})
}

func (f *Fake) authorized(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.issued[token]
}

type searchPage struct {
	Href          string            `json:"href"`
	ItemSummaries []json.RawMessage `json:"itemSummaries"`
	Total         int               `json:"total"`
	Limit         int               `json:"limit"`
	Offset        int               `json:"offset"`
	Next          string            `json:"next,omitempty"`
	Prev          string            `json:"prev,omitempty"`
}

func (f *Fake) handleSearch(w http.ResponseWriter, r *http.Request) {
	f.searchCalls.Add(1)

	if !f.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"errors": []map[string]any{{
				"errorId":  1001,
				"domain":   "OAuth",
				"category": "REQUEST",
				"message":  "Invalid access token",
			}},
		})
		return
	}

	q := r.URL.Query()
	limit := atoiDefault(q.Get("limit"), defaultLimit, 1)
	offset := atoiDefault(q.Get("offset"), 0, 0)

	matched := f.match(q.Get("q"))
	total := len(matched)

	page := []json.RawMessage{}
	if offset < total {
		page = matched[offset:min(offset+limit, total)]
	}

	base := "http://" + r.Host + SearchPath + "?"
	link := func(off int) string {
		v := url.Values{}
		v.Set("q", q.Get("q"))
		v.Set("limit", strconv.Itoa(limit))
		v.Set("offset", strconv.Itoa(off))
		return base + v.Encode()
	}

	resp := searchPage{
		Href:          link(offset),
		ItemSummaries: page,
		Total:         total,
		Limit:         limit,
		Offset:        offset,
	}
	if !f.omitLinks {
		if offset+limit < total {
			resp.Next = link(offset + limit)
		}
		if offset > 0 {
			resp.Prev = link(max(offset-limit, 0))
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (f *Fake) match(q string) []json.RawMessage {
	q = strings.ToLower(strings.Trim(q, "()"))
	var terms []string
	for _, t := range strings.FieldsFunc(q, func(r rune) bool { return r == ',' }) {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}

	var out []json.RawMessage
	for _, raw := range f.items {
		var item struct {
			Title string `json:"title"`
		}
		_ = json.Unmarshal(raw, &item) //nolint:errcheck // fixture data is trusted
		title := strings.ToLower(item.Title)

		if len(terms) == 0 {
			out = append(out, raw)
			continue
		}
		for _, t := range terms {
			if strings.Contains(title, t) {
				out = append(out, raw)
				break
			}
		}
	}
	return out
}

func (f *Fake) handleQuota(w http.ResponseWriter, r *http.Request) {
	if !f.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"errors": []any{}})
		return
	}
	if f.quota == "" {
		writeJSON(w, http.StatusOK, map[string]any{"rateLimits": []any{}})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(f.quota))
}

// Items builds n complete item summaries titled "<title> 1" .. "<title> n".
func Items(title string, n int) []json.RawMessage {
	items := make([]json.RawMessage, 0, n)
	for i := 1; i <= n; i++ {
		raw, _ := json.Marshal(map[string]any{ //nolint:errcheck // static shape
			"itemId": fmt.Sprintf("v1|%d|0", 100000+i),
			"title":  fmt.Sprintf("%s %d", title, i),
			"price": map[string]string{
				"value":    fmt.Sprintf("%d.99", 10+i),
				"currency": "USD",
			},
			"itemLocation": map[string]string{
				"postalCode": "951**",
				"country":    "US",
			},
			"adultOnly":  false,
			"itemWebUrl": fmt.Sprintf("https://www.ebay.com/itm/%d", 100000+i),
		})
		items = append(items, raw)
	}
	return items
}

func readBody(r *http.Request) string {
	b, _ := io.ReadAll(r.Body) //nolint:errcheck // best-effort read in fake server
	return string(b)
}

func atoiDefault(s string, def, lowest int) int {
	if v, err := strconv.Atoi(s); err == nil && v >= lowest {
		return v
	}
	return def
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,gosec // best-effort write in fake server
	json.NewEncoder(w).Encode(v)
}
