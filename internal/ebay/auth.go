package ebay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/donaldgifford/ebaybuy/internal/metrics"
)

const (
	// ProductionURL and SandboxURL are the API hosts for each environment.
	ProductionURL = "https://api.ebay.com"
	SandboxURL    = "https://api.sandbox.ebay.com"

	tokenPath           = "/identity/v1/oauth2/token" //nolint:gosec // not a credential
	defaultTokenTimeout = 10 * time.Second
)

// cachedToken is replaced wholesale on every refresh.
type cachedToken struct {
	accessToken string
	expiresIn   time.Duration
	retrievedAt time.Time
}

func (t *cachedToken) expiry() time.Time {
	return t.retrievedAt.Add(t.expiresIn)
}

// TokenManager obtains eBay application access tokens with the OAuth2
// client credentials grant and caches them until they expire. Switching
// between sandbox and production discards the cached token, since tokens
// are only valid on the host that issued them.
//
// A TokenManager is safe for concurrent use. Reads of a valid token take
// a shared lock; a refresh holds the exclusive lock, so at most one token
// request is in flight.
type TokenManager struct {
	cred          Credential
	productionURL string
	sandboxURL    string
	client        *http.Client
	refreshBuffer time.Duration
	nowFunc       func() time.Time
	logger        *slog.Logger

	mu      sync.RWMutex
	sandbox bool
	token   *cachedToken
}

// TokenOption configures the TokenManager.
type TokenOption func(*TokenManager)

// WithEndpoints overrides the production and sandbox API base URLs.
func WithEndpoints(production, sandbox string) TokenOption {
	return func(m *TokenManager) {
		m.productionURL = strings.TrimRight(production, "/")
		m.sandboxURL = strings.TrimRight(sandbox, "/")
	}
}

// WithTokenHTTPClient overrides the HTTP client used for token requests.
func WithTokenHTTPClient(c *http.Client) TokenOption {
	return func(m *TokenManager) {
		m.client = c
	}
}

// WithNowFunc overrides the time function for testing.
func WithNowFunc(f func() time.Time) TokenOption {
	return func(m *TokenManager) {
		m.nowFunc = f
	}
}

// WithRefreshBuffer makes tokens refresh this long before they expire.
// The default is zero.
func WithRefreshBuffer(d time.Duration) TokenOption {
	return func(m *TokenManager) {
		m.refreshBuffer = d
	}
}

// WithTokenLogger sets the logger.
func WithTokenLogger(l *slog.Logger) TokenOption {
	return func(m *TokenManager) {
		m.logger = l
	}
}

// NewTokenManager creates a TokenManager for cred. The manager starts in
// the environment selected by cred.Sandbox.
func NewTokenManager(cred Credential, opts ...TokenOption) *TokenManager {
	m := &TokenManager{
		cred:          cred,
		productionURL: ProductionURL,
		sandboxURL:    SandboxURL,
		client:        &http.Client{Timeout: defaultTokenTimeout},
		nowFunc:       time.Now,
		logger:        slog.New(slog.DiscardHandler),
		sandbox:       cred.Sandbox,
	}
	m.cred.Scopes = append([]string(nil), cred.Scopes...)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`

	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Token returns a valid access token, requesting a new one when none is
// cached or the cached one has expired.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.RLock()
	if tok := m.validLocked(); tok != nil {
		m.mu.RUnlock()
		return tok.accessToken, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Another caller may have refreshed while we waited.
	if tok := m.validLocked(); tok != nil {
		return tok.accessToken, nil
	}

	tok, err := m.refreshLocked(ctx)
	if err != nil {
		return "", err
	}
	return tok.accessToken, nil
}

// EnableSandbox points the manager at the sandbox environment. The cached
// token is discarded only if the environment actually changes.
func (m *TokenManager) EnableSandbox() {
	m.setSandbox(true)
}

// DisableSandbox points the manager at the production environment. The
// cached token is discarded only if the environment actually changes.
func (m *TokenManager) DisableSandbox() {
	m.setSandbox(false)
}

func (m *TokenManager) setSandbox(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sandbox == enabled {
		return
	}
	m.sandbox = enabled
	m.token = nil

	metrics.TokenInvalidationsTotal.WithLabelValues("environment_switch").Inc()
	m.logger.Info("switched eBay environment", "environment", environmentName(enabled))
}

// Invalidate discards the cached token so the next Token call refreshes.
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token == nil {
		return
	}
	m.token = nil
	metrics.TokenInvalidationsTotal.WithLabelValues("rejected").Inc()
}

// Sandbox reports whether the manager targets the sandbox environment.
func (m *TokenManager) Sandbox() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sandbox
}

// Environment is "sandbox" or "production".
func (m *TokenManager) Environment() string {
	return environmentName(m.Sandbox())
}

// BaseURL returns the API base URL of the current environment.
func (m *TokenManager) BaseURL() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.baseURLLocked()
}

// TokenURL returns the token endpoint of the current environment.
func (m *TokenManager) TokenURL() string {
	return m.BaseURL() + tokenPath
}

// Expiry returns when the cached token expires, or the zero time when
// nothing is cached.
func (m *TokenManager) Expiry() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == nil {
		return time.Time{}
	}
	return m.token.expiry()
}

func (m *TokenManager) baseURLLocked() string {
	if m.sandbox {
		return m.sandboxURL
	}
	return m.productionURL
}

func (m *TokenManager) validLocked() *cachedToken {
	if m.token == nil {
		return nil
	}
	if !m.nowFunc().Before(m.token.expiry().Add(-m.refreshBuffer)) {
		return nil
	}
	return m.token
}

func (m *TokenManager) refreshLocked(ctx context.Context) (*cachedToken, error) {
	env := environmentName(m.sandbox)
	start := time.Now()

	tok, err := m.requestToken(ctx)
	metrics.TokenRefreshDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.TokenRefreshesTotal.WithLabelValues(env, "failure").Inc()
		m.logger.Warn("token refresh failed", "environment", env, "err", err)
		return nil, err
	}

	m.token = tok
	metrics.TokenRefreshesTotal.WithLabelValues(env, "success").Inc()
	m.logger.Debug("token refreshed",
		"environment", env,
		"expires_in", tok.expiresIn,
	)
	return tok, nil
}

func (m *TokenManager) requestToken(ctx context.Context) (*cachedToken, error) {
	// eBay accepts the scope list unescaped, separated by spaces.
	payload := "grant_type=client_credentials&scope=" + m.cred.scope()

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		m.baseURLLocked()+tokenPath,
		strings.NewReader(payload),
	)
	if err != nil {
		return nil, fmt.Errorf("creating token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	creds := base64.StdEncoding.EncodeToString(
		[]byte(m.cred.ClientKey + ":" + m.cred.ClientSecret),
	)
	req.Header.Set("Authorization", "Basic "+creds)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, transportError("executing token request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError("reading token response", err)
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf(
			"parsing token response (status %d): %w: %w",
			resp.StatusCode, ErrMalformedResponse, err,
		)
	}

	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf(
			"token request failed (status %d): %w: %s - %s",
			resp.StatusCode,
			ErrAuthentication,
			tokenResp.Error,
			tokenResp.ErrorDescription,
		)
	}

	return &cachedToken{
		accessToken: tokenResp.AccessToken,
		expiresIn:   time.Duration(tokenResp.ExpiresIn) * time.Second,
		retrievedAt: m.nowFunc(),
	}, nil
}

// TokenSource adapts the manager to oauth2.TokenSource. The returned
// source shares this manager's cache; ctx is used for refreshes.
func (m *TokenManager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, m: m}
}

type tokenSource struct {
	ctx context.Context //nolint:containedctx // oauth2.TokenSource has no ctx parameter
	m   *TokenManager
}

func (s *tokenSource) Token() (*oauth2.Token, error) {
	access, err := s.m.Token(s.ctx)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken: access,
		TokenType:   "Bearer",
		Expiry:      s.m.Expiry(),
	}, nil
}

func environmentName(sandbox bool) string {
	if sandbox {
		return "sandbox"
	}
	return "production"
}
