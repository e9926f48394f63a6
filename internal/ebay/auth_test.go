package ebay_test

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/ebaybuy/internal/ebay"
	"github.com/donaldgifford/ebaybuy/internal/ebay/ebaytest"
)

// tokenJSON returns a valid eBay OAuth2 token response as JSON bytes.
func tokenJSON(token string) []byte {
	return []byte(fmt.Sprintf(
		`{"access_token":%q,"expires_in":7200,"token_type":"Application Access Token"}`,
		token,
	))
}

func testCredential() ebay.Credential {
	return ebay.NewCredential("test-app-id", "test-cert-id", []string{ebay.ScopePublic}, false)
}

// fakeClock is a settable time source shared with a TokenManager.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestTokenManager_Token(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantErr    error
		wantToken  string
		errContain string
	}{
		{
			name: "successful token fetch",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write(tokenJSON("test-token-123"))
			},
			wantToken: "test-token-123",
		},
		{
			name: "server returns 401",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write(
					[]byte(`{"error":"invalid_client","error_description":"client authentication failed"}`),
				)
			},
			wantErr:    ebay.ErrAuthentication,
			errContain: "invalid_client",
		},
		{
			name: "revoked scope returns no token",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_scope","error_description":"the requested scope is invalid"}`))
			},
			wantErr:    ebay.ErrAuthentication,
			errContain: "status 400",
		},
		{
			name: "200 without access token",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"expires_in":7200}`))
			},
			wantErr: ebay.ErrAuthentication,
		},
		{
			name: "server returns 500 with empty body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantErr:    ebay.ErrMalformedResponse,
			errContain: "status 500",
		},
		{
			name: "server returns invalid JSON",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte("not json"))
			},
			wantErr:    ebay.ErrMalformedResponse,
			errContain: "parsing token response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			m := ebay.NewTokenManager(testCredential(), ebay.WithEndpoints(srv.URL, srv.URL))

			token, err := m.Token(context.Background())

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), tt.errContain)
				assert.True(t, m.Expiry().IsZero(), "failed refresh must not be cached")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, token)
		})
	}
}

func TestTokenManager_TokenCaching(t *testing.T) {
	t.Parallel()

	srv, fake := ebaytest.NewServer()
	defer srv.Close()

	m := ebay.NewTokenManager(testCredential(), ebay.WithEndpoints(srv.URL, srv.URL))

	token1, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fake.TokenCalls())

	// Second call inside the validity window is served from the cache.
	token2, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, token1, token2)
	assert.Equal(t, 1, fake.TokenCalls())
}

func TestTokenManager_TokenRefreshOnExpiry(t *testing.T) {
	t.Parallel()

	srv, fake := ebaytest.NewServer(ebaytest.WithExpiresIn(7200))
	defer srv.Close()

	clock := newFakeClock()
	m := ebay.NewTokenManager(
		testCredential(),
		ebay.WithEndpoints(srv.URL, srv.URL),
		ebay.WithNowFunc(clock.Now),
	)

	first, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fake.TokenCalls())

	// One second before expiry the cached token is still valid.
	clock.Advance(7199 * time.Second)
	_, err = m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fake.TokenCalls())

	// At retrieved_at + expires_in the token is expired.
	clock.Advance(time.Second)
	second, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fake.TokenCalls())
	assert.NotEqual(t, first, second)

	// Exactly one refresh: the new token is cached again.
	_, err = m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fake.TokenCalls())
}

func TestTokenManager_RefreshBuffer(t *testing.T) {
	t.Parallel()

	srv, fake := ebaytest.NewServer(ebaytest.WithExpiresIn(7200))
	defer srv.Close()

	clock := newFakeClock()
	m := ebay.NewTokenManager(
		testCredential(),
		ebay.WithEndpoints(srv.URL, srv.URL),
		ebay.WithNowFunc(clock.Now),
		ebay.WithRefreshBuffer(60*time.Second),
	)

	_, err := m.Token(context.Background())
	require.NoError(t, err)

	// Advance into the buffer (7200s - 60s = 7140s).
	clock.Advance(7140 * time.Second)
	_, err = m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fake.TokenCalls())
}

func TestTokenManager_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	var callCount atomic.Int32

	srv := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			callCount.Add(1)
			time.Sleep(20 * time.Millisecond)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(tokenJSON("concurrent-token"))
		}),
	)
	defer srv.Close()

	m := ebay.NewTokenManager(testCredential(), ebay.WithEndpoints(srv.URL, srv.URL))

	const goroutines = 20

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for range goroutines {
		go func() {
			defer wg.Done()
			token, err := m.Token(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "concurrent-token", token)
		}()
	}

	wg.Wait()

	// Refreshes are serialized and re-checked, so only one request is made.
	assert.Equal(t, int32(1), callCount.Load())
}

func TestTokenManager_RequestFormat(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/identity/v1/oauth2/token", r.URL.Path)
			assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

			wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("my-app-id:my-cert-id"))
			assert.Equal(t, wantAuth, r.Header.Get("Authorization"))

			body, err := io.ReadAll(r.Body)
			assert.NoError(t, err)
			assert.Equal(
				t,
				"grant_type=client_credentials&scope="+ebay.ScopePublic+" "+ebay.ScopeInventory,
				string(body),
			)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(tokenJSON("format-test-token"))
		}),
	)
	defer srv.Close()

	cred := ebay.NewCredential(
		"my-app-id",
		"my-cert-id",
		[]string{ebay.ScopePublic, ebay.ScopeInventory, ebay.ScopePublic},
		false,
	)
	m := ebay.NewTokenManager(cred, ebay.WithEndpoints(srv.URL, srv.URL))

	token, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "format-test-token", token)
}

func TestTokenManager_FailedRefreshNotCached(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
			return
		}
		_, _ = w.Write(tokenJSON("second-try"))
	}))
	defer srv.Close()

	m := ebay.NewTokenManager(testCredential(), ebay.WithEndpoints(srv.URL, srv.URL))

	_, err := m.Token(context.Background())
	require.ErrorIs(t, err, ebay.ErrAuthentication)

	token, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second-try", token)
	assert.Equal(t, int32(2), calls.Load())
}

func TestTokenManager_TransportErrors(t *testing.T) {
	t.Parallel()

	t.Run("connection refused", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		addr := srv.URL
		srv.Close()

		m := ebay.NewTokenManager(testCredential(), ebay.WithEndpoints(addr, addr))
		_, err := m.Token(context.Background())
		require.ErrorIs(t, err, ebay.ErrTransport)
		assert.NotErrorIs(t, err, ebay.ErrTimeout)
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			<-release
			_, _ = w.Write(tokenJSON("late"))
		}))
		defer srv.Close()
		defer close(release)

		m := ebay.NewTokenManager(
			testCredential(),
			ebay.WithEndpoints(srv.URL, srv.URL),
			ebay.WithTokenHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}),
		)
		_, err := m.Token(context.Background())
		require.ErrorIs(t, err, ebay.ErrTimeout)
		require.ErrorIs(t, err, ebay.ErrTransport)
	})
}

func TestTokenManager_SandboxScenario(t *testing.T) {
	t.Parallel()

	prod, prodFake := ebaytest.NewServer()
	defer prod.Close()
	sandbox, sandboxFake := ebaytest.NewServer()
	defer sandbox.Close()

	cred := ebay.NewCredential("K", "S", []string{"scope/public"}, true)
	m := ebay.NewTokenManager(cred, ebay.WithEndpoints(prod.URL, sandbox.URL))

	assert.True(t, m.Sandbox())
	assert.Equal(t, "sandbox", m.Environment())
	assert.Equal(t, sandbox.URL+"/identity/v1/oauth2/token", m.TokenURL())

	_, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sandboxFake.TokenCalls())
	assert.Equal(t, 0, prodFake.TokenCalls())

	reqs := sandboxFake.TokenRequests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "K", reqs[0].User)
	assert.Equal(t, "S", reqs[0].Password)
	assert.Equal(t, "client_credentials", reqs[0].GrantType)
	assert.Equal(t, "scope/public", reqs[0].Scope)

	m.DisableSandbox()
	assert.False(t, m.Sandbox())
	assert.Equal(t, "production", m.Environment())
	assert.Equal(t, prod.URL, m.BaseURL())

	_, err = m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, prodFake.TokenCalls(), "production token must be fetched fresh")
	assert.Equal(t, 1, sandboxFake.TokenCalls())
}

func TestTokenManager_SandboxToggleInvalidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		startSandbox   bool
		toggle         func(m *ebay.TokenManager)
		wantProdCalls  int
		wantSboxCalls  int
		wantSandboxEnd bool
	}{
		{
			name:           "enable sandbox after production token refreshes",
			startSandbox:   false,
			toggle:         func(m *ebay.TokenManager) { m.EnableSandbox() },
			wantProdCalls:  1,
			wantSboxCalls:  1,
			wantSandboxEnd: true,
		},
		{
			name:         "enable sandbox twice invalidates once",
			startSandbox: false,
			toggle: func(m *ebay.TokenManager) {
				m.EnableSandbox()
				m.EnableSandbox()
			},
			wantProdCalls:  1,
			wantSboxCalls:  1,
			wantSandboxEnd: true,
		},
		{
			name:           "enable sandbox when already enabled is a no-op",
			startSandbox:   true,
			toggle:         func(m *ebay.TokenManager) { m.EnableSandbox() },
			wantProdCalls:  0,
			wantSboxCalls:  1,
			wantSandboxEnd: true,
		},
		{
			name:           "disable sandbox when already disabled is a no-op",
			startSandbox:   false,
			toggle:         func(m *ebay.TokenManager) { m.DisableSandbox() },
			wantProdCalls:  1,
			wantSboxCalls:  0,
			wantSandboxEnd: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			prod, prodFake := ebaytest.NewServer()
			defer prod.Close()
			sandbox, sandboxFake := ebaytest.NewServer()
			defer sandbox.Close()

			cred := ebay.NewCredential("K", "S", nil, tt.startSandbox)
			m := ebay.NewTokenManager(cred, ebay.WithEndpoints(prod.URL, sandbox.URL))

			_, err := m.Token(context.Background())
			require.NoError(t, err)

			tt.toggle(m)

			// Two calls after the toggle: at most one refresh.
			_, err = m.Token(context.Background())
			require.NoError(t, err)
			_, err = m.Token(context.Background())
			require.NoError(t, err)

			assert.Equal(t, tt.wantProdCalls, prodFake.TokenCalls())
			assert.Equal(t, tt.wantSboxCalls, sandboxFake.TokenCalls())
			assert.Equal(t, tt.wantSandboxEnd, m.Sandbox())
		})
	}
}

func TestTokenManager_Invalidate(t *testing.T) {
	t.Parallel()

	srv, fake := ebaytest.NewServer()
	defer srv.Close()

	m := ebay.NewTokenManager(testCredential(), ebay.WithEndpoints(srv.URL, srv.URL))

	_, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.False(t, m.Expiry().IsZero())

	m.Invalidate()
	assert.True(t, m.Expiry().IsZero())

	_, err = m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fake.TokenCalls())
}

func TestTokenManager_TokenSource(t *testing.T) {
	t.Parallel()

	srv, fake := ebaytest.NewServer()
	defer srv.Close()

	m := ebay.NewTokenManager(testCredential(), ebay.WithEndpoints(srv.URL, srv.URL))
	ts := m.TokenSource(context.Background())

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "token-1", tok.AccessToken)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.True(t, tok.Valid())

	// The source shares the manager's cache.
	direct, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tok.AccessToken, direct)
	assert.Equal(t, 1, fake.TokenCalls())
}

func TestCredential_String(t *testing.T) {
	t.Parallel()

	cred := ebay.NewCredential("app", "super-secret", nil, true)
	assert.NotContains(t, cred.String(), "super-secret")
	assert.Equal(t, []string{ebay.ScopePublic}, cred.Scopes)
	assert.True(t, strings.Contains(cred.String(), "sandbox=true"))
}
