package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/ebaybuy/internal/api"
	"github.com/donaldgifford/ebaybuy/internal/api/handlers"
	"github.com/donaldgifford/ebaybuy/internal/config"
	"github.com/donaldgifford/ebaybuy/internal/ebay"
	"github.com/donaldgifford/ebaybuy/internal/ebay/ebaytest"
)

func newProxy(t *testing.T, opts ...ebaytest.Option) (*httptest.Server, *ebaytest.Fake) {
	t.Helper()

	upstream, fake := ebaytest.NewServer(opts...)
	t.Cleanup(upstream.Close)

	tokens := ebay.NewTokenManager(
		ebay.NewCredential("app-id", "cert-id", nil, false),
		ebay.WithEndpoints(upstream.URL, upstream.URL),
	)
	client := ebay.NewBrowseClient(tokens, ebay.WithRateLimiter(ebay.NewRateLimiter(100, 100, 5000)))

	srv := api.NewServer(client, config.Default().Server, api.WithVersion("test"))
	proxy := httptest.NewServer(srv.Handler())
	t.Cleanup(proxy.Close)
	return proxy, fake
}

func do(t *testing.T, method, target string, body any) (int, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(t.Context(), method, target, r)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestServer_SearchAndPage(t *testing.T) {
	t.Parallel()

	proxy, fake := newProxy(t, ebaytest.WithItems(ebaytest.Items("drone", 5)))

	status, data := do(t, http.MethodPost, proxy.URL+"/api/v1/search", map[string]any{
		"query": "drone",
		"limit": 2,
	})
	require.Equal(t, http.StatusOK, status, string(data))

	var first handlers.PageBody
	require.NoError(t, json.Unmarshal(data, &first))
	assert.Equal(t, 5, first.Total)
	assert.Len(t, first.Items, 2)
	assert.True(t, first.HasNext)
	assert.False(t, first.HasPrevious)
	require.NotEmpty(t, first.Next)

	status, data = do(t, http.MethodGet, proxy.URL+"/api/v1/page?url="+url.QueryEscape(first.Next), nil)
	require.Equal(t, http.StatusOK, status, string(data))

	var second handlers.PageBody
	require.NoError(t, json.Unmarshal(data, &second))
	assert.Equal(t, 2, second.Offset)
	assert.True(t, second.HasPrevious)
	assert.Equal(t, "drone 3", second.Items[0].Title)

	// One token serves both calls.
	assert.Equal(t, 1, fake.TokenCalls())
	assert.Equal(t, 2, fake.SearchCalls())
}

func TestServer_PageStaysOnAPIHost(t *testing.T) {
	t.Parallel()

	proxy, fake := newProxy(t, ebaytest.WithItems(ebaytest.Items("drone", 5)))

	var leaked atomic.Int32
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			leaked.Add(1)
		}
		_, _ = w.Write([]byte(`{"total":0,"limit":10,"offset":0}`))
	}))
	t.Cleanup(collector.Close)

	link := collector.URL + ebay.SearchPath + "?q=drone&offset=2"
	status, data := do(t, http.MethodGet, proxy.URL+"/api/v1/page?url="+url.QueryEscape(link), nil)

	assert.Equal(t, http.StatusUnprocessableEntity, status, string(data))
	assert.Contains(t, string(data), "host must be")
	assert.Zero(t, leaked.Load())
	assert.Zero(t, fake.TokenCalls())
}

func TestServer_SearchWalksPages(t *testing.T) {
	t.Parallel()

	proxy, _ := newProxy(t, ebaytest.WithItems(ebaytest.Items("drone", 5)))

	status, data := do(t, http.MethodPost, proxy.URL+"/api/v1/search", map[string]any{
		"query": "drone",
		"limit": 2,
		"pages": 5,
	})
	require.Equal(t, http.StatusOK, status, string(data))

	var body handlers.PageBody
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Len(t, body.Items, 5)
	assert.Equal(t, 3, body.PagesUsed)
	assert.Equal(t, ebay.StoppedNoMoreResults, body.StoppedAt)
	assert.False(t, body.HasNext)
}

func TestServer_RejectedCredentials(t *testing.T) {
	t.Parallel()

	proxy, _ := newProxy(t, ebaytest.WithRejectedCredentials())

	status, data := do(t, http.MethodPost, proxy.URL+"/api/v1/search", map[string]any{"query": "drone"})
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Contains(t, string(data), "eBay authentication failed")

	status, _ = do(t, http.MethodGet, proxy.URL+"/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestServer_Operational(t *testing.T) {
	t.Parallel()

	proxy, _ := newProxy(t)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{name: "liveness", path: "/healthz", wantStatus: http.StatusOK, wantBody: `"status":"ok"`},
		{name: "readiness", path: "/readyz", wantStatus: http.StatusOK, wantBody: `"environment":"production"`},
		{name: "metrics", path: "/metrics", wantStatus: http.StatusOK, wantBody: "ebaybuy_"},
		{name: "openapi", path: "/openapi.json", wantStatus: http.StatusOK, wantBody: `"/api/v1/search"`},
		{name: "quota", path: "/api/v1/quota", wantStatus: http.StatusOK, wantBody: `"daily_limit":5000`},
		{name: "unknown route", path: "/api/v2/search", wantStatus: http.StatusNotFound, wantBody: `"title":"Not Found"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			status, data := do(t, http.MethodGet, proxy.URL+tt.path, nil)
			assert.Equal(t, tt.wantStatus, status)
			assert.Contains(t, string(data), tt.wantBody)
		})
	}
}

func TestNewServer_RegistersOperations(t *testing.T) {
	t.Parallel()

	var srv *api.Server
	require.NotPanics(t, func() {
		tokens := ebay.NewTokenManager(ebay.NewCredential("app-id", "cert-id", nil, false))
		srv = api.NewServer(ebay.NewBrowseClient(tokens), config.Default().Server)
	})

	doc := srv.API().OpenAPI()
	for _, path := range []string{"/api/v1/search", "/api/v1/page", "/api/v1/quota"} {
		assert.Contains(t, doc.Paths, path)
	}

	schemas := doc.Components.Schemas.Map()
	assert.Contains(t, schemas, "APIErrorDetail")
	assert.Contains(t, schemas, "ErrorDetail")
}
