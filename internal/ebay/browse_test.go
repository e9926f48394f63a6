package ebay_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/ebaybuy/internal/ebay"
	"github.com/donaldgifford/ebaybuy/internal/ebay/ebaytest"
)

// newTestClient starts a server that issues "test-token" on the token
// endpoint and passes every other request to handler.
func newTestClient(
	t *testing.T,
	handler http.HandlerFunc,
	opts ...ebay.BrowseOption,
) (*ebay.BrowseClient, *httptest.Server) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+ebaytest.TokenPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(tokenJSON("test-token"))
	})
	mux.Handle("/", handler)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	tokens := ebay.NewTokenManager(testCredential(), ebay.WithEndpoints(srv.URL, srv.URL))
	return ebay.NewBrowseClient(tokens, opts...), srv
}

// newFakeClient wires a BrowseClient to an ebaytest fake.
func newFakeClient(t *testing.T, opts ...ebaytest.Option) (*ebay.BrowseClient, *ebaytest.Fake) {
	t.Helper()

	srv, fake := ebaytest.NewServer(opts...)
	t.Cleanup(srv.Close)

	tokens := ebay.NewTokenManager(testCredential(), ebay.WithEndpoints(srv.URL, srv.URL))
	return ebay.NewBrowseClient(tokens), fake
}

func TestBrowseClient_Search(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		query      ebay.SearchQuery
		wantErr    error
		errContain string
		wantItems  int
		wantTotal  int
	}{
		{
			name: "successful search",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/buy/browse/v1/item_summary/search", r.URL.Path)
				assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
				assert.Equal(t, "EBAY_US", r.Header.Get("X-EBAY-C-MARKETPLACE-ID"))
				assert.Equal(t, "drone", r.URL.Query().Get("q"))
				assert.Equal(t, "2", r.URL.Query().Get("limit"))

				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{
					"total": 10, "limit": 2, "offset": 0,
					"itemSummaries": [
						{"itemId": "v1|1|0", "title": "drone one"},
						{"itemId": "v1|2|0", "title": "drone two"}
					]
				}`))
			},
			query:     ebay.NewSearch().Keywords("drone").Limit(2),
			wantItems: 2,
			wantTotal: 10,
		},
		{
			name: "empty results",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"total": 0, "limit": 50, "offset": 0}`))
			},
			query: ebay.NewSearch().Keywords("nothing matches this"),
		},
		{
			name: "eBay error payload",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"errors":[{"errorId":12001,"domain":"API_BROWSE","category":"REQUEST","message":"The sort value is invalid."}]}`))
			},
			query:      ebay.NewSearch().Keywords("drone").Sort("bogus", true),
			errContain: "The sort value is invalid.",
		},
		{
			name: "server error without body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			query:      ebay.NewSearch().Keywords("drone"),
			errContain: "status 500",
		},
		{
			name: "invalid JSON",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("not json"))
			},
			query:   ebay.NewSearch().Keywords("drone"),
			wantErr: ebay.ErrMalformedResponse,
		},
		{
			name: "invalid query is rejected before any request",
			handler: func(_ http.ResponseWriter, _ *http.Request) {
				t.Error("no request expected")
			},
			query:   ebay.NewSearch().Limit(10),
			wantErr: ebay.ErrInvalidQuery,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client, _ := newTestClient(t, tt.handler)

			page, err := client.Search(context.Background(), tt.query)

			if tt.wantErr != nil || tt.errContain != "" {
				require.Error(t, err)
				if tt.wantErr != nil {
					require.ErrorIs(t, err, tt.wantErr)
				}
				assert.Contains(t, err.Error(), tt.errContain)
				return
			}

			require.NoError(t, err)
			assert.Len(t, page.Items(), tt.wantItems)
			assert.Equal(t, tt.wantTotal, page.Total())
		})
	}
}

func TestBrowseClient_APIError(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"errors":[{"errorId":1100,"domain":"ACCESS","category":"REQUEST","message":"Access denied"}]}`))
	})

	_, err := client.Search(context.Background(), ebay.NewSearch().Keywords("drone"))

	var apiErr *ebay.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	require.Len(t, apiErr.Errors, 1)
	assert.Equal(t, 1100, apiErr.Errors[0].ErrorID)
	assert.Equal(t, "ACCESS", apiErr.Errors[0].Domain)
	assert.NotErrorIs(t, err, ebay.ErrAuthentication)
}

func TestBrowseClient_UnauthorizedInvalidatesToken(t *testing.T) {
	t.Parallel()

	var searches atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if searches.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"errors":[{"errorId":1001,"message":"Invalid access token"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"total":0,"limit":50,"offset":0}`))
	})

	_, err := client.Search(context.Background(), ebay.NewSearch().Keywords("drone"))
	require.ErrorIs(t, err, ebay.ErrAuthentication)
	assert.True(t, client.Tokens().Expiry().IsZero(), "rejected token must be discarded")

	_, err = client.Search(context.Background(), ebay.NewSearch().Keywords("drone"))
	require.NoError(t, err)
	assert.False(t, client.Tokens().Expiry().IsZero())
}

func TestBrowseClient_TokenError(t *testing.T) {
	t.Parallel()

	client, fake := newFakeClient(t, ebaytest.WithRejectedCredentials())

	_, err := client.Search(context.Background(), ebay.NewSearch().Keywords("drone"))
	require.ErrorIs(t, err, ebay.ErrAuthentication)
	assert.Contains(t, err.Error(), "getting auth token")
	assert.Equal(t, 0, fake.SearchCalls())
}

func TestBrowseClient_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		<-release
		_, _ = w.Write([]byte(`{}`))
	}, ebay.WithRequestTimeout(50*time.Millisecond))
	defer close(release)

	_, err := client.Search(context.Background(), ebay.NewSearch().Keywords("drone"))
	require.ErrorIs(t, err, ebay.ErrTimeout)
	require.ErrorIs(t, err, ebay.ErrTransport)
}

func TestBrowseClient_Marketplace(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "EBAY_GB", r.Header.Get("X-EBAY-C-MARKETPLACE-ID"))
		_, _ = w.Write([]byte(`{"total":0,"limit":50,"offset":0}`))
	}, ebay.WithMarketplace("EBAY_GB"))

	_, err := client.Search(context.Background(), ebay.NewSearch().Keywords("drone"))
	require.NoError(t, err)
}

func TestBrowseClient_RateLimited(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	rl := ebay.NewRateLimiter(100, 10, 1)
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"total":0,"limit":50,"offset":0}`))
	}, ebay.WithRateLimiter(rl))

	_, err := client.Search(context.Background(), ebay.NewSearch().Keywords("drone"))
	require.NoError(t, err)

	_, err = client.Search(context.Background(), ebay.NewSearch().Keywords("drone"))
	require.ErrorIs(t, err, ebay.ErrDailyLimitReached)
	assert.Equal(t, int32(1), calls.Load())
	assert.Same(t, rl, client.RateLimiter())
}

func TestBrowseClient_Get(t *testing.T) {
	t.Parallel()

	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/buy/browse/v1/item/v1|1|0", r.URL.Path)
		_, _ = w.Write([]byte(`{"itemId":"v1|1|0"}`))
	})

	body, err := client.Get(context.Background(), srv.URL+"/buy/browse/v1/item/v1|1|0")
	require.NoError(t, err)
	assert.JSONEq(t, `{"itemId":"v1|1|0"}`, string(body))
}

func TestBrowseClient_FollowsEnvironment(t *testing.T) {
	t.Parallel()

	prod, prodFake := ebaytest.NewServer(ebaytest.WithItems(ebaytest.Items("drone", 3)))
	defer prod.Close()
	sandbox, sandboxFake := ebaytest.NewServer(ebaytest.WithItems(ebaytest.Items("drone", 3)))
	defer sandbox.Close()

	tokens := ebay.NewTokenManager(
		ebay.NewCredential("K", "S", nil, false),
		ebay.WithEndpoints(prod.URL, sandbox.URL),
	)
	client := ebay.NewBrowseClient(tokens)

	_, err := client.Search(context.Background(), ebay.NewSearch().Keywords("drone"))
	require.NoError(t, err)
	assert.Equal(t, 1, prodFake.SearchCalls())

	tokens.EnableSandbox()

	_, err = client.Search(context.Background(), ebay.NewSearch().Keywords("drone"))
	require.NoError(t, err)
	assert.Equal(t, 1, sandboxFake.SearchCalls())
	assert.Equal(t, 1, sandboxFake.TokenCalls())
}

func TestAPIError_Error(t *testing.T) {
	t.Parallel()

	err := &ebay.APIError{
		StatusCode: http.StatusUnauthorized,
		Errors: []ebay.APIErrorDetail{
			{Message: "first"},
			{Message: "second"},
		},
	}
	assert.Equal(t, "eBay API error (status 401): first; second", err.Error())
	assert.True(t, errors.Is(err, ebay.ErrAuthentication))

	bare := &ebay.APIError{StatusCode: http.StatusBadGateway, Body: "upstream down"}
	assert.Equal(t, "eBay API error (status 502): upstream down", bare.Error())
}
