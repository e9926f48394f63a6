// Package ebay is a client for the eBay Buy Browse API. It manages OAuth2
// application tokens (TokenManager), executes authenticated requests
// (BrowseClient) and exposes results as immutable, navigable pages (Page).
package ebay

import (
	"context"
)

// TokenProvider supplies bearer tokens. TokenManager implements it.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// Searcher runs searches and follows page links. BrowseClient implements it.
type Searcher interface {
	Search(ctx context.Context, q SearchQuery) (*Page, error)
	Fetch(ctx context.Context, rawURL string) (*Page, error)
}

// QuotaReporter reports the application's Browse quota as eBay sees it.
type QuotaReporter interface {
	BrowseQuota(ctx context.Context) (*QuotaState, error)
}

var (
	_ TokenProvider = (*TokenManager)(nil)
	_ Searcher      = (*BrowseClient)(nil)
	_ QuotaReporter = (*BrowseClient)(nil)
)
