package client

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/donaldgifford/ebaybuy/internal/api/handlers"
)

// SearchRequest is the body of POST /api/v1/search.
type SearchRequest struct {
	Query       string            `json:"query"`
	AnyOf       bool              `json:"any_of,omitempty"`
	CategoryIDs []string          `json:"category_ids,omitempty"`
	Limit       int               `json:"limit,omitempty"`
	Offset      int               `json:"offset,omitempty"`
	Sort        string            `json:"sort,omitempty"`
	Descending  bool              `json:"descending,omitempty"`
	Filters     map[string]string `json:"filters,omitempty"`
	Pages       int               `json:"pages,omitempty"`
}

// Result is a search or page response from the proxy.
type Result struct {
	handlers.PageBody
	items json.RawMessage
}

// Data exposes the items under the Browse API's itemSummaries key, so a
// Result can be passed to the export writers like an *ebay.Page.
func (r *Result) Data() map[string]any {
	var items []any
	if len(r.items) > 0 {
		_ = json.Unmarshal(r.items, &items)
	}
	return map[string]any{"itemSummaries": items}
}

func newResult(data []byte) (*Result, error) {
	var raw struct {
		Items json.RawMessage `json:"items"`
	}
	if err := decode(data, &raw); err != nil {
		return nil, err
	}
	r := &Result{items: raw.Items}
	if err := decode(data, &r.PageBody); err != nil {
		return nil, err
	}
	return r, nil
}

// Search runs a search through the proxy.
func (c *Client) Search(ctx context.Context, req *SearchRequest) (*Result, error) {
	data, err := c.post(ctx, "/api/v1/search", req)
	if err != nil {
		return nil, err
	}
	return newResult(data)
}

// Page follows a next or prev link through the proxy.
func (c *Client) Page(ctx context.Context, link string) (*Result, error) {
	data, err := c.get(ctx, "/api/v1/page?url="+url.QueryEscape(link))
	if err != nil {
		return nil, err
	}
	return newResult(data)
}

// Quota is the proxy's view of the daily call quota.
type Quota = handlers.QuotaBody

// Quota returns the quota status. refresh asks eBay for its own count.
func (c *Client) Quota(ctx context.Context, refresh bool) (*Quota, error) {
	path := "/api/v1/quota"
	if refresh {
		path += "?refresh=true"
	}
	data, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	var q Quota
	if err := decode(data, &q); err != nil {
		return nil, err
	}
	return &q, nil
}
