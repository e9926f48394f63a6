package ebay

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/donaldgifford/ebaybuy/internal/metrics"
)

// Page is one page of search results. Pages are immutable: Next and
// Previous fetch a new Page and leave the receiver unchanged, so a Page
// can be kept and revisited.
//
// HasNext uses the arithmetic rule total > limit+offset rather than the
// presence of a next link, so a response that omits the link while more
// results remain still reports a next page.
type Page struct {
	raw    []byte
	body   pageFields
	client *BrowseClient
}

// pageFields is what a Page reads out of a SearchPagedCollection.
type pageFields struct {
	Href     string
	Items    []ItemSummary
	Total    int
	Limit    int
	Offset   int
	Next     string
	Prev     string
	Warnings []APIErrorDetail
}

// NewPage parses body as a search response. client is used to fetch
// adjacent pages and may be nil for a detached page.
//
// The body must be a JSON object. The paging fields total, limit and
// offset may be numbers or numeric strings. Item and warning entries are
// decoded leniently: one whose fields have unexpected types keeps what
// could be read, and the untouched document stays available through Data.
func NewPage(body []byte, client *BrowseClient) (*Page, error) {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parsing search response: %w: %w", ErrMalformedResponse, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("parsing search response: %w: top-level value is not an object", ErrMalformedResponse)
	}

	var f pageFields
	for _, n := range []struct {
		key string
		dst *int
	}{{"total", &f.Total}, {"limit", &f.Limit}, {"offset", &f.Offset}} {
		v, err := count(doc[n.key])
		if err != nil {
			return nil, fmt.Errorf("parsing search response: %s: %w: %w", n.key, ErrMalformedResponse, err)
		}
		*n.dst = v
	}
	f.Href, _ = doc["href"].(string)
	f.Next, _ = doc["next"].(string)
	f.Prev, _ = doc["prev"].(string)
	f.Items = decodeEach[ItemSummary](doc["itemSummaries"])
	f.Warnings = decodeEach[APIErrorDetail](doc["warnings"])

	return &Page{
		raw:    slices.Clone(body),
		body:   f,
		client: client,
	}, nil
}

// count reads a non-negative whole number from a JSON number or numeric
// string. A missing field counts as zero.
func count(v any) (int, error) {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0, nil
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("unexpected %T", v)
	}
	if f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, fmt.Errorf("not a count: %v", f)
	}
	return int(f), nil
}

// decodeEach decodes every object in a JSON array into a T. A field with
// an unexpected type is left zero and the rest of the element is kept;
// json.Unmarshal only reports the mismatch after finishing the element.
// Non-object elements are dropped.
func decodeEach[T any](v any) []T {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]T, 0, len(list))
	for _, elem := range list {
		obj, ok := elem.(map[string]any)
		if !ok {
			continue
		}
		var t T
		if data, err := json.Marshal(obj); err == nil {
			_ = json.Unmarshal(data, &t) //nolint:errcheck // odd item fields are an export concern
		}
		out = append(out, t)
	}
	return out
}

// Raw returns a copy of the response body.
func (p *Page) Raw() []byte {
	return slices.Clone(p.raw)
}

// Data returns the response decoded as a generic JSON object. Each call
// returns a fresh map.
func (p *Page) Data() map[string]any {
	var data map[string]any
	_ = json.Unmarshal(p.raw, &data) //nolint:errcheck // NewPage only accepts objects
	return data
}

// Items returns a copy of the page's item summaries in response order.
func (p *Page) Items() []ItemSummary {
	return slices.Clone(p.body.Items)
}

// Total is the number of items matching the query across all pages.
func (p *Page) Total() int { return p.body.Total }

// Limit is the page size.
func (p *Page) Limit() int { return p.body.Limit }

// Offset is the number of items skipped before this page.
func (p *Page) Offset() int { return p.body.Offset }

// Href is the URL that produced this page.
func (p *Page) Href() string { return p.body.Href }

// NextURL is the next link from the response, or "".
func (p *Page) NextURL() string { return p.body.Next }

// PrevURL is the prev link from the response, or "".
func (p *Page) PrevURL() string { return p.body.Prev }

// Warnings returns any warnings eBay attached to the response.
func (p *Page) Warnings() []APIErrorDetail {
	return slices.Clone(p.body.Warnings)
}

// Tokens returns the TokenManager shared by every page of this result set.
func (p *Page) Tokens() *TokenManager {
	if p.client == nil {
		return nil
	}
	return p.client.Tokens()
}

// HasNext reports whether more results exist beyond this page.
func (p *Page) HasNext() bool {
	return p.body.Total > p.body.Limit+p.body.Offset
}

// HasPrevious reports whether this page is not the first.
func (p *Page) HasPrevious() bool {
	return p.body.Offset > 0
}

// Next fetches the following page. It returns ErrPagination when
// HasNext is false.
func (p *Page) Next(ctx context.Context) (*Page, error) {
	if !p.HasNext() {
		return nil, fmt.Errorf("next: %w", ErrPagination)
	}
	return p.follow(ctx, "next", p.body.Next)
}

// Previous fetches the preceding page. It returns ErrPagination when
// HasPrevious is false.
func (p *Page) Previous(ctx context.Context) (*Page, error) {
	if !p.HasPrevious() {
		return nil, fmt.Errorf("previous: %w", ErrPagination)
	}
	return p.follow(ctx, "previous", p.body.Prev)
}

func (p *Page) follow(ctx context.Context, direction, link string) (*Page, error) {
	if link == "" {
		return nil, fmt.Errorf("%s link missing from response: %w", direction, ErrMalformedResponse)
	}
	if p.client == nil {
		return nil, fmt.Errorf("%s: page has no client: %w", direction, ErrPagination)
	}

	page, err := p.client.fetch(ctx, direction, link)
	if err != nil {
		return nil, fmt.Errorf("fetching %s page: %w", direction, err)
	}
	metrics.PagesFetchedTotal.WithLabelValues(direction).Inc()
	return page, nil
}
