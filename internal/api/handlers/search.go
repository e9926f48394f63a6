package handlers

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/ebaybuy/internal/ebay"
)

const (
	defaultSearchLimit = 10
	maxSearchPages     = 20
)

// SearchHandler handles eBay search requests.
type SearchHandler struct {
	searcher ebay.Searcher
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(searcher ebay.Searcher) *SearchHandler {
	return &SearchHandler{searcher: searcher}
}

// SearchInput is the request body for the search endpoint.
type SearchInput struct {
	Body struct {
		Query       string            `json:"query" minLength:"1" doc:"Search keywords" example:"drone"`
		AnyOf       bool              `json:"any_of,omitempty" doc:"Match any comma-separated keyword instead of all"`
		CategoryIDs []string          `json:"category_ids,omitempty" doc:"eBay category IDs" example:"[\"179697\"]"`
		Limit       int               `json:"limit,omitempty" minimum:"1" maximum:"200" doc:"Items per page (default 10)" example:"10"`
		Offset      int               `json:"offset,omitempty" minimum:"0" maximum:"9999" doc:"Items to skip" example:"0"`
		Sort        string            `json:"sort,omitempty" doc:"Sort field" example:"price"`
		Descending  bool              `json:"descending,omitempty" doc:"Sort descending"`
		Filters     map[string]string `json:"filters,omitempty" doc:"Filters in key=value form, see ParseFilters"`
		Pages       int               `json:"pages,omitempty" minimum:"1" maximum:"20" doc:"Pages to walk (default 1)" example:"1"`
	}
}

// PageBody describes one page, or several walked pages, of results.
type PageBody struct {
	Items       []ebay.ItemSummary    `json:"items" doc:"Item summaries in response order"`
	Total       int                   `json:"total" doc:"Total matching items"`
	Limit       int                   `json:"limit" doc:"Page size"`
	Offset      int                   `json:"offset" doc:"Offset of the first page"`
	HasNext     bool                  `json:"has_next" doc:"Whether more results follow the last page"`
	HasPrevious bool                  `json:"has_previous" doc:"Whether results precede the first page"`
	Next        string                `json:"next,omitempty" doc:"Link to the page after the last page"`
	Prev        string                `json:"prev,omitempty" doc:"Link to the page before the first page"`
	PagesUsed   int                   `json:"pages_used" doc:"Pages fetched for this response"`
	StoppedAt   string                `json:"stopped_at,omitempty" doc:"Why a multi-page walk stopped"`
	Warnings    []ebay.APIErrorDetail `json:"warnings,omitempty" doc:"Warnings returned by eBay"`
}

// SearchOutput is the response body for the search endpoint.
type SearchOutput struct {
	Body PageBody
}

// Search runs a Browse API search and optionally walks following pages.
func (h *SearchHandler) Search(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	in := input.Body

	q, err := buildQuery(in.Query, in.AnyOf, in.CategoryIDs, in.Limit, in.Offset, in.Sort, in.Descending, in.Filters)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}

	first, err := h.searcher.Search(ctx, q)
	if err != nil {
		return nil, ebayError(err)
	}

	pages := max(in.Pages, 1)
	if pages == 1 {
		return &SearchOutput{Body: pageBody(first)}, nil
	}

	result, err := ebay.Collect(ctx, first, min(pages, maxSearchPages))
	if err != nil {
		return nil, ebayError(err)
	}

	last := result.Pages[len(result.Pages)-1]
	body := pageBody(first)
	body.Items = result.Items
	if body.Items == nil {
		body.Items = []ebay.ItemSummary{}
	}
	body.HasNext = last.HasNext()
	body.Next = last.NextURL()
	body.PagesUsed = result.PagesUsed
	body.StoppedAt = result.StoppedAt
	return &SearchOutput{Body: body}, nil
}

func buildQuery(
	query string,
	anyOf bool,
	categoryIDs []string,
	limit, offset int,
	sortField string,
	descending bool,
	filterMap map[string]string,
) (ebay.SearchQuery, error) {
	q := ebay.NewSearch()
	if anyOf {
		q = q.AnyKeywords(splitTrim(query)...)
	} else {
		q = q.Keywords(query)
	}
	if len(categoryIDs) > 0 {
		q = q.CategoryIDs(categoryIDs...)
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	q = q.Limit(limit).Offset(offset).Sort(sortField, !descending)

	// Map iteration order is random; sort for a stable filter string.
	keys := make([]string, 0, len(filterMap))
	for k := range filterMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	raw := make([]string, 0, len(keys))
	for _, k := range keys {
		raw = append(raw, k+"="+filterMap[k])
	}
	filters, err := ParseFilters(raw)
	if err != nil {
		return ebay.SearchQuery{}, err
	}
	return ApplyFilters(q, filters), nil
}

func pageBody(p *ebay.Page) PageBody {
	items := p.Items()
	if items == nil {
		items = []ebay.ItemSummary{}
	}
	return PageBody{
		Items:       items,
		Total:       p.Total(),
		Limit:       p.Limit(),
		Offset:      p.Offset(),
		HasNext:     p.HasNext(),
		HasPrevious: p.HasPrevious(),
		Next:        p.NextURL(),
		Prev:        p.PrevURL(),
		PagesUsed:   1,
		Warnings:    p.Warnings(),
	}
}

func splitTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// RegisterSearchRoutes registers search endpoints with the Huma API.
func RegisterSearchRoutes(api huma.API, h *SearchHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "search-ebay",
		Method:      http.MethodPost,
		Path:        "/api/v1/search",
		Summary:     "Search eBay listings",
		Description: "Runs an item_summary/search query against the eBay Browse API and returns the first page, or several pages when pages > 1.",
		Tags:        []string{"search"},
		Errors: []int{
			http.StatusUnprocessableEntity,
			http.StatusTooManyRequests,
			http.StatusBadGateway,
			http.StatusGatewayTimeout,
		},
	}, h.Search)
}
