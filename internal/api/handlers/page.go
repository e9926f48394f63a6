package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/ebaybuy/internal/ebay"
)

// PageHandler follows next and prev links returned by a search.
type PageHandler struct {
	searcher ebay.Searcher
	apiHost  string
}

// NewPageHandler returns a handler that follows links pointing at apiHost
// (host[:port] of the eBay API base URL) and nowhere else, since the
// request carries the application token.
func NewPageHandler(searcher ebay.Searcher, apiHost string) *PageHandler {
	return &PageHandler{searcher: searcher, apiHost: apiHost}
}

// PageInput carries the link to follow.
type PageInput struct {
	URL string `query:"url" required:"true" minLength:"1" doc:"A next or prev link from a previous search response"`
}

// PageOutput is the response body for the page endpoint.
type PageOutput struct {
	Body PageBody
}

// GetPage fetches the search page behind a pagination link.
func (h *PageHandler) GetPage(ctx context.Context, input *PageInput) (*PageOutput, error) {
	if err := checkPageURL(input.URL, h.apiHost); err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}

	page, err := h.searcher.Fetch(ctx, input.URL)
	if err != nil {
		return nil, ebayError(err)
	}
	return &PageOutput{Body: pageBody(page)}, nil
}

// checkPageURL only admits search links on the eBay API host, so the
// endpoint cannot be used to issue arbitrary authenticated requests.
func checkPageURL(raw, apiHost string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid page url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid page url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid page url %q: host is required", raw)
	}
	if u.User != nil {
		return fmt.Errorf("invalid page url %q: userinfo is not allowed", raw)
	}
	if apiHost == "" || !strings.EqualFold(u.Host, apiHost) {
		return fmt.Errorf("invalid page url %q: host must be %s", raw, apiHost)
	}
	if u.Path != ebay.SearchPath {
		return fmt.Errorf("invalid page url %q: path must be %s", raw, ebay.SearchPath)
	}
	return nil
}

// RegisterPageRoutes registers the page endpoint with the Huma API.
func RegisterPageRoutes(api huma.API, h *PageHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-search-page",
		Method:      http.MethodGet,
		Path:        "/api/v1/page",
		Summary:     "Follow a search pagination link",
		Description: "Fetches the page behind a next or prev link from an earlier search response.",
		Tags:        []string{"search"},
		Errors: []int{
			http.StatusUnprocessableEntity,
			http.StatusTooManyRequests,
			http.StatusBadGateway,
			http.StatusGatewayTimeout,
		},
	}, h.GetPage)
}
