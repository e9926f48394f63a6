package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/ebaybuy/internal/ebay"
)

// QuotaHandler reports the daily Browse API quota.
type QuotaHandler struct {
	rl       *ebay.RateLimiter
	reporter ebay.QuotaReporter
}

// NewQuotaHandler returns a handler over the local limiter rl and eBay's
// own counters from reporter. Either may be nil: without rl the endpoint
// can only report what eBay says, and without reporter refresh is refused.
func NewQuotaHandler(rl *ebay.RateLimiter, reporter ebay.QuotaReporter) *QuotaHandler {
	return &QuotaHandler{rl: rl, reporter: reporter}
}

// QuotaInput selects between the local counters and eBay's own view.
type QuotaInput struct {
	Refresh bool `query:"refresh" doc:"Ask the Developer Analytics API for eBay's current count first"`
}

// QuotaBody is the quota status.
type QuotaBody struct {
	DailyLimit int64     `json:"daily_limit" example:"5000"                 doc:"Daily item_summary/search call limit"`
	DailyUsed  int64     `json:"daily_used"  example:"142"                  doc:"Calls used in the current 24-hour window"`
	Remaining  int64     `json:"remaining"   example:"4858"                 doc:"Calls left in the current window"`
	Exhausted  bool      `json:"exhausted"   example:"false"                doc:"True once the limit is used up; searches return 429"`
	ResetAt    time.Time `json:"reset_at"    example:"2025-06-16T14:30:00Z" doc:"When the current window ends"`
	Source     string    `json:"source"      example:"local"                enum:"local,ebay" doc:"local for client-side counters, ebay after a refresh from Developer Analytics"`
}

// QuotaOutput is the response of GET /api/v1/quota.
type QuotaOutput struct {
	Body QuotaBody
}

// GetQuota reports the quota. With refresh, eBay's numbers are fetched
// first and the local limiter is synced to them.
func (h *QuotaHandler) GetQuota(ctx context.Context, input *QuotaInput) (*QuotaOutput, error) {
	var (
		state  *ebay.QuotaState
		source = "local"
	)

	if input.Refresh {
		if h.reporter == nil {
			return nil, huma.Error400BadRequest("quota refresh is not available")
		}
		fetched, err := h.reporter.BrowseQuota(ctx)
		if err != nil {
			return nil, ebayError(err)
		}
		state, source = fetched, "ebay"
		if h.rl != nil {
			h.rl.Sync(fetched)
		}
	}

	if h.rl != nil {
		snap := h.rl.Snapshot()
		state = &snap
	}

	resp := &QuotaOutput{Body: QuotaBody{Source: source}}
	if state != nil {
		resp.Body.DailyLimit = state.Limit
		resp.Body.DailyUsed = state.Count
		resp.Body.Remaining = state.Remaining
		resp.Body.Exhausted = state.Limit > 0 && state.Remaining == 0
		resp.Body.ResetAt = state.ResetAt
	}
	return resp, nil
}

// RegisterQuotaRoutes registers GET /api/v1/quota.
func RegisterQuotaRoutes(api huma.API, h *QuotaHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-quota",
		Method:      http.MethodGet,
		Path:        "/api/v1/quota",
		Summary:     "Get eBay API quota status",
		Description: "Returns the daily Browse API call usage, the calls left and when the window resets.",
		Tags:        []string{"ebay"},
		Errors:      []int{http.StatusBadRequest, http.StatusBadGateway, http.StatusGatewayTimeout},
	}, h.GetQuota)
}
