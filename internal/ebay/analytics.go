package ebay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

const (
	analyticsPath = "/developer/analytics/v1_beta/rate_limit/"

	// browseResourceName is the Analytics API resource name for
	// item_summary/search calls.
	browseResourceName = "buy.browse"
)

type rateLimitResponse struct {
	RateLimits []rateLimitEntry `json:"rateLimits"`
}

type rateLimitEntry struct {
	APIContext string     `json:"apiContext"`
	APIName    string     `json:"apiName"`
	APIVersion string     `json:"apiVersion"`
	Resources  []resource `json:"resources"`
}

type resource struct {
	Name  string      `json:"name"`
	Rates []quotaRate `json:"rates"`
}

type quotaRate struct {
	Count      int64  `json:"count"`
	Limit      int64  `json:"limit"`
	Remaining  int64  `json:"remaining"`
	Reset      string `json:"reset"`
	TimeWindow int64  `json:"timeWindow"`
}

// QuotaState is eBay's view of the Browse search quota.
type QuotaState struct {
	Count      int64
	Limit      int64
	Remaining  int64
	ResetAt    time.Time
	TimeWindow time.Duration
}

// BrowseQuota asks the Developer Analytics API for the current
// item_summary/search quota of this application. When a RateLimiter is
// configured it is synced to the result.
func (c *BrowseClient) BrowseQuota(ctx context.Context) (*QuotaState, error) {
	q := url.Values{}
	q.Set("api_context", "buy")
	q.Set("api_name", "browse")

	body, err := c.get(ctx, "analytics", c.tokens.BaseURL()+analyticsPath+"?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var apiResp rateLimitResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("parsing analytics response: %w: %w", ErrMalformedResponse, err)
	}

	state, err := extractBrowseQuota(apiResp)
	if err != nil {
		return nil, err
	}

	if c.rateLimiter != nil {
		c.rateLimiter.Sync(state)
	}
	return state, nil
}

// extractBrowseQuota picks the buy.browse resource. When eBay reports
// several windows for it, the longest one is the daily quota.
func extractBrowseQuota(resp rateLimitResponse) (*QuotaState, error) {
	for _, entry := range resp.RateLimits {
		for _, res := range entry.Resources {
			if res.Name != browseResourceName {
				continue
			}
			if len(res.Rates) == 0 {
				return nil, fmt.Errorf("no rates for resource %q: %w", browseResourceName, ErrMalformedResponse)
			}

			daily := res.Rates[0]
			for _, r := range res.Rates[1:] {
				if r.TimeWindow > daily.TimeWindow {
					daily = r
				}
			}
			return daily.state()
		}
	}

	return nil, fmt.Errorf("resource %q not in analytics response: %w", browseResourceName, ErrMalformedResponse)
}

func (r quotaRate) state() (*QuotaState, error) {
	resetAt, err := time.Parse(time.RFC3339, r.Reset)
	if err != nil {
		return nil, fmt.Errorf("parsing reset time %q: %w: %w", r.Reset, ErrMalformedResponse, err)
	}
	if r.Remaining < 0 || r.Count < 0 {
		return nil, fmt.Errorf("negative quota counters (count %d, remaining %d): %w",
			r.Count, r.Remaining, ErrMalformedResponse)
	}
	return &QuotaState{
		Count:      r.Count,
		Limit:      r.Limit,
		Remaining:  r.Remaining,
		ResetAt:    resetAt,
		TimeWindow: time.Duration(r.TimeWindow) * time.Second,
	}, nil
}
