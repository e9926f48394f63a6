package ebay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/donaldgifford/ebaybuy/internal/metrics"
)

// ErrDailyLimitReached is returned when the daily API call quota is used up.
var ErrDailyLimitReached = errors.New("daily API limit reached")

const quotaWindow = 24 * time.Hour

// RateLimiter gates outbound Browse API calls with a per-second token
// bucket and a rolling 24-hour call quota. eBay's default application
// quota for item_summary/search is 5000 calls per day.
type RateLimiter struct {
	limiter  *rate.Limiter
	maxDaily int64
	nowFunc  func() time.Time

	mu      sync.Mutex
	used    int64
	resetAt time.Time
}

// RateLimiterOption configures the RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithRateLimiterNowFunc overrides the time function for testing.
func WithRateLimiterNowFunc(f func() time.Time) RateLimiterOption {
	return func(r *RateLimiter) {
		r.nowFunc = f
	}
}

// NewRateLimiter creates a limiter allowing perSecond calls with the given
// burst, and at most maxDaily calls per window. The first window starts now.
func NewRateLimiter(
	perSecond float64,
	burst int,
	maxDaily int64,
	opts ...RateLimiterOption,
) *RateLimiter {
	r := &RateLimiter{
		limiter:  rate.NewLimiter(rate.Limit(perSecond), burst),
		maxDaily: maxDaily,
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.resetAt = r.nowFunc().Add(quotaWindow)
	return r
}

// Wait reserves one call. It fails fast with ErrDailyLimitReached when the
// quota is exhausted, otherwise blocks until the token bucket allows the
// call or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.reserve(); err != nil {
		metrics.DailyLimitHits.Inc()
		return err
	}

	if err := r.limiter.Wait(ctx); err != nil {
		r.release()
		return fmt.Errorf("rate limiter wait: %w", err)
	}
	return nil
}

func (r *RateLimiter) reserve() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rollLocked()
	if r.used >= r.maxDaily {
		return fmt.Errorf("%w (%d/%d)", ErrDailyLimitReached, r.used, r.maxDaily)
	}
	r.used++
	metrics.DailyUsage.Set(float64(r.used))
	return nil
}

func (r *RateLimiter) release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.used > 0 {
		r.used--
	}
	metrics.DailyUsage.Set(float64(r.used))
}

func (r *RateLimiter) rollLocked() {
	now := r.nowFunc()
	if now.After(r.resetAt) {
		r.used = 0
		r.resetAt = now.Add(quotaWindow)
	}
}

// Sync aligns the local counters with the quota reported by eBay's
// Developer Analytics API.
func (r *RateLimiter) Sync(q *QuotaState) {
	if q == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if q.Limit > 0 {
		r.maxDaily = q.Limit
	}
	r.used = q.Count
	if !q.ResetAt.IsZero() {
		r.resetAt = q.ResetAt
	}
	metrics.DailyUsage.Set(float64(r.used))
}

// Snapshot returns the daily counters as one consistent reading.
func (r *RateLimiter) Snapshot() QuotaState {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rollLocked()
	return QuotaState{
		Count:      r.used,
		Limit:      r.maxDaily,
		Remaining:  max(r.maxDaily-r.used, 0),
		ResetAt:    r.resetAt,
		TimeWindow: quotaWindow,
	}
}

// DailyCount returns the number of calls made in the current window.
func (r *RateLimiter) DailyCount() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rollLocked()
	return r.used
}

// MaxDaily returns the daily call limit.
func (r *RateLimiter) MaxDaily() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxDaily
}

// Remaining returns the calls left in the current window.
func (r *RateLimiter) Remaining() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rollLocked()
	return max(r.maxDaily-r.used, 0)
}

// ResetAt returns when the current window ends.
func (r *RateLimiter) ResetAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resetAt
}
