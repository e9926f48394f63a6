package ebay

import (
	"context"
	"iter"
)

// Stop reasons reported by Collect.
const (
	StoppedMaxPages      = "max_pages"
	StoppedNoMoreResults = "no_more_results"
	StoppedEmptyPage     = "empty_page"
)

// Pages yields first and then each following page until HasNext is false.
// A fetch error is yielded once and ends the sequence.
func Pages(ctx context.Context, first *Page) iter.Seq2[*Page, error] {
	return func(yield func(*Page, error) bool) {
		page := first
		for page != nil {
			if !yield(page, nil) {
				return
			}
			if !page.HasNext() {
				return
			}

			next, err := page.Next(ctx)
			if err != nil {
				yield(nil, err)
				return
			}
			page = next
		}
	}
}

// CollectResult holds the outcome of Collect.
type CollectResult struct {
	Pages     []*Page
	Items     []ItemSummary
	PagesUsed int
	StoppedAt string // "max_pages", "no_more_results", "empty_page"
}

// Collect walks forward from first, gathering items until:
// - maxPages pages have been read (maxPages <= 0 means no cap)
// - a page comes back empty
// - no more results exist
func Collect(ctx context.Context, first *Page, maxPages int) (*CollectResult, error) {
	result := &CollectResult{StoppedAt: StoppedNoMoreResults}

	for page, err := range Pages(ctx, first) {
		if err != nil {
			return nil, err
		}

		result.PagesUsed++
		result.Pages = append(result.Pages, page)

		items := page.Items()
		if len(items) == 0 {
			result.StoppedAt = StoppedEmptyPage
			return result, nil
		}
		result.Items = append(result.Items, items...)

		if maxPages > 0 && result.PagesUsed >= maxPages {
			if page.HasNext() {
				result.StoppedAt = StoppedMaxPages
			}
			return result, nil
		}
	}

	return result, nil
}
