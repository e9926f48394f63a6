package ebay

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

const (
	// SearchPath is the item_summary/search endpoint path.
	SearchPath = "/buy/browse/v1/item_summary/search"

	// MaxLimit is the largest page size item_summary/search accepts.
	MaxLimit  = 200
	maxOffset = 9999
)

// ErrInvalidQuery is returned by SearchQuery.Validate.
var ErrInvalidQuery = errors.New("invalid search query")

type filterClause struct {
	key   string
	value string
}

// SearchQuery describes a keyword search against item_summary/search.
// It is a value: every builder method returns a modified copy and leaves
// the receiver untouched, so a base query can be shared and extended.
//
//	q := ebay.NewSearch().Keywords("playstation", "5").Limit(50)
//	used := q.Filter("conditions", "{USED}")
type SearchQuery struct {
	q           string
	autoCorrect bool
	limit       int
	offset      int
	sort        string
	epid        string
	categoryIDs []string
	filters     []filterClause
}

// NewSearch returns an empty query.
func NewSearch() SearchQuery {
	return SearchQuery{}
}

// Keywords matches items containing all of kwds.
func (s SearchQuery) Keywords(kwds ...string) SearchQuery {
	s.q = strings.Join(kwds, " ")
	return s
}

// AnyKeywords matches items containing any of kwds, using eBay's
// "(a, b)" OR syntax.
func (s SearchQuery) AnyKeywords(kwds ...string) SearchQuery {
	s.q = "(" + strings.Join(kwds, ", ") + ")"
	return s
}

// AutoCorrect toggles keyword spelling correction.
func (s SearchQuery) AutoCorrect(active bool) SearchQuery {
	s.autoCorrect = active
	return s
}

// Limit sets the page size.
func (s SearchQuery) Limit(n int) SearchQuery {
	s.limit = n
	return s
}

// Offset sets the number of items to skip.
func (s SearchQuery) Offset(n int) SearchQuery {
	s.offset = n
	return s
}

// Sort orders results by field, for example "price" or "newlyListed".
func (s SearchQuery) Sort(field string, ascending bool) SearchQuery {
	if field == "" {
		s.sort = ""
		return s
	}
	if ascending {
		s.sort = field
	} else {
		s.sort = "-" + field
	}
	return s
}

// EPID restricts results to an eBay product identifier.
func (s SearchQuery) EPID(epid string) SearchQuery {
	s.epid = epid
	return s
}

// CategoryIDs restricts results to the given categories.
func (s SearchQuery) CategoryIDs(ids ...string) SearchQuery {
	s.categoryIDs = slices.Clone(ids)
	return s
}

// Filter adds a field filter such as ("price", "[10..50]"). A later filter
// for the same key replaces the earlier one.
func (s SearchQuery) Filter(key, value string) SearchQuery {
	filters := make([]filterClause, 0, len(s.filters)+1)
	for _, f := range s.filters {
		if f.key != key {
			filters = append(filters, f)
		}
	}
	s.filters = append(filters, filterClause{key: key, value: value})
	return s
}

// Values encodes the query parameters.
func (s SearchQuery) Values() url.Values {
	v := url.Values{}
	if s.q != "" {
		v.Set("q", s.q)
	}
	if s.autoCorrect {
		v.Set("auto_correct", "KEYWORD")
	}
	if s.limit > 0 {
		v.Set("limit", strconv.Itoa(s.limit))
	}
	if s.offset > 0 {
		v.Set("offset", strconv.Itoa(s.offset))
	}
	if s.sort != "" {
		v.Set("sort", s.sort)
	}
	if s.epid != "" {
		v.Set("epid", s.epid)
	}
	if len(s.categoryIDs) > 0 {
		v.Set("category_ids", strings.Join(s.categoryIDs, ","))
	}
	if len(s.filters) > 0 {
		parts := make([]string, 0, len(s.filters))
		for _, f := range s.filters {
			parts = append(parts, f.key+":"+f.value)
		}
		v.Set("filter", strings.Join(parts, ","))
	}
	return v
}

// Validate reports whether eBay would accept the query.
func (s SearchQuery) Validate() error {
	var errs []error
	if s.q == "" && s.epid == "" && len(s.categoryIDs) == 0 {
		errs = append(errs, errors.New("one of keywords, epid or category ids is required"))
	}
	if s.limit < 0 || s.limit > MaxLimit {
		errs = append(errs, fmt.Errorf("limit must be between 1 and %d (got %d)", MaxLimit, s.limit))
	}
	if s.offset < 0 || s.offset > maxOffset {
		errs = append(errs, fmt.Errorf("offset must be between 0 and %d (got %d)", maxOffset, s.offset))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, errors.Join(errs...))
	}
	return nil
}

// String returns the encoded query string.
func (s SearchQuery) String() string {
	return s.Values().Encode()
}

// searchURL returns the search endpoint URL for base.
func (s SearchQuery) searchURL(base string) string {
	return base + SearchPath + "?" + s.Values().Encode()
}
