package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/donaldgifford/ebaybuy/internal/ebay"
)

// SearchFilter is one eBay filter clause, sent as key:value.
type SearchFilter struct {
	Key   string
	Value string
}

// ParseFilters parses CLI --filter flags and API filter entries into eBay
// filter clauses. Supported formats:
//
//	price_min=10.00
//	price_max=100.00
//	currency=USD
//	conditions=new,used
//	buying_options=fixed_price,auction
//	itemLocationCountry=US       (any other key is passed through)
//
// price_min and price_max are combined into a single price range.
func ParseFilters(filters []string) ([]SearchFilter, error) {
	var (
		out        []SearchFilter
		minP, maxP string
	)

	for _, f := range filters {
		key, value, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter format %q: expected key=value", f)
		}
		value = strings.TrimSpace(value)

		switch key {
		case "price_min":
			if err := checkPrice(key, value); err != nil {
				return nil, err
			}
			minP = value
		case "price_max":
			if err := checkPrice(key, value); err != nil {
				return nil, err
			}
			maxP = value
		case "currency":
			out = append(out, SearchFilter{Key: "priceCurrency", Value: strings.ToUpper(value)})
		case "conditions":
			out = append(out, SearchFilter{Key: "conditions", Value: enumSet(value)})
		case "buying_options":
			out = append(out, SearchFilter{Key: "buyingOptions", Value: enumSet(value)})
		default:
			out = append(out, SearchFilter{Key: key, Value: value})
		}
	}

	if minP != "" || maxP != "" {
		out = append(out, SearchFilter{Key: "price", Value: "[" + minP + ".." + maxP + "]"})
	}
	return out, nil
}

// ApplyFilters adds each filter to q.
func ApplyFilters(q ebay.SearchQuery, filters []SearchFilter) ebay.SearchQuery {
	for _, f := range filters {
		q = q.Filter(f.Key, f.Value)
	}
	return q
}

func checkPrice(key, value string) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < 0 {
		return fmt.Errorf("invalid %s %q: must not be negative", key, value)
	}
	return nil
}

// enumSet turns "new,used" into eBay's "{NEW|USED}" set syntax.
func enumSet(value string) string {
	parts := strings.Split(value, ",")
	vals := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			vals = append(vals, strings.ToUpper(p))
		}
	}
	return "{" + strings.Join(vals, "|") + "}"
}
