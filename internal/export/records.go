// Package export turns pages of search results into flat records and
// writes them as CSV, JSON or an aligned text table.
package export

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingField is returned when an item lacks a field a record needs.
var ErrMissingField = errors.New("missing field")

// Header is the CSV header row.
var Header = []string{"id", "title", "price", "currency", "adult_only", "location", "url"}

// locationOrder is the order itemLocation components are joined in.
var locationOrder = []string{"city", "stateOrProvince", "postalCode", "country"}

// Record is one exported item.
type Record struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Price     string `json:"price"`
	Currency  string `json:"currency"`
	AdultOnly bool   `json:"adult_only"`
	Location  string `json:"location"`
	URL       string `json:"url"`
}

// Row returns the record as CSV fields in Header order.
func (r Record) Row() []string {
	return []string{
		r.ID,
		r.Title,
		r.Price,
		r.Currency,
		fmt.Sprintf("%t", r.AdultOnly),
		r.Location,
		r.URL,
	}
}

// DataSource is anything that exposes a decoded search response, such as
// *ebay.Page.
type DataSource interface {
	Data() map[string]any
}

// Records extracts one Record per itemSummaries entry, in response order.
// A page without itemSummaries yields no records.
func Records(src DataSource) ([]Record, error) {
	raw, ok := src.Data()["itemSummaries"]
	if !ok || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("itemSummaries is %T, not an array: %w", raw, ErrMissingField)
	}

	records := make([]Record, 0, len(items))
	for i, v := range items {
		item, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("item %d is %T, not an object: %w", i, v, ErrMissingField)
		}
		rec, err := toRecord(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// All concatenates the records of every source.
func All(srcs ...DataSource) ([]Record, error) {
	var all []Record
	for _, src := range srcs {
		recs, err := Records(src)
		if err != nil {
			return nil, err
		}
		all = append(all, recs...)
	}
	return all, nil
}

func toRecord(item map[string]any) (Record, error) {
	var (
		rec Record
		err error
	)

	if rec.ID, err = stringField(item, "itemId"); err != nil {
		return Record{}, err
	}
	if rec.Title, err = stringField(item, "title"); err != nil {
		return Record{}, err
	}

	price, ok := item["price"].(map[string]any)
	if !ok {
		return Record{}, fmt.Errorf("price: %w", ErrMissingField)
	}
	if rec.Price, err = stringField(price, "value"); err != nil {
		return Record{}, fmt.Errorf("price.%w", err)
	}
	if rec.Currency, err = stringField(price, "currency"); err != nil {
		return Record{}, fmt.Errorf("price.%w", err)
	}

	adult, ok := item["adultOnly"].(bool)
	if !ok {
		return Record{}, fmt.Errorf("adultOnly: %w", ErrMissingField)
	}
	rec.AdultOnly = adult

	if rec.Location, err = location(item["itemLocation"]); err != nil {
		return Record{}, err
	}
	if rec.URL, err = stringField(item, "itemWebUrl"); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func stringField(m map[string]any, key string) (string, error) {
	s, ok := m[key].(string)
	if !ok {
		return "", fmt.Errorf("%s: %w", key, ErrMissingField)
	}
	return s, nil
}

// location joins itemLocation components with ", ". The API sends an
// object; an array of strings is accepted as already ordered.
func location(v any) (string, error) {
	var parts []string
	switch loc := v.(type) {
	case map[string]any:
		for _, key := range locationOrder {
			if s, ok := loc[key].(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
	case []any:
		for _, p := range loc {
			if s, ok := p.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
	default:
		return "", fmt.Errorf("itemLocation: %w", ErrMissingField)
	}
	return strings.Join(parts, ", "), nil
}
