package ebay

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ItemSummary is one entry of the itemSummaries array returned by
// item_summary/search.
type ItemSummary struct {
	ItemID          string           `json:"itemId"`
	Title           string           `json:"title"`
	Price           ItemPrice        `json:"price"`
	ItemWebURL      string           `json:"itemWebUrl"`
	ItemHref        string           `json:"itemHref,omitempty"`
	ItemLocation    *ItemLocation    `json:"itemLocation,omitempty"`
	AdultOnly       bool             `json:"adultOnly"`
	Image           *ItemImage       `json:"image,omitempty"`
	Seller          *ItemSeller      `json:"seller,omitempty"`
	Condition       string           `json:"condition,omitempty"`
	ConditionID     string           `json:"conditionId,omitempty"`
	BuyingOptions   []string         `json:"buyingOptions,omitempty"`
	ShippingOptions []ShippingOption `json:"shippingOptions,omitempty"`
	Categories      []ItemCategory   `json:"categories,omitempty"`
	EPID            string           `json:"epid,omitempty"`
	ItemEndDate     string           `json:"itemEndDate,omitempty"`
}

// ItemPrice holds an amount as returned by eBay: a decimal string plus an
// ISO 4217 currency code.
type ItemPrice struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// UnmarshalJSON also accepts a bare number for value.
func (p *ItemPrice) UnmarshalJSON(data []byte) error {
	var raw struct {
		Value    json.RawMessage `json:"value"`
		Currency string          `json:"currency"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Currency = raw.Currency
	p.Value = ""
	v := bytes.TrimSpace(raw.Value)
	switch {
	case len(v) == 0 || bytes.Equal(v, []byte("null")):
	case v[0] == '"':
		return json.Unmarshal(v, &p.Value)
	default:
		var n json.Number
		if err := json.Unmarshal(v, &n); err != nil {
			return err
		}
		p.Value = n.String()
	}
	return nil
}

// ItemLocation is where the item is located.
// Some responses send the location as a list of components instead of an
// object; those land in Parts.
type ItemLocation struct {
	City            string   `json:"city,omitempty"`
	StateOrProvince string   `json:"stateOrProvince,omitempty"`
	PostalCode      string   `json:"postalCode,omitempty"`
	Country         string   `json:"country,omitempty"`
	Parts           []string `json:"parts,omitempty" doc:"Location components when eBay sent a list"`
}

// UnmarshalJSON accepts either the object form or a list of components.
// Non-string list entries are skipped.
func (l *ItemLocation) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []any
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*l = ItemLocation{}
		for _, v := range list {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				l.Parts = append(l.Parts, s)
			}
		}
		return nil
	}

	type plain ItemLocation
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*l = ItemLocation(p)
	return nil
}

// Components returns the non-empty location parts, most specific first.
func (l *ItemLocation) Components() []string {
	if l == nil {
		return nil
	}
	if len(l.Parts) > 0 {
		return append([]string(nil), l.Parts...)
	}
	parts := make([]string, 0, 4)
	for _, p := range []string{l.City, l.StateOrProvince, l.PostalCode, l.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// ItemImage holds eBay image information.
type ItemImage struct {
	ImageURL string `json:"imageUrl"`
}

// ItemSeller holds eBay seller information.
type ItemSeller struct {
	Username           string `json:"username"`
	FeedbackScore      int    `json:"feedbackScore"`
	FeedbackPercentage string `json:"feedbackPercentage"`
}

// ShippingOption holds eBay shipping information.
type ShippingOption struct {
	ShippingCost *ItemPrice `json:"shippingCost,omitempty"`
}

// ItemCategory holds eBay category information.
type ItemCategory struct {
	CategoryID   string `json:"categoryId"`
	CategoryName string `json:"categoryName,omitempty"`
}
