package domain

// RawMarket is one market record as delivered by the Gamma API. Every field is
// optional and loosely typed: upstream sends the same key as a bool, a string
// or a number depending on the endpoint, and the list fields arrive either as
// native JSON arrays or as JSON-encoded strings of arrays. Values are validated
// by the normalizer, never trusted here.
type RawMarket struct {
	ID              any `json:"id"`
	Slug            any `json:"slug"`
	Question        any `json:"question"`
	Category        any `json:"category"`
	EndDate         any `json:"endDate"`
	EnableOrderBook any `json:"enableOrderBook"`
	Active          any `json:"active"`
	Closed          any `json:"closed"`
	Outcomes        any `json:"outcomes"`      // ["Yes","No"] or "[\"Yes\",\"No\"]"
	OutcomePrices   any `json:"outcomePrices"` // ["0.6","0.4"] or "[\"0.6\",\"0.4\"]"
	ClobTokenIDs    any `json:"clobTokenIds"`  // ["123","456"] or "[\"123\",\"456\"]"
}

// MarketRecord is the normalized form of a RawMarket. It is built once by the
// normalizer and treated as read-only afterwards. The JSON form is the flat
// row used by tables and exports.
type MarketRecord struct {
	ID              string   `json:"id"`
	Slug            *string  `json:"slug"`
	Question        *string  `json:"question"`
	Category        *string  `json:"category"`
	EndDate         *string  `json:"endDate"`
	HoursToClose    *float64 `json:"hours_to_close"`
	EnableOrderBook bool     `json:"enableOrderBook"`
	Active          bool     `json:"active"`
	Closed          bool     `json:"closed"`
	YesTokenID      *string  `json:"yes_token_id"`
	NoTokenID       *string  `json:"no_token_id"`
	YesPrice        *float64 `json:"yes_price"`
	NoPrice         *float64 `json:"no_price"`

	// InvalidReason is set iff the record fails structural validity.
	InvalidReason *string `json:"invalid_reason"`
	// PriceNote explains missing or unparseable prices.
	PriceNote *string `json:"price_note"`
}

// HasValidPrices reports whether both outcome prices were resolved.
func (r MarketRecord) HasValidPrices() bool {
	return r.YesPrice != nil && r.NoPrice != nil
}

// HasTokens reports whether both YES and NO token ids are present and non-empty.
func (r MarketRecord) HasTokens() bool {
	return r.YesTokenID != nil && *r.YesTokenID != "" &&
		r.NoTokenID != nil && *r.NoTokenID != ""
}

// Text returns the category and question joined by a space, skipping absent
// or empty parts.
func (r MarketRecord) Text() string {
	switch {
	case nonEmpty(r.Category) && nonEmpty(r.Question):
		return *r.Category + " " + *r.Question
	case nonEmpty(r.Category):
		return *r.Category
	case nonEmpty(r.Question):
		return *r.Question
	default:
		return ""
	}
}

func nonEmpty(s *string) bool { return s != nil && *s != "" }

// FocusPair holds the representative crypto and sports markets. Either side
// may be nil when no candidate matched.
type FocusPair struct {
	Crypto *MarketRecord `json:"crypto"`
	Sports *MarketRecord `json:"sports"`
}
