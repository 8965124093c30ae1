package domain

import "time"

// Snapshot is the output of one refresh: every normalized record, the
// candidates admitted under MaxHours and the focus picks among them.
type Snapshot struct {
	ID         string         `json:"id"`
	FetchedAt  time.Time      `json:"fetched_at"`
	MaxHours   float64        `json:"max_hours"`
	Records    []MarketRecord `json:"records"`
	Candidates []MarketRecord `json:"candidates"`
	Focus      FocusPair      `json:"focus"`
}

// Stats summarizes a snapshot for logs, metrics and the once-mode report.
type Stats struct {
	Records    int `json:"records"`
	Candidates int `json:"candidates"`
	Invalid    int `json:"invalid"`
	PriceNotes int `json:"price_notes"`
}

// Stats counts records by diagnostic state.
func (s Snapshot) Stats() Stats {
	st := Stats{Records: len(s.Records), Candidates: len(s.Candidates)}
	for _, r := range s.Records {
		if r.InvalidReason != nil {
			st.Invalid++
		}
		if r.PriceNote != nil {
			st.PriceNotes++
		}
	}
	return st
}

// Quote is the CLOB price view of one focus token.
type Quote struct {
	TokenID string  `json:"token_id"`
	Side    string  `json:"side"`
	Price   float64 `json:"price"`
}

// BookLevel is a single price level of an order book.
type BookLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// Book is an order-book snapshot for one token.
type Book struct {
	TokenID string      `json:"token_id"`
	Market  string      `json:"market"`
	Bids    []BookLevel `json:"bids"`
	Asks    []BookLevel `json:"asks"`
	BestBid float64     `json:"best_bid"`
	BestAsk float64     `json:"best_ask"`
}
