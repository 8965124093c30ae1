package polymarket

import (
	"strconv"

	"github.com/alanyoungcy/polyfocus/internal/domain"
)

// --------------------------------------------------------------------------
// CLOB API DTOs
// --------------------------------------------------------------------------

// APIBook is an order book as returned by GET /book.
type APIBook struct {
	Market    string          `json:"market"`
	AssetID   string          `json:"asset_id"`
	Bids      []APIPriceLevel `json:"bids"`
	Asks      []APIPriceLevel `json:"asks"`
	Timestamp string          `json:"timestamp"`
	Hash      string          `json:"hash"`
}

// APIPriceLevel is a single bid/ask level; the CLOB sends numbers as strings.
type APIPriceLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// ToDomainBook converts an APIBook to a domain.Book, computing the best bid
// and ask. Levels with unparseable numbers are skipped.
func (b *APIBook) ToDomainBook() domain.Book {
	book := domain.Book{
		TokenID: b.AssetID,
		Market:  b.Market,
	}

	for _, lvl := range b.Bids {
		p, s, ok := lvl.parse()
		if !ok {
			continue
		}
		book.Bids = append(book.Bids, domain.BookLevel{Price: p, Size: s})
		if p > book.BestBid {
			book.BestBid = p
		}
	}
	for _, lvl := range b.Asks {
		p, s, ok := lvl.parse()
		if !ok {
			continue
		}
		book.Asks = append(book.Asks, domain.BookLevel{Price: p, Size: s})
		if book.BestAsk == 0 || p < book.BestAsk {
			book.BestAsk = p
		}
	}

	return book
}

func (l APIPriceLevel) parse() (price, size float64, ok bool) {
	p, err := strconv.ParseFloat(l.Price, 64)
	if err != nil {
		return 0, 0, false
	}
	s, err := strconv.ParseFloat(l.Size, 64)
	if err != nil {
		return 0, 0, false
	}
	return p, s, true
}
