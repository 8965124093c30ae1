package market

import (
	"io"
	"strings"

	"github.com/alanyoungcy/polyfocus/internal/domain"
)

func stringReader(s string) io.Reader { return strings.NewReader(s) }

// candidate builds a record that passes every filter rule.
func candidate(id string, hours float64, category, question string) domain.MarketRecord {
	return domain.MarketRecord{
		ID:              id,
		Category:        ptr(category),
		Question:        ptr(question),
		HoursToClose:    ptr(hours),
		EnableOrderBook: true,
		Active:          true,
		YesTokenID:      ptr(id + "-yes"),
		NoTokenID:       ptr(id + "-no"),
	}
}

func ids(records []domain.MarketRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}
