package market

import (
	"sort"

	"github.com/alanyoungcy/polyfocus/internal/domain"
)

// IsCandidate reports whether r is tradable and closes within (0, maxHours].
func IsCandidate(r domain.MarketRecord, maxHours float64) bool {
	if !r.EnableOrderBook {
		return false
	}
	if !r.Active || r.Closed {
		return false
	}
	if r.HoursToClose == nil {
		return false
	}
	if h := *r.HoursToClose; h <= 0 || h > maxHours {
		return false
	}
	if !r.HasTokens() {
		return false
	}
	return r.InvalidReason == nil
}

// FilterCandidates returns the records that pass IsCandidate, soonest-closing
// first. The sort is stable and records without HoursToClose sort last. The
// input slice is not modified.
func FilterCandidates(records []domain.MarketRecord, maxHours float64) []domain.MarketRecord {
	out := make([]domain.MarketRecord, 0, len(records))
	for _, r := range records {
		if IsCandidate(r, maxHours) {
			out = append(out, r)
		}
	}
	sortByHoursToClose(out)
	return out
}

// WithValidPrices keeps only records whose YES and NO prices both resolved.
func WithValidPrices(records []domain.MarketRecord) []domain.MarketRecord {
	out := make([]domain.MarketRecord, 0, len(records))
	for _, r := range records {
		if r.HasValidPrices() {
			out = append(out, r)
		}
	}
	return out
}

func sortByHoursToClose(records []domain.MarketRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].HoursToClose, records[j].HoursToClose
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
}
