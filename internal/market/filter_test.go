package market

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/polyfocus/internal/domain"
)

func TestFilterCandidatesExclusions(t *testing.T) {
	const maxHours = 48

	cases := map[string]func(r *domain.MarketRecord){
		"order book disabled": func(r *domain.MarketRecord) { r.EnableOrderBook = false },
		"inactive":            func(r *domain.MarketRecord) { r.Active = false },
		"closed":              func(r *domain.MarketRecord) { r.Closed = true },
		"no hours":            func(r *domain.MarketRecord) { r.HoursToClose = nil },
		"already closed":      func(r *domain.MarketRecord) { r.HoursToClose = ptr(-1.0) },
		"zero hours":          func(r *domain.MarketRecord) { r.HoursToClose = ptr(0.0) },
		"beyond window":       func(r *domain.MarketRecord) { r.HoursToClose = ptr(48.01) },
		"missing yes token":   func(r *domain.MarketRecord) { r.YesTokenID = nil },
		"missing no token":    func(r *domain.MarketRecord) { r.NoTokenID = nil },
		"empty yes token":     func(r *domain.MarketRecord) { r.YesTokenID = ptr("") },
		"invalid":             func(r *domain.MarketRecord) { r.InvalidReason = ptr(ReasonTokenIDs) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			r := candidate("m", 12, "", "")
			mutate(&r)
			assert.Empty(t, FilterCandidates([]domain.MarketRecord{r}, maxHours))
		})
	}
}

func TestFilterCandidatesAllCombinations(t *testing.T) {
	// Every combination of the boolean rules; only the all-good one passes.
	for mask := 0; mask < 1<<5; mask++ {
		r := candidate("m", 10, "", "")
		r.EnableOrderBook = mask&1 == 0
		r.Active = mask&2 == 0
		r.Closed = mask&4 != 0
		if mask&8 != 0 {
			r.NoTokenID = nil
		}
		if mask&16 != 0 {
			r.InvalidReason = ptr("bad")
		}
		got := FilterCandidates([]domain.MarketRecord{r}, 48)
		if mask == 0 {
			assert.Len(t, got, 1)
		} else {
			assert.Empty(t, got, "mask %05b", mask)
		}
	}
}

func TestFilterCandidatesInclusiveUpperBound(t *testing.T) {
	r := candidate("edge", 48, "", "")
	assert.Len(t, FilterCandidates([]domain.MarketRecord{r}, 48), 1)
}

func TestFilterCandidatesPriceNoteStillCandidate(t *testing.T) {
	r := candidate("p", 5, "", "")
	r.PriceNote = ptr(NotePricesMissing)
	assert.Len(t, FilterCandidates([]domain.MarketRecord{r}, 48), 1)
}

func TestFilterCandidatesSortedAndStable(t *testing.T) {
	in := []domain.MarketRecord{
		candidate("c", 30, "", ""),
		candidate("a1", 5, "", ""),
		candidate("b", 12, "", ""),
		candidate("a2", 5, "", ""),
		candidate("a3", 5, "", ""),
	}
	got := FilterCandidates(in, 48)
	assert.Equal(t, []string{"a1", "a2", "a3", "b", "c"}, ids(got))
	assert.Equal(t, "c", in[0].ID, "input must not be reordered")
}

func TestSortByHoursToCloseAbsentLast(t *testing.T) {
	recs := []domain.MarketRecord{
		{ID: "none1"},
		candidate("late", 9, "", ""),
		{ID: "none2"},
		candidate("early", 1, "", ""),
	}
	sortByHoursToClose(recs)
	assert.Equal(t, []string{"early", "late", "none1", "none2"}, ids(recs))
}

func TestWithValidPrices(t *testing.T) {
	priced := candidate("priced", 1, "", "")
	priced.YesPrice, priced.NoPrice = ptr(0.4), ptr(0.6)
	half := candidate("half", 2, "", "")
	half.NoPrice = ptr(0.5)

	got := WithValidPrices([]domain.MarketRecord{priced, half, candidate("none", 3, "", "")})
	assert.Equal(t, []string{"priced"}, ids(got))
}
