package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/polyfocus/internal/domain"
)

func rawClosingIn(id string, hours float64, question string) domain.RawMarket {
	return domain.RawMarket{
		ID:              id,
		Question:        question,
		EndDate:         time.Now().UTC().Add(time.Duration(hours * float64(time.Hour))).Format(time.RFC3339),
		EnableOrderBook: true,
		Active:          true,
		Closed:          false,
		Outcomes:        `["Yes","No"]`,
		OutcomePrices:   `["0.5","0.5"]`,
		ClobTokenIDs:    `["` + id + `-y","` + id + `-n"]`,
	}
}

func TestRun(t *testing.T) {
	raws := []domain.RawMarket{
		rawClosingIn("nba", 20, "NBA: Lakers vs. Celtics"),
		rawClosingIn("far-btc", 500, "Bitcoin above 150k?"),
		rawClosingIn("btc", 10, "Bitcoin above 100k?"),
		{ID: "broken", Outcomes: "nope"},
		rawClosingIn("past", -3, "NFL game"),
	}

	res, err := Run(raws, Options{MaxHours: 48})
	require.NoError(t, err)

	assert.Equal(t, []string{"nba", "far-btc", "btc", "broken", "past"}, ids(res.All))
	assert.Equal(t, []string{"btc", "nba"}, ids(res.Candidates))
	require.NotNil(t, res.Focus.Crypto)
	require.NotNil(t, res.Focus.Sports)
	assert.Equal(t, "btc", res.Focus.Crypto.ID)
	assert.Equal(t, "nba", res.Focus.Sports.ID)
}

func TestRunWiderWindowAdmitsMore(t *testing.T) {
	raws := []domain.RawMarket{rawClosingIn("far-btc", 500, "Bitcoin above 150k?")}

	narrow, err := Run(raws, Options{MaxHours: 48})
	require.NoError(t, err)
	assert.Empty(t, narrow.Candidates)
	assert.Nil(t, narrow.Focus.Crypto)

	wide := Select(narrow.All, 8760)
	assert.Len(t, wide.Candidates, 1)
	require.NotNil(t, wide.Focus.Crypto)
}

func TestOptionsValidate(t *testing.T) {
	for _, h := range []float64{0, -1} {
		_, err := Run(nil, Options{MaxHours: h})
		assert.ErrorIs(t, err, ErrInvalidMaxHours)
	}
	assert.NoError(t, Options{MaxHours: DefaultMaxHours}.Validate())
}
