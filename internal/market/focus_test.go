package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/polyfocus/internal/domain"
)

func TestIsCrypto(t *testing.T) {
	yes := []string{
		"Will Bitcoin close above $100k?",
		"BTC up or down today?",
		"Will ETH flip BTC?",
		"Solana ETF approved?",
		"Will SOL hit 300?",
		"Top NFT sale this week?",
		"Crypto market cap above 4T?",
	}
	for _, q := range yes {
		assert.True(t, IsCrypto(candidate("x", 1, "", q)), q)
	}

	no := []string{
		"Will the solution be adopted?",
		"Bitcoiners convention attendance?",
		"Ethernet standard ratified?",
		"Will tokens of appreciation be given?",
		"",
	}
	for _, q := range no {
		assert.False(t, IsCrypto(candidate("x", 1, "", q)), q)
	}
}

func TestIsSports(t *testing.T) {
	yes := []string{
		"Premier League Final winner?",
		"Will Arsenal FC win?",
		"Lakers vs. Celtics",
		"Will Real Madrid win on 2025-05-01?",
		"Will the match end in a draw?",
		"Who wins the World Cup?",
		"NBA Finals MVP?",
		"UFC 300 main event",
	}
	for _, q := range yes {
		assert.True(t, IsSports(candidate("x", 1, "", q)), q)
	}

	no := []string{
		"Will the Fed cut rates?",
		"Golfing resort opens?",
		"Will twin only children be counted?",
	}
	for _, q := range no {
		assert.False(t, IsSports(candidate("x", 1, "", q)), q)
	}
}

func TestClassifierUsesCategory(t *testing.T) {
	r := candidate("x", 1, "Sports", "Who will win tonight?")
	assert.True(t, IsSports(r))
	r = candidate("x", 1, "Crypto", "Up or down?")
	assert.True(t, IsCrypto(r))

	noCategory := domain.MarketRecord{Question: ptr("Bitcoin above 90k?")}
	assert.True(t, IsCrypto(noCategory))
	assert.False(t, IsCrypto(domain.MarketRecord{}))
}

func TestSelectFocusFirstMatch(t *testing.T) {
	cands := []domain.MarketRecord{
		candidate("politics", 1, "Politics", "Will the bill pass?"),
		candidate("btc-1", 2, "Crypto", "BTC above 100k?"),
		candidate("nba-1", 3, "Sports", "NBA game tonight"),
		candidate("btc-2", 4, "Crypto", "BTC above 110k?"),
		candidate("nba-2", 5, "Sports", "NBA game tomorrow"),
	}
	pair := SelectFocus(cands)

	require.NotNil(t, pair.Crypto)
	require.NotNil(t, pair.Sports)
	assert.Equal(t, "btc-1", pair.Crypto.ID)
	assert.Equal(t, "nba-1", pair.Sports.ID)
}

func TestSelectFocusSingleRecordFillsBoth(t *testing.T) {
	both := candidate("both", 1, "Sports", "Will a bitcoin sponsor win the NFL game?")
	pair := SelectFocus([]domain.MarketRecord{both, candidate("btc", 2, "", "BTC?")})

	require.NotNil(t, pair.Crypto)
	require.NotNil(t, pair.Sports)
	assert.Equal(t, "both", pair.Crypto.ID)
	assert.Equal(t, "both", pair.Sports.ID)
}

func TestSelectFocusAbsent(t *testing.T) {
	pair := SelectFocus([]domain.MarketRecord{candidate("p", 1, "Politics", "Election?")})
	assert.Nil(t, pair.Crypto)
	assert.Nil(t, pair.Sports)

	pair = SelectFocus(nil)
	assert.Nil(t, pair.Crypto)
	assert.Nil(t, pair.Sports)
}

func TestSelectFocusReturnsCopies(t *testing.T) {
	cands := []domain.MarketRecord{candidate("btc", 1, "", "BTC?")}
	pair := SelectFocus(cands)
	require.NotNil(t, pair.Crypto)
	pair.Crypto.ID = "changed"
	assert.Equal(t, "btc", cands[0].ID)
}
