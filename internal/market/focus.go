package market

import (
	"regexp"
	"strings"

	"github.com/alanyoungcy/polyfocus/internal/domain"
)

// Keywords are matched on whole words so "sol" does not fire inside
// "solution".
var (
	cryptoPattern = regexp.MustCompile(
		`\b(?:crypto|bitcoin|btc|ethereum|eth|solana|sol|blockchain|defi|nft|token|coin|altcoin)\b`)

	sportsPattern = regexp.MustCompile(
		`\b(?:sports|nfl|nba|mlb|nhl|soccer|football|basketball|baseball|hockey|tennis|golf|ufc|boxing|mma|olympics|fc|win on|end in a draw)\b` +
			`|world cup|premier league|\bvs\.`)
)

func searchText(r domain.MarketRecord) string {
	return strings.ToLower(r.Text())
}

// IsCrypto reports whether the record's category or question mentions a
// crypto keyword.
func IsCrypto(r domain.MarketRecord) bool {
	return cryptoPattern.MatchString(searchText(r))
}

// IsSports reports whether the record's category or question mentions a
// sports keyword.
func IsSports(r domain.MarketRecord) bool {
	return sportsPattern.MatchString(searchText(r))
}

// SelectFocus walks candidates once, in order, and takes the first crypto and
// the first sports match. A single record can fill both slots. Given
// candidates sorted by hours to close, each pick is the soonest-closing match.
func SelectFocus(candidates []domain.MarketRecord) domain.FocusPair {
	var pair domain.FocusPair
	for i := range candidates {
		r := candidates[i]
		if pair.Crypto == nil && IsCrypto(r) {
			pair.Crypto = &r
		}
		if pair.Sports == nil && IsSports(r) {
			pair.Sports = &r
		}
		if pair.Crypto != nil && pair.Sports != nil {
			break
		}
	}
	return pair
}
