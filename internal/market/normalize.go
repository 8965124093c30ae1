package market

import (
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/polyfocus/internal/domain"
)

// Diagnostic messages attached to normalized records.
const (
	ReasonOutcomesUnparseable = "outcomes field missing or unparseable"
	ReasonTokenIDs            = "clobTokenIds missing or not length 2"
	NotePricesUnparseable     = "outcomePrices contains unparseable values"
	NotePricesMissing         = "outcomePrices missing or insufficient length"
)

// Normalize maps one raw Gamma record to a MarketRecord. It never panics on
// malformed input: structural problems end up in InvalidReason and price
// problems in PriceNote, independently of each other.
func Normalize(raw domain.RawMarket) domain.MarketRecord {
	return normalizeAt(raw, time.Now().UTC())
}

func normalizeAt(raw domain.RawMarket, now time.Time) domain.MarketRecord {
	rec := domain.MarketRecord{
		ID:              stringify(raw.ID),
		Slug:            optionalString(raw.Slug),
		Question:        optionalString(raw.Question),
		Category:        optionalString(raw.Category),
		EndDate:         optionalString(raw.EndDate),
		EnableOrderBook: parseBool(raw.EnableOrderBook),
		Active:          parseBool(raw.Active),
		Closed:          parseBool(raw.Closed),
	}
	if h, ok := hoursToCloseAt(rec.EndDate, now); ok {
		rec.HoursToClose = &h
	}

	outcomes, ok := ParseListField(raw.Outcomes)
	if !ok {
		rec.InvalidReason = ptr(ReasonOutcomesUnparseable)
		return rec
	}
	if len(outcomes) != 2 {
		rec.InvalidReason = ptr(fmt.Sprintf("not binary market (outcomes=%d)", len(outcomes)))
		return rec
	}

	yesIdx, noIdx := -1, -1
	for i, o := range outcomes {
		switch strings.ToLower(stringify(o)) {
		case "yes":
			yesIdx = i
		case "no":
			noIdx = i
		}
	}
	if yesIdx < 0 || noIdx < 0 {
		rec.InvalidReason = ptr(fmt.Sprintf("cannot identify YES/NO in outcomes: %s", formatList(outcomes)))
		return rec
	}

	if tokens, ok := ParseListField(raw.ClobTokenIDs); ok && len(tokens) == 2 {
		rec.YesTokenID = ptr(stringify(tokens[yesIdx]))
		rec.NoTokenID = ptr(stringify(tokens[noIdx]))
	} else {
		rec.InvalidReason = ptr(ReasonTokenIDs)
	}

	if prices, ok := ParseListField(raw.OutcomePrices); ok && len(prices) >= 2 {
		if p, ok := ParseFloat(prices[yesIdx]); ok {
			rec.YesPrice = &p
		}
		if p, ok := ParseFloat(prices[noIdx]); ok {
			rec.NoPrice = &p
		}
		if rec.YesPrice == nil || rec.NoPrice == nil {
			rec.PriceNote = ptr(NotePricesUnparseable)
		}
	} else {
		rec.PriceNote = ptr(NotePricesMissing)
	}

	return rec
}

// NormalizeAll normalizes raws in order.
func NormalizeAll(raws []domain.RawMarket) []domain.MarketRecord {
	out := make([]domain.MarketRecord, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Normalize(raw))
	}
	return out
}

// formatList renders outcomes as ["A", "B"] for diagnostics.
func formatList(items []any) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = fmt.Sprintf("%q", stringify(it))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func ptr[T any](v T) *T { return &v }
