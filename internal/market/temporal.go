package market

import (
	"math"
	"strings"
	"time"
)

// endDateLayouts are the ISO-8601 shapes seen in Gamma endDate fields, tried in
// order. Layouts without a zone parse as UTC.
var endDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// HoursToClose returns the hours from now until endDate, rounded to two
// decimals. Negative values mean the close time has passed. It returns
// ok=false for nil, empty or unparseable input. The clock is read on every
// call.
func HoursToClose(endDate *string) (float64, bool) {
	return hoursToCloseAt(endDate, time.Now().UTC())
}

func hoursToCloseAt(endDate *string, now time.Time) (float64, bool) {
	if endDate == nil {
		return 0, false
	}
	end, ok := parseEndDate(*endDate)
	if !ok {
		return 0, false
	}
	hours := end.Sub(now).Hours()
	return math.Round(hours*100) / 100, true
}

func parseEndDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	s = strings.ReplaceAll(s, "Z", "+00:00")
	for _, layout := range endDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
