package dividend

import (
	"sort"
	"strings"
	"time"
	"unicode"
)

// DefaultLookback is the trailing window kept from a provider's full history.
const DefaultLookback = 365 * 24 * time.Hour

// NormalizeTicker returns the canonical form used for cache keys and lookups.
func NormalizeTicker(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ParseTickers splits raw on runs of whitespace and commas. Empty tokens are
// dropped; order and duplicates are kept.
func ParseTickers(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		field = NormalizeTicker(field)
		if field == "" {
			continue
		}
		out = append(out, field)
	}
	return out
}

// Window keeps the payments dated at or after now-lookback and returns them
// as a series ordered by date ascending. A non-positive lookback selects
// DefaultLookback.
func Window(payments []Payment, now time.Time, lookback time.Duration) Series {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	cutoff := now.Add(-lookback)

	recent := make([]Payment, 0, len(payments))
	for _, p := range payments {
		if p.Date.Before(cutoff) {
			continue
		}
		recent = append(recent, p)
	}
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Date.Before(recent[j].Date)
	})

	series := make(Series, 0, len(recent))
	for _, p := range recent {
		series = append(series, Record{
			Date:   p.Date.Format(DateFormat),
			Amount: p.Amount,
		})
	}
	return series
}
