package cache

import (
	"strings"

	"divwatch-api/pkg/dividend"
)

// Namespace is the Redis key prefix for the divwatch application.
const Namespace = "divwatch"

func formatKey(parts ...string) string {
	values := make([]string, 0, len(parts)+1)
	values = append(values, Namespace)
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		values = append(values, clean)
	}
	return strings.Join(values, ":")
}

// DividendSeriesKey holds the durable dividend record of one ticker.
func DividendSeriesKey(ticker string) string {
	return formatKey("dividends", dividend.NormalizeTicker(ticker))
}

// FormatCacheKey is exported for dynamic key construction, e.g. in tests.
func FormatCacheKey(parts ...string) string {
	return formatKey(parts...)
}
