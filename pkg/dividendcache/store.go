package dividendcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"divwatch-api/pkg/dividend"
)

var (
	// ErrNotFound is returned by a Store when no record exists for a ticker.
	ErrNotFound = errors.New("dividendcache: record not found")
	// ErrDataUnavailable marks failures of the upstream provider.
	ErrDataUnavailable = errors.New("dividendcache: dividend data unavailable")
)

// Entry is the cached dividend series of one ticker.
type Entry struct {
	Ticker    string
	FetchedAt time.Time
	Series    dividend.Series
}

// Fresh reports whether the entry is younger than ttl at now.
func (e *Entry) Fresh(now time.Time, ttl time.Duration) bool {
	if e == nil {
		return false
	}
	return now.Sub(e.FetchedAt) < ttl
}

// Store is the durable tier. Save overwrites the whole record for
// entry.Ticker; records are never removed.
type Store interface {
	Load(ctx context.Context, ticker string) (*Entry, error)
	Save(ctx context.Context, entry *Entry) error
}

// FetchError wraps an upstream provider failure for one ticker.
type FetchError struct {
	Ticker string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch dividends for %s: %v", e.Ticker, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrDataUnavailable) match any FetchError.
func (e *FetchError) Is(target error) bool {
	return target == ErrDataUnavailable
}
