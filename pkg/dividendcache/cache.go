package dividendcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/syncx"

	"divwatch-api/pkg/dividend"
	"divwatch-api/pkg/provider"
)

// DefaultTTL is how long a fetched series stays fresh.
const DefaultTTL = 24 * time.Hour

// Cache resolves dividend series through a memory tier, a durable Store
// and finally the upstream provider.
type Cache struct {
	provider provider.Provider
	store    Store
	ttl      time.Duration
	lookback time.Duration
	now      func() time.Time
	flight   syncx.SingleFlight

	mu     sync.RWMutex
	memory map[string]*Entry
}

type cacheConfig struct {
	store        Store
	ttl          time.Duration
	lookback     time.Duration
	now          func() time.Time
	singleFlight bool
}

// Option customises a Cache.
type Option func(*cacheConfig)

// WithStore replaces the durable tier.
func WithStore(store Store) Option {
	return func(cfg *cacheConfig) {
		if store != nil {
			cfg.store = store
		}
	}
}

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(cfg *cacheConfig) {
		if ttl > 0 {
			cfg.ttl = ttl
		}
	}
}

// WithLookback overrides dividend.DefaultLookback.
func WithLookback(lookback time.Duration) Option {
	return func(cfg *cacheConfig) {
		if lookback > 0 {
			cfg.lookback = lookback
		}
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(cfg *cacheConfig) {
		if now != nil {
			cfg.now = now
		}
	}
}

// WithSingleFlight collapses concurrent refreshes of the same ticker into
// one upstream fetch.
func WithSingleFlight(enabled bool) Option {
	return func(cfg *cacheConfig) {
		cfg.singleFlight = enabled
	}
}

// New builds a Cache. Without WithStore, records are kept under dir.
func New(p provider.Provider, dir string, opts ...Option) *Cache {
	cfg := &cacheConfig{
		ttl:      DefaultTTL,
		lookback: dividend.DefaultLookback,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.store == nil {
		cfg.store = NewFileStore(dir)
	}

	c := &Cache{
		provider: p,
		store:    cfg.store,
		ttl:      cfg.ttl,
		lookback: cfg.lookback,
		now:      cfg.now,
		memory:   make(map[string]*Entry),
	}
	if cfg.singleFlight {
		c.flight = syncx.NewSingleFlight()
	}
	return c
}

// Resolve returns the dividend series for ticker, fetching from upstream
// only when neither tier holds a fresh record.
func (c *Cache) Resolve(ctx context.Context, ticker string) (dividend.Series, error) {
	ticker = dividend.NormalizeTicker(ticker)
	now := c.now()

	if entry, ok := c.loadMemory(ticker, now); ok {
		return entry.Series.Clone(), nil
	}

	entry, err := c.store.Load(ctx, ticker)
	switch {
	case err == nil:
		if entry.Fresh(now, c.ttl) {
			c.storeMemory(entry)
			return entry.Series.Clone(), nil
		}
	case errors.Is(err, ErrNotFound):
	default:
		return nil, fmt.Errorf("load %s: %w", ticker, err)
	}

	if c.flight == nil {
		entry, err = c.refresh(ctx, ticker, now)
	} else {
		var v any
		v, err = c.flight.Do(ticker, func() (any, error) {
			return c.refresh(ctx, ticker, now)
		})
		if err == nil {
			entry = v.(*Entry)
		}
	}
	if err != nil {
		return nil, err
	}
	return entry.Series.Clone(), nil
}

func (c *Cache) refresh(ctx context.Context, ticker string, now time.Time) (*Entry, error) {
	payments, err := c.provider.Dividends(ctx, ticker)
	if err != nil {
		logx.WithContext(ctx).Errorf("dividendcache: fetch %s: %v", ticker, err)
		return nil, &FetchError{Ticker: ticker, Err: err}
	}

	entry := &Entry{
		Ticker:    ticker,
		FetchedAt: now,
		Series:    dividend.Window(payments, now, c.lookback),
	}
	if err := c.store.Save(ctx, entry); err != nil {
		return nil, fmt.Errorf("save %s: %w", ticker, err)
	}
	c.storeMemory(entry)
	logx.WithContext(ctx).Infof("dividendcache: refreshed %s (%d records)", ticker, len(entry.Series))
	return entry, nil
}

func (c *Cache) loadMemory(ticker string, now time.Time) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.memory[ticker]
	if !ok || !entry.Fresh(now, c.ttl) {
		return nil, false
	}
	return entry, true
}

func (c *Cache) storeMemory(entry *Entry) {
	clone := &Entry{
		Ticker:    entry.Ticker,
		FetchedAt: entry.FetchedAt,
		Series:    entry.Series.Clone(),
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.memory[entry.Ticker] = clone
}
