package dividendcache

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"divwatch-api/pkg/dividend"
	"divwatch-api/pkg/provider"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Dividends(ctx context.Context, symbol string) ([]dividend.Payment, error) {
	args := m.Called(ctx, symbol)
	payments, _ := args.Get(0).([]dividend.Payment)
	return payments, args.Error(1)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var testNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func koPayments() []dividend.Payment {
	return []dividend.Payment{
		{Date: time.Date(2024, time.June, 14, 0, 0, 0, 0, time.UTC), Amount: 0.485},
		{Date: time.Date(2022, time.June, 14, 0, 0, 0, 0, time.UTC), Amount: 0.44},
		{Date: time.Date(2023, time.November, 30, 0, 0, 0, 0, time.UTC), Amount: 0.46},
	}
}

func newTestCache(t *testing.T, p provider.Provider, opts ...Option) (*Cache, *fakeClock, string) {
	t.Helper()
	dir := t.TempDir()
	clock := &fakeClock{now: testNow}
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return New(p, dir, opts...), clock, dir
}

func TestResolveFetchesOnceWithinTTL(t *testing.T) {
	p := &mockProvider{}
	p.On("Dividends", mock.Anything, "KO").Return(koPayments(), nil).Once()

	cache, clock, _ := newTestCache(t, p)

	first, err := cache.Resolve(context.Background(), "ko")
	require.NoError(t, err)
	clock.Advance(23 * time.Hour)
	second, err := cache.Resolve(context.Background(), "KO")
	require.NoError(t, err)

	require.Equal(t, first, second)
	// the 2022 payment falls outside the trailing year
	require.Equal(t, dividend.Series{
		{Date: "2023-11-30", Amount: 0.46},
		{Date: "2024-06-14", Amount: 0.485},
	}, first)
	p.AssertNumberOfCalls(t, "Dividends", 1)
}

func TestResolveFreshnessBoundary(t *testing.T) {
	cases := []struct {
		name      string
		age       time.Duration
		wantFetch bool
	}{
		{name: "just fresh", age: 24*time.Hour - time.Second, wantFetch: false},
		{name: "exactly ttl", age: 24 * time.Hour, wantFetch: true},
		{name: "expired", age: 24*time.Hour + time.Second, wantFetch: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &mockProvider{}
			p.On("Dividends", mock.Anything, "KO").Return(koPayments(), nil).Maybe()
			cache, _, dir := newTestCache(t, p)

			stale := dividend.Series{{Date: "2024-01-02", Amount: 0.4}}
			require.NoError(t, NewFileStore(dir).Save(context.Background(), &Entry{
				Ticker:    "KO",
				FetchedAt: testNow.Add(-tc.age),
				Series:    stale,
			}))

			got, err := cache.Resolve(context.Background(), "KO")
			require.NoError(t, err)
			if tc.wantFetch {
				p.AssertNumberOfCalls(t, "Dividends", 1)
				require.Len(t, got, 2)

				stored, err := NewFileStore(dir).Load(context.Background(), "KO")
				require.NoError(t, err)
				require.True(t, stored.FetchedAt.Equal(testNow))
				require.Equal(t, got, stored.Series)
			} else {
				p.AssertNotCalled(t, "Dividends", mock.Anything, mock.Anything)
				require.Equal(t, stale, got)
			}
		})
	}
}

func TestResolveMemoryExpires(t *testing.T) {
	p := &mockProvider{}
	p.On("Dividends", mock.Anything, "KO").Return(koPayments(), nil).Twice()
	cache, clock, _ := newTestCache(t, p)

	_, err := cache.Resolve(context.Background(), "KO")
	require.NoError(t, err)
	clock.Advance(24*time.Hour + time.Second)
	_, err = cache.Resolve(context.Background(), "KO")
	require.NoError(t, err)

	p.AssertNumberOfCalls(t, "Dividends", 2)
}

func TestResolveUsesDurableTierAcrossInstances(t *testing.T) {
	p := &mockProvider{}
	p.On("Dividends", mock.Anything, "KO").Return(koPayments(), nil).Once()
	cache, _, dir := newTestCache(t, p)

	first, err := cache.Resolve(context.Background(), "KO")
	require.NoError(t, err)

	other := New(p, dir, WithClock(func() time.Time { return testNow.Add(time.Hour) }))
	second, err := other.Resolve(context.Background(), "KO")
	require.NoError(t, err)

	require.Equal(t, first, second)
	p.AssertNumberOfCalls(t, "Dividends", 1)
}

func TestResolveEmptySeriesIsCached(t *testing.T) {
	p := &mockProvider{}
	p.On("Dividends", mock.Anything, "TSLA").Return([]dividend.Payment{}, nil).Once()
	cache, _, _ := newTestCache(t, p)

	for i := 0; i < 2; i++ {
		got, err := cache.Resolve(context.Background(), "tsla")
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Empty(t, got)
	}
	p.AssertNumberOfCalls(t, "Dividends", 1)
}

func TestResolveFetchError(t *testing.T) {
	p := &mockProvider{}
	upstream := errors.Join(provider.ErrSymbolNotFound, errors.New("404"))
	p.On("Dividends", mock.Anything, "NOPE").Return(nil, upstream)
	cache, _, dir := newTestCache(t, p)

	_, err := cache.Resolve(context.Background(), "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataUnavailable)
	assert.ErrorIs(t, err, provider.ErrSymbolNotFound)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "NOPE", fetchErr.Ticker)

	_, err = NewFileStore(dir).Load(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveCorruptRecord(t *testing.T) {
	p := &mockProvider{}
	cache, _, dir := newTestCache(t, p)

	store := NewFileStore(dir)
	require.NoError(t, os.WriteFile(store.Path("KO"), []byte("{not json"), 0o644))

	_, err := cache.Resolve(context.Background(), "KO")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDataUnavailable)
	p.AssertNotCalled(t, "Dividends", mock.Anything, mock.Anything)
}

func TestResolveReturnsCopies(t *testing.T) {
	p := &mockProvider{}
	p.On("Dividends", mock.Anything, "KO").Return(koPayments(), nil).Once()
	cache, _, _ := newTestCache(t, p)

	first, err := cache.Resolve(context.Background(), "KO")
	require.NoError(t, err)
	first[0].Amount = 99

	second, err := cache.Resolve(context.Background(), "KO")
	require.NoError(t, err)
	require.InDelta(t, 0.46, second[0].Amount, 1e-9)
}

type blockingProvider struct {
	calls   int32
	release chan struct{}
}

func (b *blockingProvider) Dividends(ctx context.Context, symbol string) ([]dividend.Payment, error) {
	atomic.AddInt32(&b.calls, 1)
	<-b.release
	return koPayments(), nil
}

func TestResolveSingleFlight(t *testing.T) {
	p := &blockingProvider{release: make(chan struct{})}
	cache, _, _ := newTestCache(t, p, WithSingleFlight(true))

	var wg sync.WaitGroup
	results := make([]dividend.Series, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			series, err := cache.Resolve(context.Background(), "KO")
			assert.NoError(t, err)
			results[i] = series
		}(i)
	}
	time.Sleep(100 * time.Millisecond)
	close(p.release)
	wg.Wait()

	require.Equal(t, int32(1), atomic.LoadInt32(&p.calls))
	for _, r := range results {
		require.Len(t, r, 2)
	}
}
