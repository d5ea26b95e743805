package logic

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"divwatch-api/internal/svc"
	"divwatch-api/internal/types"
	"divwatch-api/pkg/dividend"
	"divwatch-api/pkg/dividendcache"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Dividends(ctx context.Context, symbol string) ([]dividend.Payment, error) {
	args := m.Called(ctx, symbol)
	payments, _ := args.Get(0).([]dividend.Payment)
	return payments, args.Error(1)
}

var now = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestLogic(t *testing.T, p *mockProvider) *DividendsLogic {
	t.Helper()
	cache := dividendcache.New(p, t.TempDir(), dividendcache.WithClock(func() time.Time { return now }))
	return NewDividendsLogic(context.Background(), &svc.ServiceContext{Cache: cache})
}

func TestDividendsPreservesOrderAndDuplicates(t *testing.T) {
	p := &mockProvider{}
	p.On("Dividends", mock.Anything, "AAPL").Return([]dividend.Payment{
		{Date: day(2024, time.February, 9), Amount: 0.24},
		{Date: day(2024, time.May, 10), Amount: 0.25},
	}, nil).Once()
	p.On("Dividends", mock.Anything, "MSFT").Return([]dividend.Payment{
		{Date: day(2024, time.May, 15), Amount: 0.75},
	}, nil).Once()

	resp, err := newTestLogic(t, p).Dividends(&types.DividendsRequest{Tickers: "AAPL, msft  aapl"})
	require.NoError(t, err)

	require.Len(t, resp.Series, 3)
	require.Len(t, resp.Changes, 3)
	for i, want := range []string{"AAPL", "MSFT", "AAPL"} {
		assert.Equal(t, want, resp.Series[i].Ticker)
		assert.Equal(t, want, resp.Changes[i].Ticker)
	}

	assert.Equal(t, "increase", resp.Changes[0].Status)
	require.NotNil(t, resp.Changes[0].Last)
	assert.Equal(t, 0.25, *resp.Changes[0].Last)
	assert.Equal(t, 0.24, *resp.Changes[0].Previous)
	assert.Equal(t, "2024-05-10", *resp.Changes[0].Date)

	assert.Equal(t, "no_change", resp.Changes[1].Status)
	assert.Nil(t, resp.Changes[1].Previous)
	assert.Equal(t, resp.Series[0], resp.Series[2])

	// the second AAPL is served from the memory tier
	p.AssertNumberOfCalls(t, "Dividends", 2)
}

func TestDividendsBlankInput(t *testing.T) {
	p := &mockProvider{}
	resp, err := newTestLogic(t, p).Dividends(&types.DividendsRequest{Tickers: " , "})
	require.NoError(t, err)
	assert.NotNil(t, resp.Series)
	assert.NotNil(t, resp.Changes)
	assert.Empty(t, resp.Series)
	assert.Empty(t, resp.Changes)
	p.AssertNotCalled(t, "Dividends", mock.Anything, mock.Anything)
}

func TestDividendsSuspension(t *testing.T) {
	p := &mockProvider{}
	p.On("Dividends", mock.Anything, "TSLA").Return([]dividend.Payment{}, nil)

	resp, err := newTestLogic(t, p).Dividends(&types.DividendsRequest{Tickers: "tsla"})
	require.NoError(t, err)
	assert.Equal(t, "suspension", resp.Changes[0].Status)
	assert.Nil(t, resp.Changes[0].Last)
	assert.Nil(t, resp.Changes[0].Date)
	assert.NotNil(t, resp.Series[0].Data)
	assert.Empty(t, resp.Series[0].Data)
}

func TestDividendsAbortsOnFirstError(t *testing.T) {
	p := &mockProvider{}
	p.On("Dividends", mock.Anything, "KO").Return([]dividend.Payment{}, nil)
	p.On("Dividends", mock.Anything, "NOPE").Return(nil, errors.New("boom"))

	resp, err := newTestLogic(t, p).Dividends(&types.DividendsRequest{Tickers: "KO NOPE PEP"})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, dividendcache.ErrDataUnavailable)
	p.AssertNotCalled(t, "Dividends", mock.Anything, "PEP")
}
