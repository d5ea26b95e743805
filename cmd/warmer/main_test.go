package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"divwatch-api/pkg/dividend"
)

type countingResolver struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]bool
}

func (c *countingResolver) Resolve(_ context.Context, ticker string) (dividend.Series, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[ticker]++
	if c.fail[ticker] {
		return nil, errors.New("upstream down")
	}
	return dividend.Series{{Date: "2024-03-14", Amount: 0.485}}, nil
}

func (c *countingResolver) count(ticker string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[ticker]
}

func TestNormalizeWatchlist(t *testing.T) {
	got := normalizeWatchlist([]string{"ko", " pep, jnj ", ""})
	assert.Equal(t, []string{"KO", "PEP", "JNJ"}, got)
}

func TestWarmOnceSkipsFailures(t *testing.T) {
	r := &countingResolver{fail: map[string]bool{"NOPE": true}}
	ok, failed := warmOnce(context.Background(), r, []string{"KO", "NOPE", "PEP"})
	assert.Equal(t, 2, ok)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, r.count("PEP"))
}

func TestWarmOnceStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &countingResolver{}
	ok, failed := warmOnce(ctx, r, []string{"KO"})
	assert.Zero(t, ok+failed)
	assert.Zero(t, r.count("KO"))
}

func TestRunWarmerTicksUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &countingResolver{}

	done := make(chan struct{})
	go func() {
		runWarmer(ctx, r, []string{"KO"}, 10*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return r.count("KO") >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runWarmer did not stop after cancel")
	}
}
