package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"divwatch-api/internal/cli"
	"divwatch-api/internal/config"
	"divwatch-api/internal/svc"
	"divwatch-api/pkg/dividend"
)

const (
	defaultInterval = time.Hour
	resolveTimeout  = 30 * time.Second // Timeout for one ticker refresh
	shutdownTimeout = 10 * time.Second // Grace period for shutdown
)

var configFile = flag.String("f", "etc/divwatch.yaml", "the config file")

// Resolver is satisfied by *dividendcache.Cache.
type Resolver interface {
	Resolve(ctx context.Context, ticker string) (dividend.Series, error)
}

func main() {
	flag.Parse()

	cfg := config.MustLoad(*configFile)
	cli.LogConfigSummary(cfg)

	tickers := normalizeWatchlist(cfg.Warmer.Tickers)
	if len(tickers) == 0 {
		logx.Info("[warmer] no tickers configured, nothing to do")
		return
	}
	interval := cfg.Warmer.Interval
	if interval <= 0 {
		interval = defaultInterval
	}

	svcCtx := svc.NewServiceContext(*cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		runWarmer(ctx, svcCtx.Cache, tickers, interval)
	}()

	logx.Infof("[warmer] started: %d tickers every %s", len(tickers), interval)

	<-ctx.Done()
	logx.Info("[warmer] shutdown signal received, stopping")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logx.Info("[warmer] stopped cleanly")
	case <-time.After(shutdownTimeout):
		logx.Info("[warmer] shutdown timeout exceeded, forcing exit")
	}
}

func normalizeWatchlist(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, entry := range raw {
		out = append(out, dividend.ParseTickers(entry)...)
	}
	return out
}

// runWarmer resolves the watchlist once immediately and then on every tick.
func runWarmer(ctx context.Context, r Resolver, tickers []string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	warmOnce(ctx, r, tickers)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			warmOnce(ctx, r, tickers)
		}
	}
}

// warmOnce resolves every ticker through the cache; fresh entries are
// served without upstream calls. Failures are logged and skipped.
func warmOnce(parentCtx context.Context, r Resolver, tickers []string) (ok, failed int) {
	for _, t := range tickers {
		if parentCtx.Err() != nil {
			return ok, failed
		}
		func(sym string) {
			ctx, cancel := context.WithTimeout(parentCtx, resolveTimeout)
			defer cancel()

			start := time.Now()
			series, err := r.Resolve(ctx, sym)
			elapsed := time.Since(start)
			if err != nil {
				failed++
				logx.WithContext(ctx).Errorf("[warmer.%s] %v, took %dms", sym, err, elapsed.Milliseconds())
				return
			}
			ok++
			verdict := dividend.Classify(series)
			logx.WithContext(ctx).Infof("[warmer.%s] %d records, %s, took %dms", sym, len(series), verdict.Status, elapsed.Milliseconds())
		}(t)
	}
	return ok, failed
}
