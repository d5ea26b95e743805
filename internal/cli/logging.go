package cli

import (
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"divwatch-api/internal/config"
	"divwatch-api/pkg/confkit"
)

// ConfigSummaryLines returns human readable lines describing the loaded app config.
func ConfigSummaryLines(cfg *config.Config) []string {
	if cfg == nil {
		return []string{"Configuration: <nil>"}
	}

	lines := []string{
		fmt.Sprintf("Environment: %s", cfg.Env),
		fmt.Sprintf("Cache store: %s", cfg.Cache.Store),
		fmt.Sprintf("Cache TTL / lookback: %s / %dd", cfg.TTL(), cfg.Cache.LookbackDays),
		fmt.Sprintf("Single-flight: %s", onOff(cfg.Cache.SingleFlight)),
		fmt.Sprintf("Postgres: %s", presence(cfg.Postgres.DSN != "")),
		fmt.Sprintf("Redis: %s", presence(strings.TrimSpace(cfg.Redis.Host) != "")),
		sectionLine("Provider config", cfg.Provider),
	}
	if cfg.Cache.Store == config.StoreFile {
		lines = append(lines, fmt.Sprintf("Cache dir: %s", cfg.CacheDir()))
	}
	if len(cfg.Warmer.Tickers) > 0 {
		lines = append(lines, fmt.Sprintf("Warmer: %d tickers every %s", len(cfg.Warmer.Tickers), cfg.Warmer.Interval))
	}

	return lines
}

// LogConfigSummary emits the configuration summary using logx.
func LogConfigSummary(cfg *config.Config) {
	lines := ConfigSummaryLines(cfg)
	if len(lines) == 0 {
		return
	}
	logx.Info("configuration summary")
	for _, line := range lines {
		logx.Infof("config • %s", line)
	}
}

func presence(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func onOff(ok bool) string {
	if ok {
		return "on"
	}
	return "off"
}

func sectionLine[T any](name string, section confkit.Section[T]) string {
	switch {
	case strings.TrimSpace(section.File) != "":
		return fmt.Sprintf("%s: %s", name, section.File)
	case section.Value != nil:
		return fmt.Sprintf("%s: inline", name)
	default:
		return fmt.Sprintf("%s: not configured", name)
	}
}
