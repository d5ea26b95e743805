package yahoo

import (
	"context"
	"net/http"
	"time"

	"divwatch-api/pkg/dividend"
	"divwatch-api/pkg/provider"
)

const defaultProviderTimeout = 15 * time.Second

// Provider adapts Client to the provider.Provider contract.
type Provider struct {
	client  *Client
	timeout time.Duration
}

type providerConfig struct {
	timeout      time.Duration
	clientConfig []Option
}

// ProviderOption customises the Yahoo provider.
type ProviderOption func(*providerConfig)

// WithTimeout overrides the default per-call timeout.
func WithTimeout(timeout time.Duration) ProviderOption {
	return func(cfg *providerConfig) {
		if timeout > 0 {
			cfg.timeout = timeout
		}
	}
}

// WithClientOptions passes options to the underlying client.
func WithClientOptions(options ...Option) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.clientConfig = append(cfg.clientConfig, options...)
	}
}

// NewProvider constructs a Yahoo Finance dividend provider.
func NewProvider(opts ...ProviderOption) *Provider {
	cfg := &providerConfig{timeout: defaultProviderTimeout}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Provider{
		client:  NewClient(cfg.clientConfig...),
		timeout: cfg.timeout,
	}
}

func init() {
	provider.RegisterProvider("yahoo", func(name string, cfg *provider.ProviderConfig) (provider.Provider, error) {
		clientOptions := []Option{
			WithBaseURL(cfg.BaseURL),
			WithUserAgent(cfg.UserAgent),
			WithRateLimiter(cfg.Limiter()),
		}
		opts := []ProviderOption{}
		if cfg.Timeout > 0 {
			opts = append(opts, WithTimeout(cfg.Timeout))
			clientOptions = append(clientOptions, WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
		}
		opts = append(opts, WithClientOptions(clientOptions...))
		return NewProvider(opts...), nil
	})
}

// Dividends implements provider.Provider.
func (p *Provider) Dividends(ctx context.Context, symbol string) ([]dividend.Payment, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return p.client.GetDividends(ctx, symbol)
}

func (p *Provider) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, p.timeout)
}
