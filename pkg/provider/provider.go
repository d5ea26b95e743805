package provider

import (
	"context"
	"errors"

	"divwatch-api/pkg/dividend"
)

// ErrSymbolNotFound indicates that the upstream does not know the symbol.
var ErrSymbolNotFound = errors.New("provider: symbol not found")

// Provider exposes dividend history from an external financial data source.
type Provider interface {
	// Dividends returns the full dividend history of symbol. Callers must
	// treat any error as opaque; nothing is retried.
	Dividends(ctx context.Context, symbol string) ([]dividend.Payment, error)
}
