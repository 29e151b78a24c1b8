// Package source selects where the order dataset comes from. Two variants sit
// behind one capability: a fixture source reading a local CSV, and a live
// source paging through the shop's admin REST API. The variant is picked once
// at startup by the factory; nothing downstream branches on the mode again.
package source

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/holasaidlola/shop-analytics/internal/config"
	"github.com/holasaidlola/shop-analytics/internal/credentials"
	"github.com/holasaidlola/shop-analytics/internal/domain"
)

// Error categories for failed fetches. Handlers use errors.Is to translate
// these into operator-facing failure messages.
var (
	// ErrAuthentication indicates the remote API rejected the credentials.
	ErrAuthentication = errors.New("remote API rejected the credentials")
	// ErrNetwork indicates the remote host was unreachable or timed out.
	ErrNetwork = errors.New("remote host unreachable")
	// ErrProtocol indicates the remote API answered with an unexpected
	// status or body shape, typically an API version mismatch.
	ErrProtocol = errors.New("unexpected remote API response")
)

// DataSource produces the current order dataset.
type DataSource interface {
	FetchOrders(ctx context.Context) ([]domain.Order, error)
}

// New builds the data source for the configured mode. Credentials are only
// consulted for the live mode; the fixture source ignores them entirely.
func New(cfg config.Config, creds credentials.Credentials, logger *zap.Logger) (DataSource, error) {
	switch cfg.Source {
	case config.SourceFixture:
		return NewFixtureSource(cfg.FixtureFile), nil
	case config.SourceLive:
		return NewShopifySource(creds, logger,
			WithPageSize(cfg.PageSize),
			WithTimeout(cfg.FetchTimeout),
		)
	default:
		return nil, fmt.Errorf("unknown data source mode %q", cfg.Source)
	}
}
