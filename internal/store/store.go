// Package store opens the account database for the configured driver.
package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"profile_sync/internal/config"
	"profile_sync/internal/model"
	"profile_sync/internal/store/postgres"
	"profile_sync/internal/store/sqlite"
)

var ErrNotFound = model.ErrAccountNotFound

// Store is the account table access shared by both drivers.
type Store interface {
	LookupAccount(ctx context.Context, network model.Network, login string) (model.AccountRow, error)
	SetProfileID(ctx context.Context, network model.Network, login, profileID string) error
	Close() error
}

var (
	_ Store = (*postgres.Store)(nil)
	_ Store = (*sqlite.Store)(nil)
)

func Open(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	switch cfg.Driver {
	case "", "postgres":
		s, err := postgres.Connect(ctx, cfg.URL(), log)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
