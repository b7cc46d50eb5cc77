package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/clearcomply/assess-cli/internal/store"
)

// openStore creates the configured store backend and runs migrations.
func openStore(ctx context.Context) (store.Store, error) {
	var (
		s   store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite", "":
		s, err = store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		s, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}

	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	zap.L().Debug("store ready",
		zap.String("driver", cfg.Store.Driver),
	)
	return s, nil
}
