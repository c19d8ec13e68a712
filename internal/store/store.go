package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"wallgraph/internal/common/config"
)

// ============================================================
// Key-value store
// ============================================================

// KV is the persistence collaborator for project settings. Values are
// opaque strings; a missing key is reported through ok, not an error.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

var ErrUnknownDriver = errors.New("unknown store driver")

// Open builds the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.Store, logger *zap.Logger) (KV, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		return OpenSQLite(ctx, cfg.SQLitePath)
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres store: POSTGRES_DSN is empty")
		}
		return OpenPostgres(ctx, cfg.PostgresDSN, logger)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
}
