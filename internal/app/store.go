package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrWong99/tripmate/internal/config"
	"github.com/MrWong99/tripmate/internal/statestore"
)

// memoryCleanupInterval is how often the memory backend purges expired
// conversations.
const memoryCleanupInterval = 10 * time.Minute

// OpenStore connects to the state backend selected by cfg. Defaults from
// [config.Config.WithDefaults] should already be applied.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (statestore.Store, error) {
	switch cfg.Backend {
	case config.StoreMemory, "":
		return statestore.NewMemoryStore(cfg.TTL, memoryCleanupInterval), nil

	case config.StorePostgres:
		s, err := statestore.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return s, nil

	case config.StoreRedis:
		var opts []statestore.RedisOption
		if cfg.Redis.KeyPrefix != "" {
			opts = append(opts, statestore.WithKeyPrefix(cfg.Redis.KeyPrefix))
		}
		if cfg.TTL > 0 {
			opts = append(opts, statestore.WithTTL(cfg.TTL))
		}
		s, err := statestore.OpenRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		if err != nil {
			return nil, err
		}
		return s, nil

	case config.StoreSQLite:
		s, err := statestore.OpenSQLite(cfg.SQLite.Path, cfg.SQLite.BusyTimeout)
		if err != nil {
			return nil, err
		}
		return s, nil

	default:
		return nil, fmt.Errorf("app: unknown store backend %q", cfg.Backend)
	}
}

// Migrate creates the schema of s when the backend has one. It reports
// whether a migration ran.
func Migrate(ctx context.Context, s statestore.Store) (bool, error) {
	m, ok := s.(statestore.Migrator)
	if !ok {
		return false, nil
	}
	if err := m.Migrate(ctx); err != nil {
		return false, fmt.Errorf("app: migrate store: %w", err)
	}
	slog.Debug("state store schema up to date")
	return true, nil
}
