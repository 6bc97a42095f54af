package app

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/docstore"
	"github.com/vladislavdragonenkov/storefront/internal/docstore/memory"
	"github.com/vladislavdragonenkov/storefront/internal/docstore/postgres"
)

// initStore создаёт документное хранилище согласно конфигурации.
// Для postgres при включённом AutoMigrate применяются недостающие миграции.
func initStore(ctx context.Context, cfg Config, logger *log.Entry) (docstore.Store, error) {
	switch cfg.StoreDriver {
	case "", StoreDriverMemory:
		logger.Info("using in-memory document store")
		return memory.NewStore(), nil

	case StoreDriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, errors.New("POSTGRES_DSN is required for the postgres store")
		}
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		if cfg.AutoMigrate {
			if err := store.MigrateUp(ctx, 0); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
		}
		logger.Info("using postgres document store")
		return store, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
