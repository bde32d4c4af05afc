package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	"github.com/vladislavdragonenkov/pos/internal/storage/memory"
	"github.com/vladislavdragonenkov/pos/internal/storage/postgres"
)

// storageSet объединяет репозитории одного драйвера хранилища.
type storageSet struct {
	Catalog     domain.CatalogRepository
	Orders      domain.OrderRepository
	Outbox      domain.OutboxRepository
	Audit       domain.AuditRepository
	Idempotency domain.IdempotencyRepository

	// Store не nil только для postgres-драйвера.
	Store *postgres.Store
}

// initStorage собирает репозитории согласно выбранному драйверу.
func initStorage(ctx context.Context, cfg Config, logger *log.Entry) (*storageSet, error) {
	switch cfg.StorageDriver {
	case StorageDriverPostgres:
		return initPostgresStorage(ctx, cfg, logger)
	case StorageDriverMemory, "":
		return initMemoryStorage(logger), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func initMemoryStorage(logger *log.Entry) *storageSet {
	catalog := memory.NewCatalogRepository()
	outbox := memory.NewOutboxRepository()

	logger.Info("using in-memory storage")
	return &storageSet{
		Catalog:     catalog,
		Orders:      memory.NewOrderRepository(catalog, outbox),
		Outbox:      outbox,
		Audit:       memory.NewAuditRepository(),
		Idempotency: memory.NewIdempotencyRepository(),
	}
}

func initPostgresStorage(ctx context.Context, cfg Config, logger *log.Entry) (*storageSet, error) {
	if cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("postgres storage requires PostgresDSN")
	}

	store, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres store: %w", err)
	}

	if cfg.PostgresAutoMigrate {
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		logger.Info("postgres migrations applied")
	}

	logger.Info("using postgres storage")
	return &storageSet{
		Catalog:     postgres.NewCatalogRepository(store),
		Orders:      postgres.NewOrderRepository(store),
		Outbox:      postgres.NewOutboxRepository(store),
		Audit:       postgres.NewAuditRepository(store),
		Idempotency: postgres.NewIdempotencyRepository(store),
		Store:       store,
	}, nil
}

// Close закрывает подключение к хранилищу, если оно было открыто.
func (s *storageSet) Close() error {
	if s == nil || s.Store == nil {
		return nil
	}
	return s.Store.Close()
}
