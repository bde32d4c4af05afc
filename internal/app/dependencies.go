package app

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	"github.com/vladislavdragonenkov/pos/internal/metrics"
	"github.com/vladislavdragonenkov/pos/internal/storage/postgres"
)

// Dependencies содержит все зависимости приложения.
type Dependencies struct {
	Catalog     domain.CatalogRepository
	Orders      domain.OrderRepository
	Outbox      domain.OutboxRepository
	Audit       domain.AuditRepository
	Idempotency domain.IdempotencyRepository

	Store   *postgres.Store
	Metrics *metrics.POSMetrics
	Logger  *log.Entry
}

// NewDependencies создаёт и инициализирует все зависимости приложения.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	storage, err := initStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	return &Dependencies{
		Catalog:     storage.Catalog,
		Orders:      storage.Orders,
		Outbox:      storage.Outbox,
		Audit:       storage.Audit,
		Idempotency: storage.Idempotency,
		Store:       storage.Store,
		Metrics:     metrics.NewPOSMetrics(),
		Logger:      logger,
	}, nil
}

// Close освобождает ресурсы зависимостей.
func (d *Dependencies) Close() error {
	if d == nil || d.Store == nil {
		return nil
	}
	return d.Store.Close()
}
