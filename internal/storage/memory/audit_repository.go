package memory

import (
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

// auditRepositoryInMemory хранит журнал каталога в памяти (для разработки/тестов).
type auditRepositoryInMemory struct {
	mu     sync.RWMutex
	events map[int64][]domain.AuditEvent
}

// NewAuditRepository создаёт in-memory реализацию AuditRepository.
func NewAuditRepository() domain.AuditRepository {
	return &auditRepositoryInMemory{events: make(map[int64][]domain.AuditEvent)}
}

// Append добавляет запись в журнал товара.
func (r *auditRepositoryInMemory) Append(event domain.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events[event.ProductID] = append(r.events[event.ProductID], event)

	sort.Slice(r.events[event.ProductID], func(i, j int) bool {
		return r.events[event.ProductID][i].OccurredAt.Before(r.events[event.ProductID][j].OccurredAt)
	})

	return nil
}

// ListByProduct возвращает журнал товара в хронологическом порядке.
func (r *auditRepositoryInMemory) ListByProduct(productID int64) ([]domain.AuditEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := r.events[productID]
	result := make([]domain.AuditEvent, len(events))
	copy(result, events)
	return result, nil
}

var _ domain.AuditRepository = (*auditRepositoryInMemory)(nil)
