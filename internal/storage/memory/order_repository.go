package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

// orderRepositoryInMemory — in-memory реализация OrderRepository.
// Имена товаров для отображения берутся из переданного каталога,
// поэтому история переживает soft-delete товара.
type orderRepositoryInMemory struct {
	mu       sync.RWMutex
	orders   map[int64]domain.Order
	nextID   int64
	nextItem int64
	catalog  domain.CatalogRepository
	outbox   domain.OutboxRepository
}

// NewOrderRepository возвращает in-memory репозиторий заказов.
// outbox может быть nil — тогда события не записываются.
func NewOrderRepository(catalog domain.CatalogRepository, outbox domain.OutboxRepository) domain.OrderRepository {
	return &orderRepositoryInMemory{
		orders:   make(map[int64]domain.Order),
		nextID:   1,
		nextItem: 1,
		catalog:  catalog,
		outbox:   outbox,
	}
}

// Place сохраняет чек с позициями и outbox-событие под одним мьютексом —
// аналог транзакции SQL-реализации.
func (r *orderRepositoryInMemory) Place(order domain.Order) (domain.Order, error) {
	if err := order.Validate(); err != nil {
		return domain.Order{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	order.ID = r.nextID
	r.nextID++
	order.Status = domain.OrderStatusCompleted
	order.PlacedAt = time.Now().UTC()

	items := make([]domain.OrderItem, len(order.Items))
	copy(items, order.Items)
	for i := range items {
		items[i].ID = r.nextItem
		r.nextItem++
		items[i].OrderID = order.ID
	}
	order.Items = items

	r.orders[order.ID] = order

	if r.outbox != nil {
		msg, err := domain.NewOrderPlacedMessage(order)
		if err != nil {
			delete(r.orders, order.ID)
			return domain.Order{}, err
		}
		if _, err := r.outbox.Enqueue(msg); err != nil {
			delete(r.orders, order.ID)
			return domain.Order{}, err
		}
	}

	return order, nil
}

// List возвращает заказы, новые первыми, с актуальными именами товаров.
func (r *orderRepositoryInMemory) List() ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		items := make([]domain.OrderItem, len(order.Items))
		copy(items, order.Items)
		for i := range items {
			if r.catalog == nil {
				continue
			}
			if p, err := r.catalog.GetProduct(items[i].ProductID); err == nil {
				items[i].ProductName = p.Name
			}
		}
		order.Items = items
		result = append(result, order)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].PlacedAt.Equal(result[j].PlacedAt) {
			return result[i].PlacedAt.After(result[j].PlacedAt)
		}
		return result[i].ID > result[j].ID
	})

	return result, nil
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
