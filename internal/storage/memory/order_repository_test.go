package memory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	"github.com/vladislavdragonenkov/pos/internal/storage/memory"
)

func newOrderFixture(productID int64) domain.Order {
	return domain.Order{
		Total: decimal.NewFromInt(240),
		Items: []domain.OrderItem{
			{ProductID: productID, Quantity: 2, Price: decimal.NewFromInt(120)},
		},
	}
}

func TestOrderRepository_Place(t *testing.T) {
	catalog := newCatalogWithCategory(t, "Drinks")
	product := createLatte(t, catalog)
	outbox := memory.NewOutboxRepository()
	repo := memory.NewOrderRepository(catalog, outbox)

	order, err := repo.Place(newOrderFixture(product.ID))
	if err != nil {
		t.Fatalf("place failed: %v", err)
	}
	if order.ID == 0 {
		t.Fatal("expected generated order id")
	}
	if order.Status != domain.OrderStatusCompleted {
		t.Fatalf("expected completed status, got %s", order.Status)
	}
	for _, item := range order.Items {
		if item.ID == 0 || item.OrderID != order.ID {
			t.Fatalf("item not linked to order: %+v", item)
		}
	}

	// Событие order.placed записано вместе с заказом.
	pending, err := outbox.PullPending(10)
	if err != nil {
		t.Fatalf("pull pending: %v", err)
	}
	if len(pending) != 1 || pending[0].EventType != domain.EventTypeOrderPlaced {
		t.Fatalf("expected one order.placed event, got %+v", pending)
	}
}

func TestOrderRepository_PlaceValidation(t *testing.T) {
	repo := memory.NewOrderRepository(nil, nil)

	if _, err := repo.Place(domain.Order{Total: decimal.Zero}); !errors.Is(err, domain.ErrItemsRequired) {
		t.Fatalf("expected ErrItemsRequired, got %v", err)
	}

	bad := newOrderFixture(1)
	bad.Total = decimal.NewFromInt(1)
	if _, err := repo.Place(bad); !errors.Is(err, domain.ErrTotalMismatch) {
		t.Fatalf("expected ErrTotalMismatch, got %v", err)
	}

	orders, err := repo.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("failed placement must not leave rows, got %d", len(orders))
	}
}

func TestOrderRepository_ListNewestFirst(t *testing.T) {
	catalog := newCatalogWithCategory(t, "Drinks")
	product := createLatte(t, catalog)
	repo := memory.NewOrderRepository(catalog, nil)

	first, err := repo.Place(newOrderFixture(product.ID))
	if err != nil {
		t.Fatalf("place failed: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	second, err := repo.Place(newOrderFixture(product.ID))
	if err != nil {
		t.Fatalf("place failed: %v", err)
	}

	orders, err := repo.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
	if orders[0].ID != second.ID || orders[1].ID != first.ID {
		t.Fatalf("expected newest first, got %d then %d", orders[0].ID, orders[1].ID)
	}
}

func TestOrderRepository_PriceSnapshot(t *testing.T) {
	catalog := newCatalogWithCategory(t, "Drinks")
	product := createLatte(t, catalog)
	repo := memory.NewOrderRepository(catalog, nil)

	if _, err := repo.Place(newOrderFixture(product.ID)); err != nil {
		t.Fatalf("place failed: %v", err)
	}

	// Меняем цену в каталоге после оформления.
	product.Price = decimal.NewFromInt(150)
	if _, err := catalog.UpdateProduct(product); err != nil {
		t.Fatalf("update product: %v", err)
	}

	orders, err := repo.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	item := orders[0].Items[0]
	if !item.Price.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("historical price changed: %s", item.Price)
	}
	if !orders[0].Total.Equal(decimal.NewFromInt(240)) {
		t.Fatalf("historical total changed: %s", orders[0].Total)
	}
}

func TestOrderRepository_ListResolvesDeletedProductName(t *testing.T) {
	catalog := newCatalogWithCategory(t, "Drinks")
	product := createLatte(t, catalog)
	repo := memory.NewOrderRepository(catalog, nil)

	if _, err := repo.Place(newOrderFixture(product.ID)); err != nil {
		t.Fatalf("place failed: %v", err)
	}
	if err := catalog.SoftDeleteProduct(product.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	orders, err := repo.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if orders[0].Items[0].ProductName != "Latte" {
		t.Fatalf("expected product name resolvable after soft-delete, got %q", orders[0].Items[0].ProductName)
	}
}
