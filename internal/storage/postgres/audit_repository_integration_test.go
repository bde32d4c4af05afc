package postgres

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

func TestAuditRepository_PostgresAppendAndList(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	catalog := NewCatalogRepository(store)
	repo := NewAuditRepository(store)

	createCategoryForIntegrationTest(t, catalog, "Drinks")
	product := createProductForIntegrationTest(t, catalog, "Latte", 120, "Drinks")

	base := time.Now().UTC().Add(-time.Minute).Truncate(time.Microsecond)
	events := []domain.AuditEvent{
		{ProductID: product.ID, Action: domain.AuditActionCreated, OccurredAt: base},
		{ProductID: product.ID, Action: domain.AuditActionDeleted, Detail: "removed from menu", OccurredAt: base.Add(10 * time.Second)},
		{ProductID: product.ID, Action: domain.AuditActionRestored, OccurredAt: base.Add(20 * time.Second)},
	}
	for _, event := range events {
		if err := repo.Append(event); err != nil {
			t.Fatalf("append audit event %s: %v", event.Action, err)
		}
	}

	got, err := repo.ListByProduct(product.ID)
	if err != nil {
		t.Fatalf("list audit events: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 audit events, got %d", len(got))
	}
	for i, event := range got {
		if event.ID == "" {
			t.Fatalf("expected generated id for event %d", i)
		}
		if event.Action != events[i].Action {
			t.Fatalf("unexpected order of events: %+v", got)
		}
	}
	if got[1].Detail != "removed from menu" {
		t.Fatalf("detail lost: %+v", got[1])
	}

	other, err := repo.ListByProduct(product.ID + 1000)
	if err != nil {
		t.Fatalf("list audit for other product: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected no events for foreign product, got %+v", other)
	}
}
