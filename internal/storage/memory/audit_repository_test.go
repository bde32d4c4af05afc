package memory_test

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	"github.com/vladislavdragonenkov/pos/internal/storage/memory"
)

func TestAuditRepository_AppendList(t *testing.T) {
	repo := memory.NewAuditRepository()
	now := time.Now().UTC()

	events := []domain.AuditEvent{
		{ID: "e2", ProductID: 1, Action: domain.AuditActionDeleted, OccurredAt: now.Add(time.Second)},
		{ID: "e1", ProductID: 1, Action: domain.AuditActionCreated, OccurredAt: now},
	}
	for _, e := range events {
		if err := repo.Append(e); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	list, err := repo.ListByProduct(1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 events, got %d", len(list))
	}
	// Хронологический порядок независимо от порядка вставки.
	if list[0].Action != domain.AuditActionCreated || list[1].Action != domain.AuditActionDeleted {
		t.Fatalf("unexpected order: %+v", list)
	}

	other, err := repo.ListByProduct(2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected empty journal for other product, got %d", len(other))
	}
}
