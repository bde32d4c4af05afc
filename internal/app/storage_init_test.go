package app

import (
	"context"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestInitStorage_Memory(t *testing.T) {
	t.Parallel()

	storage, err := initStorage(context.Background(), Config{
		StorageDriver: StorageDriverMemory,
	}, log.WithField("test", "memory-storage"))
	if err != nil {
		t.Fatalf("initStorage(memory) failed: %v", err)
	}
	if storage.Catalog == nil {
		t.Fatal("Catalog should not be nil for memory storage")
	}
	if storage.Orders == nil {
		t.Fatal("Orders should not be nil for memory storage")
	}
	if storage.Outbox == nil {
		t.Fatal("Outbox should not be nil for memory storage")
	}
	if storage.Audit == nil {
		t.Fatal("Audit should not be nil for memory storage")
	}
	if storage.Idempotency == nil {
		t.Fatal("Idempotency should not be nil for memory storage")
	}
	if storage.Store != nil {
		t.Fatal("Store must be nil for memory storage")
	}
}

func TestInitStorage_EmptyDriverDefaultsToMemory(t *testing.T) {
	t.Parallel()

	storage, err := initStorage(context.Background(), Config{}, log.WithField("test", "default-storage"))
	if err != nil {
		t.Fatalf("initStorage with empty driver failed: %v", err)
	}
	if storage.Store != nil {
		t.Fatal("empty driver should fall back to in-memory storage")
	}
}

func TestInitStorage_PostgresRequiresDSN(t *testing.T) {
	t.Parallel()

	_, err := initStorage(context.Background(), Config{
		StorageDriver: StorageDriverPostgres,
	}, log.WithField("test", "postgres-missing-dsn"))
	if err == nil {
		t.Fatal("expected error when postgres driver is selected without DSN")
	}
}

func TestInitStorage_UnsupportedDriver(t *testing.T) {
	t.Parallel()

	_, err := initStorage(context.Background(), Config{
		StorageDriver: "sqlite",
	}, log.WithField("test", "unsupported-driver"))
	if err == nil {
		t.Fatal("expected error for unsupported storage driver")
	}
}

func TestStorageSet_CloseNil(t *testing.T) {
	t.Parallel()

	var storage *storageSet
	if err := storage.Close(); err != nil {
		t.Fatalf("Close on nil storageSet should be a no-op, got %v", err)
	}
}
