package postgres

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

func TestCatalogRepository_PostgresProductLifecycle(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewCatalogRepository(store)

	createCategoryForIntegrationTest(t, repo, "Drinks")
	createCategoryForIntegrationTest(t, repo, "Snacks")

	product := createProductForIntegrationTest(t, repo, "Latte", 120, "Drinks")
	if product.ID == 0 || product.CategoryID == 0 {
		t.Fatalf("expected assigned ids, got %+v", product)
	}
	if product.State != domain.ProductStateActive {
		t.Fatalf("expected active state, got %s", product.State)
	}

	active, err := repo.ListProducts(domain.ProductStateActive)
	if err != nil {
		t.Fatalf("list active products: %v", err)
	}
	if len(active) != 1 || active[0].Name != "Latte" || active[0].Category != "Drinks" {
		t.Fatalf("unexpected active products: %+v", active)
	}

	product.Name = "Mocha"
	product.Price = decimal.NewFromInt(150)
	product.Category = "Snacks"
	updated, err := repo.UpdateProduct(product)
	if err != nil {
		t.Fatalf("update product: %v", err)
	}
	if updated.Name != "Mocha" || updated.Category != "Snacks" || !updated.Price.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("unexpected updated product: %+v", updated)
	}

	if err := repo.SoftDeleteProduct(product.ID); err != nil {
		t.Fatalf("soft delete product: %v", err)
	}

	active, err = repo.ListProducts(domain.ProductStateActive)
	if err != nil {
		t.Fatalf("list active after delete: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active products, got %+v", active)
	}

	deleted, err := repo.ListProducts(domain.ProductStateDeleted)
	if err != nil {
		t.Fatalf("list deleted products: %v", err)
	}
	if len(deleted) != 1 || deleted[0].ID != product.ID {
		t.Fatalf("unexpected deleted products: %+v", deleted)
	}

	restored, err := repo.RestoreProduct(product.ID)
	if err != nil {
		t.Fatalf("restore product: %v", err)
	}
	if restored.State != domain.ProductStateActive || restored.Name != "Mocha" {
		t.Fatalf("unexpected restored product: %+v", restored)
	}
}

func TestCatalogRepository_PostgresTransitionConflicts(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewCatalogRepository(store)

	createCategoryForIntegrationTest(t, repo, "Drinks")
	product := createProductForIntegrationTest(t, repo, "Latte", 120, "Drinks")

	// Отсутствующий товар и несовместимое состояние — разные ошибки
	// при одном и том же нулевом эффекте UPDATE.
	if err := repo.SoftDeleteProduct(product.ID + 1000); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if _, err := repo.RestoreProduct(product.ID); !errors.Is(err, domain.ErrProductNotDeleted) {
		t.Fatalf("expected ErrProductNotDeleted for active product, got %v", err)
	}

	if err := repo.SoftDeleteProduct(product.ID); err != nil {
		t.Fatalf("first soft delete: %v", err)
	}
	if err := repo.SoftDeleteProduct(product.ID); !errors.Is(err, domain.ErrProductDeleted) {
		t.Fatalf("expected ErrProductDeleted on repeat delete, got %v", err)
	}

	if _, err := repo.GetProduct(product.ID + 1000); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound from get, got %v", err)
	}
}

func TestCatalogRepository_PostgresCategoryRules(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewCatalogRepository(store)

	drinks := createCategoryForIntegrationTest(t, repo, "Drinks")

	if _, err := repo.CreateCategory("Drinks"); !errors.Is(err, domain.ErrCategoryExists) {
		t.Fatalf("expected ErrCategoryExists, got %v", err)
	}

	if _, err := repo.CreateProduct(domain.Product{
		Name:     "Latte",
		Price:    decimal.NewFromInt(120),
		Category: "Nope",
	}); !errors.Is(err, domain.ErrCategoryUnknown) {
		t.Fatalf("expected ErrCategoryUnknown, got %v", err)
	}

	product := createProductForIntegrationTest(t, repo, "Latte", 120, "Drinks")

	if err := repo.DeleteCategory(drinks.ID); !errors.Is(err, domain.ErrCategoryInUse) {
		t.Fatalf("expected ErrCategoryInUse, got %v", err)
	}

	// Удалённые товары категорию не держат: их ссылка обнуляется FK.
	if err := repo.SoftDeleteProduct(product.ID); err != nil {
		t.Fatalf("soft delete product: %v", err)
	}
	if err := repo.DeleteCategory(drinks.ID); err != nil {
		t.Fatalf("delete category with only deleted products: %v", err)
	}

	orphan, err := repo.GetProduct(product.ID)
	if err != nil {
		t.Fatalf("get orphaned product: %v", err)
	}
	if orphan.Category != "" || orphan.CategoryID != 0 {
		t.Fatalf("expected cleared category reference, got %+v", orphan)
	}

	if err := repo.DeleteCategory(drinks.ID); !errors.Is(err, domain.ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound on repeat delete, got %v", err)
	}

	categories, err := repo.ListCategories()
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(categories) != 0 {
		t.Fatalf("expected empty category list, got %+v", categories)
	}
}
