package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

// catalogRepositoryInMemory — in-memory реализация CatalogRepository для
// локальной разработки и тестов. Мьютекс даёт те же гарантии, что
// compare-and-update в SQL: из двух конкурентных удалений выигрывает одно.
type catalogRepositoryInMemory struct {
	mu         sync.RWMutex
	products   map[int64]domain.Product
	categories map[int64]domain.Category
	nextProd   int64
	nextCat    int64
}

// NewCatalogRepository возвращает in-memory каталог.
func NewCatalogRepository() domain.CatalogRepository {
	return &catalogRepositoryInMemory{
		products:   make(map[int64]domain.Product),
		categories: make(map[int64]domain.Category),
		nextProd:   1,
		nextCat:    1,
	}
}

// ListProducts возвращает товары в заданном состоянии, старые первыми.
func (r *catalogRepositoryInMemory) ListProducts(state domain.ProductState) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if p.State != state {
			continue
		}
		result = append(result, r.withCategoryName(p))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// GetProduct возвращает товар по id независимо от состояния.
func (r *catalogRepositoryInMemory) GetProduct(id int64) (domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return r.withCategoryName(p), nil
}

// CreateProduct проверяет поля и существование категории, затем вставляет товар.
func (r *catalogRepositoryInMemory) CreateProduct(product domain.Product) (domain.Product, error) {
	if err := product.Validate(); err != nil {
		return domain.Product{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cat, ok := r.categoryByName(domain.NormalizeCategoryName(product.Category))
	if !ok {
		return domain.Product{}, domain.ErrCategoryUnknown
	}

	product.ID = r.nextProd
	r.nextProd++
	product.CategoryID = cat.ID
	product.Category = cat.Name
	product.State = domain.ProductStateActive
	product.CreatedAt = time.Now().UTC()

	r.products[product.ID] = product
	return product, nil
}

// UpdateProduct изменяет только активный товар; удалённый остаётся нетронутым.
func (r *catalogRepositoryInMemory) UpdateProduct(product domain.Product) (domain.Product, error) {
	if err := product.Validate(); err != nil {
		return domain.Product{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.products[product.ID]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	if current.Deleted() {
		return domain.Product{}, domain.ErrProductDeleted
	}

	cat, ok := r.categoryByName(domain.NormalizeCategoryName(product.Category))
	if !ok {
		return domain.Product{}, domain.ErrCategoryUnknown
	}

	current.Name = product.Name
	current.Price = product.Price
	current.CategoryID = cat.ID
	current.Category = cat.Name
	r.products[current.ID] = current

	return current, nil
}

// SoftDeleteProduct переводит товар active -> deleted.
func (r *catalogRepositoryInMemory) SoftDeleteProduct(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	if current.Deleted() {
		return domain.ErrProductDeleted
	}

	current.State = domain.ProductStateDeleted
	r.products[id] = current
	return nil
}

// RestoreProduct переводит товар deleted -> active и возвращает строку.
func (r *catalogRepositoryInMemory) RestoreProduct(id int64) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	if !current.Deleted() {
		return domain.Product{}, domain.ErrProductNotDeleted
	}

	current.State = domain.ProductStateActive
	r.products[id] = current
	return r.withCategoryName(current), nil
}

// ListCategories возвращает категории, старые первыми.
func (r *catalogRepositoryInMemory) ListCategories() ([]domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Category, 0, len(r.categories))
	for _, c := range r.categories {
		result = append(result, c)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// CreateCategory нормализует имя и вставляет категорию, отклоняя дубликаты.
func (r *catalogRepositoryInMemory) CreateCategory(name string) (domain.Category, error) {
	if err := domain.ValidateCategoryName(name); err != nil {
		return domain.Category{}, err
	}
	name = domain.NormalizeCategoryName(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.categoryByName(name); exists {
		return domain.Category{}, domain.ErrCategoryExists
	}

	category := domain.Category{
		ID:        r.nextCat,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	r.nextCat++
	r.categories[category.ID] = category

	return category, nil
}

// DeleteCategory удаляет категорию, если её не использует ни один активный товар.
// Ссылки удалённых товаров обнуляются — как FK ON DELETE SET NULL в Postgres.
func (r *catalogRepositoryInMemory) DeleteCategory(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[id]; !ok {
		return domain.ErrCategoryNotFound
	}

	for _, p := range r.products {
		if p.CategoryID == id && p.State == domain.ProductStateActive {
			return domain.ErrCategoryInUse
		}
	}

	for pid, p := range r.products {
		if p.CategoryID == id {
			p.CategoryID = 0
			r.products[pid] = p
		}
	}
	delete(r.categories, id)

	return nil
}

func (r *catalogRepositoryInMemory) categoryByName(name string) (domain.Category, bool) {
	for _, c := range r.categories {
		if c.Name == name {
			return c, true
		}
	}
	return domain.Category{}, false
}

// withCategoryName подставляет актуальное имя категории для отображения.
func (r *catalogRepositoryInMemory) withCategoryName(p domain.Product) domain.Product {
	if cat, ok := r.categories[p.CategoryID]; ok {
		p.Category = cat.Name
	} else {
		p.Category = ""
	}
	return p
}

var _ domain.CatalogRepository = (*catalogRepositoryInMemory)(nil)
