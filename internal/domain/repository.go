package domain

// CatalogRepository описывает требования к хранилищу каталога.
// Все условные изменения выполняются по схеме compare-and-update:
// UPDATE ... WHERE id = ? AND state = <ожидаемое>, а нулевое число
// затронутых строк разрешается в NotFound либо Conflict.
type CatalogRepository interface {
	// ListProducts возвращает товары в заданном состоянии.
	ListProducts(state ProductState) ([]Product, error)
	// GetProduct возвращает товар по id независимо от состояния.
	GetProduct(id int64) (Product, error)
	// CreateProduct вставляет товар в состоянии active и возвращает строку
	// со сгенерированным id. Имя категории обязано существовать (ErrCategoryUnknown).
	CreateProduct(product Product) (Product, error)
	// UpdateProduct изменяет имя, цену и категорию только у активного товара.
	// Возвращает ErrProductNotFound либо ErrProductDeleted при нулевом эффекте.
	UpdateProduct(product Product) (Product, error)
	// SoftDeleteProduct переводит товар active -> deleted.
	// Возвращает ErrProductNotFound либо ErrProductDeleted при нулевом эффекте.
	SoftDeleteProduct(id int64) error
	// RestoreProduct переводит товар deleted -> active и возвращает строку.
	// Возвращает ErrProductNotFound либо ErrProductNotDeleted при нулевом эффекте.
	RestoreProduct(id int64) (Product, error)

	// ListCategories возвращает все категории.
	ListCategories() ([]Category, error)
	// CreateCategory вставляет категорию с нормализованным именем.
	// Дубликат имени разрешается в ErrCategoryExists.
	CreateCategory(name string) (Category, error)
	// DeleteCategory физически удаляет категорию, если на неё не ссылается
	// ни один активный товар; иначе возвращает ErrCategoryInUse.
	DeleteCategory(id int64) error
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Place атомарно сохраняет заголовок чека, его позиции и outbox-событие.
	// При любой ошибке ни одна строка попытки не остаётся в хранилище.
	Place(order Order) (Order, error)
	// List возвращает все заказы, новые первыми, с вложенными позициями,
	// дополненными текущими именами товаров.
	List() ([]Order, error)
}
