package domain

import "errors"

var (
	// Ошибка пустого имени товара.
	ErrProductNameRequired = errors.New("product name is required")
	// Ошибка отрицательной цены товара.
	ErrProductPriceInvalid = errors.New("product price must be positive")
	// Ошибка отсутствующей категории у товара.
	ErrProductCategoryRequired = errors.New("product category is required")
	// Ошибка пустого имени категории.
	ErrCategoryNameRequired = errors.New("category name is required")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка при некорректном количестве товара в позиции (<= 0).
	ErrItemQtyInvalid = errors.New("item quantity must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrTotalMismatch = errors.New("order total does not match items sum")

	// ErrProductNotFound возвращается, если товар не найден в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// ErrCategoryNotFound возвращается, если категория не найдена.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrCategoryUnknown возвращается при попытке привязать товар к несуществующей категории.
	ErrCategoryUnknown = errors.New("unknown category")

	// ErrProductDeleted сигнализирует о попытке изменить уже удалённый товар.
	ErrProductDeleted = errors.New("product is deleted")
	// ErrProductNotDeleted сигнализирует о попытке восстановить активный товар.
	ErrProductNotDeleted = errors.New("product is not deleted")
	// ErrCategoryInUse — категорию нельзя удалить, пока на неё ссылаются активные товары.
	ErrCategoryInUse = errors.New("category is in use by active products")
	// ErrCategoryExists — категория с таким именем уже существует.
	ErrCategoryExists = errors.New("category already exists")

	// ErrIdempotencyKeyRequired — пустой idempotency-key.
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	// ErrIdempotencyRequestHashRequired — пустой хэш запроса.
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	// ErrIdempotencyKeyAlreadyExists — запись с таким ключом уже создана.
	ErrIdempotencyKeyAlreadyExists = errors.New("idempotency key already exists")
	// ErrIdempotencyHashMismatch — тот же ключ использован для другого тела запроса.
	ErrIdempotencyHashMismatch = errors.New("idempotency key reused with different request")
	// ErrIdempotencyRecordNotFound — запись по ключу не найдена.
	ErrIdempotencyRecordNotFound = errors.New("idempotency record not found")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsValidation проверяет, относится ли ошибка к нарушению входных данных (ответ 400).
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrProductNameRequired,
		ErrProductPriceInvalid,
		ErrProductCategoryRequired,
		ErrCategoryNameRequired,
		ErrCategoryUnknown,
		ErrItemsRequired,
		ErrItemQtyInvalid,
		ErrItemPriceInvalid,
		ErrTotalMismatch,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsNotFound проверяет, что запрошенной сущности не существует (ответ 404).
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrCategoryNotFound)
}

// IsConflict проверяет, что запрос несовместим с текущим состоянием записи (ответ 409).
func IsConflict(err error) bool {
	for _, target := range []error{
		ErrProductDeleted,
		ErrProductNotDeleted,
		ErrCategoryInUse,
		ErrCategoryExists,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
