package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ProductState описывает жизненный цикл товара в каталоге.
// Товар никогда не удаляется физически: он переходит между active и deleted.
type ProductState string

const (
	// ProductStateActive — товар виден в каталоге и доступен для изменений.
	ProductStateActive ProductState = "active"
	// ProductStateDeleted — товар скрыт и заморожен до восстановления.
	ProductStateDeleted ProductState = "deleted"
)

// Product представляет товар каталога.
// Категория хранится по стабильному category_id; Category — отображаемое имя,
// которое подставляется при чтении.
type Product struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Category   string          `json:"category"`
	CategoryID int64           `json:"-"`
	State      ProductState    `json:"state"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Deleted сообщает, находится ли товар в состоянии deleted.
func (p Product) Deleted() bool {
	return p.State == ProductStateDeleted
}

// Validate проверяет поля товара перед созданием или обновлением.
func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrProductNameRequired
	}
	if !p.Price.IsPositive() {
		return ErrProductPriceInvalid
	}
	if NormalizeCategoryName(p.Category) == "" {
		return ErrProductCategoryRequired
	}
	return nil
}
