package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatusCompleted — единственный статус заказа в POS: чек фиксируется
// в момент оплаты на кассе и после этого не изменяется.
const OrderStatusCompleted = "completed"

// OrderItem представляет одну позицию чека.
// Price — снапшот цены на момент оформления, а не ссылка на текущую цену
// товара: последующие изменения каталога не трогают историю.
type OrderItem struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"-"`
	ProductID   int64           `json:"productId"`
	Quantity    int32           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	ProductName string          `json:"name,omitempty"`
}

// Order агрегирует заголовок чека и его позиции.
// Создаётся ровно один раз и после коммита неизменяем.
type Order struct {
	ID       int64           `json:"id"`
	Total    decimal.Decimal `json:"total"`
	Status   string          `json:"status"`
	PlacedAt time.Time       `json:"timestamp"`
	Items    []OrderItem     `json:"items"`
}

// Validate проверяет инварианты заказа перед записью.
// Цены позиций остаются за клиентом (кассой), но сумма чека обязана
// сходиться с суммой позиций.
func (o Order) Validate() error {
	if len(o.Items) == 0 {
		return ErrItemsRequired
	}

	sum := decimal.Zero
	for _, item := range o.Items {
		if item.Quantity <= 0 {
			return ErrItemQtyInvalid
		}
		if item.Price.IsNegative() {
			return ErrItemPriceInvalid
		}
		sum = sum.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	if !o.Total.Equal(sum) {
		return ErrTotalMismatch
	}

	return nil
}
