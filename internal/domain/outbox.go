package domain

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// OutboxMessage хранит событие для публикации во внешний брокер.
// Записывается в той же транзакции, что и бизнес-данные (transactional outbox),
// поэтому событие существует тогда и только тогда, когда существует заказ.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}

// EventTypeOrderPlaced — событие успешно оформленного чека.
const EventTypeOrderPlaced = "order.placed"

// orderPlacedPayload — сериализуемая часть события order.placed.
type orderPlacedPayload struct {
	OrderID   int64             `json:"order_id"`
	Total     string            `json:"total"`
	Status    string            `json:"status"`
	PlacedAt  time.Time         `json:"placed_at"`
	ItemCount int               `json:"item_count"`
	Items     []orderPlacedItem `json:"items"`
}

type orderPlacedItem struct {
	ProductID int64  `json:"product_id"`
	Quantity  int32  `json:"quantity"`
	Price     string `json:"price"`
}

// NewOrderPlacedMessage собирает outbox-сообщение по уже сохранённому заказу.
// Вызывается хранилищем внутри транзакции размещения, когда id заказа известен.
func NewOrderPlacedMessage(order Order) (OutboxMessage, error) {
	payload := orderPlacedPayload{
		OrderID:   order.ID,
		Total:     order.Total.String(),
		Status:    order.Status,
		PlacedAt:  order.PlacedAt,
		ItemCount: len(order.Items),
	}
	for _, item := range order.Items {
		payload.Items = append(payload.Items, orderPlacedItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price.String(),
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return OutboxMessage{}, err
	}

	return OutboxMessage{
		ID:            uuid.NewString(),
		AggregateType: "order",
		AggregateID:   strconv.FormatInt(order.ID, 10),
		EventType:     EventTypeOrderPlaced,
		Payload:       body,
	}, nil
}
