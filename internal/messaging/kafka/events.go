package kafka

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType определяет тип события
type EventType string

const (
	// Order события
	EventTypeOrderPlaced EventType = "order.placed"

	// Catalog события
	EventTypeProductCreated  EventType = "product.created"
	EventTypeProductUpdated  EventType = "product.updated"
	EventTypeProductDeleted  EventType = "product.deleted"
	EventTypeProductRestored EventType = "product.restored"
)

// Topics для Kafka
const (
	TopicOrderEvents     = "pos.order.events"
	TopicDeadLetterQueue = "pos.dlq" // Dead Letter Queue для failed messages
)

// Kafka headers для retry логики
const (
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
)

// OrderPlacedEvent представляет событие оформленного заказа
type OrderPlacedEvent struct {
	EventType EventType              `json:"event_type"`
	OrderID   string                 `json:"order_id"`
	Total     decimal.Decimal        `json:"total"`
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewOrderPlacedEvent создает новое событие заказа
func NewOrderPlacedEvent(orderID string, total decimal.Decimal, status string, metadata map[string]interface{}) *OrderPlacedEvent {
	return &OrderPlacedEvent{
		EventType: EventTypeOrderPlaced,
		OrderID:   orderID,
		Total:     total,
		Status:    status,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}
