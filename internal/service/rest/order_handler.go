package rest

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	"github.com/vladislavdragonenkov/pos/internal/metrics"
)

const idempotencyKeyHeader = "Idempotency-Key"

// Повторная отправка того же ключа в течение суток возвращает сохранённый ответ.
const idempotencyTTL = 24 * time.Hour

// OrderHandler обслуживает оформление заказов и историю.
type OrderHandler struct {
	orders      domain.OrderRepository
	idempotency domain.IdempotencyRepository
	metrics     *metrics.POSMetrics
	logger      *log.Entry
}

// NewOrderHandler создаёт HTTP-обработчик заказов. Репозиторий идемпотентности
// может быть nil: тогда заголовок Idempotency-Key игнорируется.
func NewOrderHandler(orders domain.OrderRepository, idempotency domain.IdempotencyRepository, posMetrics *metrics.POSMetrics) *OrderHandler {
	return &OrderHandler{
		orders:      orders,
		idempotency: idempotency,
		metrics:     posMetrics,
		logger:      log.WithField("component", "order-handler"),
	}
}

// RegisterRoutes привязывает обработчики к маршрутам заказов.
func (h *OrderHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.POST("/orders", h.PlaceOrder)
		api.GET("/orders", h.ListOrders)
	}
}

type orderItemRequest struct {
	ID       int64           `json:"id"`
	Quantity int32           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type orderRequest struct {
	Items []orderItemRequest `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

// PlaceOrder атомарно сохраняет чек с каноничными ценами позиций.
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	idemKey := c.GetHeader(idempotencyKeyHeader)
	if h.idempotency != nil && idemKey != "" {
		if done := h.beginIdempotent(c, idemKey, body); done {
			return
		}
	}

	var req orderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.finish(c, idemKey, http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	order := domain.Order{
		Total:  req.Total,
		Status: domain.OrderStatusCompleted,
	}
	for _, item := range req.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: item.ID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	start := time.Now()
	placed, err := h.orders.Place(order)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordOrderFailed()
		}
		status, message := errorStatus(err, "failed to create order")
		if status == http.StatusInternalServerError {
			h.logger.WithError(err).Error("failed to create order")
		}
		h.finish(c, idemKey, status, gin.H{"message": message})
		return
	}

	if h.metrics != nil {
		h.metrics.RecordOrderPlaced(placed.Total, len(placed.Items))
		h.metrics.RecordOrderDuration(time.Since(start))
	}
	h.logger.WithFields(log.Fields{
		"order_id": placed.ID,
		"total":    placed.Total,
		"items":    len(placed.Items),
	}).Info("order placed")

	h.finish(c, idemKey, http.StatusCreated, gin.H{
		"message": "order created",
		"orderId": placed.ID,
	})
}

// ListOrders отдаёт историю заказов, новые первыми.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.orders.List()
	if err != nil {
		respondError(c, h.logger, err, "failed to list orders")
		return
	}
	c.JSON(http.StatusOK, orders)
}

// beginIdempotent регистрирует ключ запроса. Возвращает true, если ответ уже
// отправлен (повтор, конфликт хэша или незавершённая обработка).
func (h *OrderHandler) beginIdempotent(c *gin.Context, key string, body []byte) bool {
	hash := sha256.Sum256(body)
	requestHash := hex.EncodeToString(hash[:])

	record, err := h.idempotency.CreateProcessing(key, requestHash, time.Now().UTC().Add(idempotencyTTL))
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, domain.ErrIdempotencyHashMismatch):
		c.JSON(http.StatusConflict, gin.H{"message": "idempotency key reused with different request"})
	case errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists):
		if record.Status == domain.IdempotencyStatusProcessing {
			c.JSON(http.StatusConflict, gin.H{"message": "request is already being processed"})
			return true
		}
		c.Data(record.HTTPStatus, "application/json; charset=utf-8", record.ResponseBody)
	case errors.Is(err, domain.ErrIdempotencyKeyRequired):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	default:
		h.logger.WithError(err).Error("failed to register idempotency key")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to create order"})
	}
	return true
}

// finish отправляет ответ и фиксирует его для повторов по idempotency-key.
func (h *OrderHandler) finish(c *gin.Context, key string, status int, payload gin.H) {
	raw, err := json.Marshal(payload)
	if err != nil {
		h.logger.WithError(err).Error("failed to marshal response")
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(status, "application/json; charset=utf-8", raw)

	if h.idempotency == nil || key == "" {
		return
	}

	var markErr error
	if status >= 200 && status < 300 {
		markErr = h.idempotency.MarkDone(key, raw, status)
	} else {
		markErr = h.idempotency.MarkFailed(key, raw, status)
	}
	if markErr != nil {
		h.logger.WithError(markErr).WithField("status", strconv.Itoa(status)).Warn("failed to store idempotent response")
	}
}
