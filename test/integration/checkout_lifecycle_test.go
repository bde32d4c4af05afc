package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	outboxsvc "github.com/vladislavdragonenkov/pos/internal/service/outbox"
	"github.com/vladislavdragonenkov/pos/internal/service/rest"
	"github.com/vladislavdragonenkov/pos/internal/storage/memory"
)

// CheckoutLifecycleTestSuite тестирует полный цикл работы кассы:
// каталог, чек с фиксацией цен и историю продаж.
type CheckoutLifecycleTestSuite struct {
	suite.Suite
	server *httptest.Server
	outbox domain.OutboxRepository
}

func (suite *CheckoutLifecycleTestSuite) SetupTest() {
	catalog := memory.NewCatalogRepository()
	suite.outbox = memory.NewOutboxRepository()

	router := rest.NewRouter(
		rest.NewCatalogHandler(catalog, memory.NewAuditRepository(), nil),
		rest.NewOrderHandler(memory.NewOrderRepository(catalog, suite.outbox), memory.NewIdempotencyRepository(), nil),
		nil,
	)

	suite.server = httptest.NewServer(router)
}

func (suite *CheckoutLifecycleTestSuite) TearDownTest() {
	if suite.server != nil {
		suite.server.Close()
	}
}

func (suite *CheckoutLifecycleTestSuite) postJSON(path string, payload any, headers map[string]string) (*http.Response, []byte) {
	suite.T().Helper()

	body, err := json.Marshal(payload)
	require.NoError(suite.T(), err)

	req, err := http.NewRequest(http.MethodPost, suite.server.URL+path, bytes.NewReader(body))
	require.NoError(suite.T(), err)
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := suite.server.Client().Do(req)
	require.NoError(suite.T(), err)

	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(suite.T(), err)

	return resp, buf.Bytes()
}

func (suite *CheckoutLifecycleTestSuite) getJSON(path string, out any) *http.Response {
	suite.T().Helper()

	resp, err := suite.server.Client().Get(suite.server.URL + path)
	require.NoError(suite.T(), err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(suite.T(), json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func (suite *CheckoutLifecycleTestSuite) createProduct(name, category, price string) int64 {
	suite.T().Helper()

	resp, body := suite.postJSON("/api/categories", map[string]string{"name": category}, nil)
	require.Contains(suite.T(), []int{http.StatusCreated, http.StatusConflict}, resp.StatusCode)

	resp, body = suite.postJSON("/api/products", map[string]any{
		"name":     name,
		"price":    price,
		"category": category,
	}, nil)
	require.Equal(suite.T(), http.StatusCreated, resp.StatusCode, string(body))

	var product domain.Product
	require.NoError(suite.T(), json.Unmarshal(body, &product))
	require.NotZero(suite.T(), product.ID)
	return product.ID
}

func (suite *CheckoutLifecycleTestSuite) TestSuccessfulCheckoutLifecycle() {
	// 1. Наполняем каталог
	latteID := suite.createProduct("Latte", "Drinks", "120")

	// 2. Пробиваем чек: 2 × 120 = 240
	resp, body := suite.postJSON("/api/orders", map[string]any{
		"items": []map[string]any{
			{"id": latteID, "quantity": 2, "price": "120"},
		},
		"total": "240",
	}, map[string]string{"Idempotency-Key": "checkout-1"})
	require.Equal(suite.T(), http.StatusCreated, resp.StatusCode, string(body))

	var placed struct {
		Message string `json:"message"`
		OrderID int64  `json:"orderId"`
	}
	require.NoError(suite.T(), json.Unmarshal(body, &placed))
	require.Equal(suite.T(), "order created", placed.Message)
	require.NotZero(suite.T(), placed.OrderID)

	// 3. История продаж содержит чек с зафиксированной ценой
	var orders []domain.Order
	resp = suite.getJSON("/api/orders", &orders)
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	require.Len(suite.T(), orders, 1)

	order := orders[0]
	require.Equal(suite.T(), placed.OrderID, order.ID)
	require.True(suite.T(), decimal.RequireFromString("240").Equal(order.Total), "total=%s", order.Total)
	require.Len(suite.T(), order.Items, 1)
	require.Equal(suite.T(), "Latte", order.Items[0].ProductName)
	require.Equal(suite.T(), int32(2), order.Items[0].Quantity)
	require.True(suite.T(), decimal.RequireFromString("120").Equal(order.Items[0].Price))

	// 4. Outbox содержит событие о размещённом чеке
	pending, err := suite.outbox.PullPending(10)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), pending, 1)
	require.Equal(suite.T(), domain.EventTypeOrderPlaced, pending[0].EventType)

	// 5. Outbox worker публикует событие
	publisher := &capturePublisher{}
	worker := outboxsvc.NewWorker(suite.outbox, publisher)
	worker.ProcessOnce(context.Background())

	require.Len(suite.T(), publisher.events, 1)
	require.Equal(suite.T(), fmt.Sprintf("%d", placed.OrderID), publisher.events[0].AggregateID)

	stats, err := suite.outbox.Stats()
	require.NoError(suite.T(), err)
	require.Zero(suite.T(), stats.PendingCount)
}

func (suite *CheckoutLifecycleTestSuite) TestPriceSnapshotSurvivesCatalogChanges() {
	latteID := suite.createProduct("Latte", "Drinks", "120")

	resp, body := suite.postJSON("/api/orders", map[string]any{
		"items": []map[string]any{
			{"id": latteID, "quantity": 1, "price": "120"},
		},
		"total": "120",
	}, nil)
	require.Equal(suite.T(), http.StatusCreated, resp.StatusCode, string(body))

	// Повышаем цену в каталоге
	resp, body = suite.postJSON("/api/products", map[string]any{
		"_method":  "update",
		"id":       latteID,
		"name":     "Latte",
		"price":    "150",
		"category": "Drinks",
	}, nil)
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode, string(body))

	// Цена в уже пробитом чеке не меняется
	var orders []domain.Order
	suite.getJSON("/api/orders", &orders)
	require.Len(suite.T(), orders, 1)
	require.True(suite.T(), decimal.RequireFromString("120").Equal(orders[0].Items[0].Price))
	require.True(suite.T(), decimal.RequireFromString("120").Equal(orders[0].Total))
}

func (suite *CheckoutLifecycleTestSuite) TestIdempotentCheckoutReplay() {
	latteID := suite.createProduct("Latte", "Drinks", "120")

	payload := map[string]any{
		"items": []map[string]any{
			{"id": latteID, "quantity": 2, "price": "120"},
		},
		"total": "240",
	}
	headers := map[string]string{"Idempotency-Key": "replay-1"}

	resp1, body1 := suite.postJSON("/api/orders", payload, headers)
	require.Equal(suite.T(), http.StatusCreated, resp1.StatusCode)

	resp2, body2 := suite.postJSON("/api/orders", payload, headers)
	require.Equal(suite.T(), http.StatusCreated, resp2.StatusCode)
	require.JSONEq(suite.T(), string(body1), string(body2))

	// Второй запрос не создаёт новый чек
	var orders []domain.Order
	suite.getJSON("/api/orders", &orders)
	require.Len(suite.T(), orders, 1)
}

func (suite *CheckoutLifecycleTestSuite) TestDeletedProductLifecycle() {
	latteID := suite.createProduct("Latte", "Drinks", "120")

	// Soft-delete скрывает товар из активного каталога
	resp, body := suite.postJSON("/api/products", map[string]any{
		"_method": "delete",
		"id":      latteID,
	}, nil)
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode, string(body))

	var active []domain.Product
	suite.getJSON("/api/products", &active)
	require.Empty(suite.T(), active)

	var deleted []domain.Product
	suite.getJSON("/api/products/deleted", &deleted)
	require.Len(suite.T(), deleted, 1)

	// Восстановление возвращает товар в продажу
	resp, body = suite.postJSON(fmt.Sprintf("/api/products/%d/restore", latteID), nil, nil)
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode, string(body))

	suite.getJSON("/api/products", &active)
	require.Len(suite.T(), active, 1)
	require.Equal(suite.T(), "Latte", active[0].Name)
}

// capturePublisher записывает опубликованные outbox-события.
type capturePublisher struct {
	events []domain.OutboxMessage
}

func (p *capturePublisher) Publish(event domain.OutboxMessage) error {
	p.events = append(p.events, event)
	return nil
}

func TestCheckoutLifecycleTestSuite(t *testing.T) {
	suite.Run(t, new(CheckoutLifecycleTestSuite))
}
