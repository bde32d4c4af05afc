package rest

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	"github.com/vladislavdragonenkov/pos/internal/metrics"
)

// CatalogHandler обслуживает маршруты каталога: товары и категории.
type CatalogHandler struct {
	catalog domain.CatalogRepository
	audit   domain.AuditRepository
	metrics *metrics.POSMetrics
	logger  *log.Entry
}

// NewCatalogHandler создаёт HTTP-обработчик каталога.
func NewCatalogHandler(catalog domain.CatalogRepository, audit domain.AuditRepository, posMetrics *metrics.POSMetrics) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		audit:   audit,
		metrics: posMetrics,
		logger:  log.WithField("component", "catalog-handler"),
	}
}

// RegisterRoutes привязывает обработчики к маршрутам каталога.
func (h *CatalogHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.GET("/products", h.ListProducts)
		api.GET("/products/deleted", h.ListDeletedProducts)
		api.POST("/products", h.MutateProduct)
		api.DELETE("/products/:id", h.SoftDeleteProduct)
		api.POST("/products/:id/restore", h.RestoreProduct)
		api.GET("/products/:id/audit", h.ProductAudit)

		api.GET("/categories", h.ListCategories)
		api.POST("/categories", h.CreateCategory)
		api.DELETE("/categories/:id", h.DeleteCategory)
	}
}

// productRequest — тело POST /api/products. Поле _method мультиплексирует
// create/update/delete так же, как это делал исходный клиент.
type productRequest struct {
	Method   string          `json:"_method"`
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
}

// ListProducts отдаёт активные товары.
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(domain.ProductStateActive)
	if err != nil {
		respondError(c, h.logger, err, "failed to list products")
		return
	}
	c.JSON(http.StatusOK, products)
}

// ListDeletedProducts отдаёт удалённые товары (административный маршрут).
func (h *CatalogHandler) ListDeletedProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(domain.ProductStateDeleted)
	if err != nil {
		respondError(c, h.logger, err, "failed to list deleted products")
		return
	}
	c.JSON(http.StatusOK, products)
}

// MutateProduct обрабатывает POST /api/products: create по умолчанию,
// update и delete по полю _method.
func (h *CatalogHandler) MutateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	switch req.Method {
	case "update":
		h.updateProduct(c, req)
	case "delete":
		h.deleteProductByBody(c, req)
	default:
		h.createProduct(c, req)
	}
}

func (h *CatalogHandler) createProduct(c *gin.Context, req productRequest) {
	product, err := h.catalog.CreateProduct(domain.Product{
		Name:     req.Name,
		Price:    req.Price,
		Category: req.Category,
	})
	if err != nil {
		respondError(c, h.logger, err, "failed to create product")
		return
	}

	h.recordMutation("create", product.ID, domain.AuditActionCreated,
		fmt.Sprintf("created as %q in category %q", product.Name, product.Category))
	c.JSON(http.StatusCreated, product)
}

func (h *CatalogHandler) updateProduct(c *gin.Context, req productRequest) {
	if req.ID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "product id is required"})
		return
	}

	product, err := h.catalog.UpdateProduct(domain.Product{
		ID:       req.ID,
		Name:     req.Name,
		Price:    req.Price,
		Category: req.Category,
	})
	if err != nil {
		respondError(c, h.logger, err, "failed to update product")
		return
	}

	h.recordMutation("update", product.ID, domain.AuditActionUpdated,
		fmt.Sprintf("updated to %q, price %s, category %q", product.Name, product.Price, product.Category))
	c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) deleteProductByBody(c *gin.Context, req productRequest) {
	if req.ID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "product id is required"})
		return
	}

	if err := h.catalog.SoftDeleteProduct(req.ID); err != nil {
		respondError(c, h.logger, err, "failed to delete product")
		return
	}

	h.recordMutation("delete", req.ID, domain.AuditActionDeleted, "")
	c.JSON(http.StatusOK, gin.H{"message": "product deleted", "id": req.ID})
}

// SoftDeleteProduct обрабатывает RESTful-вариант удаления.
func (h *CatalogHandler) SoftDeleteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.catalog.SoftDeleteProduct(id); err != nil {
		respondError(c, h.logger, err, "failed to delete product")
		return
	}

	h.recordMutation("delete", id, domain.AuditActionDeleted, "")
	c.JSON(http.StatusOK, gin.H{"message": "product deleted", "id": id})
}

// RestoreProduct возвращает товар из deleted в active.
func (h *CatalogHandler) RestoreProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	product, err := h.catalog.RestoreProduct(id)
	if err != nil {
		respondError(c, h.logger, err, "failed to restore product")
		return
	}

	h.recordMutation("restore", id, domain.AuditActionRestored, "")
	c.JSON(http.StatusOK, gin.H{"message": "product restored", "product": product})
}

// ProductAudit отдаёт журнал переходов жизненного цикла товара.
func (h *CatalogHandler) ProductAudit(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if _, err := h.catalog.GetProduct(id); err != nil {
		respondError(c, h.logger, err, "failed to load product")
		return
	}

	events, err := h.audit.ListByProduct(id)
	if err != nil {
		respondError(c, h.logger, err, "failed to load audit trail")
		return
	}
	c.JSON(http.StatusOK, events)
}

// ListCategories отдаёт все категории.
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories()
	if err != nil {
		respondError(c, h.logger, err, "failed to list categories")
		return
	}
	c.JSON(http.StatusOK, categories)
}

type categoryRequest struct {
	Name string `json:"name"`
}

// CreateCategory добавляет категорию.
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	category, err := h.catalog.CreateCategory(req.Name)
	if err != nil {
		respondError(c, h.logger, err, "failed to create category")
		return
	}

	if h.metrics != nil {
		h.metrics.RecordCatalogMutation("category_create")
	}
	c.JSON(http.StatusCreated, category)
}

// DeleteCategory удаляет категорию, если на неё не ссылаются активные товары.
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.catalog.DeleteCategory(id); err != nil {
		respondError(c, h.logger, err, "failed to delete category")
		return
	}

	if h.metrics != nil {
		h.metrics.RecordCatalogMutation("category_delete")
	}
	c.Status(http.StatusNoContent)
}

// recordMutation пишет метрику и audit-событие перехода. Ошибка аудита не
// ломает уже применённую мутацию, только логируется.
func (h *CatalogHandler) recordMutation(operation string, productID int64, action domain.AuditAction, detail string) {
	if h.metrics != nil {
		h.metrics.RecordCatalogMutation(operation)
	}
	if h.audit == nil {
		return
	}

	event := domain.AuditEvent{
		ProductID:  productID,
		Action:     action,
		Detail:     detail,
		OccurredAt: time.Now().UTC(),
	}
	if err := h.audit.Append(event); err != nil {
		h.logger.WithError(err).WithFields(log.Fields{
			"product_id": productID,
			"action":     action,
		}).Warn("failed to append audit event")
		return
	}
	if h.metrics != nil {
		h.metrics.RecordAuditEvent()
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid id"})
		return 0, false
	}
	return id, true
}
