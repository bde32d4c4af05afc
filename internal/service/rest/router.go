package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/pos/internal/metrics"
)

// NewRouter собирает gin engine со всеми маршрутами сервиса.
func NewRouter(catalog *CatalogHandler, orders *OrderHandler, posMetrics *metrics.POSMetrics) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if posMetrics != nil {
		router.Use(requestMetrics(posMetrics))
	}

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "POS API server is running"})
	})

	catalog.RegisterRoutes(router)
	orders.RegisterRoutes(router)

	return router
}

// requestMetrics записывает длительность каждого запроса по шаблону маршрута.
func requestMetrics(posMetrics *metrics.POSMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		posMetrics.RecordHTTPRequest(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}
