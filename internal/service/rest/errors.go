package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

// errorStatus переводит доменную ошибку в HTTP-статус и сообщение.
// Валидация — 400, отсутствие сущности — 404, конфликт состояния товара — 409.
// ErrCategoryInUse отдаётся как 400: для клиента это исправимая ошибка запроса,
// а не гонка за состояние записи.
func errorStatus(err error, fallback string) (int, string) {
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest, err.Error()
	case domain.IsNotFound(err):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrCategoryInUse):
		return http.StatusBadRequest, err.Error()
	case domain.IsConflict(err):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, fallback
	}
}

// respondError пишет в ответ результат errorStatus; необработанные ошибки
// дополнительно логируются.
func respondError(c *gin.Context, logger *log.Entry, err error, fallback string) {
	status, message := errorStatus(err, fallback)
	if status == http.StatusInternalServerError {
		logger.WithError(err).Error(fallback)
	}
	c.JSON(status, gin.H{"message": message})
}
