package restsvc

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/storefront/internal/docstore"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Response — единый конверт JSON-ответов API.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	// Retryable выставляется на конфликте конкурентной записи: клиент может
	// безопасно повторить запрос.
	Retryable bool `json:"retryable,omitempty"`
}

// SuccessResponse пишет успешный ответ с данными.
func SuccessResponse(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, Response{Status: "ok", Data: data})
}

// ErrorResponse пишет ответ об ошибке.
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{Status: "error", Message: message})
}

// domainErrorResponse транслирует доменную ошибку в HTTP-статус по типу, а не
// по тексту. Конфликт транзакции помечается retryable.
func domainErrorResponse(c *gin.Context, err error) {
	switch {
	case domain.IsNotFound(err):
		ErrorResponse(c, http.StatusNotFound, err.Error())
	case domain.IsInvalidArgument(err):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case domain.IsInvalidTransition(err):
		ErrorResponse(c, http.StatusConflict, err.Error())
	case docstore.IsConflict(err):
		c.JSON(http.StatusConflict, Response{
			Status:    "error",
			Message:   "concurrent update, please retry",
			Retryable: true,
		})
	case docstore.IsNotFound(err):
		ErrorResponse(c, http.StatusNotFound, err.Error())
	case docstore.IsUnavailable(err):
		ErrorResponse(c, http.StatusServiceUnavailable, "store temporarily unavailable")
	default:
		ErrorResponse(c, http.StatusInternalServerError, "internal error")
	}
}
