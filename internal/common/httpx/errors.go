package httpx

import (
	"errors"
	"net/http"

	"restaurant-admin/internal/common/logger"
	"restaurant-admin/internal/domain"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// StatusFor maps a domain error onto an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateUsername):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err as JSON. Internal errors are logged and hidden
// behind a generic message.
func RespondError(c *gin.Context, err error) {
	status := StatusFor(err)
	resp := ErrorResponse{Message: err.Error()}

	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		resp = ErrorResponse{Message: verr.Message, Field: verr.Field}
	case errors.Is(err, domain.ErrNotFound):
		resp.Message = "resource not found"
	case errors.Is(err, domain.ErrDuplicateUsername):
		resp.Message = domain.ErrDuplicateUsername.Error()
	case status == http.StatusUnauthorized:
		resp.Message = domain.ErrUnauthorized.Error()
	case status == http.StatusInternalServerError:
		_ = c.Error(err)
		logger.FromGin(c, logger.Nop()).Error("request_failed", err, nil)
		resp.Message = "internal server error"
	}
	c.AbortWithStatusJSON(status, resp)
}
