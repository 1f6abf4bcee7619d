package handler

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"restaurant-admin/internal/common/logger"
	"restaurant-admin/internal/domain"
	"restaurant-admin/internal/microservices/notificator/service"

	"github.com/gin-gonic/gin"
)

const NotifyTokenHeader = "X-Notify-Token"

const (
	msgNotificationProcessed = "Notificación procesada"
	msgOrderIDMissing        = "ID de pedido no proporcionado"
	msgOrderNotFound         = "Pedido no encontrado"
	msgNotifyUnauthorized    = "No autorizado"
	msgInternalError         = "Error interno del servidor"
)

// NotificationHandler receives new-order notifications from the order intake
// service.
type NotificationHandler struct {
	svc    service.NotificatorServiceInterface
	secret string
	log    *logger.Logger
}

func NewNotificationHandler(svc service.NotificatorServiceInterface, sharedSecret string, lg *logger.Logger) *NotificationHandler {
	return &NotificationHandler{svc: svc, secret: sharedSecret, log: lg}
}

// RequireToken enforces the shared secret when one is configured.
func (h *NotificationHandler) RequireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.secret == "" {
			c.Next()
			return
		}
		got := c.GetHeader(NotifyTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			logger.FromGin(c, h.log).Warn("notification_rejected", map[string]any{"client_ip": c.ClientIP()})
			c.AbortWithStatusJSON(http.StatusUnauthorized, domain.MessageResponse{Message: msgNotifyUnauthorized})
			return
		}
		c.Next()
	}
}

func (h *NotificationHandler) NewOrder(c *gin.Context) {
	var req domain.NewOrderNotification
	if err := c.ShouldBindJSON(&req); err != nil || req.OrderID == nil || *req.OrderID <= 0 {
		c.JSON(http.StatusBadRequest, domain.MessageResponse{Message: msgOrderIDMissing})
		return
	}

	_, err := h.svc.NotifyNewOrder(c.Request.Context(), *req.OrderID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, domain.MessageResponse{Message: msgNotificationProcessed})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, domain.MessageResponse{Message: msgOrderNotFound})
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, domain.MessageResponse{Message: msgOrderIDMissing})
	default:
		_ = c.Error(err)
		logger.FromGin(c, h.log).Error("new_order_notification_failed", err, map[string]any{"order_id": *req.OrderID})
		c.JSON(http.StatusInternalServerError, domain.MessageResponse{Message: msgInternalError})
	}
}
