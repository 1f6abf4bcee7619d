package handler

import "github.com/gin-gonic/gin"

const NewOrderNotificationPath = "/admin-api/new-order-notification"

// Router mounts the realtime channel on the strictly authenticated group and
// the notification endpoint on the engine root.
func Router(r *gin.Engine, realtime *gin.RouterGroup, h *Handler) {
	realtime.GET("/ws", h.WS.Serve)
	r.POST(NewOrderNotificationPath, h.Notification.RequireToken(), h.Notification.NewOrder)
}
