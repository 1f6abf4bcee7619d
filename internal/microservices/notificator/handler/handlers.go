package handler

type Handler struct {
	WS           *WSHandler
	Notification *NotificationHandler
}

func New(ws *WSHandler, notification *NotificationHandler) *Handler {
	return &Handler{WS: ws, Notification: notification}
}
