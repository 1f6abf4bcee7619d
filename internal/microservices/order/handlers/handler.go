package handlers

import (
	"context"

	"restaurant-admin/internal/domain"
	"restaurant-admin/internal/microservices/order/service"
)

// StatusUpdater persists a status change and tells the dashboard about it.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, actor domain.Identity, orderID int64, status string) (domain.Order, error)
}

type Handler struct {
	OrderHandler *OrderHandler
}

func New(s *service.Service, status StatusUpdater) *Handler {
	return &Handler{
		OrderHandler: NewOrderHandler(s.OrderService, status),
	}
}
