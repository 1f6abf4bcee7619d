package service

import (
	"context"
	"errors"
	"fmt"

	"restaurant-admin/internal/common/logger"
	"restaurant-admin/internal/common/metrics"
	"restaurant-admin/internal/common/validate"
	"restaurant-admin/internal/domain"
	"restaurant-admin/internal/microservices/notificator/broker"
)

// Orders is the slice of the order service the hub drives.
type Orders interface {
	Get(ctx context.Context, id int64) (domain.Order, error)
	UpdateStatus(ctx context.Context, id int64, status string) (domain.Order, error)
}

// Authenticator re-checks a session token.
type Authenticator interface {
	RequireAuth(ctx context.Context, token string) (domain.Identity, error)
}

type NotificatorServiceInterface interface {
	Greeting(connID string) (domain.Event, error)
	NotifyNewOrder(ctx context.Context, orderID int64) (domain.Order, error)
	HandleStatusUpdate(ctx context.Context, token string, req domain.StatusUpdateRequest) (domain.Order, error)
	UpdateStatus(ctx context.Context, actor domain.Identity, orderID int64, status string) (domain.Order, error)
	CheckSession(ctx context.Context, token string) error
}

type Deps struct {
	Orders    Orders
	Auth      Authenticator
	Publisher broker.Publisher
	Metrics   *metrics.Metrics
	Log       *logger.Logger
}

type NotificatorService struct {
	orders    Orders
	auth      Authenticator
	publisher broker.Publisher
	metrics   *metrics.Metrics
	log       *logger.Logger
}

func NewNotificatorService(d Deps) *NotificatorService {
	return &NotificatorService{
		orders:    d.Orders,
		auth:      d.Auth,
		publisher: d.Publisher,
		metrics:   d.Metrics,
		log:       d.Log,
	}
}

// Greeting is the my_response event sent to a connection right after it joins.
func (s *NotificatorService) Greeting(connID string) (domain.Event, error) {
	return domain.NewEvent(domain.EventMyResponse, domain.MyResponse{
		Data: "Conectado al dashboard admin. Sesión: " + connID,
	})
}

// NotifyNewOrder loads the order and broadcasts a new_order_alert for it.
func (s *NotificatorService) NotifyNewOrder(ctx context.Context, orderID int64) (domain.Order, error) {
	if orderID <= 0 {
		return domain.Order{}, domain.NewValidationError("order_id", "must be a positive integer")
	}

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	ev, err := domain.NewEvent(domain.EventNewOrderAlert, domain.NewOrderAlertFrom(order))
	if err != nil {
		return domain.Order{}, err
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		return domain.Order{}, fmt.Errorf("failed to broadcast new order %d: %w", orderID, err)
	}

	s.log.Info("new_order_alert_sent", map[string]any{"order_id": order.ID, "status": order.Status})
	return order, nil
}

// HandleStatusUpdate executes a status_update_request received on a
// realtime connection. The session behind token is checked again first, so
// a logout elsewhere strips the connection of its authority.
func (s *NotificatorService) HandleStatusUpdate(ctx context.Context, token string, req domain.StatusUpdateRequest) (domain.Order, error) {
	actor, err := s.auth.RequireAuth(ctx, token)
	if err != nil {
		s.count("unauthorized")
		return domain.Order{}, err
	}
	if err := validate.Struct(req); err != nil {
		s.count("invalid")
		return domain.Order{}, err
	}
	return s.UpdateStatus(ctx, actor, req.OrderID, req.NewStatus)
}

// CheckSession reports whether token still names a live session. Open
// connections call it periodically and leave the group on ErrUnauthorized.
func (s *NotificatorService) CheckSession(ctx context.Context, token string) error {
	_, err := s.auth.RequireAuth(ctx, token)
	return err
}

// UpdateStatus persists the new status and broadcasts order_status_updated to
// the whole dashboard group, the acting admin included. A failed broadcast is
// logged; the stored change stands.
func (s *NotificatorService) UpdateStatus(ctx context.Context, actor domain.Identity, orderID int64, status string) (domain.Order, error) {
	order, err := s.orders.UpdateStatus(ctx, orderID, status)
	if err != nil {
		s.count(outcome(err))
		return domain.Order{}, err
	}
	s.count("updated")

	ev, err := domain.NewEvent(domain.EventOrderStatusUpdated, domain.OrderStatusUpdated{
		OrderID:   order.ID,
		NewStatus: order.Status,
		UpdatedBy: actor.Username,
	})
	if err == nil {
		err = s.publisher.Publish(ctx, ev)
	}
	if err != nil {
		s.log.Error("status_broadcast_failed", err, map[string]any{"order_id": order.ID})
		return order, nil
	}

	s.log.Info("order_status_updated", map[string]any{
		"order_id":   order.ID,
		"new_status": order.Status,
		"updated_by": actor.Username,
	})
	return order, nil
}

func (s *NotificatorService) count(outcome string) {
	if s.metrics != nil {
		s.metrics.StatusUpdates.WithLabelValues(outcome).Inc()
	}
}

func outcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}
