package service

import (
	"context"
	"fmt"
	"strings"

	"restaurant-admin/internal/common/logger"
	"restaurant-admin/internal/domain"
	"restaurant-admin/internal/microservices/order/repository"

	"github.com/shopspring/decimal"
)

// DashboardSize is how many orders the dashboard shows.
const DashboardSize = 10

type OrderServiceInterface interface {
	Recent(ctx context.Context) ([]domain.Order, error)
	List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
	Get(ctx context.Context, id int64) (domain.Order, error)
	Create(ctx context.Context, in domain.OrderInput) (domain.Order, error)
	Update(ctx context.Context, id int64, in domain.OrderInput) (domain.Order, error)
	Delete(ctx context.Context, id int64) error
	UpdateStatus(ctx context.Context, id int64, status string) (domain.Order, error)
}

type OrderService struct {
	repo repository.OrderRepositoryInterface
	log  *logger.Logger
}

func NewOrderService(repo repository.OrderRepositoryInterface, lg *logger.Logger) OrderServiceInterface {
	return &OrderService{repo: repo, log: lg}
}

func (s *OrderService) Recent(ctx context.Context) ([]domain.Order, error) {
	return s.repo.ListRecent(ctx, DashboardSize)
}

func (s *OrderService) List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	filter.Status = strings.TrimSpace(filter.Status)
	return s.repo.List(ctx, filter)
}

func (s *OrderService) Get(ctx context.Context, id int64) (domain.Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *OrderService) Create(ctx context.Context, in domain.OrderInput) (domain.Order, error) {
	order, err := buildOrder(0, in)
	if err != nil {
		return domain.Order{}, err
	}
	created, err := s.repo.Create(ctx, order)
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to save order: %w", err)
	}
	s.log.Info("order_created", map[string]any{"order_id": created.ID, "items": len(created.Items)})
	return created, nil
}

// Update rewrites the order. Items are replaced only when the input carries
// some. An omitted status keeps the stored one, and so does the stored total
// when neither items nor a total are given.
func (s *OrderService) Update(ctx context.Context, id int64, in domain.OrderInput) (domain.Order, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	order, err := buildOrder(id, in)
	if err != nil {
		return domain.Order{}, err
	}
	if strings.TrimSpace(in.Status) == "" {
		order.Status = current.Status
	}
	if len(in.Items) == 0 && in.TotalAmount.IsZero() {
		order.TotalAmount = current.TotalAmount
	}
	updated, err := s.repo.Update(ctx, order, len(in.Items) > 0)
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to update order: %w", err)
	}
	s.log.Info("order_updated", map[string]any{"order_id": id})
	return updated, nil
}

func (s *OrderService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	s.log.Info("order_deleted", map[string]any{"order_id": id})
	return nil
}

// UpdateStatus persists a new status for an existing order. Any non-empty
// status up to 50 characters is accepted.
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, status string) (domain.Order, error) {
	if id <= 0 {
		return domain.Order{}, domain.NewValidationError("order_id", "order id must be positive")
	}
	st, err := domain.NormalizeStatus(status)
	if err != nil {
		return domain.Order{}, err
	}
	o, err := s.repo.UpdateStatus(ctx, id, st)
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to update order status: %w", err)
	}
	if !domain.IsKnownStatus(st) {
		s.log.Debug("order_status_custom", map[string]any{"order_id": id, "status": st})
	}
	return o, nil
}

func buildOrder(id int64, in domain.OrderInput) (domain.Order, error) {
	status := domain.StatusPending
	if strings.TrimSpace(in.Status) != "" {
		st, err := domain.NormalizeStatus(in.Status)
		if err != nil {
			return domain.Order{}, err
		}
		status = st
	}

	items := domain.ConvertItems(id, in.Items)
	total := in.TotalAmount
	if total.IsZero() {
		for _, it := range items {
			total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
	}
	if total.IsNegative() {
		return domain.Order{}, domain.NewValidationError("total_amount", "total amount cannot be negative")
	}

	return domain.Order{
		ID:              id,
		CustomerName:    strings.TrimSpace(in.CustomerName),
		CustomerAddress: strings.TrimSpace(in.CustomerAddress),
		CustomerPhone:   strings.TrimSpace(in.CustomerPhone),
		TotalAmount:     total.Round(2),
		Status:          status,
		Items:           items,
	}, nil
}
