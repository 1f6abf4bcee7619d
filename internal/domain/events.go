package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Realtime event names exchanged with dashboard clients.
const (
	EventMyResponse          = "my_response"
	EventStatusUpdateRequest = "status_update_request"
	EventOrderStatusUpdated  = "order_status_updated"
	EventNewOrderAlert       = "new_order_alert"
)

// DashboardRoom is the single broadcast group served by the hub.
const DashboardRoom = "admin_dashboard"

// Event is the wire envelope for every realtime message. Data is kept raw so
// one broadcast is encoded once and reused for every member and for the broker.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

func NewEvent(name string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to encode %s payload: %w", name, err)
	}
	return Event{Name: name, Data: data}, nil
}

type MyResponse struct {
	Data string `json:"data"`
}

type StatusUpdateRequest struct {
	OrderID   int64  `json:"order_id" validate:"required,gt=0"`
	NewStatus string `json:"new_status" validate:"required,max=50"`
}

type OrderStatusUpdated struct {
	OrderID   int64  `json:"order_id"`
	NewStatus string `json:"new_status"`
	UpdatedBy string `json:"updated_by"`
}

type NewOrderAlert struct {
	OrderID       int64   `json:"order_id"`
	CustomerName  string  `json:"customer_name"`
	CustomerPhone string  `json:"customer_phone"`
	TotalAmount   float64 `json:"total_amount"`
	Status        string  `json:"status"`
	OrderDate     string  `json:"order_date"`
}

func NewOrderAlertFrom(o Order) NewOrderAlert {
	return NewOrderAlert{
		OrderID:       o.ID,
		CustomerName:  o.CustomerName,
		CustomerPhone: o.CustomerPhone,
		TotalAmount:   o.TotalAmount.InexactFloat64(),
		Status:        o.Status,
		OrderDate:     o.OrderDate.UTC().Format(time.RFC3339),
	}
}
