package domain

import (
	"github.com/shopspring/decimal"
)

type OrderItemInput struct {
	ProductID int64           `json:"product_id" binding:"required,gt=0"`
	Quantity  int             `json:"quantity" binding:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type OrderInput struct {
	CustomerName    string           `json:"customer_name" binding:"required,max=100"`
	CustomerAddress string           `json:"customer_address" binding:"required,max=255"`
	CustomerPhone   string           `json:"customer_phone" binding:"required,max=20"`
	TotalAmount     decimal.Decimal  `json:"total_amount"`
	Status          string           `json:"status" binding:"omitempty,max=50"`
	Items           []OrderItemInput `json:"items" binding:"omitempty,dive"`
}

type OrderFilter struct {
	Status string
	Limit  int
	Offset int
}

type StatusInput struct {
	Status string `json:"status" binding:"required,max=50"`
}

type ProductInput struct {
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
	IsAvailable *bool           `json:"is_available"`
}

// AdminUserInput carries a plaintext password only on its way to the hasher.
type AdminUserInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// NewOrderNotification is the body the ordering app posts. OrderID is a
// pointer so a missing field can be told apart from a zero value.
type NewOrderNotification struct {
	OrderID *int64 `json:"order_id"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ConvertItems maps input items to OrderItem rows of the given order.
func ConvertItems(orderID int64, inputs []OrderItemInput) []OrderItem {
	items := make([]OrderItem, 0, len(inputs))
	for _, in := range inputs {
		items = append(items, OrderItem{
			OrderID:   orderID,
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			UnitPrice: in.UnitPrice,
		})
	}
	return items
}
