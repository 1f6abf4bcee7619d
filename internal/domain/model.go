package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Known dashboard statuses. Status itself stays an open string: the ordering
// app and older rows may carry values outside this list.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

// MaxStatusLength mirrors orders.status VARCHAR(50).
const MaxStatusLength = 50

type Order struct {
	ID              int64           `json:"id"`
	CustomerName    string          `json:"customer_name"`
	CustomerAddress string          `json:"customer_address"`
	CustomerPhone   string          `json:"customer_phone"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          string          `json:"status"`
	OrderDate       time.Time       `json:"order_date"`
	Items           []OrderItem     `json:"items"`
}

type OrderItem struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
	IsAvailable bool            `json:"is_available"`
}

// AdminUser is a staff identity allowed into the admin backend.
// PasswordHash is a bcrypt hash and is never serialized.
type AdminUser struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

// Identity is the authenticated principal behind a request or a realtime
// connection. It is passed explicitly down the call chain.
type Identity struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	SessionID string `json:"session_id"`
}
