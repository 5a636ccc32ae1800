package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type CustomerInfo struct {
	Name  string `json:"customer_name"`
	Email string `json:"customer_email"`
	Phone string `json:"customer_phone"`
}

type DeliveryInfo struct {
	Date    string `json:"delivery_date"`
	Time    string `json:"delivery_time"`
	Address string `json:"delivery_address"`
	Notes   string `json:"notes"`
}

type Order struct {
	OrderNumber      string          `json:"order_number"`
	Status           Status          `json:"status"`
	PaymentStatus    string          `json:"payment_status"`
	Customer         CustomerInfo    `json:"customer"`
	Delivery         DeliveryInfo    `json:"delivery"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	TotalItems       int             `json:"total_items"`
	NotificationSent bool            `json:"notification_sent"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// OrderItem snapshots the dish at order time; later catalog edits never
// change a historical order.
type OrderItem struct {
	OrderNumber string          `json:"order_number"`
	DishID      int64           `json:"dish_id"`
	DishName    string          `json:"dish_name"`
	DishNameEN  string          `json:"dish_name_en"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// LineItem is what the caller submits: a dish and how many.
type LineItem struct {
	DishID   int64 `json:"dish_id"`
	Quantity int   `json:"quantity"`
}

// ListFilter narrows an order listing.
type ListFilter struct {
	CustomerEmail string
	Status        Status
	DeliveryDate  string
	Limit         int
	Skip          int
}
