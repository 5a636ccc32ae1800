package menu

import (
	"time"

	"github.com/shopspring/decimal"
)

type Dish struct {
	ID         int64           `json:"dish_id"`
	Name       string          `json:"name"`
	NameEN     string          `json:"name_en"`
	Category   string          `json:"category"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	OrderCount int             `json:"order_count"`
	IsActive   bool            `json:"is_active"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ListFilter narrows and pages a catalog listing.
type ListFilter struct {
	Category string // empty or "All" = no filter
	IsActive *bool
	SortBy   string // order_count | price | created_at
	Order    string // asc | desc
	Limit    int
	Skip     int
}
