package orders

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated   = "OrderCreated"
	EventStatusChanged  = "OrderStatusChanged"
	EventOrderCancelled = "OrderCancelled"
	EventOrderNotified  = "OrderNotified"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "menu-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // biasanya order_number
	Payload       json.RawMessage `json:"payload"`
}

// ---- Payload tipe per event ----

type ItemQty struct {
	DishID int64 `json:"dish_id"`
	Qty    int   `json:"qty"`
}

type OrderCreatedPayload struct {
	OrderNumber   string          `json:"order_number"`
	CustomerEmail string          `json:"customer_email"`
	Items         []ItemQty       `json:"items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TotalItems    int             `json:"total_items"`
}

type StatusChangedPayload struct {
	OrderNumber string `json:"order_number"`
	To          Status `json:"to"`
}

type OrderCancelledPayload struct {
	OrderNumber string    `json:"order_number"`
	Released    []ItemQty `json:"released"` // stock restored per dish
}

type OrderNotifiedPayload struct {
	OrderNumber string `json:"order_number"`
	Channel     string `json:"channel"` // e.g., EMAIL
}
