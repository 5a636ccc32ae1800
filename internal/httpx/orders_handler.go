package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	kafkax "github.com/ariefcatur/go-menu-orders.git/internal/kafka"
	"github.com/ariefcatur/go-menu-orders.git/internal/orders"
	"github.com/ariefcatur/go-menu-orders.git/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

type OrdersHandler struct {
	Service        *orders.Service
	ProducerNew    *kafkax.Producer // publish order.created
	ProducerStatus *kafkax.Producer // publish order.status
	ProducerCancel *kafkax.Producer // publish order.cancelled
	Redis          *redis.Client
	Name           string
}

type CreateOrderReq struct {
	CustomerName    string            `json:"customer_name"`
	CustomerEmail   string            `json:"customer_email"`
	CustomerPhone   string            `json:"customer_phone"`
	DeliveryDate    string            `json:"delivery_date"`
	DeliveryTime    string            `json:"delivery_time"`
	DeliveryAddress string            `json:"delivery_address"`
	Notes           string            `json:"notes"`
	Items           []orders.LineItem `json:"items"`
}

type UpdateStatusReq struct {
	Status orders.Status `json:"status"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{orderNumber}", h.getOrder)
	r.Patch("/orders/{orderNumber}/status", h.updateStatus)
	r.Delete("/orders/{orderNumber}", h.cancelOrder)
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid json"})
		return
	}
	if req.DeliveryDate == "" || req.DeliveryTime == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "missing delivery fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, items, err := h.Service.PlaceOrder(ctx,
		orders.CustomerInfo{Name: req.CustomerName, Email: req.CustomerEmail, Phone: req.CustomerPhone},
		orders.DeliveryInfo{Date: req.DeliveryDate, Time: req.DeliveryTime, Address: req.DeliveryAddress, Notes: req.Notes},
		req.Items,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cacheStatus(ctx, o.OrderNumber, o.Status)
	h.publish(h.ProducerNew, orders.EventOrderCreated, o.OrderNumber, r.Header.Get("X-Request-Id"),
		orders.OrderCreatedPayload{
			OrderNumber:   o.OrderNumber,
			CustomerEmail: o.Customer.Email,
			Items:         toItemQtys(items),
			TotalAmount:   o.TotalAmount,
			TotalItems:    o.TotalItems,
		})

	writeData(w, http.StatusCreated, map[string]any{"order": o, "items": items})
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := orders.ListFilter{
		CustomerEmail: q.Get("customer_email"),
		Status:        orders.Status(q.Get("status")),
		DeliveryDate:  q.Get("delivery_date"),
		Limit:         atoiDefault(q.Get("limit"), 50),
		Skip:          atoiDefault(q.Get("skip"), 0),
	}

	out, total, err := h.Service.ListOrders(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true, "data": out, "total": total, "limit": f.Limit, "skip": f.Skip,
	})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderNumber := chi.URLParam(r, "orderNumber")

	o, items, err := h.Service.GetOrder(r.Context(), orderNumber)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"order": o, "items": items})
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	orderNumber := chi.URLParam(r, "orderNumber")

	var req UpdateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, released, err := h.Service.UpdateStatus(ctx, orderNumber, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cacheStatus(ctx, orderNumber, o.Status)
	h.publish(h.ProducerStatus, orders.EventStatusChanged, orderNumber, r.Header.Get("X-Request-Id"),
		orders.StatusChangedPayload{OrderNumber: orderNumber, To: o.Status})
	// A cancellation through this route releases stock just like DELETE does,
	// so downstream consumers get the same cancelled event either way.
	if o.Status == orders.StatusCancelled {
		h.publish(h.ProducerCancel, orders.EventOrderCancelled, orderNumber, r.Header.Get("X-Request-Id"),
			orders.OrderCancelledPayload{OrderNumber: orderNumber, Released: toItemQtys(released)})
	}

	writeData(w, http.StatusOK, o)
}

func (h *OrdersHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	orderNumber := chi.URLParam(r, "orderNumber")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	released, err := h.Service.CancelOrder(ctx, orderNumber)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cacheStatus(ctx, orderNumber, orders.StatusCancelled)
	h.publish(h.ProducerCancel, orders.EventOrderCancelled, orderNumber, r.Header.Get("X-Request-Id"),
		orders.OrderCancelledPayload{OrderNumber: orderNumber, Released: toItemQtys(released)})

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true, "message": "order cancelled", "released": released,
	})
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, orderNumber string, s orders.Status) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderNumber)
	_ = h.Redis.Set(ctx, key, fmt.Sprintf(`{"status":%q}`, s), redisx.TTLStatusCache).Err()
}

func (h *OrdersHandler) publish(p *kafkax.Producer, eventType, orderNumber, trace string, payload any) {
	if p == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Name,
		TraceID:       trace,
		CorrelationID: orderNumber,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(orders.PartitionKey(orderNumber), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func toItemQtys(items []orders.OrderItem) []orders.ItemQty {
	out := make([]orders.ItemQty, 0, len(items))
	for _, it := range items {
		out = append(out, orders.ItemQty{DishID: it.DishID, Qty: it.Quantity})
	}
	return out
}
