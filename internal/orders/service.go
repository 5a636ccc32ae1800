package orders

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ariefcatur/go-menu-orders.git/internal/menu"
	"github.com/shopspring/decimal"
)

// Service orchestrates catalog lookups, the stock ledger and order
// persistence. Placement leaves either a fully reserved order or no net
// stock change; cancellation releases reserved stock exactly once.
type Service struct {
	Catalog menu.Catalog
	Ledger  menu.Ledger
	Store   Store
}

// numberAttempts bounds regeneration when an order number collides.
const numberAttempts = 3

func (s *Service) PlaceOrder(ctx context.Context, cust CustomerInfo, deliv DeliveryInfo, items []LineItem) (*Order, []OrderItem, error) {
	if len(items) == 0 {
		return nil, nil, ErrEmptyOrder
	}

	// Validate everything before touching stock: missing dishes and bad
	// quantities need no rollback.
	dishes := make(map[int64]*menu.Dish, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, nil, fmt.Errorf("%w: dish %d", menu.ErrInvalidQuantity, it.DishID)
		}
		d, err := s.Catalog.DishByID(ctx, it.DishID)
		if errors.Is(err, menu.ErrDishNotFound) {
			return nil, nil, fmt.Errorf("%w: dish %d", menu.ErrDishNotFound, it.DishID)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("lookup dish %d: %w", it.DishID, err)
		}
		dishes[it.DishID] = d
	}

	// Reserve item by item. Each reservation is an independent atomic step,
	// so a failure part-way needs a compensating release of what came before.
	reserved := make([]LineItem, 0, len(items))
	rollback := func() {
		for _, r := range reserved {
			if err := s.Ledger.Release(ctx, r.DishID, r.Quantity); err != nil {
				log.Printf("release dish %d after failed order: %v", r.DishID, err)
			}
		}
	}
	for _, it := range items {
		if err := s.Ledger.Reserve(ctx, it.DishID, it.Quantity); err != nil {
			rollback()
			return nil, nil, fmt.Errorf("%w: dish %d", err, it.DishID)
		}
		reserved = append(reserved, it)
	}

	// Snapshot prices and compute totals from what was actually reserved.
	totalAmount := decimal.Zero
	totalItems := 0
	orderItems := make([]OrderItem, 0, len(items))
	for _, it := range items {
		d := dishes[it.DishID]
		subtotal := d.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		totalAmount = totalAmount.Add(subtotal)
		totalItems += it.Quantity
		orderItems = append(orderItems, OrderItem{
			DishID:     d.ID,
			DishName:   d.Name,
			DishNameEN: d.NameEN,
			Category:   d.Category,
			Price:      d.Price,
			Quantity:   it.Quantity,
			Subtotal:   subtotal,
		})
	}

	o := &Order{
		Status:        StatusPending,
		PaymentStatus: "unpaid",
		Customer:      cust,
		Delivery:      deliv,
		TotalAmount:   totalAmount,
		TotalItems:    totalItems,
	}

	// Persist order + items as one unit, regenerating the order number on
	// the rare collision. Any other storage failure must hand the reserved
	// stock back before surfacing.
	var err error
	for attempt := 0; attempt < numberAttempts; attempt++ {
		o.OrderNumber = GenerateOrderNumber()
		for i := range orderItems {
			orderItems[i].OrderNumber = o.OrderNumber
		}
		err = s.Store.CreateWithItems(ctx, o, orderItems)
		if !errors.Is(err, ErrOrderExists) {
			break
		}
	}
	if err != nil {
		rollback()
		return nil, nil, fmt.Errorf("persist order: %w", err)
	}

	return o, orderItems, nil
}

// CancelOrder moves the order into cancelled and restores the stock its line
// items reserved. The claim on the cancelled status is atomic, so of any
// number of concurrent attempts exactly one releases stock; the rest get
// ErrInvalidTransition.
func (s *Service) CancelOrder(ctx context.Context, orderNumber string) ([]OrderItem, error) {
	_, items, err := s.Store.ByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	if _, err := s.Store.TransitionStatus(ctx, orderNumber, Cancellable(), StatusCancelled); err != nil {
		return nil, err
	}

	for _, it := range items {
		if err := s.Ledger.Release(ctx, it.DishID, it.Quantity); err != nil {
			// The order is already cancelled; surface the failure rather
			// than retrying inside the core.
			return nil, fmt.Errorf("release dish %d: %w", it.DishID, err)
		}
	}
	return items, nil
}

// UpdateStatus advances the order to newStatus under the transition rules.
// Moving into cancelled goes through CancelOrder so the stock release happens
// with it; the released items come back so callers can report them the same
// way a direct cancellation would.
func (s *Service) UpdateStatus(ctx context.Context, orderNumber string, newStatus Status) (*Order, []OrderItem, error) {
	if !IsValid(newStatus) {
		return nil, nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, newStatus)
	}

	var released []OrderItem
	if newStatus == StatusCancelled {
		items, err := s.CancelOrder(ctx, orderNumber)
		if err != nil {
			return nil, nil, err
		}
		released = items
	} else {
		if _, err := s.Store.TransitionStatus(ctx, orderNumber, sourcesOf(newStatus), newStatus); err != nil {
			return nil, nil, err
		}
	}

	o, _, err := s.Store.ByNumber(ctx, orderNumber)
	if err != nil {
		return nil, nil, err
	}
	return o, released, nil
}

func (s *Service) GetOrder(ctx context.Context, orderNumber string) (*Order, []OrderItem, error) {
	return s.Store.ByNumber(ctx, orderNumber)
}

func (s *Service) ListOrders(ctx context.Context, f ListFilter) ([]Order, int, error) {
	return s.Store.List(ctx, f)
}

func (s *Service) GetDish(ctx context.Context, dishID int64) (*menu.Dish, error) {
	return s.Catalog.DishByID(ctx, dishID)
}

// sourcesOf lists the statuses that may legally move into target.
func sourcesOf(target Status) []Status {
	var out []Status
	for from, nexts := range validNext {
		if nexts[target] {
			out = append(out, from)
		}
	}
	return out
}
