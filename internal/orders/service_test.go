package orders

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/go-menu-orders.git/internal/menu"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- in-memory fakes ----

// memMenu backs both the catalog and the ledger with one map guarded by a
// mutex, giving the same atomicity the conditional SQL update provides.
type memMenu struct {
	mu     sync.Mutex
	dishes map[int64]*menu.Dish
}

func newMemMenu(ds ...menu.Dish) *memMenu {
	m := &memMenu{dishes: make(map[int64]*menu.Dish)}
	for _, d := range ds {
		dd := d
		m.dishes[d.ID] = &dd
	}
	return m
}

func (m *memMenu) DishByID(_ context.Context, dishID int64) (*menu.Dish, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.dishes[dishID]
	if !ok {
		return nil, menu.ErrDishNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *memMenu) List(_ context.Context, _ menu.ListFilter) ([]menu.Dish, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]menu.Dish, 0, len(m.dishes))
	for _, d := range m.dishes {
		out = append(out, *d)
	}
	return out, len(out), nil
}

func (m *memMenu) Popular(_ context.Context, _ int) ([]menu.Dish, error) { return nil, nil }
func (m *memMenu) Search(_ context.Context, _ string) ([]menu.Dish, error) {
	return nil, nil
}

func (m *memMenu) Reserve(_ context.Context, dishID int64, qty int) error {
	if qty <= 0 {
		return menu.ErrInvalidQuantity
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.dishes[dishID]
	if !ok {
		return menu.ErrDishNotFound
	}
	if d.Stock < qty {
		return menu.ErrInsufficientStock
	}
	d.Stock -= qty
	d.OrderCount++
	return nil
}

func (m *memMenu) Release(_ context.Context, dishID int64, qty int) error {
	if qty <= 0 {
		return menu.ErrInvalidQuantity
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.dishes[dishID]
	if !ok {
		return menu.ErrDishNotFound
	}
	d.Stock += qty
	if d.OrderCount > 0 {
		d.OrderCount--
	}
	return nil
}

func (m *memMenu) Restock(_ context.Context, dishID int64, qty int) error {
	if qty == 0 {
		return menu.ErrInvalidQuantity
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.dishes[dishID]
	if !ok {
		return menu.ErrDishNotFound
	}
	if d.Stock+qty < 0 {
		return menu.ErrInsufficientStock
	}
	d.Stock += qty
	return nil
}

func (m *memMenu) stock(dishID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dishes[dishID].Stock
}

func (m *memMenu) orderCount(dishID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dishes[dishID].OrderCount
}

func (m *memMenu) setPrice(dishID int64, price string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dishes[dishID].Price = decimal.RequireFromString(price)
}

// memStore implements Store with the same per-order transition atomicity as
// the SQL repo, plus failure injection for the storage-failure paths.
type memStore struct {
	mu     sync.Mutex
	orders map[string]*Order
	items  map[string][]OrderItem

	createErr     error // returned once by CreateWithItems when set
	rejectCreates int   // return ErrOrderExists this many times
	createCalls   int
}

func newMemStore() *memStore {
	return &memStore{
		orders: make(map[string]*Order),
		items:  make(map[string][]OrderItem),
	}
}

func (s *memStore) CreateWithItems(_ context.Context, o *Order, items []OrderItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	if s.rejectCreates > 0 {
		s.rejectCreates--
		return ErrOrderExists
	}
	if s.createErr != nil {
		err := s.createErr
		s.createErr = nil
		return err
	}
	if _, ok := s.orders[o.OrderNumber]; ok {
		return ErrOrderExists
	}
	now := time.Now()
	o.CreatedAt, o.UpdatedAt = now, now
	cp := *o
	s.orders[o.OrderNumber] = &cp
	s.items[o.OrderNumber] = append([]OrderItem(nil), items...)
	return nil
}

func (s *memStore) ByNumber(_ context.Context, orderNumber string) (*Order, []OrderItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderNumber]
	if !ok {
		return nil, nil, ErrOrderNotFound
	}
	cp := *o
	return &cp, append([]OrderItem(nil), s.items[orderNumber]...), nil
}

func (s *memStore) List(_ context.Context, f ListFilter) ([]Order, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Order
	for _, o := range s.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.CustomerEmail != "" && o.Customer.Email != f.CustomerEmail {
			continue
		}
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (s *memStore) TransitionStatus(_ context.Context, orderNumber string, from []Status, to Status) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderNumber]
	if !ok {
		return "", ErrOrderNotFound
	}
	for _, f := range from {
		if o.Status == f {
			prev := o.Status
			o.Status = to
			o.UpdatedAt = time.Now()
			return prev, nil
		}
	}
	return "", ErrInvalidTransition
}

func (s *memStore) MarkNotified(_ context.Context, orderNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderNumber]
	if !ok {
		return ErrOrderNotFound
	}
	o.NotificationSent = true
	return nil
}

// ---- helpers ----

func dish(id int64, price string, stock int) menu.Dish {
	return menu.Dish{
		ID:       id,
		Name:     "dish",
		Category: "Chicken",
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		IsActive: true,
	}
}

func newTestService(ds ...menu.Dish) (*Service, *memMenu, *memStore) {
	mm := newMemMenu(ds...)
	st := newMemStore()
	return &Service{Catalog: mm, Ledger: mm, Store: st}, mm, st
}

var (
	testCustomer = CustomerInfo{Name: "Jane", Email: "jane@example.com", Phone: "+100"}
	testDelivery = DeliveryInfo{Date: "2026-09-01", Time: "12:00-13:00", Address: "1 Main St"}
)

// ---- PlaceOrder ----

func TestPlaceOrder_TotalsFromSnapshots(t *testing.T) {
	svc, _, _ := newTestService(dish(1, "10.00", 10), dish(2, "5.00", 10))
	ctx := context.Background()

	o, items, err := svc.PlaceOrder(ctx, testCustomer, testDelivery, []LineItem{
		{DishID: 1, Quantity: 2},
		{DishID: 2, Quantity: 1},
	})
	require.NoError(t, err)

	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("25.00")), "total=%s", o.TotalAmount)
	assert.Equal(t, 3, o.TotalItems)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, "unpaid", o.PaymentStatus)
	assert.True(t, strings.HasPrefix(o.OrderNumber, "ORD"))

	require.Len(t, items, 2)
	assert.True(t, items[0].Subtotal.Equal(decimal.RequireFromString("20.00")))
	assert.True(t, items[1].Subtotal.Equal(decimal.RequireFromString("5.00")))

	// totalAmount == sum of snapshot subtotals
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Subtotal)
	}
	assert.True(t, o.TotalAmount.Equal(sum))
}

func TestPlaceOrder_LaterPriceChangeDoesNotAlterOrder(t *testing.T) {
	svc, mm, _ := newTestService(dish(1, "10.00", 10))
	ctx := context.Background()

	o, _, err := svc.PlaceOrder(ctx, testCustomer, testDelivery, []LineItem{{DishID: 1, Quantity: 2}})
	require.NoError(t, err)

	mm.setPrice(1, "99.99")

	stored, items, err := svc.GetOrder(ctx, o.OrderNumber)
	require.NoError(t, err)
	assert.True(t, stored.TotalAmount.Equal(decimal.RequireFromString("20.00")))
	assert.True(t, items[0].Price.Equal(decimal.RequireFromString("10.00")))
}

func TestPlaceOrder_Empty(t *testing.T) {
	svc, _, st := newTestService(dish(1, "10.00", 10))

	_, _, err := svc.PlaceOrder(context.Background(), testCustomer, testDelivery, nil)
	assert.ErrorIs(t, err, ErrEmptyOrder)
	assert.Zero(t, st.createCalls)
}

func TestPlaceOrder_DishNotFound_NoStockTouched(t *testing.T) {
	svc, mm, _ := newTestService(dish(1, "10.00", 10))

	_, _, err := svc.PlaceOrder(context.Background(), testCustomer, testDelivery, []LineItem{
		{DishID: 1, Quantity: 2},
		{DishID: 99, Quantity: 1},
	})
	assert.ErrorIs(t, err, menu.ErrDishNotFound)
	// validation happens before any reservation
	assert.Equal(t, 10, mm.stock(1))
	assert.Zero(t, mm.orderCount(1))
}

func TestPlaceOrder_InvalidQuantity(t *testing.T) {
	svc, mm, _ := newTestService(dish(1, "10.00", 10))

	_, _, err := svc.PlaceOrder(context.Background(), testCustomer, testDelivery, []LineItem{
		{DishID: 1, Quantity: 0},
	})
	assert.ErrorIs(t, err, menu.ErrInvalidQuantity)
	assert.Equal(t, 10, mm.stock(1))
}

func TestPlaceOrder_InsufficientStock_RollsBackEarlierReservations(t *testing.T) {
	svc, mm, st := newTestService(dish(1, "10.00", 10), dish(2, "5.00", 1))

	_, _, err := svc.PlaceOrder(context.Background(), testCustomer, testDelivery, []LineItem{
		{DishID: 1, Quantity: 3}, // reserves fine
		{DishID: 2, Quantity: 5}, // fails, must roll dish 1 back
	})
	assert.ErrorIs(t, err, menu.ErrInsufficientStock)

	assert.Equal(t, 10, mm.stock(1), "reserved stock must be released")
	assert.Equal(t, 1, mm.stock(2))
	assert.Zero(t, mm.orderCount(1))
	assert.Zero(t, st.createCalls, "nothing persisted")
}

func TestPlaceOrder_ExactStock(t *testing.T) {
	svc, mm, _ := newTestService(dish(1, "10.00", 3))

	_, _, err := svc.PlaceOrder(context.Background(), testCustomer, testDelivery, []LineItem{
		{DishID: 1, Quantity: 3},
	})
	require.NoError(t, err)
	assert.Zero(t, mm.stock(1))
}

func TestPlaceOrder_StorageFailureReleasesStock(t *testing.T) {
	svc, mm, st := newTestService(dish(1, "10.00", 10))
	st.createErr = assert.AnError

	_, _, err := svc.PlaceOrder(context.Background(), testCustomer, testDelivery, []LineItem{
		{DishID: 1, Quantity: 4},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 10, mm.stock(1), "stock must not leak on storage failure")
	assert.Zero(t, mm.orderCount(1))
}

func TestPlaceOrder_SuccessKeepsReservation(t *testing.T) {
	svc, mm, st := newTestService(dish(1, "10.00", 10))

	o, _, err := svc.PlaceOrder(context.Background(), testCustomer, testDelivery, []LineItem{
		{DishID: 1, Quantity: 4},
	})
	require.NoError(t, err)

	// persistence and the timestamp read happen in one call, so a successful
	// placement never triggers the rollback path afterwards
	assert.Equal(t, 1, st.createCalls)
	assert.Equal(t, 6, mm.stock(1), "stock stays reserved for the stored order")
	assert.False(t, o.CreatedAt.IsZero())
	assert.False(t, o.UpdatedAt.IsZero())

	stored, _, err := svc.GetOrder(context.Background(), o.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
}

func TestPlaceOrder_RegeneratesNumberOnCollision(t *testing.T) {
	svc, _, st := newTestService(dish(1, "10.00", 10))
	st.rejectCreates = 1

	o, _, err := svc.PlaceOrder(context.Background(), testCustomer, testDelivery, []LineItem{
		{DishID: 1, Quantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, st.createCalls)
	assert.NotEmpty(t, o.OrderNumber)
}

func TestPlaceOrder_GivesUpAfterRepeatedCollisions(t *testing.T) {
	svc, mm, st := newTestService(dish(1, "10.00", 10))
	st.rejectCreates = numberAttempts

	_, _, err := svc.PlaceOrder(context.Background(), testCustomer, testDelivery, []LineItem{
		{DishID: 1, Quantity: 1},
	})
	assert.ErrorIs(t, err, ErrOrderExists)
	assert.Equal(t, 10, mm.stock(1), "stock released after giving up")
}

func TestPlaceOrder_ConcurrentPlacements_StockNeverNegative(t *testing.T) {
	const stock, qty, callers = 10, 3, 20
	svc, mm, _ := newTestService(dish(42, "8.50", stock))

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.PlaceOrder(context.Background(), testCustomer, testDelivery, []LineItem{
				{DishID: 42, Quantity: qty},
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, menu.ErrInsufficientStock)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, stock/qty, succeeded)
	assert.Equal(t, stock-succeeded*qty, mm.stock(42))
	assert.GreaterOrEqual(t, mm.stock(42), 0)
}

// ---- CancelOrder ----

func TestCancelOrder_RestoresStockExactlyOnce(t *testing.T) {
	svc, mm, _ := newTestService(dish(42, "8.50", 5))
	ctx := context.Background()

	// Order A takes 3 of 5.
	a, _, err := svc.PlaceOrder(ctx, testCustomer, testDelivery, []LineItem{{DishID: 42, Quantity: 3}})
	require.NoError(t, err)
	assert.Equal(t, 2, mm.stock(42))

	// Order B wants 3 more: rejected, stock untouched.
	_, _, err = svc.PlaceOrder(ctx, testCustomer, testDelivery, []LineItem{{DishID: 42, Quantity: 3}})
	assert.ErrorIs(t, err, menu.ErrInsufficientStock)
	assert.Equal(t, 2, mm.stock(42))

	// Cancelling A restores to 5.
	released, err := svc.CancelOrder(ctx, a.OrderNumber)
	require.NoError(t, err)
	require.Len(t, released, 1)
	assert.Equal(t, 3, released[0].Quantity)
	assert.Equal(t, 5, mm.stock(42))

	// Second cancel is rejected and stock stays put.
	_, err = svc.CancelOrder(ctx, a.OrderNumber)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 5, mm.stock(42))

	o, _, err := svc.GetOrder(ctx, a.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, o.Status)
}

func TestCancelOrder_DecrementsPopularityOnce(t *testing.T) {
	svc, mm, _ := newTestService(dish(1, "10.00", 10))
	ctx := context.Background()

	o, _, err := svc.PlaceOrder(ctx, testCustomer, testDelivery, []LineItem{{DishID: 1, Quantity: 2}})
	require.NoError(t, err)
	assert.Equal(t, 1, mm.orderCount(1))

	_, err = svc.CancelOrder(ctx, o.OrderNumber)
	require.NoError(t, err)
	assert.Zero(t, mm.orderCount(1))
}

func TestCancelOrder_NotFound(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.CancelOrder(context.Background(), "ORD00000000000000000000")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestCancelOrder_CompletedOrderRejected(t *testing.T) {
	svc, mm, _ := newTestService(dish(1, "10.00", 10))
	ctx := context.Background()

	o, _, err := svc.PlaceOrder(ctx, testCustomer, testDelivery, []LineItem{{DishID: 1, Quantity: 2}})
	require.NoError(t, err)
	for _, s := range []Status{StatusConfirmed, StatusPreparing, StatusDelivering, StatusCompleted} {
		_, _, err = svc.UpdateStatus(ctx, o.OrderNumber, s)
		require.NoError(t, err)
	}

	_, err = svc.CancelOrder(ctx, o.OrderNumber)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 8, mm.stock(1), "completed orders keep their stock consumed")
}

func TestCancelOrder_ConcurrentCancels_ReleaseOnce(t *testing.T) {
	svc, mm, _ := newTestService(dish(1, "10.00", 10))
	ctx := context.Background()

	o, _, err := svc.PlaceOrder(ctx, testCustomer, testDelivery, []LineItem{{DishID: 1, Quantity: 4}})
	require.NoError(t, err)
	assert.Equal(t, 6, mm.stock(1))

	const callers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.CancelOrder(ctx, o.OrderNumber); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded, "exactly one cancel may win")
	assert.Equal(t, 10, mm.stock(1), "stock restored exactly once")
}

// ---- UpdateStatus ----

func TestUpdateStatus_WalksForward(t *testing.T) {
	svc, _, _ := newTestService(dish(1, "10.00", 10))
	ctx := context.Background()

	o, _, err := svc.PlaceOrder(ctx, testCustomer, testDelivery, []LineItem{{DishID: 1, Quantity: 1}})
	require.NoError(t, err)

	for _, s := range []Status{StatusConfirmed, StatusPreparing, StatusDelivering, StatusCompleted} {
		got, _, err := svc.UpdateStatus(ctx, o.OrderNumber, s)
		require.NoError(t, err)
		assert.Equal(t, s, got.Status)
	}
}

func TestUpdateStatus_RejectsBackwardAndSkips(t *testing.T) {
	svc, _, _ := newTestService(dish(1, "10.00", 10))
	ctx := context.Background()

	o, _, err := svc.PlaceOrder(ctx, testCustomer, testDelivery, []LineItem{{DishID: 1, Quantity: 1}})
	require.NoError(t, err)

	// pending -> preparing skips confirmed
	_, _, err = svc.UpdateStatus(ctx, o.OrderNumber, StatusPreparing)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, _, err = svc.UpdateStatus(ctx, o.OrderNumber, StatusConfirmed)
	require.NoError(t, err)

	// backwards
	_, _, err = svc.UpdateStatus(ctx, o.OrderNumber, StatusPending)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateStatus_CompletedIsImmutable(t *testing.T) {
	svc, _, _ := newTestService(dish(1, "10.00", 10))
	ctx := context.Background()

	o, _, err := svc.PlaceOrder(ctx, testCustomer, testDelivery, []LineItem{{DishID: 1, Quantity: 1}})
	require.NoError(t, err)
	for _, s := range []Status{StatusConfirmed, StatusPreparing, StatusDelivering, StatusCompleted} {
		_, _, err = svc.UpdateStatus(ctx, o.OrderNumber, s)
		require.NoError(t, err)
	}

	_, _, err = svc.UpdateStatus(ctx, o.OrderNumber, StatusConfirmed)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateStatus_ToCancelledReleasesStock(t *testing.T) {
	svc, mm, _ := newTestService(dish(1, "10.00", 10))
	ctx := context.Background()

	o, _, err := svc.PlaceOrder(ctx, testCustomer, testDelivery, []LineItem{{DishID: 1, Quantity: 4}})
	require.NoError(t, err)
	assert.Equal(t, 6, mm.stock(1))

	got, released, err := svc.UpdateStatus(ctx, o.OrderNumber, StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.Equal(t, 10, mm.stock(1))

	// the released items are reported just like a direct cancellation reports
	// them, so either route can announce what went back on the shelf
	require.Len(t, released, 1)
	assert.Equal(t, int64(1), released[0].DishID)
	assert.Equal(t, 4, released[0].Quantity)
}

func TestUpdateStatus_ForwardMovesReleaseNothing(t *testing.T) {
	svc, _, _ := newTestService(dish(1, "10.00", 10))
	ctx := context.Background()

	o, _, err := svc.PlaceOrder(ctx, testCustomer, testDelivery, []LineItem{{DishID: 1, Quantity: 2}})
	require.NoError(t, err)

	_, released, err := svc.UpdateStatus(ctx, o.OrderNumber, StatusConfirmed)
	require.NoError(t, err)
	assert.Empty(t, released)
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	svc, _, _ := newTestService(dish(1, "10.00", 10))
	ctx := context.Background()

	o, _, err := svc.PlaceOrder(ctx, testCustomer, testDelivery, []LineItem{{DishID: 1, Quantity: 1}})
	require.NoError(t, err)

	_, _, err = svc.UpdateStatus(ctx, o.OrderNumber, Status("shipped"))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateStatus_OrderNotFound(t *testing.T) {
	svc, _, _ := newTestService()
	_, _, err := svc.UpdateStatus(context.Background(), "missing", StatusConfirmed)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
