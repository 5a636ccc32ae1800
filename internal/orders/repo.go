package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the persistence surface the service needs. Implemented by Repo on
// Postgres and by an in-memory fake in tests.
type Store interface {
	// CreateWithItems persists the order and its items as one unit. Returns
	// ErrOrderExists when the order number is already taken.
	CreateWithItems(ctx context.Context, o *Order, items []OrderItem) error
	ByNumber(ctx context.Context, orderNumber string) (*Order, []OrderItem, error)
	List(ctx context.Context, f ListFilter) ([]Order, int, error)
	// TransitionStatus sets the status to `to` only if the current status is
	// one of `from`, and reports the status it replaced. The check and the
	// write are atomic relative to other transitions on the same order.
	TransitionStatus(ctx context.Context, orderNumber string, from []Status, to Status) (Status, error)
	MarkNotified(ctx context.Context, orderNumber string) error
}

type Repo struct{ DB *pgxpool.Pool }

const uniqueViolation = "23505"

func (r *Repo) CreateWithItems(ctx context.Context, o *Order, items []OrderItem) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// RETURNING keeps the write and the timestamp read one unit: once this
	// function returns an error, nothing was committed, so the caller may
	// safely release reserved stock.
	err = tx.QueryRow(ctx, `
		INSERT INTO orders(order_number, status, payment_status,
			customer_name, customer_email, customer_phone,
			delivery_date, delivery_time, delivery_address, notes,
			total_amount, total_items)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING created_at, updated_at`,
		o.OrderNumber, o.Status, o.PaymentStatus,
		o.Customer.Name, o.Customer.Email, o.Customer.Phone,
		o.Delivery.Date, o.Delivery.Time, o.Delivery.Address, o.Delivery.Notes,
		o.TotalAmount, o.TotalItems,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrOrderExists
		}
		return err
	}

	for _, it := range items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(order_number, dish_id, dish_name, dish_name_en,
				category, price, quantity, subtotal)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			it.OrderNumber, it.DishID, it.DishName, it.DishNameEN,
			it.Category, it.Price, it.Quantity, it.Subtotal,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

const orderColumns = `order_number, status, payment_status,
	customer_name, customer_email, customer_phone,
	delivery_date, delivery_time, delivery_address, notes,
	total_amount, total_items, notification_sent, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.OrderNumber, &o.Status, &o.PaymentStatus,
		&o.Customer.Name, &o.Customer.Email, &o.Customer.Phone,
		&o.Delivery.Date, &o.Delivery.Time, &o.Delivery.Address, &o.Delivery.Notes,
		&o.TotalAmount, &o.TotalItems, &o.NotificationSent, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repo) ByNumber(ctx context.Context, orderNumber string) (*Order, []OrderItem, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_number=$1`, orderNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	items, err := r.itemsByNumber(ctx, orderNumber)
	if err != nil {
		return nil, nil, err
	}
	return o, items, nil
}

func (r *Repo) itemsByNumber(ctx context.Context, orderNumber string) ([]OrderItem, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT order_number, dish_id, dish_name, dish_name_en, category, price, quantity, subtotal
		FROM order_items WHERE order_number=$1 ORDER BY id`, orderNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.OrderNumber, &it.DishID, &it.DishName, &it.DishNameEN,
			&it.Category, &it.Price, &it.Quantity, &it.Subtotal); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *Repo) List(ctx context.Context, f ListFilter) ([]Order, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if f.CustomerEmail != "" {
		args = append(args, f.CustomerEmail)
		where += fmt.Sprintf(" AND customer_email=$%d", len(args))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where += fmt.Sprintf(" AND status=$%d", len(args))
	}
	if f.DeliveryDate != "" {
		args = append(args, f.DeliveryDate)
		where += fmt.Sprintf(" AND delivery_date=$%d", len(args))
	}

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, f.Skip)
	q := `SELECT ` + orderColumns + ` FROM orders` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.OrderNumber, &o.Status, &o.PaymentStatus,
			&o.Customer.Name, &o.Customer.Email, &o.Customer.Phone,
			&o.Delivery.Date, &o.Delivery.Time, &o.Delivery.Address, &o.Delivery.Notes,
			&o.TotalAmount, &o.TotalItems, &o.NotificationSent, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

// TransitionStatus locks the order row, so the status check and the write are
// one step relative to any concurrent transition on the same order.
func (r *Repo) TransitionStatus(ctx context.Context, orderNumber string, from []Status, to Status) (Status, error) {
	allowed := make([]string, 0, len(from))
	for _, s := range from {
		allowed = append(allowed, string(s))
	}

	var prev string
	err := r.DB.QueryRow(ctx, `
		UPDATE orders o
		SET status = $2, updated_at = now()
		FROM (SELECT order_number, status AS prev FROM orders WHERE order_number=$1 FOR UPDATE) cur
		WHERE o.order_number = cur.order_number AND cur.prev = ANY($3)
		RETURNING cur.prev`, orderNumber, string(to), allowed).Scan(&prev)
	if errors.Is(err, pgx.ErrNoRows) {
		// Disambiguate: missing order vs illegal transition.
		var exists bool
		if err2 := r.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE order_number=$1)`,
			orderNumber).Scan(&exists); err2 != nil {
			return "", err2
		}
		if !exists {
			return "", ErrOrderNotFound
		}
		return "", ErrInvalidTransition
	}
	if err != nil {
		return "", err
	}
	return Status(prev), nil
}

func (r *Repo) MarkNotified(ctx context.Context, orderNumber string) error {
	ct, err := r.DB.Exec(ctx,
		`UPDATE orders SET notification_sent = TRUE, updated_at = now() WHERE order_number=$1`,
		orderNumber)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}
