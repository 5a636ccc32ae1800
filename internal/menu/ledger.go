package menu

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Ledger is the only component allowed to move stock and the order counter.
type Ledger interface {
	// Reserve decrements stock by qty and bumps order_count, but only when
	// enough stock remains. Safe under concurrent callers on the same dish.
	Reserve(ctx context.Context, dishID int64, qty int) error
	// Release puts qty back and drops order_count by one (floored at zero).
	Release(ctx context.Context, dishID int64, qty int) error
	// Restock adjusts stock by qty (positive or negative) without touching
	// order_count. A negative adjustment may not take stock below zero.
	Restock(ctx context.Context, dishID int64, qty int) error
}

type LedgerRepo struct{ DB *pgxpool.Pool }

// Reserve relies on the database evaluating the condition and the decrement
// as one statement, so two reservations racing on the same dish can never
// both pass the stock check. No row lock needed.
func (r *LedgerRepo) Reserve(ctx context.Context, dishID int64, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	ct, err := r.DB.Exec(ctx, `
		UPDATE dishes
		SET stock = stock - $2, order_count = order_count + 1, updated_at = now()
		WHERE id = $1 AND stock >= $2`, dishID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 1 {
		return nil
	}

	// Zero rows: either the dish is gone or the stock check failed.
	var exists bool
	if err := r.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM dishes WHERE id=$1)`, dishID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrDishNotFound
	}
	return ErrInsufficientStock
}

// Restock is the manual stock adjustment, same single-statement guard as
// Reserve so a negative adjustment racing an order can never go below zero.
func (r *LedgerRepo) Restock(ctx context.Context, dishID int64, qty int) error {
	if qty == 0 {
		return ErrInvalidQuantity
	}
	ct, err := r.DB.Exec(ctx, `
		UPDATE dishes
		SET stock = stock + $2, updated_at = now()
		WHERE id = $1 AND stock + $2 >= 0`, dishID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM dishes WHERE id=$1)`, dishID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrDishNotFound
	}
	return ErrInsufficientStock
}

func (r *LedgerRepo) Release(ctx context.Context, dishID int64, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	ct, err := r.DB.Exec(ctx, `
		UPDATE dishes
		SET stock = stock + $2, order_count = GREATEST(order_count - 1, 0), updated_at = now()
		WHERE id = $1`, dishID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrDishNotFound
	}
	return nil
}
