package menu

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Catalog is the read side of the menu: lookups and listings, no stock
// mutation. Stock moves only through the Ledger.
type Catalog interface {
	DishByID(ctx context.Context, dishID int64) (*Dish, error)
	List(ctx context.Context, f ListFilter) ([]Dish, int, error)
	Popular(ctx context.Context, limit int) ([]Dish, error)
	Search(ctx context.Context, keyword string) ([]Dish, error)
}

type CatalogRepo struct{ DB *pgxpool.Pool }

const dishColumns = `id, name, name_en, category, price, stock, order_count, is_active, created_at, updated_at`

func scanDish(row pgx.Row) (*Dish, error) {
	var d Dish
	err := row.Scan(&d.ID, &d.Name, &d.NameEN, &d.Category, &d.Price, &d.Stock,
		&d.OrderCount, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *CatalogRepo) DishByID(ctx context.Context, dishID int64) (*Dish, error) {
	d, err := scanDish(r.DB.QueryRow(ctx, `SELECT `+dishColumns+` FROM dishes WHERE id=$1`, dishID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDishNotFound
	}
	return d, err
}

var sortColumns = map[string]string{
	"order_count": "order_count",
	"price":       "price",
	"created_at":  "created_at",
}

func (r *CatalogRepo) List(ctx context.Context, f ListFilter) ([]Dish, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if f.Category != "" && f.Category != "All" {
		args = append(args, f.Category)
		where += fmt.Sprintf(" AND category=$%d", len(args))
	}
	if f.IsActive != nil {
		args = append(args, *f.IsActive)
		where += fmt.Sprintf(" AND is_active=$%d", len(args))
	}

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM dishes`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sortBy, ok := sortColumns[f.SortBy]
	if !ok {
		sortBy = "order_count"
	}
	dir := "DESC"
	if f.Order == "asc" {
		dir = "ASC"
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, f.Skip)
	q := `SELECT ` + dishColumns + ` FROM dishes` + where +
		fmt.Sprintf(` ORDER BY %s %s LIMIT $%d OFFSET $%d`, sortBy, dir, len(args)-1, len(args))

	out, err := r.queryDishes(ctx, q, args...)
	return out, total, err
}

func (r *CatalogRepo) Popular(ctx context.Context, limit int) ([]Dish, error) {
	if limit <= 0 {
		limit = 10
	}
	return r.queryDishes(ctx, `SELECT `+dishColumns+` FROM dishes
		WHERE is_active ORDER BY order_count DESC LIMIT $1`, limit)
}

// Search matches name, english name or category, case-insensitive. Plain
// substring match; no ranking.
func (r *CatalogRepo) Search(ctx context.Context, keyword string) ([]Dish, error) {
	pattern := "%" + keyword + "%"
	return r.queryDishes(ctx, `SELECT `+dishColumns+` FROM dishes
		WHERE name ILIKE $1 OR name_en ILIKE $1 OR category ILIKE $1
		ORDER BY order_count DESC`, pattern)
}

func (r *CatalogRepo) queryDishes(ctx context.Context, q string, args ...any) ([]Dish, error) {
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Dish
	for rows.Next() {
		var d Dish
		if err := rows.Scan(&d.ID, &d.Name, &d.NameEN, &d.Category, &d.Price, &d.Stock,
			&d.OrderCount, &d.IsActive, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
