package stats

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type CategoryStat struct {
	Category    string          `json:"category"`
	Count       int             `json:"count"`
	AvgPrice    decimal.Decimal `json:"avg_price"`
	TotalStock  int             `json:"total_stock"`
	TotalOrders int             `json:"total_orders"`
}

type DishStats struct {
	TotalDishes int            `json:"total_dishes"`
	TotalStock  int            `json:"total_stock"`
	ByCategory  []CategoryStat `json:"by_category"`
}

type StatusStat struct {
	Status      string          `json:"status"`
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type OrderStats struct {
	TotalOrders  int             `json:"total_orders"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	ByStatus     []StatusStat    `json:"by_status"`
}

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) DishStats(ctx context.Context) (*DishStats, error) {
	var out DishStats
	err := r.DB.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(stock), 0)
		FROM dishes WHERE is_active`).Scan(&out.TotalDishes, &out.TotalStock)
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT category, COUNT(*), COALESCE(ROUND(AVG(price), 2), 0),
		       COALESCE(SUM(stock), 0), COALESCE(SUM(order_count), 0)
		FROM dishes WHERE is_active
		GROUP BY category ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c CategoryStat
		if err := rows.Scan(&c.Category, &c.Count, &c.AvgPrice, &c.TotalStock, &c.TotalOrders); err != nil {
			return nil, err
		}
		out.ByCategory = append(out.ByCategory, c)
	}
	return &out, rows.Err()
}

func (r *Repo) OrderStats(ctx context.Context) (*OrderStats, error) {
	var out OrderStats
	err := r.DB.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total_amount), 0) FROM orders`).
		Scan(&out.TotalOrders, &out.TotalRevenue)
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(total_amount), 0)
		FROM orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var s StatusStat
		if err := rows.Scan(&s.Status, &s.Count, &s.TotalAmount); err != nil {
			return nil, err
		}
		out.ByStatus = append(out.ByStatus, s)
	}
	return &out, rows.Err()
}
