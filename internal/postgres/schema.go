package postgres

import (
	"context"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the tables and indexes the services expect. Safe to run on
// every startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS dishes (
			id           BIGINT PRIMARY KEY,
			name         TEXT NOT NULL,
			name_en      TEXT NOT NULL DEFAULT '',
			category     TEXT NOT NULL DEFAULT '',
			price        NUMERIC(12,2) NOT NULL CHECK (price >= 0),
			stock        INT NOT NULL DEFAULT 0 CHECK (stock >= 0),
			order_count  INT NOT NULL DEFAULT 0 CHECK (order_count >= 0),
			is_active    BOOLEAN NOT NULL DEFAULT TRUE,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			order_number      TEXT PRIMARY KEY,
			status            TEXT NOT NULL DEFAULT 'pending',
			payment_status    TEXT NOT NULL DEFAULT 'unpaid',
			customer_name     TEXT NOT NULL DEFAULT '',
			customer_email    TEXT NOT NULL DEFAULT '',
			customer_phone    TEXT NOT NULL DEFAULT '',
			delivery_date     TEXT NOT NULL,
			delivery_time     TEXT NOT NULL,
			delivery_address  TEXT NOT NULL DEFAULT '',
			notes             TEXT NOT NULL DEFAULT '',
			total_amount      NUMERIC(12,2) NOT NULL,
			total_items       INT NOT NULL,
			notification_sent BOOLEAN NOT NULL DEFAULT FALSE,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			id           BIGSERIAL PRIMARY KEY,
			order_number TEXT NOT NULL,
			dish_id      BIGINT NOT NULL,
			dish_name    TEXT NOT NULL,
			dish_name_en TEXT NOT NULL DEFAULT '',
			category     TEXT NOT NULL DEFAULT '',
			price        NUMERIC(12,2) NOT NULL,
			quantity     INT NOT NULL CHECK (quantity > 0),
			subtotal     NUMERIC(12,2) NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_order_number ON order_items(order_number)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_customer_email ON orders(customer_email)`,
		`CREATE INDEX IF NOT EXISTS idx_dishes_category ON dishes(category)`,
	}
	for _, s := range stmts {
		if _, err := pool.Exec(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
