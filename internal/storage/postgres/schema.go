package postgres

import (
	"context"
	"fmt"
	"time"
)

// Схема намеренно идемпотентна: таблиц всего две и состав их колонок
// совпадает с полями, которые читает и пишет конвейер синхронизации.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS orders (
    id                 TEXT PRIMARY KEY,
    order_number       TEXT NOT NULL,
    user_id            TEXT NOT NULL DEFAULT '',
    status             TEXT NOT NULL,
    subtotal_minor     BIGINT NOT NULL DEFAULT 0,
    delivery_fee_minor BIGINT NOT NULL DEFAULT 0,
    tax_minor          BIGINT NOT NULL DEFAULT 0,
    total_minor        BIGINT NOT NULL DEFAULT 0,
    delivery_address   TEXT NOT NULL DEFAULT '',
    order_type         TEXT NOT NULL,
    customer_name      TEXT NOT NULL DEFAULT '',
    customer_phone     TEXT NOT NULL DEFAULT '',
    created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS order_items (
    id          TEXT NOT NULL,
    order_id    TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    name        TEXT NOT NULL,
    qty         INTEGER NOT NULL CHECK (qty >= 1),
    price_minor BIGINT NOT NULL,
    position    INTEGER NOT NULL,
    PRIMARY KEY (order_id, id)
);

CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);
`

// EnsureSchema применяет DDL схемы. Повторное применение безопасно.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("postgres store is not initialized")
	}

	execCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := s.db.ExecContext(execCtx, schemaDDL); err != nil {
		return fmt.Errorf("apply storefront schema: %w", err)
	}
	return nil
}
