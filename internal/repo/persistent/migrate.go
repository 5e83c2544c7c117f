package persistent

import (
	"context"
	"fmt"

	"github.com/agriflow/procurement/pkg/postgres"
)

// Migrate creates the schema on boot. Statements are idempotent so a
// restart against an already-provisioned database is a no-op.
func Migrate(ctx context.Context, pg *postgres.Postgres) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			id UUID PRIMARY KEY,
			buyer_id TEXT NOT NULL,
			supplier_id TEXT NOT NULL,
			items JSONB NOT NULL,
			status TEXT NOT NULL,
			total_amount DOUBLE PRECISION NOT NULL,
			version BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS procurement_sagas (
			id UUID PRIMARY KEY,
			order_id TEXT NOT NULL,
			buyer_id TEXT NOT NULL,
			total_amount DOUBLE PRECISION NOT NULL,
			status TEXT NOT NULL,
			current_step TEXT NOT NULL,
			inventory_reserved BOOLEAN NOT NULL DEFAULT FALSE,
			payment_processed BOOLEAN NOT NULL DEFAULT FALSE,
			failure_reason TEXT,
			version BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_sagas_order_id ON procurement_sagas (order_id)`,
		`CREATE TABLE IF NOT EXISTS inventory_items (
			id UUID PRIMARY KEY,
			product_id TEXT NOT NULL UNIQUE,
			product_name TEXT NOT NULL,
			available_quantity INT NOT NULL,
			reserved_quantity INT NOT NULL,
			version BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS inventory_reservations (
			id UUID PRIMARY KEY,
			order_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			quantity INT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			version BIGINT NOT NULL DEFAULT 0,
			UNIQUE (order_id, product_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_order_id ON inventory_reservations (order_id)`,
		`CREATE TABLE IF NOT EXISTS outbox_events (
			id UUID PRIMARY KEY,
			aggregate_type TEXT NOT NULL,
			aggregate_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			processed BOOLEAN NOT NULL DEFAULT FALSE,
			version BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outbox_unprocessed ON outbox_events (created_at) WHERE processed = FALSE`,
		`CREATE TABLE IF NOT EXISTS idempotency_keys (
			key TEXT PRIMARY KEY,
			response JSONB,
			created_at TIMESTAMPTZ NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, statement := range statements {
		if _, err := pg.Pool.Exec(ctx, statement); err != nil {
			return fmt.Errorf("persistent - Migrate - pg.Pool.Exec: %w", err)
		}
	}

	return nil
}
