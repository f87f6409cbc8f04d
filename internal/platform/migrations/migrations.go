package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// statements are applied in order. Each statement is idempotent so Apply
// can run at every startup.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS platforms (
		id          TEXT PRIMARY KEY,
		authority   TEXT NOT NULL,
		fee_rate_bp BIGINT NOT NULL,
		total_deals BIGINT NOT NULL DEFAULT 0,
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL,
		version     BIGINT NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS deals (
		id             TEXT PRIMARY KEY,
		studio         TEXT NOT NULL,
		celebrity      TEXT NOT NULL,
		platform_id    TEXT NOT NULL REFERENCES platforms (id),
		payment_amount BIGINT NOT NULL,
		duration_days  INTEGER NOT NULL,
		usage_rights   TEXT NOT NULL,
		exclusivity    BOOLEAN NOT NULL,
		name           TEXT NOT NULL,
		description    TEXT NOT NULL,
		status         TEXT NOT NULL,
		funded_amount  BIGINT NOT NULL DEFAULT 0,
		created_at     TIMESTAMPTZ NOT NULL,
		updated_at     TIMESTAMPTZ NOT NULL,
		version        BIGINT NOT NULL DEFAULT 1
	)`,
	`CREATE INDEX IF NOT EXISTS idx_deals_studio ON deals (studio)`,
	`CREATE INDEX IF NOT EXISTS idx_deals_celebrity ON deals (celebrity)`,
	`CREATE INDEX IF NOT EXISTS idx_deals_status ON deals (status)`,
}

// Apply runs every migration statement against the database.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
