package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bikerent/internal/rentals/repository"
	"bikerent/pkg/logger"
)

// Statements are applied in order inside one transaction. Each one is
// idempotent so the job can be rerun.
var Statements = []string{
	`CREATE TABLE IF NOT EXISTS assets (
		id               TEXT PRIMARY KEY,
		serial           TEXT NOT NULL UNIQUE,
		model            TEXT NOT NULL DEFAULT '',
		color            TEXT NOT NULL DEFAULT '',
		company_property BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS renters (
		id     TEXT PRIMARY KEY,
		tax_id TEXT NOT NULL UNIQUE,
		name   TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS rentals (
		id                 TEXT PRIMARY KEY,
		asset_id           TEXT NOT NULL REFERENCES assets (id),
		asset_serial       TEXT NOT NULL,
		renter_id          TEXT NOT NULL REFERENCES renters (id),
		renter_tax_id      TEXT NOT NULL,
		contact_email      TEXT NOT NULL,
		started_at         TIMESTAMPTZ NOT NULL,
		expected_return_at TIMESTAMPTZ NOT NULL,
		returned_at        TIMESTAMPTZ NULL,
		duration_hours     INTEGER NOT NULL CHECK (duration_hours >= 0)
	)`,
	fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s ON rentals (asset_id) WHERE returned_at IS NULL`, repository.IndexOpenByAsset),
	fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s ON rentals (renter_id) WHERE returned_at IS NULL`, repository.IndexOpenByRenter),
	`CREATE INDEX IF NOT EXISTS rentals_overdue_idx ON rentals (expected_return_at) WHERE returned_at IS NULL`,
	`CREATE INDEX IF NOT EXISTS rentals_renter_started_idx ON rentals (renter_id, started_at DESC)`,
	`CREATE INDEX IF NOT EXISTS rentals_started_idx ON rentals (started_at DESC, id)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool, log *logger.Logger) error {
	log.Info("Running Postgres migrations", "statements", len(Statements))

	err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for i, stmt := range Statements {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("statement %d failed: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("postgres migration failed: %w", err)
	}

	log.Info("All Postgres migrations applied")
	return nil
}
