package postgres

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS error_reports (
		id              UUID PRIMARY KEY,
		error_type      TEXT NOT NULL DEFAULT '',
		error_reason    TEXT NOT NULL DEFAULT '',
		origin_location TEXT NOT NULL DEFAULT '',
		urgent_label    TEXT NOT NULL DEFAULT '',
		entry           JSONB NOT NULL,
		reported_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS error_reports_reported_at_idx ON error_reports (reported_at DESC)`,
}

// Migrate creates the archive table and its index in one transaction, so a
// failed run leaves no half-applied schema.
func Migrate(ctx context.Context, db DB) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, stmt := range schema {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	return nil
}
