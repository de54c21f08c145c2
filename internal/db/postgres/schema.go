package postgres

import (
	"context"
	"fmt"
)

// schema is applied idempotently on startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         TEXT PRIMARY KEY,
		email      TEXT NOT NULL UNIQUE,
		username   TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS items (
		id               TEXT PRIMARY KEY,
		type             TEXT NOT NULL,
		title            TEXT NOT NULL,
		category         TEXT NOT NULL,
		description      TEXT NOT NULL DEFAULT '',
		location         TEXT NOT NULL DEFAULT '',
		building         TEXT NOT NULL DEFAULT '',
		dropoff_location TEXT NOT NULL DEFAULT '',
		date             TEXT NOT NULL DEFAULT '',
		status           TEXT NOT NULL,
		image_url        TEXT NOT NULL DEFAULT '',
		owner_id         TEXT NOT NULL,
		contact_name     TEXT NOT NULL DEFAULT '',
		contact_email    TEXT NOT NULL DEFAULT '',
		created_at       BIGINT NOT NULL,
		updated_at       BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS items_created_at_idx ON items (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS items_owner_idx ON items (owner_id)`,
	`CREATE INDEX IF NOT EXISTS items_image_idx ON items (created_at DESC) WHERE image_url <> ''`,
}

// Migrate creates the catalog tables when missing.
func (s *Store) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i, err)
		}
	}
	return nil
}
