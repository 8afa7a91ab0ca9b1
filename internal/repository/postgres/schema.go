package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the directory items table and its secondary indexes
// if they do not exist. Safe to run on every startup.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id          TEXT PRIMARY KEY,
			parent_key  TEXT NOT NULL,
			position    INTEGER NOT NULL,
			kind        TEXT NOT NULL,
			url         TEXT NOT NULL,
			text        TEXT NOT NULL,
			subtitle    TEXT,
			child_count INTEGER,
			image       TEXT,
			latitude    DOUBLE PRECISION,
			longitude   DOUBLE PRECISION,
			is_favorite BOOLEAN NOT NULL DEFAULT FALSE,
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE INDEX IF NOT EXISTS %s_parent_key_idx
			ON %s (parent_key, position);

		CREATE INDEX IF NOT EXISTS %s_favorite_idx
			ON %s (is_favorite) WHERE is_favorite;
	`, tables.DirectoryItems,
		tables.DirectoryItems, tables.DirectoryItems,
		tables.DirectoryItems, tables.DirectoryItems)

	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	return nil
}
