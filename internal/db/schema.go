package db

import (
	"context"
	"fmt"
)

const kvSchema = `
CREATE TABLE IF NOT EXISTS kv_store (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// EnsureSchema creates the key-value table when it does not exist yet.
func EnsureSchema(ctx context.Context, database DB) error {
	if _, err := database.Exec(ctx, kvSchema); err != nil {
		return fmt.Errorf("failed to create kv_store table: %w", err)
	}
	return nil
}
