package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"

	"github.com/kazkleen/crm/internal/db"
	"github.com/kazkleen/crm/internal/repository"
)

type KVRepo struct {
	db      db.DB
	timeNow func() time.Time
}

func NewKVRepo(db db.DB) *KVRepo {
	return &KVRepo{db: db, timeNow: time.Now}
}

func (r *KVRepo) Get(ctx context.Context, key string) ([]byte, error) {
	var entry repository.KVEntry
	err := r.db.Get(ctx, &entry, "SELECT key, value, updated_at FROM kv_store WHERE key = $1", key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return []byte(entry.Value), nil
}

func (r *KVRepo) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO kv_store (key, value, updated_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (key) DO UPDATE
        SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
    `, key, string(value), r.timeNow().UTC())
	if err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

func (r *KVRepo) Remove(ctx context.Context, key string) error {
	if _, err := r.db.Exec(ctx, "DELETE FROM kv_store WHERE key = $1", key); err != nil {
		return fmt.Errorf("failed to remove key %q: %w", key, err)
	}
	return nil
}
