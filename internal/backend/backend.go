// Package backend opens the key-value store selected by configuration.
package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/kazkleen/crm/internal/config"
	"github.com/kazkleen/crm/internal/db"
	"github.com/kazkleen/crm/internal/repository/file"
	"github.com/kazkleen/crm/internal/repository/memory"
	"github.com/kazkleen/crm/internal/repository/postgresql"
	"github.com/kazkleen/crm/internal/repository/sqlite"
	"github.com/kazkleen/crm/internal/storage"
)

// Open returns the store named by cfg.StoreBackend together with a function
// releasing it. The close function is never nil.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.KV, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StoreBackend {
	case config.BackendMemory:
		log.Warn("using in-memory store, data is lost on exit")
		return memory.NewKV(), noop, nil

	case config.BackendFile:
		kv, err := file.NewKV(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open file store: %w", err)
		}
		log.Info("using file store", zap.String("dir", cfg.DataDir))
		return kv, noop, nil

	case config.BackendSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("failed to create sqlite directory: %w", err)
			}
		}
		kv, err := sqlite.NewKV(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		log.Info("using sqlite store", zap.String("path", cfg.SQLitePath))
		return kv, kv.Close, nil

	case config.BackendPostgres:
		database, err := db.NewDb(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := db.EnsureSchema(ctx, database); err != nil {
			_ = database.Close()
			return nil, nil, err
		}
		log.Info("using postgres store",
			zap.String("host", cfg.Postgres.Host),
			zap.String("database", cfg.Postgres.Name),
		)
		return postgresql.NewKVRepo(database), database.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

// Hasher returns the password hasher named by cfg.PasswordHashing.
func Hasher(cfg *config.Config) storage.PasswordHasher {
	if cfg.PasswordHashing == "plain" {
		return storage.PlainHasher{}
	}
	return storage.BcryptHasher{}
}
