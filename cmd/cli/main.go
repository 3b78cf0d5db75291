package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kazkleen/crm/internal/backend"
	"github.com/kazkleen/crm/internal/config"
	"github.com/kazkleen/crm/internal/handler"
	"github.com/kazkleen/crm/internal/logger"
	"github.com/kazkleen/crm/internal/session"
	"github.com/kazkleen/crm/internal/storage"
)

func main() {
	os.Exit(run())
}

func run() int {
	config.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 2
	}
	// The CLI prints its own results; only warnings and above are logged.
	level := cfg.LogLevel
	if level == "info" || level == "debug" {
		level = "warn"
	}
	log := logger.New(level)
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kv, closeStore, err := backend.Open(ctx, cfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Error("failed to close store", zap.Error(err))
		}
	}()

	store := storage.NewDocumentStore(kv, cfg.DocumentKey,
		storage.WithLogger(log),
		storage.WithPasswordHasher(backend.Hasher(cfg)),
	)
	h := handler.New(
		storage.NewOrderRepository(store),
		storage.NewUserRepository(store),
		session.NewStore(kv, cfg.SessionKey, log),
		store,
		os.Stdout,
		log,
	)

	if err := h.Run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
