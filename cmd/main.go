package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kazkleen/crm/internal/auth"
	"github.com/kazkleen/crm/internal/backend"
	"github.com/kazkleen/crm/internal/config"
	"github.com/kazkleen/crm/internal/kafka"
	"github.com/kazkleen/crm/internal/logger"
	"github.com/kazkleen/crm/internal/server"
	"github.com/kazkleen/crm/internal/storage"
)

func main() {
	os.Exit(run())
}

func run() int {
	envPath := config.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		logger.New("info").Error("invalid configuration", zap.Error(err))
		return 2
	}
	log := logger.New(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if envPath != "" {
		log.Info("loaded environment", zap.String("path", envPath))
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Error("invalid server configuration", zap.Error(err))
		return 2
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kv, closeStore, err := backend.Open(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open store", zap.Error(err))
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
	orders := storage.NewOrderRepository(store)
	users := storage.NewUserRepository(store)

	var producer kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = kafka.NewKafkaProducer(cfg.KafkaBrokers)
		log.Info("publishing audit log to kafka",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.AuditTopic),
		)
	} else {
		producer = kafka.NewConsoleProducer(log)
		log.Info("no kafka brokers configured, audit log goes to the console")
	}
	publisher := kafka.NewPublisher(producer, kafka.PublisherConfig{
		Topic:       cfg.AuditTopic,
		MaxAttempts: 3,
		Backoff:     200 * time.Millisecond,
	}, log)
	defer publisher.Shutdown()

	srv := server.New(orders, users, auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL), publisher, log, server.Config{
		CORSOrigins: cfg.CORSOrigins,
		Audit:       server.DefaultAuditConfig(),
	})

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gCtx, cfg.HTTPPort)
	})
	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutdown signal received")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		return 1
	}
	log.Info("server gracefully stopped")
	return 0
}
