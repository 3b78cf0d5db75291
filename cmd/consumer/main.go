package main

import (
	"context"
	"encoding/json"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/kazkleen/crm/internal/config"
	"github.com/kazkleen/crm/internal/logger"
	"github.com/kazkleen/crm/internal/server"
)

const groupID = "kazkleen-audit-consumer"

func main() {
	config.LoadEnv()
	cfg, err := config.Load()
	if err != nil {
		logger.New("info").Fatal("invalid configuration", zap.Error(err))
	}
	log := logger.New(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if len(cfg.KafkaBrokers) == 0 {
		log.Fatal("KAFKA_BROKERS is not set")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		GroupID:        groupID,
		Topic:          cfg.AuditTopic,
		MinBytes:       10e3,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		MaxWait:        3 * time.Second,
	})
	defer func() {
		log.Info("closing kafka reader")
		if err := r.Close(); err != nil {
			log.Error("failed to close kafka reader", zap.Error(err))
		}
	}()

	log.Info("consumer started",
		zap.String("topic", cfg.AuditTopic),
		zap.Strings("brokers", cfg.KafkaBrokers),
	)

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				log.Info("shutdown signal received, stopping consumer")
				return
			}
			log.Error("failed to read message", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}

		var entry server.AuditLogEntry
		if err := json.Unmarshal(m.Value, &entry); err != nil {
			log.Warn("skipping undecodable audit message",
				zap.Int64("offset", m.Offset),
				zap.ByteString("value", m.Value),
				zap.Error(err),
			)
			continue
		}

		log.Info("audit",
			zap.Time("timestamp", entry.Timestamp),
			zap.Int("partition", m.Partition),
			zap.Int64("offset", m.Offset),
			zap.String("handler", entry.Handler),
			zap.String("method", entry.Method),
			zap.String("path", entry.Path),
			zap.Int("status", entry.StatusCode),
			zap.String("username", entry.Username),
			zap.String("order_id", entry.OrderID),
			zap.String("old_status", entry.OldStatus),
			zap.String("new_status", entry.NewStatus),
		)
	}
}
