package kafka

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kazkleen/crm/internal/metrics"
)

type PublisherConfig struct {
	Topic       string
	MaxAttempts int
	Backoff     time.Duration
}

// Publisher sends messages to one topic, retrying failed sends up to
// MaxAttempts times.
type Publisher struct {
	producer Producer
	config   PublisherConfig
	log      *zap.Logger
	stopOnce sync.Once
}

func NewPublisher(producer Producer, config PublisherConfig, log *zap.Logger) *Publisher {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	return &Publisher{producer: producer, config: config, log: log}
}

func (p *Publisher) Publish(ctx context.Context, key, value []byte) error {
	var err error
	for attempt := 1; attempt <= p.config.MaxAttempts; attempt++ {
		err = p.producer.SendMessage(ctx, p.config.Topic, key, value)
		if err == nil {
			return nil
		}
		p.log.Warn("failed to send message",
			zap.String("topic", p.config.Topic),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt == p.config.MaxAttempts {
			break
		}

		select {
		case <-time.After(p.config.Backoff * time.Duration(attempt)):
		case <-ctx.Done():
			metrics.OperationErrorsTotal.WithLabelValues("publish").Inc()
			return ctx.Err()
		}
	}

	metrics.OperationErrorsTotal.WithLabelValues("publish").Inc()
	return fmt.Errorf("message not delivered after %d attempts: %w", p.config.MaxAttempts, err)
}

func (p *Publisher) Shutdown() {
	p.stopOnce.Do(func() {
		if err := p.producer.Close(); err != nil {
			p.log.Error("failed to close kafka producer", zap.Error(err))
		}
	})
}
