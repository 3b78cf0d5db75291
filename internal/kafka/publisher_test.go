package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	mock_kafka "github.com/kazkleen/crm/internal/kafka/mocks"
)

func TestPublisher_Publish(t *testing.T) {
	ctx := context.Background()
	config := PublisherConfig{Topic: "audit", MaxAttempts: 3}

	t.Run("first attempt succeeds", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		producer := mock_kafka.NewMockProducer(ctrl)
		publisher := NewPublisher(producer, config, zap.NewNop())

		producer.EXPECT().SendMessage(gomock.Any(), "audit", []byte("k"), []byte("v")).Return(nil)

		assert.NoError(t, publisher.Publish(ctx, []byte("k"), []byte("v")))
	})

	t.Run("retries until success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		producer := mock_kafka.NewMockProducer(ctrl)
		publisher := NewPublisher(producer, config, zap.NewNop())

		gomock.InOrder(
			producer.EXPECT().SendMessage(gomock.Any(), "audit", gomock.Any(), gomock.Any()).Return(errors.New("leader not available")),
			producer.EXPECT().SendMessage(gomock.Any(), "audit", gomock.Any(), gomock.Any()).Return(nil),
		)

		assert.NoError(t, publisher.Publish(ctx, nil, []byte("v")))
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		producer := mock_kafka.NewMockProducer(ctrl)
		publisher := NewPublisher(producer, config, zap.NewNop())

		sendErr := errors.New("broker down")
		producer.EXPECT().SendMessage(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(sendErr).Times(3)

		err := publisher.Publish(ctx, nil, []byte("v"))
		assert.ErrorIs(t, err, sendErr)
		assert.Contains(t, err.Error(), "after 3 attempts")
	})

	t.Run("cancelled context stops retrying", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		producer := mock_kafka.NewMockProducer(ctrl)
		publisher := NewPublisher(producer, PublisherConfig{Topic: "audit", MaxAttempts: 5, Backoff: 1 << 40}, zap.NewNop())

		cancelled, cancel := context.WithCancel(ctx)
		producer.EXPECT().SendMessage(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(context.Context, string, []byte, []byte) error {
				cancel()
				return errors.New("timeout")
			})

		err := publisher.Publish(cancelled, nil, []byte("v"))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestPublisher_ShutdownClosesOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	producer := mock_kafka.NewMockProducer(ctrl)
	publisher := NewPublisher(producer, PublisherConfig{Topic: "audit"}, zap.NewNop())

	producer.EXPECT().Close().Return(nil).Times(1)

	publisher.Shutdown()
	publisher.Shutdown()
}

func TestConsoleProducer(t *testing.T) {
	p := NewConsoleProducer(zap.NewNop())
	assert.NoError(t, p.SendMessage(context.Background(), "audit", []byte("k"), []byte("v")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.SendMessage(ctx, "audit", nil, nil), context.Canceled)
	assert.NoError(t, p.Close())
}
