package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// MessageHandler processes one message payload.
type MessageHandler func(ctx context.Context, subject string, data []byte) error

// SubscribeConfig selects what Subscribe reads.
type SubscribeConfig struct {
	Stream  string
	Subject string
	// FetchWait bounds a single fetch; the loop then checks ctx again.
	FetchWait time.Duration
	// RetryInterval is the pause after a failed fetch.
	RetryInterval time.Duration
}

// Subscribe reads new messages on cfg.Subject through an ordered, ephemeral
// consumer and passes each to handle until ctx is done. Handler errors are
// logged and do not stop the loop. Returns ctx.Err() on cancellation.
func Subscribe(ctx context.Context, js jetstream.JetStream, cfg SubscribeConfig, handle MessageHandler, logger *slog.Logger) error {
	consumer, err := js.OrderedConsumer(ctx, cfg.Stream, jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{cfg.Subject},
		DeliverPolicy:  jetstream.DeliverNewPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer on %s: %w", cfg.Stream, err)
	}
	if cfg.FetchWait <= 0 {
		cfg.FetchWait = time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = time.Second
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		batch, err := consumer.Fetch(1, jetstream.FetchMaxWait(cfg.FetchWait))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			logger.ErrorContext(ctx, "failed to fetch messages", "error", err, "subject", cfg.Subject)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(cfg.RetryInterval):
			}
			continue
		}
		for msg := range batch.Messages() {
			if err := handle(ctx, msg.Subject(), msg.Data()); err != nil {
				logger.WarnContext(ctx, "failed to handle message", "error", err, "subject", msg.Subject())
			}
		}
		if err := batch.Error(); err != nil && !errors.Is(err, nats.ErrTimeout) {
			logger.DebugContext(ctx, "fetch batch ended with error", "error", err)
		}
	}
}
