// Package remote keeps the product table in step with changes made by other
// clients by listening to the catalog's change events.
package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/abgdnv/catalogtable/pkg/config"
	"github.com/abgdnv/catalogtable/pkg/messaging/events"
	pkgnats "github.com/abgdnv/catalogtable/pkg/nats"
	"github.com/nats-io/nats.go/jetstream"
)

// Invalidator drops a cached key.
type Invalidator interface {
	Invalidate(key string)
}

// Handler returns a message handler that invalidates key for every product
// change event. Undecodable payloads are reported and leave the cache alone.
func Handler(cache Invalidator, key string, logger *slog.Logger) pkgnats.MessageHandler {
	return func(ctx context.Context, subject string, data []byte) error {
		e, err := events.DecodeProductChangedEvent(data)
		if err != nil {
			return err
		}
		logger.DebugContext(ctx, "Product change received", "subject", subject, "action", e.Action, "ID", e.ProductID)
		cache.Invalidate(key)
		return nil
	}
}

// Listen subscribes to cfg.Subject and invalidates key until ctx is done.
// It returns nil on cancellation.
func Listen(ctx context.Context, js jetstream.JetStream, cfg config.NATSConfig, cache Invalidator, key string, logger *slog.Logger) error {
	logger = logger.With("component", "remote")
	logger.InfoContext(ctx, "Listening for product changes", "stream", cfg.Stream, "subject", cfg.Subject)
	err := pkgnats.Subscribe(ctx, js, pkgnats.SubscribeConfig{
		Stream:  cfg.Stream,
		Subject: cfg.Subject,
	}, Handler(cache, key, logger), logger)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("product change subscription: %w", err)
	}
	return nil
}
