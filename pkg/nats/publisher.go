package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/abgdnv/catalogtable/pkg/messaging"
	"github.com/nats-io/nats.go/jetstream"
)

// identified events carry an id JetStream uses to drop duplicate publishes.
type identified interface {
	MessageID() string
}

// JetStreamPublisher publishes messaging.Events and waits for the stream's
// acknowledgement.
type JetStreamPublisher struct {
	js         jetstream.JetStream
	ackTimeout time.Duration
}

// NewJetStreamPublisher bounds every publish by ackTimeout; zero waits as
// long as the caller's context allows.
func NewJetStreamPublisher(js jetstream.JetStream, ackTimeout time.Duration) *JetStreamPublisher {
	return &JetStreamPublisher{js: js, ackTimeout: ackTimeout}
}

func (p *JetStreamPublisher) Publish(ctx context.Context, event messaging.Event) error {
	data, err := event.Payload()
	if err != nil {
		return fmt.Errorf("failed to get event payload: %w", err)
	}
	if p.ackTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.ackTimeout)
		defer cancel()
	}
	var opts []jetstream.PublishOpt
	if e, ok := event.(identified); ok {
		opts = append(opts, jetstream.WithMsgID(e.MessageID()))
	}
	if _, err := p.js.Publish(ctx, event.Subject(), data, opts...); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", event.Subject(), err)
	}
	return nil
}
