package nats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/abgdnv/catalogtable/pkg/messaging/events"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingJetStream implements only Publish; any other call panics.
type recordingJetStream struct {
	jetstream.JetStream
	subject     string
	data        []byte
	opts        []jetstream.PublishOpt
	hadDeadline bool
	err         error
}

func (r *recordingJetStream) Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	r.subject, r.data, r.opts = subject, data, opts
	_, r.hadDeadline = ctx.Deadline()
	if r.err != nil {
		return nil, r.err
	}
	return &jetstream.PubAck{Stream: "CATALOG", Sequence: 1}, nil
}

func TestJetStreamPublisher_Publish(t *testing.T) {
	// given
	js := &recordingJetStream{}
	p := NewJetStreamPublisher(js, time.Second)
	event := events.NewProductChangedEvent("catalog.test", events.ProductCreated, "3", time.Now())

	// when
	err := p.Publish(context.Background(), event)

	// then
	require.NoError(t, err)
	assert.Equal(t, "catalog.test", js.subject)
	assert.Len(t, js.opts, 1)
	assert.True(t, js.hadDeadline)
	decoded, err := events.DecodeProductChangedEvent(js.data)
	require.NoError(t, err)
	assert.Equal(t, "3", decoded.ProductID)
}

func TestJetStreamPublisher_WrapsError(t *testing.T) {
	// given
	boom := errors.New("no responders")
	js := &recordingJetStream{err: boom}
	p := NewJetStreamPublisher(js, 0)

	// when
	err := p.Publish(context.Background(), events.NewProductChangedEvent("", events.ProductDeleted, "1", time.Now()))

	// then
	assert.ErrorIs(t, err, boom)
	assert.False(t, js.hadDeadline)
}
