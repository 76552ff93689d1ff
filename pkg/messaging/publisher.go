package messaging

import (
	"context"
)

// ProductsChangedSubject is the default subject for catalog change events.
const ProductsChangedSubject = "catalog.products.changed"

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher drops every event. Used when the bus is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
