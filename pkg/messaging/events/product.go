package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/abgdnv/catalogtable/pkg/messaging"
)

// ProductAction names the kind of change a ProductChangedEvent reports.
type ProductAction string

const (
	ProductCreated ProductAction = "created"
	ProductUpdated ProductAction = "updated"
	ProductDeleted ProductAction = "deleted"
)

type ProductChangedEvent struct {
	Action     ProductAction `json:"action"`
	ProductID  string        `json:"product_id"`
	OccurredAt time.Time     `json:"occurred_at"`

	subject string
}

// NewProductChangedEvent builds an event for subject. An empty subject
// falls back to messaging.ProductsChangedSubject.
func NewProductChangedEvent(subject string, action ProductAction, productID string, at time.Time) ProductChangedEvent {
	return ProductChangedEvent{
		Action:     action,
		ProductID:  productID,
		OccurredAt: at.UTC(),
		subject:    subject,
	}
}

func (e ProductChangedEvent) Subject() string {
	if e.subject == "" {
		return messaging.ProductsChangedSubject
	}
	return e.subject
}

// MessageID identifies the change for JetStream deduplication.
func (e ProductChangedEvent) MessageID() string {
	return fmt.Sprintf("%s-%s-%d", e.Action, e.ProductID, e.OccurredAt.UnixNano())
}

func (e ProductChangedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeProductChangedEvent parses a payload produced by Payload.
func DecodeProductChangedEvent(data []byte) (ProductChangedEvent, error) {
	var e ProductChangedEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return ProductChangedEvent{}, fmt.Errorf("failed to decode product event: %w", err)
	}
	switch e.Action {
	case ProductCreated, ProductUpdated, ProductDeleted:
	default:
		return ProductChangedEvent{}, fmt.Errorf("unknown product event action %q", e.Action)
	}
	return e, nil
}
