// Package outbox stores order events next to the order write and relays them
// to Kafka afterwards, so a committed shipment always produces its events.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/cloudevents"
)

// DefaultMaxAttempts is how many relay attempts an entry gets before it is parked.
const DefaultMaxAttempts = 10

// Entry is one CloudEvent waiting for delivery.
type Entry struct {
	ID          string          `bson:"_id"`
	OrderID     string          `bson:"orderId"`
	EventType   string          `bson:"eventType"`
	Topic       string          `bson:"topic"`
	Envelope    json.RawMessage `bson:"envelope"`
	CreatedAt   time.Time       `bson:"createdAt"`
	PublishedAt *time.Time      `bson:"publishedAt,omitempty"`
	Attempts    int             `bson:"attempts"`
	MaxAttempts int             `bson:"maxAttempts"`
	LastError   string          `bson:"lastError,omitempty"`
}

// NewEntry serialises event for topic. The entry is ordered by the event time.
func NewEntry(orderID, topic string, event *cloudevents.Event) (*Entry, error) {
	envelope, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode %s for order %s: %w", event.Type, orderID, err)
	}
	return &Entry{
		ID:          uuid.NewString(),
		OrderID:     orderID,
		EventType:   event.Type,
		Topic:       topic,
		Envelope:    envelope,
		CreatedAt:   event.Time,
		MaxAttempts: DefaultMaxAttempts,
	}, nil
}

func (e *Entry) Published() bool {
	return e.PublishedAt != nil
}

// Pending reports whether the relay should still try the entry.
func (e *Entry) Pending() bool {
	return !e.Published() && e.Attempts < e.MaxAttempts
}

// Event decodes the stored envelope.
func (e *Entry) Event() (*cloudevents.Event, error) {
	var event cloudevents.Event
	if err := json.Unmarshal(e.Envelope, &event); err != nil {
		return nil, fmt.Errorf("decode outbox entry %s: %w", e.ID, err)
	}
	return &event, nil
}

// Store persists entries. Append must join the caller's transaction when ctx carries one.
type Store interface {
	Append(ctx context.Context, entries []*Entry) error
	// Pending returns undelivered entries below their attempt budget, oldest first.
	Pending(ctx context.Context, limit int) ([]*Entry, error)
	MarkPublished(ctx context.Context, id string, at time.Time) error
	RecordFailure(ctx context.Context, id, reason string) error
	ForOrder(ctx context.Context, orderID string) ([]*Entry, error)
}
