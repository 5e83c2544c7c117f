package entity

import (
	"time"

	"github.com/google/uuid"
)

// Aggregate types stamped on outbox rows; the relay routes rows to bus
// topics by this tag.
const (
	AggregateOrder     = "order"
	AggregateInventory = "inventory"
	AggregatePayment   = "payment"
)

// OutboxEvent is a domain event recorded in the same transaction as the
// aggregate change that produced it, then published asynchronously by the
// relay. Processed transitions false -> true exactly once and never reverts.
type OutboxEvent struct {
	ID            uuid.UUID `json:"id"`
	AggregateType string    `json:"aggregate_type"`
	AggregateID   string    `json:"aggregate_id"`
	EventType     string    `json:"event_type"`
	Payload       []byte    `json:"payload"`
	CreatedAt     time.Time `json:"created_at"`
	Processed     bool      `json:"processed"`
	Version       int64     `json:"version"`
}

// NewOutboxEvent wraps a domain event into an envelope and records it as an
// unprocessed outbox row. The outbox row id doubles as the published
// message's deduplication key.
func NewOutboxEvent(aggregateType, aggregateID string, version int64, event Event) (*OutboxEvent, error) {
	env, err := NewEnvelope(aggregateID, version, event)
	if err != nil {
		return nil, err
	}

	payload, err := env.Marshal()
	if err != nil {
		return nil, err
	}

	return &OutboxEvent{
		ID:            env.EventID,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     env.EventType,
		Payload:       payload,
		CreatedAt:     time.Now(),
		Processed:     false,
		Version:       0,
	}, nil
}
