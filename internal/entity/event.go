package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/agriflow/procurement/pkg/types/errs"
)

// Event is a domain event payload. The type tag returned by EventType is
// the wire-level discriminator carried in the envelope.
type Event interface {
	EventType() string
}

// Envelope wraps every published event with the shared base fields:
// a unique event id, the occurred-on timestamp, the concerned aggregate id
// and a version scoped to that aggregate.
type Envelope struct {
	EventID     uuid.UUID       `json:"event_id"`
	EventType   string          `json:"event_type"`
	OccurredOn  time.Time       `json:"occurred_on"`
	AggregateID string          `json:"aggregate_id"`
	Version     int64           `json:"version"`
	Payload     json.RawMessage `json:"payload"`
}

// NewEnvelope wraps an event payload into an envelope with a fresh event id.
func NewEnvelope(aggregateID string, version int64, event Event) (*Envelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("entity - NewEnvelope - json.Marshal: %w", err)
	}

	return &Envelope{
		EventID:     uuid.New(),
		EventType:   event.EventType(),
		OccurredOn:  time.Now(),
		AggregateID: aggregateID,
		Version:     version,
		Payload:     payload,
	}, nil
}

// DecodeEnvelope parses a raw bus message into an envelope.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("entity - DecodeEnvelope - json.Unmarshal: %w", err)
	}

	if env.EventType == "" {
		return nil, fmt.Errorf("entity - DecodeEnvelope - missing event_type: %w", errs.ErrValidation)
	}

	return &env, nil
}

// DecodeEventPayload maps the envelope's type tag to its concrete payload.
// Unknown tags are a validation error: consumers log and skip them.
func DecodeEventPayload(env *Envelope) (Event, error) {
	var (
		event Event
		err   error
	)

	switch env.EventType {
	case EventTypeOrderCreated:
		event, err = decodeAs[OrderCreated](env.Payload)
	case EventTypeOrderConfirmed:
		event, err = decodeAs[OrderConfirmed](env.Payload)
	case EventTypeOrderCancelled:
		event, err = decodeAs[OrderCancelled](env.Payload)
	case EventTypeOrderCompleted:
		event, err = decodeAs[OrderCompleted](env.Payload)
	case EventTypeInventoryReserved:
		event, err = decodeAs[InventoryReserved](env.Payload)
	case EventTypeInventoryReservationFailed:
		event, err = decodeAs[InventoryReservationFailed](env.Payload)
	case EventTypePaymentProcessed:
		event, err = decodeAs[PaymentProcessed](env.Payload)
	case EventTypePaymentFailed:
		event, err = decodeAs[PaymentFailed](env.Payload)
	default:
		return nil, fmt.Errorf("entity - DecodeEventPayload - unknown event type %q: %w", env.EventType, errs.ErrValidation)
	}

	if err != nil {
		return nil, fmt.Errorf("entity - DecodeEventPayload - %s: %w", env.EventType, err)
	}

	return event, nil
}

func decodeAs[T Event](payload json.RawMessage) (Event, error) {
	var event T
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}

	return event, nil
}

// Event type tags.
const (
	EventTypeOrderCreated               = "OrderCreated"
	EventTypeOrderConfirmed             = "OrderConfirmed"
	EventTypeOrderCancelled             = "OrderCancelled"
	EventTypeOrderCompleted             = "OrderCompleted"
	EventTypeInventoryReserved          = "InventoryReserved"
	EventTypeInventoryReservationFailed = "InventoryReservationFailed"
	EventTypePaymentProcessed           = "PaymentProcessed"
	EventTypePaymentFailed              = "PaymentFailed"
)

// OrderCreated is emitted when a buyer places a new procurement order.
type OrderCreated struct {
	OrderID     string      `json:"order_id"`
	BuyerID     string      `json:"buyer_id"`
	SupplierID  string      `json:"supplier_id"`
	Items       []OrderItem `json:"items"`
	TotalAmount float64     `json:"total_amount"`
}

func (e OrderCreated) EventType() string { return EventTypeOrderCreated }

// OrderConfirmed is emitted when a pending order is confirmed.
type OrderConfirmed struct {
	OrderID string `json:"order_id"`
}

func (e OrderConfirmed) EventType() string { return EventTypeOrderConfirmed }

// OrderCancelled is emitted when an order is cancelled, e.g. after a failed saga.
type OrderCancelled struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
}

func (e OrderCancelled) EventType() string { return EventTypeOrderCancelled }

// OrderCompleted is emitted when a confirmed order is fulfilled.
type OrderCompleted struct {
	OrderID string `json:"order_id"`
}

func (e OrderCompleted) EventType() string { return EventTypeOrderCompleted }

// InventoryReserved reports a successful all-or-nothing reservation.
type InventoryReserved struct {
	OrderID string         `json:"order_id"`
	Items   []ReservedItem `json:"items"`
}

func (e InventoryReserved) EventType() string { return EventTypeInventoryReserved }

// ReservedItem is one (product, quantity) pair of a successful reservation.
type ReservedItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// InventoryReservationFailed reports the business-level failure of a
// reservation command. It is a normal saga branch, not an error.
type InventoryReservationFailed struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
}

func (e InventoryReservationFailed) EventType() string { return EventTypeInventoryReservationFailed }

// PaymentProcessed reports a successful payment for an order.
type PaymentProcessed struct {
	OrderID string `json:"order_id"`
}

func (e PaymentProcessed) EventType() string { return EventTypePaymentProcessed }

// PaymentFailed reports a declined payment for an order.
type PaymentFailed struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
}

func (e PaymentFailed) EventType() string { return EventTypePaymentFailed }

// Marshal serializes the envelope for the wire.
func (e *Envelope) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("entity - Envelope.Marshal - json.Marshal: %w", err)
	}

	return data, nil
}
