package entity

import (
	"testing"
)

func TestEnvelope_RoundTrip(t *testing.T) {
	src := OrderCreated{
		OrderID:    "order-1",
		BuyerID:    "buyer-1",
		SupplierID: "supplier-1",
		Items: []OrderItem{
			{ProductID: "WHEAT-001", ProductName: "Winter Wheat", Quantity: 10, Price: 250.0, Unit: "t"},
		},
		TotalAmount: 2500.0,
	}

	env, err := NewEnvelope("order-1", 0, src)
	if err != nil {
		t.Fatalf("NewEnvelope failed: %v", err)
	}
	if env.EventType != EventTypeOrderCreated {
		t.Errorf("expected event type %s, got %s", EventTypeOrderCreated, env.EventType)
	}

	raw, err := env.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	decoded, err := DecodeEnvelope(raw)
	if err != nil {
		t.Fatalf("DecodeEnvelope failed: %v", err)
	}
	if decoded.EventID != env.EventID {
		t.Errorf("event id changed in transit: %s != %s", decoded.EventID, env.EventID)
	}
	if decoded.AggregateID != "order-1" {
		t.Errorf("expected aggregate id order-1, got %s", decoded.AggregateID)
	}

	event, err := DecodeEventPayload(decoded)
	if err != nil {
		t.Fatalf("DecodeEventPayload failed: %v", err)
	}

	got, ok := event.(OrderCreated)
	if !ok {
		t.Fatalf("expected OrderCreated, got %T", event)
	}
	if got.TotalAmount != src.TotalAmount || len(got.Items) != 1 {
		t.Errorf("payload mangled in transit: %+v", got)
	}
}

func TestDecodeEventPayload_DispatchesByTag(t *testing.T) {
	events := []Event{
		OrderConfirmed{OrderID: "o"},
		OrderCancelled{OrderID: "o", Reason: "r"},
		OrderCompleted{OrderID: "o"},
		InventoryReserved{OrderID: "o", Items: []ReservedItem{{ProductID: "p", Quantity: 1}}},
		InventoryReservationFailed{OrderID: "o", Reason: "Product not found: p"},
		PaymentProcessed{OrderID: "o"},
		PaymentFailed{OrderID: "o", Reason: "declined"},
	}

	for _, src := range events {
		env, err := NewEnvelope("o", 0, src)
		if err != nil {
			t.Fatalf("NewEnvelope(%s) failed: %v", src.EventType(), err)
		}

		raw, err := env.Marshal()
		if err != nil {
			t.Fatalf("Marshal(%s) failed: %v", src.EventType(), err)
		}

		decoded, err := DecodeEnvelope(raw)
		if err != nil {
			t.Fatalf("DecodeEnvelope(%s) failed: %v", src.EventType(), err)
		}

		event, err := DecodeEventPayload(decoded)
		if err != nil {
			t.Fatalf("DecodeEventPayload(%s) failed: %v", src.EventType(), err)
		}
		if event.EventType() != src.EventType() {
			t.Errorf("expected %s back, got %s", src.EventType(), event.EventType())
		}
	}
}

func TestDecodeEnvelope_UnknownType(t *testing.T) {
	env, err := NewEnvelope("o", 0, OrderConfirmed{OrderID: "o"})
	if err != nil {
		t.Fatal(err)
	}
	env.EventType = "SupplierRated"

	if _, err := DecodeEventPayload(env); err == nil {
		t.Error("expected error for unknown event type")
	}
}
