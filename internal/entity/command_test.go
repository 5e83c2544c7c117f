package entity

import (
	"testing"
)

func TestCommand_RoundTrip(t *testing.T) {
	commands := []Command{
		ReserveInventory{OrderID: "o", Items: []LineItem{{ProductID: "p", Quantity: 3}}},
		CompensateInventory{OrderID: "o"},
		ProcessPayment{OrderID: "o", BuyerID: "b", TotalAmount: 99.5},
		ConfirmOrder{OrderID: "o"},
		CancelOrder{OrderID: "o", Reason: "declined"},
	}

	for _, src := range commands {
		raw, err := MarshalCommand(src)
		if err != nil {
			t.Fatalf("MarshalCommand(%s) failed: %v", src.CommandType(), err)
		}

		decoded, err := DecodeCommand(raw)
		if err != nil {
			t.Fatalf("DecodeCommand(%s) failed: %v", src.CommandType(), err)
		}
		if decoded.CommandType() != src.CommandType() {
			t.Errorf("expected %s back, got %s", src.CommandType(), decoded.CommandType())
		}
	}
}

// Legacy inventory command payloads carry no command_type tag; the
// decoder falls back to field inspection.
func TestDecodeCommand_StructuralFallback(t *testing.T) {
	reserve := []byte(`{"order_id":"o","items":[{"product_id":"p","quantity":2}]}`)

	cmd, err := DecodeCommand(reserve)
	if err != nil {
		t.Fatalf("DecodeCommand failed: %v", err)
	}

	rc, ok := cmd.(ReserveInventory)
	if !ok {
		t.Fatalf("expected ReserveInventory for tagless payload with items, got %T", cmd)
	}
	if len(rc.Items) != 1 || rc.Items[0].Quantity != 2 {
		t.Errorf("items mangled: %+v", rc.Items)
	}

	compensate := []byte(`{"order_id":"o"}`)

	cmd, err = DecodeCommand(compensate)
	if err != nil {
		t.Fatalf("DecodeCommand failed: %v", err)
	}
	if _, ok := cmd.(CompensateInventory); !ok {
		t.Fatalf("expected CompensateInventory for tagless payload without items, got %T", cmd)
	}
}

func TestDecodeCommand_TagWinsOverStructure(t *testing.T) {
	// an explicit tag is authoritative even when an items field is present
	payload := []byte(`{"command_type":"CompensateInventory","order_id":"o","items":[]}`)

	cmd, err := DecodeCommand(payload)
	if err != nil {
		t.Fatalf("DecodeCommand failed: %v", err)
	}
	if _, ok := cmd.(CompensateInventory); !ok {
		t.Fatalf("expected tag dispatch to win, got %T", cmd)
	}
}
