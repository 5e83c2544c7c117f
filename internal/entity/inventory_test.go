package entity

import (
	"errors"
	"testing"

	"github.com/agriflow/procurement/pkg/types/errs"
	"github.com/google/uuid"
)

func TestInventoryItem_ReserveRelease(t *testing.T) {
	item := &InventoryItem{
		ID:                uuid.New(),
		ProductID:         "WHEAT-001",
		ProductName:       "Winter Wheat",
		AvailableQuantity: 100,
		ReservedQuantity:  0,
	}
	total := item.AvailableQuantity + item.ReservedQuantity

	if err := item.Reserve(30); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if item.AvailableQuantity != 70 || item.ReservedQuantity != 30 {
		t.Errorf("expected 70/30, got %d/%d", item.AvailableQuantity, item.ReservedQuantity)
	}
	if item.AvailableQuantity+item.ReservedQuantity != total {
		t.Error("reserve must conserve total quantity")
	}

	if err := item.Release(30); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if item.AvailableQuantity != 100 || item.ReservedQuantity != 0 {
		t.Errorf("expected 100/0, got %d/%d", item.AvailableQuantity, item.ReservedQuantity)
	}
	if item.AvailableQuantity+item.ReservedQuantity != total {
		t.Error("release must conserve total quantity")
	}
}

func TestInventoryItem_OverReserve(t *testing.T) {
	item := &InventoryItem{ProductID: "CORN-001", AvailableQuantity: 5}

	err := item.Reserve(6)
	if !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if item.AvailableQuantity != 5 || item.ReservedQuantity != 0 {
		t.Error("failed reserve must not change quantities")
	}
}

func TestInventoryItem_OverRelease(t *testing.T) {
	item := &InventoryItem{ProductID: "CORN-001", AvailableQuantity: 5, ReservedQuantity: 2}

	err := item.Release(3)
	if !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if item.AvailableQuantity != 5 || item.ReservedQuantity != 2 {
		t.Error("failed release must not change quantities")
	}
}
