package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/agriflow/procurement/pkg/types/errs"
)

// InventoryItem is the quantity ledger for one product. The sum of
// available and reserved quantity is constant across any sequence of
// reserve/release operations.
type InventoryItem struct {
	ID                uuid.UUID `json:"id"`
	ProductID         string    `json:"product_id"`
	ProductName       string    `json:"product_name"`
	AvailableQuantity int       `json:"available_quantity"`
	ReservedQuantity  int       `json:"reserved_quantity"`
	Version           int64     `json:"version"`
}

// HasAvailableQuantity -.
func (i *InventoryItem) HasAvailableQuantity(quantity int) bool {
	return i.AvailableQuantity >= quantity
}

// Reserve moves quantity from available to reserved. Over-reserving is an
// illegal state, not a clamp.
func (i *InventoryItem) Reserve(quantity int) error {
	if !i.HasAvailableQuantity(quantity) {
		return fmt.Errorf(
			"entity - InventoryItem.Reserve - insufficient inventory for product %s. Available: %d, Requested: %d: %w",
			i.ProductID, i.AvailableQuantity, quantity, errs.ErrConflict,
		)
	}

	i.AvailableQuantity -= quantity
	i.ReservedQuantity += quantity

	return nil
}

// Release moves quantity back from reserved to available. Releasing more
// than is reserved is an illegal state.
func (i *InventoryItem) Release(quantity int) error {
	if i.ReservedQuantity < quantity {
		return fmt.Errorf(
			"entity - InventoryItem.Release - cannot release more than reserved for product %s. Reserved: %d, Release requested: %d: %w",
			i.ProductID, i.ReservedQuantity, quantity, errs.ErrConflict,
		)
	}

	i.ReservedQuantity -= quantity
	i.AvailableQuantity += quantity

	return nil
}

// Reservation is one reserved line item of an order, created atomically
// with the inventory decrement and deleted atomically with the matching
// increment during compensation.
type Reservation struct {
	ID        uuid.UUID `json:"id"`
	OrderID   string    `json:"order_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	Version   int64     `json:"version"`
}

// NewReservation -.
func NewReservation(orderID, productID string, quantity int) *Reservation {
	return &Reservation{
		ID:        uuid.New(),
		OrderID:   orderID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: time.Now(),
	}
}
