package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/agriflow/procurement/pkg/types/errs"
)

// OrderStatus -.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
)

// OrderItem is one line of a procurement order.
type OrderItem struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Unit        string  `json:"unit"`
}

// Subtotal -.
func (i OrderItem) Subtotal() float64 {
	return float64(i.Quantity) * i.Price
}

// Order is the procurement order aggregate. The saga never mutates it
// directly, only through commands handled by the order service. Mutating
// methods return the emitted domain event explicitly instead of queueing
// it on the aggregate.
type Order struct {
	ID          uuid.UUID   `json:"id"`
	BuyerID     string      `json:"buyer_id"`
	SupplierID  string      `json:"supplier_id"`
	Items       []OrderItem `json:"items"`
	Status      OrderStatus `json:"status"`
	TotalAmount float64     `json:"total_amount"`
	Version     int64       `json:"version"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// NewOrder validates the request and returns the aggregate in PENDING
// together with its OrderCreated event.
func NewOrder(buyerID, supplierID string, items []OrderItem) (*Order, Event, error) {
	if buyerID == "" {
		return nil, nil, fmt.Errorf("entity - NewOrder - buyer id is required: %w", errs.ErrValidation)
	}
	if supplierID == "" {
		return nil, nil, fmt.Errorf("entity - NewOrder - supplier id is required: %w", errs.ErrValidation)
	}
	if len(items) == 0 {
		return nil, nil, fmt.Errorf("entity - NewOrder - order must have at least one item: %w", errs.ErrValidation)
	}
	for _, item := range items {
		if item.ProductID == "" || item.Quantity <= 0 || item.Price < 0 {
			return nil, nil, fmt.Errorf("entity - NewOrder - invalid line item %q: %w", item.ProductID, errs.ErrValidation)
		}
	}

	now := time.Now()
	order := &Order{
		ID:         uuid.New(),
		BuyerID:    buyerID,
		SupplierID: supplierID,
		Items:      items,
		Status:     OrderStatusPending,
		Version:    0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	for _, item := range items {
		order.TotalAmount += item.Subtotal()
	}

	event := OrderCreated{
		OrderID:     order.ID.String(),
		BuyerID:     order.BuyerID,
		SupplierID:  order.SupplierID,
		Items:       order.Items,
		TotalAmount: order.TotalAmount,
	}

	return order, event, nil
}

// Confirm moves PENDING -> CONFIRMED.
func (o *Order) Confirm() (Event, error) {
	if o.Status != OrderStatusPending {
		return nil, fmt.Errorf("entity - Order.Confirm - cannot confirm order in status %s: %w", o.Status, errs.ErrConflict)
	}

	o.Status = OrderStatusConfirmed
	o.UpdatedAt = time.Now()

	return OrderConfirmed{OrderID: o.ID.String()}, nil
}

// Cancel moves any non-terminal status -> CANCELLED.
func (o *Order) Cancel(reason string) (Event, error) {
	if o.Status == OrderStatusCompleted {
		return nil, fmt.Errorf("entity - Order.Cancel - cannot cancel a completed order: %w", errs.ErrConflict)
	}
	if o.Status == OrderStatusCancelled {
		return nil, fmt.Errorf("entity - Order.Cancel - order is already cancelled: %w", errs.ErrConflict)
	}

	o.Status = OrderStatusCancelled
	o.UpdatedAt = time.Now()

	return OrderCancelled{OrderID: o.ID.String(), Reason: reason}, nil
}

// Complete moves CONFIRMED -> COMPLETED.
func (o *Order) Complete() (Event, error) {
	if o.Status != OrderStatusConfirmed {
		return nil, fmt.Errorf("entity - Order.Complete - cannot complete order in status %s: %w", o.Status, errs.ErrConflict)
	}

	o.Status = OrderStatusCompleted
	o.UpdatedAt = time.Now()

	return OrderCompleted{OrderID: o.ID.String()}, nil
}
