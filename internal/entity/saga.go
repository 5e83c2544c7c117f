package entity

import (
	"time"

	"github.com/google/uuid"
)

// SagaStatus -.
type SagaStatus string

const (
	SagaStarted      SagaStatus = "STARTED"
	SagaProcessing   SagaStatus = "PROCESSING"
	SagaCompensating SagaStatus = "COMPENSATING"
	SagaCompleted    SagaStatus = "COMPLETED"
	SagaFailed       SagaStatus = "FAILED"
)

// SagaStep -.
type SagaStep string

const (
	StepReserveInventory SagaStep = "RESERVE_INVENTORY"
	StepProcessPayment   SagaStep = "PROCESS_PAYMENT"
	StepConfirmOrder     SagaStep = "CONFIRM_ORDER"
	StepCompleted        SagaStep = "COMPLETED"
)

// Saga is the persisted state of one order's coordination. At most one
// non-terminal saga exists per order id; the record is kept as an audit
// trail after it terminates.
type Saga struct {
	ID                uuid.UUID  `json:"id"`
	OrderID           string     `json:"order_id"`
	BuyerID           string     `json:"buyer_id"`
	TotalAmount       float64    `json:"total_amount"`
	Status            SagaStatus `json:"status"`
	CurrentStep       SagaStep   `json:"current_step"`
	InventoryReserved bool       `json:"inventory_reserved"`
	PaymentProcessed  bool       `json:"payment_processed"`
	FailureReason     *string    `json:"failure_reason,omitempty"`
	Version           int64      `json:"version"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// NewSaga -.
func NewSaga(orderID, buyerID string, totalAmount float64) *Saga {
	now := time.Now()

	return &Saga{
		ID:          uuid.New(),
		OrderID:     orderID,
		BuyerID:     buyerID,
		TotalAmount: totalAmount,
		Status:      SagaStarted,
		CurrentStep: StepReserveInventory,
		Version:     0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsTerminal reports whether the saga accepts no further transitions.
func (s *Saga) IsTerminal() bool {
	return s.Status == SagaCompleted || s.Status == SagaFailed
}

// MoveToNextStep advances the fixed step order; the step never regresses.
func (s *Saga) MoveToNextStep() {
	s.Status = SagaProcessing

	switch s.CurrentStep {
	case StepReserveInventory:
		s.CurrentStep = StepProcessPayment
	case StepProcessPayment:
		s.CurrentStep = StepConfirmOrder
	case StepConfirmOrder:
		s.CurrentStep = StepCompleted
	}

	s.UpdatedAt = time.Now()
}

// StartCompensation -.
func (s *Saga) StartCompensation() {
	s.Status = SagaCompensating
	s.UpdatedAt = time.Now()
}

// Fail terminates the saga with a reason.
func (s *Saga) Fail(reason string) {
	s.Status = SagaFailed
	s.FailureReason = &reason
	s.UpdatedAt = time.Now()
}

// Complete terminates the saga successfully.
func (s *Saga) Complete() {
	s.Status = SagaCompleted
	s.CurrentStep = StepCompleted
	s.UpdatedAt = time.Now()
}
