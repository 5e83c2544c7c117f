package entity

import "testing"

func TestSaga_StepProgression(t *testing.T) {
	saga := NewSaga("order-1", "buyer-1", 500.0)

	if saga.Status != SagaStarted {
		t.Errorf("expected status %s, got %s", SagaStarted, saga.Status)
	}
	if saga.CurrentStep != StepReserveInventory {
		t.Errorf("expected step %s, got %s", StepReserveInventory, saga.CurrentStep)
	}

	steps := []SagaStep{StepProcessPayment, StepConfirmOrder, StepCompleted}
	for _, want := range steps {
		saga.MoveToNextStep()
		if saga.CurrentStep != want {
			t.Fatalf("expected step %s, got %s", want, saga.CurrentStep)
		}
	}

	// the step order is fixed; advancing past the end stays put
	saga.MoveToNextStep()
	if saga.CurrentStep != StepCompleted {
		t.Errorf("expected step to stay %s, got %s", StepCompleted, saga.CurrentStep)
	}
}

func TestSaga_Complete(t *testing.T) {
	saga := NewSaga("order-1", "buyer-1", 500.0)
	saga.MoveToNextStep()
	saga.MoveToNextStep()
	saga.Complete()

	if saga.Status != SagaCompleted {
		t.Errorf("expected status %s, got %s", SagaCompleted, saga.Status)
	}
	if !saga.IsTerminal() {
		t.Error("completed saga must be terminal")
	}
}

func TestSaga_CompensationAndFailure(t *testing.T) {
	saga := NewSaga("order-1", "buyer-1", 500.0)
	saga.InventoryReserved = true
	saga.MoveToNextStep()

	saga.StartCompensation()
	if saga.Status != SagaCompensating {
		t.Errorf("expected status %s, got %s", SagaCompensating, saga.Status)
	}
	if saga.IsTerminal() {
		t.Error("compensating saga is not terminal yet")
	}

	saga.Fail("Payment declined for buyer buyer-1: amount 500.00 exceeds limit 100.00")
	if saga.Status != SagaFailed {
		t.Errorf("expected status %s, got %s", SagaFailed, saga.Status)
	}
	if saga.FailureReason == nil || *saga.FailureReason == "" {
		t.Error("expected failure reason to be recorded")
	}
	if !saga.IsTerminal() {
		t.Error("failed saga must be terminal")
	}
}
