package saga

import (
	"context"
	"errors"
	"fmt"

	"github.com/agriflow/procurement/internal/entity"
	"github.com/agriflow/procurement/internal/infrastructure"
	"github.com/agriflow/procurement/internal/repo"
	"github.com/agriflow/procurement/pkg/logger"
	"github.com/agriflow/procurement/pkg/types/errs"
)

// SagaUseCase is the orchestrator. It owns no business rules of its own:
// it reacts to events, advances the persisted saga, and issues the next
// command. A stale or out-of-order event never errors -- erroring would
// trigger redelivery of something that will stay stale forever -- it is
// logged and dropped.
type SagaUseCase struct {
	sagaRepo repo.SagaRepo
	sender   infrastructure.CommandSender

	inventoryCommandsTopic string
	paymentCommandsTopic   string
	orderCommandsTopic     string

	logger logger.Interface
}

func New(
	sagaRepo repo.SagaRepo,
	sender infrastructure.CommandSender,
	inventoryCommandsTopic string,
	paymentCommandsTopic string,
	orderCommandsTopic string,
	l logger.Interface,
) *SagaUseCase {
	return &SagaUseCase{
		sagaRepo:               sagaRepo,
		sender:                 sender,
		inventoryCommandsTopic: inventoryCommandsTopic,
		paymentCommandsTopic:   paymentCommandsTopic,
		orderCommandsTopic:     orderCommandsTopic,
		logger:                 l,
	}
}

// HandleOrderCreated opens a saga for the order and kicks off the first
// step. On a duplicate delivery the reserve command is re-sent as long as
// the saga is still waiting on it; the inventory service absorbs the
// repeat.
func (uc *SagaUseCase) HandleOrderCreated(ctx context.Context, event entity.OrderCreated) error {
	existing, err := uc.sagaRepo.GetActiveByOrderID(ctx, event.OrderID)
	if err != nil && !errors.Is(err, errs.ErrRecordNotFound) {
		return fmt.Errorf("SagaUseCase - HandleOrderCreated - uc.sagaRepo.GetActiveByOrderID: %w", err)
	}

	if existing != nil {
		if existing.CurrentStep == entity.StepReserveInventory && !existing.InventoryReserved {
			uc.logger.Info("SagaUseCase - HandleOrderCreated - saga for order %s already active, re-sending reserve command", event.OrderID)
			return uc.sendReserveInventory(ctx, event)
		}

		uc.logger.Warn("SagaUseCase - HandleOrderCreated - saga for order %s already past reservation, ignoring", event.OrderID)

		return nil
	}

	saga := entity.NewSaga(event.OrderID, event.BuyerID, event.TotalAmount)

	if err := uc.sagaRepo.Create(ctx, saga); err != nil {
		if errors.Is(err, errs.ErrConflict) {
			uc.logger.Warn("SagaUseCase - HandleOrderCreated - lost create race for order %s, ignoring", event.OrderID)
			return nil
		}
		return fmt.Errorf("SagaUseCase - HandleOrderCreated - uc.sagaRepo.Create: %w", err)
	}

	uc.logger.Info("SagaUseCase - HandleOrderCreated - saga %s started for order %s", saga.ID, saga.OrderID)

	return uc.sendReserveInventory(ctx, event)
}

func (uc *SagaUseCase) sendReserveInventory(ctx context.Context, event entity.OrderCreated) error {
	items := make([]entity.LineItem, 0, len(event.Items))
	for _, item := range event.Items {
		items = append(items, entity.LineItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	cmd := entity.ReserveInventory{OrderID: event.OrderID, Items: items}

	err := uc.sender.SendCommand(ctx, uc.inventoryCommandsTopic, event.OrderID, cmd)
	if err != nil {
		return fmt.Errorf("SagaUseCase - sendReserveInventory - uc.sender.SendCommand: %w", err)
	}

	return nil
}

// HandleInventoryReserved advances the saga to the payment step.
func (uc *SagaUseCase) HandleInventoryReserved(ctx context.Context, event entity.InventoryReserved) error {
	saga, ok, err := uc.loadActive(ctx, "HandleInventoryReserved", event.OrderID)
	if err != nil || !ok {
		return err
	}

	if saga.CurrentStep != entity.StepReserveInventory {
		uc.logger.Warn("SagaUseCase - HandleInventoryReserved - saga %s is at step %s, ignoring stale event", saga.ID, saga.CurrentStep)
		return nil
	}

	saga.InventoryReserved = true
	saga.MoveToNextStep()

	if err := uc.sagaRepo.Update(ctx, saga); err != nil {
		return fmt.Errorf("SagaUseCase - HandleInventoryReserved - uc.sagaRepo.Update: %w", err)
	}

	cmd := entity.ProcessPayment{
		OrderID:     saga.OrderID,
		BuyerID:     saga.BuyerID,
		TotalAmount: saga.TotalAmount,
	}

	err = uc.sender.SendCommand(ctx, uc.paymentCommandsTopic, saga.OrderID, cmd)
	if err != nil {
		return fmt.Errorf("SagaUseCase - HandleInventoryReserved - uc.sender.SendCommand: %w", err)
	}

	return nil
}

// HandleInventoryReservationFailed terminates the saga. Nothing was
// reserved, so there is nothing to compensate; the order is cancelled.
func (uc *SagaUseCase) HandleInventoryReservationFailed(ctx context.Context, event entity.InventoryReservationFailed) error {
	saga, ok, err := uc.loadActive(ctx, "HandleInventoryReservationFailed", event.OrderID)
	if err != nil || !ok {
		return err
	}

	if saga.CurrentStep != entity.StepReserveInventory {
		uc.logger.Warn("SagaUseCase - HandleInventoryReservationFailed - saga %s is at step %s, ignoring stale event", saga.ID, saga.CurrentStep)
		return nil
	}

	// nothing was reserved, so compensation is over before it starts
	saga.StartCompensation()
	saga.Fail(event.Reason)

	if err := uc.sagaRepo.Update(ctx, saga); err != nil {
		return fmt.Errorf("SagaUseCase - HandleInventoryReservationFailed - uc.sagaRepo.Update: %w", err)
	}

	uc.logger.Info("SagaUseCase - HandleInventoryReservationFailed - saga %s failed: %s", saga.ID, event.Reason)

	return uc.sendCancelOrder(ctx, saga.OrderID, event.Reason)
}

// HandlePaymentProcessed advances the saga to order confirmation.
func (uc *SagaUseCase) HandlePaymentProcessed(ctx context.Context, event entity.PaymentProcessed) error {
	saga, ok, err := uc.loadActive(ctx, "HandlePaymentProcessed", event.OrderID)
	if err != nil || !ok {
		return err
	}

	if saga.CurrentStep != entity.StepProcessPayment {
		uc.logger.Warn("SagaUseCase - HandlePaymentProcessed - saga %s is at step %s, ignoring stale event", saga.ID, saga.CurrentStep)
		return nil
	}

	saga.PaymentProcessed = true
	saga.MoveToNextStep()

	if err := uc.sagaRepo.Update(ctx, saga); err != nil {
		return fmt.Errorf("SagaUseCase - HandlePaymentProcessed - uc.sagaRepo.Update: %w", err)
	}

	cmd := entity.ConfirmOrder{OrderID: saga.OrderID}

	err = uc.sender.SendCommand(ctx, uc.orderCommandsTopic, saga.OrderID, cmd)
	if err != nil {
		return fmt.Errorf("SagaUseCase - HandlePaymentProcessed - uc.sender.SendCommand: %w", err)
	}

	return nil
}

// HandlePaymentFailed compensates the reservation and terminates the
// saga. CompensateInventory goes out only when stock was actually taken.
func (uc *SagaUseCase) HandlePaymentFailed(ctx context.Context, event entity.PaymentFailed) error {
	saga, ok, err := uc.loadActive(ctx, "HandlePaymentFailed", event.OrderID)
	if err != nil || !ok {
		return err
	}

	if saga.CurrentStep != entity.StepProcessPayment {
		uc.logger.Warn("SagaUseCase - HandlePaymentFailed - saga %s is at step %s, ignoring stale event", saga.ID, saga.CurrentStep)
		return nil
	}

	if saga.InventoryReserved {
		saga.StartCompensation()

		if err := uc.sagaRepo.Update(ctx, saga); err != nil {
			return fmt.Errorf("SagaUseCase - HandlePaymentFailed - uc.sagaRepo.Update: %w", err)
		}

		cmd := entity.CompensateInventory{OrderID: saga.OrderID}

		err = uc.sender.SendCommand(ctx, uc.inventoryCommandsTopic, saga.OrderID, cmd)
		if err != nil {
			return fmt.Errorf("SagaUseCase - HandlePaymentFailed - uc.sender.SendCommand: %w", err)
		}
	}

	saga.Fail(event.Reason)

	if err := uc.sagaRepo.Update(ctx, saga); err != nil {
		return fmt.Errorf("SagaUseCase - HandlePaymentFailed - uc.sagaRepo.Update: %w", err)
	}

	uc.logger.Info("SagaUseCase - HandlePaymentFailed - saga %s failed: %s", saga.ID, event.Reason)

	return uc.sendCancelOrder(ctx, saga.OrderID, event.Reason)
}

// HandleOrderConfirmed closes the saga.
func (uc *SagaUseCase) HandleOrderConfirmed(ctx context.Context, event entity.OrderConfirmed) error {
	saga, ok, err := uc.loadActive(ctx, "HandleOrderConfirmed", event.OrderID)
	if err != nil || !ok {
		return err
	}

	if saga.CurrentStep != entity.StepConfirmOrder {
		uc.logger.Warn("SagaUseCase - HandleOrderConfirmed - saga %s is at step %s, ignoring stale event", saga.ID, saga.CurrentStep)
		return nil
	}

	saga.Complete()

	if err := uc.sagaRepo.Update(ctx, saga); err != nil {
		return fmt.Errorf("SagaUseCase - HandleOrderConfirmed - uc.sagaRepo.Update: %w", err)
	}

	uc.logger.Info("SagaUseCase - HandleOrderConfirmed - saga %s completed for order %s", saga.ID, saga.OrderID)

	return nil
}

func (uc *SagaUseCase) loadActive(ctx context.Context, method, orderID string) (*entity.Saga, bool, error) {
	saga, err := uc.sagaRepo.GetActiveByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			uc.logger.Warn("SagaUseCase - %s - no active saga for order %s, ignoring", method, orderID)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("SagaUseCase - %s - uc.sagaRepo.GetActiveByOrderID: %w", method, err)
	}

	return saga, true, nil
}

func (uc *SagaUseCase) sendCancelOrder(ctx context.Context, orderID, reason string) error {
	cmd := entity.CancelOrder{OrderID: orderID, Reason: reason}

	err := uc.sender.SendCommand(ctx, uc.orderCommandsTopic, orderID, cmd)
	if err != nil {
		return fmt.Errorf("SagaUseCase - sendCancelOrder - uc.sender.SendCommand: %w", err)
	}

	return nil
}
