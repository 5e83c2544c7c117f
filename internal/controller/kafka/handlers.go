package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/agriflow/procurement/internal/entity"
	"github.com/agriflow/procurement/internal/usecase"
	"github.com/agriflow/procurement/pkg/logger"
	"github.com/agriflow/procurement/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// SagaEventsHandler feeds order, inventory and payment events to the
// orchestrator. Dispatch is by the envelope's event_type tag; event
// types the orchestrator has no interest in are dropped silently.
type SagaEventsHandler struct {
	saga   usecase.SagaUseCase
	logger logger.Interface
}

func NewSagaEventsHandler(saga usecase.SagaUseCase, l logger.Interface) *SagaEventsHandler {
	return &SagaEventsHandler{saga: saga, logger: l}
}

func (h *SagaEventsHandler) Handle(ctx context.Context, msg kafka.Message) error {
	env, err := entity.DecodeEnvelope(msg.Value)
	if err != nil {
		return fmt.Errorf("SagaEventsHandler - Handle - entity.DecodeEnvelope: %w", err)
	}

	event, err := entity.DecodeEventPayload(env)
	if err != nil {
		return fmt.Errorf("SagaEventsHandler - Handle - entity.DecodeEventPayload: %w", err)
	}

	switch e := event.(type) {
	case entity.OrderCreated:
		return h.saga.HandleOrderCreated(ctx, e)
	case entity.OrderConfirmed:
		return h.saga.HandleOrderConfirmed(ctx, e)
	case entity.InventoryReserved:
		return h.saga.HandleInventoryReserved(ctx, e)
	case entity.InventoryReservationFailed:
		return h.saga.HandleInventoryReservationFailed(ctx, e)
	case entity.PaymentProcessed:
		return h.saga.HandlePaymentProcessed(ctx, e)
	case entity.PaymentFailed:
		return h.saga.HandlePaymentFailed(ctx, e)
	default:
		h.logger.Debug("SagaEventsHandler - Handle - event type %s is not orchestrated, skipping", env.EventType)
		return nil
	}
}

// InventoryCommandsHandler serves the inventory service side of the bus.
type InventoryCommandsHandler struct {
	inventory usecase.InventoryUseCase
	logger    logger.Interface
}

func NewInventoryCommandsHandler(inventory usecase.InventoryUseCase, l logger.Interface) *InventoryCommandsHandler {
	return &InventoryCommandsHandler{inventory: inventory, logger: l}
}

func (h *InventoryCommandsHandler) Handle(ctx context.Context, msg kafka.Message) error {
	cmd, err := entity.DecodeCommand(msg.Value)
	if err != nil {
		return fmt.Errorf("InventoryCommandsHandler - Handle - entity.DecodeCommand: %w", err)
	}

	switch c := cmd.(type) {
	case entity.ReserveInventory:
		return h.inventory.Reserve(ctx, c)
	case entity.CompensateInventory:
		return h.inventory.Release(ctx, c)
	default:
		h.logger.Warn("InventoryCommandsHandler - Handle - unexpected command %s, skipping", cmd.CommandType())
		return nil
	}
}

// PaymentCommandsHandler serves the payment service side of the bus.
type PaymentCommandsHandler struct {
	payment usecase.PaymentUseCase
	logger  logger.Interface
}

func NewPaymentCommandsHandler(payment usecase.PaymentUseCase, l logger.Interface) *PaymentCommandsHandler {
	return &PaymentCommandsHandler{payment: payment, logger: l}
}

func (h *PaymentCommandsHandler) Handle(ctx context.Context, msg kafka.Message) error {
	cmd, err := entity.DecodeCommand(msg.Value)
	if err != nil {
		return fmt.Errorf("PaymentCommandsHandler - Handle - entity.DecodeCommand: %w", err)
	}

	switch c := cmd.(type) {
	case entity.ProcessPayment:
		return h.payment.Process(ctx, c)
	default:
		h.logger.Warn("PaymentCommandsHandler - Handle - unexpected command %s, skipping", cmd.CommandType())
		return nil
	}
}

// OrderCommandsHandler applies the orchestrator's confirm/cancel
// decisions to the order aggregate. A transition already applied by an
// earlier delivery surfaces as ErrConflict and is treated as done.
type OrderCommandsHandler struct {
	order  usecase.OrderUseCase
	logger logger.Interface
}

func NewOrderCommandsHandler(order usecase.OrderUseCase, l logger.Interface) *OrderCommandsHandler {
	return &OrderCommandsHandler{order: order, logger: l}
}

func (h *OrderCommandsHandler) Handle(ctx context.Context, msg kafka.Message) error {
	cmd, err := entity.DecodeCommand(msg.Value)
	if err != nil {
		return fmt.Errorf("OrderCommandsHandler - Handle - entity.DecodeCommand: %w", err)
	}

	switch c := cmd.(type) {
	case entity.ConfirmOrder:
		orderID, err := uuid.Parse(c.OrderID)
		if err != nil {
			return fmt.Errorf("OrderCommandsHandler - Handle - uuid.Parse: %w", err)
		}

		err = h.order.ConfirmOrder(ctx, orderID)
		if errors.Is(err, errs.ErrConflict) {
			h.logger.Warn("OrderCommandsHandler - Handle - order %s already transitioned, skipping confirm", c.OrderID)
			return nil
		}

		return err
	case entity.CancelOrder:
		orderID, err := uuid.Parse(c.OrderID)
		if err != nil {
			return fmt.Errorf("OrderCommandsHandler - Handle - uuid.Parse: %w", err)
		}

		err = h.order.CancelOrder(ctx, orderID, c.Reason)
		if errors.Is(err, errs.ErrConflict) {
			h.logger.Warn("OrderCommandsHandler - Handle - order %s already transitioned, skipping cancel", c.OrderID)
			return nil
		}

		return err
	default:
		h.logger.Warn("OrderCommandsHandler - Handle - unexpected command %s, skipping", cmd.CommandType())
		return nil
	}
}
