package usecase

import (
	"context"

	"github.com/agriflow/procurement/internal/dto"
	"github.com/agriflow/procurement/internal/entity"
	"github.com/google/uuid"
)

type (
	OrderUseCase interface {
		CreateOrder(ctx context.Context, idempotencyKey string, req dto.CreateOrder) (*entity.Order, error)
		GetOrder(ctx context.Context, id uuid.UUID) (*entity.Order, error)
		ConfirmOrder(ctx context.Context, orderID uuid.UUID) error
		CancelOrder(ctx context.Context, orderID uuid.UUID, reason string) error
		CompleteOrder(ctx context.Context, orderID uuid.UUID) error
	}

	SagaUseCase interface {
		HandleOrderCreated(ctx context.Context, event entity.OrderCreated) error
		HandleOrderConfirmed(ctx context.Context, event entity.OrderConfirmed) error
		HandleInventoryReserved(ctx context.Context, event entity.InventoryReserved) error
		HandleInventoryReservationFailed(ctx context.Context, event entity.InventoryReservationFailed) error
		HandlePaymentProcessed(ctx context.Context, event entity.PaymentProcessed) error
		HandlePaymentFailed(ctx context.Context, event entity.PaymentFailed) error
	}

	InventoryUseCase interface {
		Reserve(ctx context.Context, cmd entity.ReserveInventory) error
		Release(ctx context.Context, cmd entity.CompensateInventory) error
		GetStock(ctx context.Context, productID string) (*entity.InventoryItem, error)
	}

	PaymentUseCase interface {
		Process(ctx context.Context, cmd entity.ProcessPayment) error
	}

	// IdempotencyGuard runs op at most once per key. The op's byte response
	// is stored alongside the key in the same transaction and replayed on
	// every later call with that key until the record expires.
	IdempotencyGuard interface {
		Execute(ctx context.Context, key string, op func(ctx context.Context) ([]byte, error)) ([]byte, error)
	}

	OutboxUseCase interface {
		GetUnprocessedEvents(ctx context.Context, limit int) ([]*entity.OutboxEvent, error)
		MarkEventsProcessed(ctx context.Context, ids uuid.UUIDs) error
	}
)
