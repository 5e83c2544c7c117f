package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/agriflow/procurement/internal/entity"
)

type (
	// Transactor runs f inside one database transaction; repos called with
	// the derived ctx join it.
	Transactor interface {
		WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error
	}

	// OrderRepo -.
	OrderRepo interface {
		Create(ctx context.Context, order *entity.Order) error
		GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
		// Update applies an optimistic version check; a concurrent
		// conflicting write surfaces errs.ErrConcurrency.
		Update(ctx context.Context, order *entity.Order) error
	}

	// SagaRepo -.
	SagaRepo interface {
		Create(ctx context.Context, saga *entity.Saga) error
		// GetActiveByOrderID returns the single non-terminal saga for an
		// order, or errs.ErrRecordNotFound.
		GetActiveByOrderID(ctx context.Context, orderID string) (*entity.Saga, error)
		Update(ctx context.Context, saga *entity.Saga) error
	}

	// InventoryRepo -.
	InventoryRepo interface {
		// GetByProductIDForUpdate takes an exclusive row lock with a
		// bounded wait; exceeding it surfaces errs.ErrConcurrency.
		GetByProductIDForUpdate(ctx context.Context, productID string) (*entity.InventoryItem, error)
		GetByProductID(ctx context.Context, productID string) (*entity.InventoryItem, error)
		Update(ctx context.Context, item *entity.InventoryItem) error
		Seed(ctx context.Context, items []entity.InventoryItem) error
	}

	// ReservationRepo -.
	ReservationRepo interface {
		Create(ctx context.Context, reservation *entity.Reservation) error
		ListByOrderID(ctx context.Context, orderID string) ([]entity.Reservation, error)
		Delete(ctx context.Context, id uuid.UUID) error
	}

	// OutboxRepo -.
	OutboxRepo interface {
		Create(ctx context.Context, event *entity.OutboxEvent) error
		GetUnprocessed(ctx context.Context, limit int) ([]*entity.OutboxEvent, error)
		MarkProcessedBatch(ctx context.Context, ids uuid.UUIDs) error
	}

	// IdempotencyRepo -.
	IdempotencyRepo interface {
		Get(ctx context.Context, key string) (*entity.IdempotencyRecord, error)
		Create(ctx context.Context, record *entity.IdempotencyRecord) error
		Delete(ctx context.Context, key string) error
	}
)
