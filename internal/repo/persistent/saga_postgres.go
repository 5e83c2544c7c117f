package persistent

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/agriflow/procurement/internal/entity"
	"github.com/agriflow/procurement/pkg/postgres"
	"github.com/agriflow/procurement/pkg/types/errs"
)

const (
	// Table
	sagasTable = "procurement_sagas"

	// Columns
	sagaIDColumn                = "id"
	sagaOrderIDColumn           = "order_id"
	sagaBuyerIDColumn           = "buyer_id"
	sagaTotalAmountColumn       = "total_amount"
	sagaStatusColumn            = "status"
	sagaCurrentStepColumn       = "current_step"
	sagaInventoryReservedColumn = "inventory_reserved"
	sagaPaymentProcessedColumn  = "payment_processed"
	sagaFailureReasonColumn     = "failure_reason"
	sagaVersionColumn           = "version"
	sagaCreatedAtColumn         = "created_at"
	sagaUpdatedAtColumn         = "updated_at"
)

type SagaRepo struct {
	*postgres.Postgres
}

func NewSagaRepo(pg *postgres.Postgres) *SagaRepo {
	return &SagaRepo{pg}
}

func (r *SagaRepo) Create(ctx context.Context, saga *entity.Saga) error {
	sql, args, err := r.Builder.
		Insert(sagasTable).
		Columns(
			sagaIDColumn,
			sagaOrderIDColumn,
			sagaBuyerIDColumn,
			sagaTotalAmountColumn,
			sagaStatusColumn,
			sagaCurrentStepColumn,
			sagaInventoryReservedColumn,
			sagaPaymentProcessedColumn,
			sagaFailureReasonColumn,
			sagaVersionColumn,
			sagaCreatedAtColumn,
			sagaUpdatedAtColumn,
		).
		Values(
			saga.ID,
			saga.OrderID,
			saga.BuyerID,
			saga.TotalAmount,
			saga.Status,
			saga.CurrentStep,
			saga.InventoryReserved,
			saga.PaymentProcessed,
			saga.FailureReason,
			saga.Version,
			saga.CreatedAt,
			saga.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("SagaRepo - Create - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("SagaRepo - Create: %w", errs.ErrConflict)
		}
		return fmt.Errorf("SagaRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

func (r *SagaRepo) GetActiveByOrderID(ctx context.Context, orderID string) (*entity.Saga, error) {
	sql, args, err := r.Builder.
		Select(
			sagaIDColumn,
			sagaOrderIDColumn,
			sagaBuyerIDColumn,
			sagaTotalAmountColumn,
			sagaStatusColumn,
			sagaCurrentStepColumn,
			sagaInventoryReservedColumn,
			sagaPaymentProcessedColumn,
			sagaFailureReasonColumn,
			sagaVersionColumn,
			sagaCreatedAtColumn,
			sagaUpdatedAtColumn,
		).
		From(sagasTable).
		Where(squirrel.And{
			squirrel.Eq{sagaOrderIDColumn: orderID},
			squirrel.NotEq{sagaStatusColumn: []entity.SagaStatus{entity.SagaCompleted, entity.SagaFailed}},
		}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("SagaRepo - GetActiveByOrderID - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var saga entity.Saga
	err = executor.QueryRow(ctx, sql, args...).Scan(
		&saga.ID,
		&saga.OrderID,
		&saga.BuyerID,
		&saga.TotalAmount,
		&saga.Status,
		&saga.CurrentStep,
		&saga.InventoryReserved,
		&saga.PaymentProcessed,
		&saga.FailureReason,
		&saga.Version,
		&saga.CreatedAt,
		&saga.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("SagaRepo - GetActiveByOrderID: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("SagaRepo - GetActiveByOrderID - executor.QueryRow: %w", err)
	}

	return &saga, nil
}

// Update writes the saga back under an optimistic version check. A zero
// rows-affected result means another writer got there first; the caller
// relies on message redelivery to retry.
func (r *SagaRepo) Update(ctx context.Context, saga *entity.Saga) error {
	sql, args, err := r.Builder.
		Update(sagasTable).
		Set(sagaStatusColumn, saga.Status).
		Set(sagaCurrentStepColumn, saga.CurrentStep).
		Set(sagaInventoryReservedColumn, saga.InventoryReserved).
		Set(sagaPaymentProcessedColumn, saga.PaymentProcessed).
		Set(sagaFailureReasonColumn, saga.FailureReason).
		Set(sagaVersionColumn, saga.Version+1).
		Set(sagaUpdatedAtColumn, saga.UpdatedAt).
		Where(squirrel.And{
			squirrel.Eq{sagaIDColumn: saga.ID},
			squirrel.Eq{sagaVersionColumn: saga.Version},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("SagaRepo - Update - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("SagaRepo - Update - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("SagaRepo - Update: %w", errs.ErrConcurrency)
	}

	saga.Version++

	return nil
}
