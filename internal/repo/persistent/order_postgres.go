package persistent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/agriflow/procurement/internal/entity"
	"github.com/agriflow/procurement/pkg/postgres"
	"github.com/agriflow/procurement/pkg/types/errs"
)

const (
	// Table
	ordersTable = "orders"

	// Columns
	orderIDColumn          = "id"
	orderBuyerIDColumn     = "buyer_id"
	orderSupplierIDColumn  = "supplier_id"
	orderItemsColumn       = "items"
	orderStatusColumn      = "status"
	orderTotalAmountColumn = "total_amount"
	orderVersionColumn     = "version"
	orderCreatedAtColumn   = "created_at"
	orderUpdatedAtColumn   = "updated_at"
)

type OrderRepo struct {
	*postgres.Postgres
}

func NewOrderRepo(pg *postgres.Postgres) *OrderRepo {
	return &OrderRepo{pg}
}

func (r *OrderRepo) Create(ctx context.Context, order *entity.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("OrderRepo - Create - json.Marshal: %w", err)
	}

	sql, args, err := r.Builder.
		Insert(ordersTable).
		Columns(
			orderIDColumn,
			orderBuyerIDColumn,
			orderSupplierIDColumn,
			orderItemsColumn,
			orderStatusColumn,
			orderTotalAmountColumn,
			orderVersionColumn,
			orderCreatedAtColumn,
			orderUpdatedAtColumn,
		).
		Values(
			order.ID,
			order.BuyerID,
			order.SupplierID,
			items,
			order.Status,
			order.TotalAmount,
			order.Version,
			order.CreatedAt,
			order.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("OrderRepo - Create - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("OrderRepo - Create: %w", errs.ErrConflict)
		}
		return fmt.Errorf("OrderRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

func (r *OrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	sql, args, err := r.Builder.
		Select(
			orderIDColumn,
			orderBuyerIDColumn,
			orderSupplierIDColumn,
			orderItemsColumn,
			orderStatusColumn,
			orderTotalAmountColumn,
			orderVersionColumn,
			orderCreatedAtColumn,
			orderUpdatedAtColumn,
		).
		From(ordersTable).
		Where(squirrel.Eq{orderIDColumn: id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("OrderRepo - GetByID - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var (
		order entity.Order
		items []byte
	)
	err = executor.QueryRow(ctx, sql, args...).Scan(
		&order.ID,
		&order.BuyerID,
		&order.SupplierID,
		&items,
		&order.Status,
		&order.TotalAmount,
		&order.Version,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("OrderRepo - GetByID: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("OrderRepo - GetByID - executor.QueryRow: %w", err)
	}

	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, fmt.Errorf("OrderRepo - GetByID - json.Unmarshal: %w", err)
	}

	return &order, nil
}

func (r *OrderRepo) Update(ctx context.Context, order *entity.Order) error {
	sql, args, err := r.Builder.
		Update(ordersTable).
		Set(orderStatusColumn, order.Status).
		Set(orderVersionColumn, order.Version+1).
		Set(orderUpdatedAtColumn, order.UpdatedAt).
		Where(squirrel.And{
			squirrel.Eq{orderIDColumn: order.ID},
			squirrel.Eq{orderVersionColumn: order.Version},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("OrderRepo - Update - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("OrderRepo - Update - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("OrderRepo - Update: %w", errs.ErrConcurrency)
	}

	order.Version++

	return nil
}
