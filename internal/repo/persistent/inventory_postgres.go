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
	inventoryTable = "inventory_items"

	// Columns
	inventoryIDColumn                = "id"
	inventoryProductIDColumn         = "product_id"
	inventoryProductNameColumn       = "product_name"
	inventoryAvailableQuantityColumn = "available_quantity"
	inventoryReservedQuantityColumn  = "reserved_quantity"
	inventoryVersionColumn           = "version"
)

type InventoryRepo struct {
	*postgres.Postgres

	lockTimeout string
}

func NewInventoryRepo(pg *postgres.Postgres, opts ...InventoryRepoOption) *InventoryRepo {
	r := &InventoryRepo{
		Postgres:    pg,
		lockTimeout: "3s",
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

type InventoryRepoOption func(*InventoryRepo)

func LockTimeout(timeout string) InventoryRepoOption {
	return func(r *InventoryRepo) {
		r.lockTimeout = timeout
	}
}

// GetByProductIDForUpdate locks the inventory row for the rest of the
// surrounding transaction. Must be called inside WithinTransaction:
// SET LOCAL is scoped to the transaction, and the row lock is useless
// without one. Lock waits are bounded by lock_timeout so two sagas
// fighting over the same products fail fast with ErrConcurrency and
// get retried via redelivery instead of deadlocking.
func (r *InventoryRepo) GetByProductIDForUpdate(ctx context.Context, productID string) (*entity.InventoryItem, error) {
	executor := r.GetExecutor(ctx)

	_, err := executor.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%s'", r.lockTimeout))
	if err != nil {
		return nil, fmt.Errorf("InventoryRepo - GetByProductIDForUpdate - executor.Exec: %w", err)
	}

	sql, args, err := r.Builder.
		Select(
			inventoryIDColumn,
			inventoryProductIDColumn,
			inventoryProductNameColumn,
			inventoryAvailableQuantityColumn,
			inventoryReservedQuantityColumn,
			inventoryVersionColumn,
		).
		From(inventoryTable).
		Where(squirrel.Eq{inventoryProductIDColumn: productID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("InventoryRepo - GetByProductIDForUpdate - r.Builder.ToSql: %w", err)
	}

	item, err := r.scanOne(ctx, sql, args)
	if err != nil {
		if postgres.IsLockTimeout(err) {
			return nil, fmt.Errorf("InventoryRepo - GetByProductIDForUpdate: %w", errs.ErrConcurrency)
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("InventoryRepo - GetByProductIDForUpdate: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("InventoryRepo - GetByProductIDForUpdate - r.scanOne: %w", err)
	}

	return item, nil
}

func (r *InventoryRepo) GetByProductID(ctx context.Context, productID string) (*entity.InventoryItem, error) {
	sql, args, err := r.Builder.
		Select(
			inventoryIDColumn,
			inventoryProductIDColumn,
			inventoryProductNameColumn,
			inventoryAvailableQuantityColumn,
			inventoryReservedQuantityColumn,
			inventoryVersionColumn,
		).
		From(inventoryTable).
		Where(squirrel.Eq{inventoryProductIDColumn: productID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("InventoryRepo - GetByProductID - r.Builder.ToSql: %w", err)
	}

	item, err := r.scanOne(ctx, sql, args)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("InventoryRepo - GetByProductID: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("InventoryRepo - GetByProductID - r.scanOne: %w", err)
	}

	return item, nil
}

func (r *InventoryRepo) scanOne(ctx context.Context, sql string, args []any) (*entity.InventoryItem, error) {
	executor := r.GetExecutor(ctx)

	var item entity.InventoryItem
	err := executor.QueryRow(ctx, sql, args...).Scan(
		&item.ID,
		&item.ProductID,
		&item.ProductName,
		&item.AvailableQuantity,
		&item.ReservedQuantity,
		&item.Version,
	)
	if err != nil {
		return nil, err
	}

	return &item, nil
}

func (r *InventoryRepo) Update(ctx context.Context, item *entity.InventoryItem) error {
	sql, args, err := r.Builder.
		Update(inventoryTable).
		Set(inventoryAvailableQuantityColumn, item.AvailableQuantity).
		Set(inventoryReservedQuantityColumn, item.ReservedQuantity).
		Set(inventoryVersionColumn, item.Version+1).
		Where(squirrel.And{
			squirrel.Eq{inventoryIDColumn: item.ID},
			squirrel.Eq{inventoryVersionColumn: item.Version},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("InventoryRepo - Update - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("InventoryRepo - Update - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("InventoryRepo - Update: %w", errs.ErrConcurrency)
	}

	item.Version++

	return nil
}

// Seed inserts stock rows if they are not present yet. Reruns on boot
// are harmless: existing products keep their quantities.
func (r *InventoryRepo) Seed(ctx context.Context, items []entity.InventoryItem) error {
	for _, item := range items {
		sql, args, err := r.Builder.
			Insert(inventoryTable).
			Columns(
				inventoryIDColumn,
				inventoryProductIDColumn,
				inventoryProductNameColumn,
				inventoryAvailableQuantityColumn,
				inventoryReservedQuantityColumn,
				inventoryVersionColumn,
			).
			Values(
				item.ID,
				item.ProductID,
				item.ProductName,
				item.AvailableQuantity,
				item.ReservedQuantity,
				item.Version,
			).
			Suffix(fmt.Sprintf("ON CONFLICT (%s) DO NOTHING", inventoryProductIDColumn)).
			ToSql()
		if err != nil {
			return fmt.Errorf("InventoryRepo - Seed - r.Builder.ToSql: %w", err)
		}

		executor := r.GetExecutor(ctx)

		if _, err := executor.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("InventoryRepo - Seed - executor.Exec: %w", err)
		}
	}

	return nil
}
