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
	idempotencyTable = "idempotency_keys"

	// Columns
	idempotencyKeyColumn       = "key"
	idempotencyResponseColumn  = "response"
	idempotencyCreatedAtColumn = "created_at"
	idempotencyExpiresAtColumn = "expires_at"
)

type IdempotencyRepo struct {
	*postgres.Postgres
}

func NewIdempotencyRepo(pg *postgres.Postgres) *IdempotencyRepo {
	return &IdempotencyRepo{pg}
}

func (r *IdempotencyRepo) Get(ctx context.Context, key string) (*entity.IdempotencyRecord, error) {
	sql, args, err := r.Builder.
		Select(
			idempotencyKeyColumn,
			idempotencyResponseColumn,
			idempotencyCreatedAtColumn,
			idempotencyExpiresAtColumn,
		).
		From(idempotencyTable).
		Where(squirrel.Eq{idempotencyKeyColumn: key}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("IdempotencyRepo - Get - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var record entity.IdempotencyRecord
	err = executor.QueryRow(ctx, sql, args...).Scan(
		&record.Key,
		&record.Response,
		&record.CreatedAt,
		&record.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("IdempotencyRepo - Get: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("IdempotencyRepo - Get - executor.QueryRow: %w", err)
	}

	return &record, nil
}

// Create claims the key. A unique violation maps to ErrConflict so the
// guard can tell a lost race apart from an infrastructure failure.
func (r *IdempotencyRepo) Create(ctx context.Context, record *entity.IdempotencyRecord) error {
	sql, args, err := r.Builder.
		Insert(idempotencyTable).
		Columns(
			idempotencyKeyColumn,
			idempotencyResponseColumn,
			idempotencyCreatedAtColumn,
			idempotencyExpiresAtColumn,
		).
		Values(
			record.Key,
			record.Response,
			record.CreatedAt,
			record.ExpiresAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("IdempotencyRepo - Create - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("IdempotencyRepo - Create: %w", errs.ErrConflict)
		}
		return fmt.Errorf("IdempotencyRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

func (r *IdempotencyRepo) Delete(ctx context.Context, key string) error {
	sql, args, err := r.Builder.
		Delete(idempotencyTable).
		Where(squirrel.Eq{idempotencyKeyColumn: key}).
		ToSql()
	if err != nil {
		return fmt.Errorf("IdempotencyRepo - Delete - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	if _, err := executor.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("IdempotencyRepo - Delete - executor.Exec: %w", err)
	}

	return nil
}
