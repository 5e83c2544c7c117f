package persistent

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/agriflow/procurement/internal/entity"
	"github.com/agriflow/procurement/pkg/postgres"
	"github.com/agriflow/procurement/pkg/types/errs"
)

const (
	// Table
	outboxTable = "outbox_events"

	// Columns
	outboxIDColumn            = "id"
	outboxAggregateTypeColumn = "aggregate_type"
	outboxAggregateIDColumn   = "aggregate_id"
	outboxEventTypeColumn     = "event_type"
	outboxPayloadColumn       = "payload"
	outboxCreatedAtColumn     = "created_at"
	outboxProcessedColumn     = "processed"
	outboxVersionColumn       = "version"
)

type OutboxRepo struct {
	*postgres.Postgres
}

func NewOutboxRepo(pg *postgres.Postgres) *OutboxRepo {
	return &OutboxRepo{pg}
}

func (r *OutboxRepo) Create(ctx context.Context, event *entity.OutboxEvent) error {
	sql, args, err := r.Builder.
		Insert(outboxTable).
		Columns(
			outboxIDColumn,
			outboxAggregateTypeColumn,
			outboxAggregateIDColumn,
			outboxEventTypeColumn,
			outboxPayloadColumn,
			outboxCreatedAtColumn,
			outboxProcessedColumn,
			outboxVersionColumn,
		).
		Values(
			event.ID,
			event.AggregateType,
			event.AggregateID,
			event.EventType,
			event.Payload,
			event.CreatedAt,
			event.Processed,
			event.Version,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("OutboxRepo - Create - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("OutboxRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

func (r *OutboxRepo) GetUnprocessed(ctx context.Context, limit int) ([]*entity.OutboxEvent, error) {
	sql, args, err := r.Builder.
		Select(
			outboxIDColumn,
			outboxAggregateTypeColumn,
			outboxAggregateIDColumn,
			outboxEventTypeColumn,
			outboxPayloadColumn,
			outboxCreatedAtColumn,
			outboxProcessedColumn,
			outboxVersionColumn,
		).
		From(outboxTable).
		Where(squirrel.Eq{outboxProcessedColumn: false}).
		OrderBy(outboxCreatedAtColumn + " ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("OutboxRepo - GetUnprocessed - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("OutboxRepo - GetUnprocessed - executor.Query: %w", err)
	}
	defer rows.Close()

	events := make([]*entity.OutboxEvent, 0, limit)
	for rows.Next() {
		var event entity.OutboxEvent
		err = rows.Scan(
			&event.ID,
			&event.AggregateType,
			&event.AggregateID,
			&event.EventType,
			&event.Payload,
			&event.CreatedAt,
			&event.Processed,
			&event.Version,
		)
		if err != nil {
			return nil, fmt.Errorf("OutboxRepo - GetUnprocessed - rows.Scan: %w", err)
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("OutboxRepo - GetUnprocessed - rows.Err: %w", err)
	}

	return events, nil
}

// MarkProcessedBatch flips processed to true. The processed = false guard
// keeps the transition one-way even if the relay is raced.
func (r *OutboxRepo) MarkProcessedBatch(ctx context.Context, ids uuid.UUIDs) error {
	if len(ids) == 0 {
		return nil
	}

	sql, args, err := r.Builder.
		Update(outboxTable).
		Set(outboxProcessedColumn, true).
		Set(outboxVersionColumn, squirrel.Expr(outboxVersionColumn+" + 1")).
		Where(squirrel.And{
			squirrel.Eq{outboxIDColumn: ids},
			squirrel.Eq{outboxProcessedColumn: false},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("OutboxRepo - MarkProcessedBatch - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("OutboxRepo - MarkProcessedBatch - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("OutboxRepo - MarkProcessedBatch: %w", errs.ErrRecordNotFound)
	}

	return nil
}
