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
	reservationsTable = "inventory_reservations"

	// Columns
	reservationIDColumn        = "id"
	reservationOrderIDColumn   = "order_id"
	reservationProductIDColumn = "product_id"
	reservationQuantityColumn  = "quantity"
	reservationCreatedAtColumn = "created_at"
	reservationVersionColumn   = "version"
)

type ReservationRepo struct {
	*postgres.Postgres
}

func NewReservationRepo(pg *postgres.Postgres) *ReservationRepo {
	return &ReservationRepo{pg}
}

func (r *ReservationRepo) Create(ctx context.Context, reservation *entity.Reservation) error {
	sql, args, err := r.Builder.
		Insert(reservationsTable).
		Columns(
			reservationIDColumn,
			reservationOrderIDColumn,
			reservationProductIDColumn,
			reservationQuantityColumn,
			reservationCreatedAtColumn,
			reservationVersionColumn,
		).
		Values(
			reservation.ID,
			reservation.OrderID,
			reservation.ProductID,
			reservation.Quantity,
			reservation.CreatedAt,
			reservation.Version,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("ReservationRepo - Create - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("ReservationRepo - Create: %w", errs.ErrConflict)
		}
		return fmt.Errorf("ReservationRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

func (r *ReservationRepo) ListByOrderID(ctx context.Context, orderID string) ([]entity.Reservation, error) {
	sql, args, err := r.Builder.
		Select(
			reservationIDColumn,
			reservationOrderIDColumn,
			reservationProductIDColumn,
			reservationQuantityColumn,
			reservationCreatedAtColumn,
			reservationVersionColumn,
		).
		From(reservationsTable).
		Where(squirrel.Eq{reservationOrderIDColumn: orderID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ReservationRepo - ListByOrderID - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("ReservationRepo - ListByOrderID - executor.Query: %w", err)
	}
	defer rows.Close()

	var reservations []entity.Reservation

	for rows.Next() {
		var reservation entity.Reservation

		err = rows.Scan(
			&reservation.ID,
			&reservation.OrderID,
			&reservation.ProductID,
			&reservation.Quantity,
			&reservation.CreatedAt,
			&reservation.Version,
		)
		if err != nil {
			return nil, fmt.Errorf("ReservationRepo - ListByOrderID - rows.Scan: %w", err)
		}

		reservations = append(reservations, reservation)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ReservationRepo - ListByOrderID - rows.Err: %w", err)
	}

	return reservations, nil
}

func (r *ReservationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	sql, args, err := r.Builder.
		Delete(reservationsTable).
		Where(squirrel.Eq{reservationIDColumn: id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ReservationRepo - Delete - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	if _, err := executor.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("ReservationRepo - Delete - executor.Exec: %w", err)
	}

	return nil
}
