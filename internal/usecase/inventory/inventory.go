package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/agriflow/procurement/internal/entity"
	"github.com/agriflow/procurement/internal/repo"
	"github.com/agriflow/procurement/pkg/logger"
	"github.com/agriflow/procurement/pkg/types/errs"
)

// InventoryUseCase serves reservation commands for the orchestrator.
// Insufficient stock is a business outcome reported as an event, never an
// error back through the bus: an error return here means the command will
// be redelivered, and redelivering a definitive "no" is pointless.
type InventoryUseCase struct {
	inventoryRepo   repo.InventoryRepo
	reservationRepo repo.ReservationRepo
	outboxRepo      repo.OutboxRepo
	transactor      repo.Transactor

	logger logger.Interface
}

func New(
	inventoryRepo repo.InventoryRepo,
	reservationRepo repo.ReservationRepo,
	outboxRepo repo.OutboxRepo,
	transactor repo.Transactor,
	l logger.Interface,
) *InventoryUseCase {
	return &InventoryUseCase{
		inventoryRepo:   inventoryRepo,
		reservationRepo: reservationRepo,
		outboxRepo:      outboxRepo,
		transactor:      transactor,
		logger:          l,
	}
}

// Reserve takes stock for every line item of the order, or none of it.
// Lines naming the same product are merged first: one inventory row, one
// lock and one reservation row per product. All product rows are locked
// before any is validated, so a concurrent command for overlapping
// products waits (bounded by lock_timeout) and then sees the updated
// quantities. A redelivered command for an already reserved order
// re-emits InventoryReserved without touching stock.
func (uc *InventoryUseCase) Reserve(ctx context.Context, cmd entity.ReserveInventory) error {
	lines := mergeLineItems(cmd.Items)

	err := uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		// 1. duplicate delivery: answer again, reserve nothing
		existing, err := uc.reservationRepo.ListByOrderID(ctx, cmd.OrderID)
		if err != nil {
			return fmt.Errorf("uc.reservationRepo.ListByOrderID: %w", err)
		}
		if len(existing) > 0 {
			uc.logger.Info("InventoryUseCase - Reserve - order %s already reserved, re-emitting", cmd.OrderID)
			return uc.emitReserved(ctx, cmd.OrderID, reservedItems(existing))
		}

		// 2. lock every product row up front
		items := make([]*entity.InventoryItem, 0, len(lines))
		for _, line := range lines {
			item, err := uc.inventoryRepo.GetByProductIDForUpdate(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, errs.ErrRecordNotFound) {
					return uc.emitReservationFailed(ctx, cmd.OrderID,
						fmt.Sprintf("Product not found: %s", line.ProductID))
				}
				return fmt.Errorf("uc.inventoryRepo.GetByProductIDForUpdate: %w", err)
			}
			items = append(items, item)
		}

		// 3. validate the whole order before committing any line
		for i, line := range lines {
			item := items[i]
			if !item.HasAvailableQuantity(line.Quantity) {
				return uc.emitReservationFailed(ctx, cmd.OrderID, fmt.Sprintf(
					"Insufficient inventory for product %s (%s). Available: %d, Requested: %d",
					item.ProductID, item.ProductName, item.AvailableQuantity, line.Quantity,
				))
			}
		}

		// 4. commit: decrement stock, record reservations
		reserved := make([]entity.ReservedItem, 0, len(lines))
		for i, line := range lines {
			item := items[i]

			if err := item.Reserve(line.Quantity); err != nil {
				return fmt.Errorf("item.Reserve: %w", err)
			}
			if err := uc.inventoryRepo.Update(ctx, item); err != nil {
				return fmt.Errorf("uc.inventoryRepo.Update: %w", err)
			}

			reservation := entity.NewReservation(cmd.OrderID, line.ProductID, line.Quantity)
			if err := uc.reservationRepo.Create(ctx, reservation); err != nil {
				return fmt.Errorf("uc.reservationRepo.Create: %w", err)
			}

			reserved = append(reserved, entity.ReservedItem{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
			})
		}

		return uc.emitReserved(ctx, cmd.OrderID, reserved)
	})
	if err != nil {
		return fmt.Errorf("InventoryUseCase - Reserve - uc.transactor.WithinTransaction: %w", err)
	}

	return nil
}

// Release returns the order's reserved stock during compensation. A
// reservation whose inventory row has vanished is logged and skipped;
// the remaining reservations are still released.
func (uc *InventoryUseCase) Release(ctx context.Context, cmd entity.CompensateInventory) error {
	err := uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		reservations, err := uc.reservationRepo.ListByOrderID(ctx, cmd.OrderID)
		if err != nil {
			return fmt.Errorf("uc.reservationRepo.ListByOrderID: %w", err)
		}
		if len(reservations) == 0 {
			uc.logger.Info("InventoryUseCase - Release - nothing reserved for order %s", cmd.OrderID)
			return nil
		}

		for i := range reservations {
			reservation := &reservations[i]

			item, err := uc.inventoryRepo.GetByProductIDForUpdate(ctx, reservation.ProductID)
			if err != nil {
				if errors.Is(err, errs.ErrRecordNotFound) {
					uc.logger.Warn("InventoryUseCase - Release - inventory row for product %s is gone, skipping reservation %s",
						reservation.ProductID, reservation.ID)
					continue
				}
				return fmt.Errorf("uc.inventoryRepo.GetByProductIDForUpdate: %w", err)
			}

			if err := item.Release(reservation.Quantity); err != nil {
				return fmt.Errorf("item.Release: %w", err)
			}
			if err := uc.inventoryRepo.Update(ctx, item); err != nil {
				return fmt.Errorf("uc.inventoryRepo.Update: %w", err)
			}
			if err := uc.reservationRepo.Delete(ctx, reservation.ID); err != nil {
				return fmt.Errorf("uc.reservationRepo.Delete: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("InventoryUseCase - Release - uc.transactor.WithinTransaction: %w", err)
	}

	return nil
}

// GetStock reads current quantities without locking; a snapshot for the
// read side, not a basis for a reservation decision.
func (uc *InventoryUseCase) GetStock(ctx context.Context, productID string) (*entity.InventoryItem, error) {
	item, err := uc.inventoryRepo.GetByProductID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("InventoryUseCase - GetStock - uc.inventoryRepo.GetByProductID: %w", err)
	}

	return item, nil
}

// Reservation outcomes are keyed by the order, not by any inventory row:
// there is exactly one logical outcome per order, so the envelope carries
// a fixed version 1 rather than an item version. A re-emitted answer is
// the same event, not a new state change.
func (uc *InventoryUseCase) emitReserved(ctx context.Context, orderID string, items []entity.ReservedItem) error {
	event := entity.InventoryReserved{OrderID: orderID, Items: items}

	outboxEvent, err := entity.NewOutboxEvent(entity.AggregateInventory, orderID, 1, event)
	if err != nil {
		return fmt.Errorf("entity.NewOutboxEvent: %w", err)
	}

	if err := uc.outboxRepo.Create(ctx, outboxEvent); err != nil {
		return fmt.Errorf("uc.outboxRepo.Create: %w", err)
	}

	return nil
}

func (uc *InventoryUseCase) emitReservationFailed(ctx context.Context, orderID, reason string) error {
	uc.logger.Info("InventoryUseCase - reservation failed for order %s: %s", orderID, reason)

	event := entity.InventoryReservationFailed{OrderID: orderID, Reason: reason}

	outboxEvent, err := entity.NewOutboxEvent(entity.AggregateInventory, orderID, 1, event)
	if err != nil {
		return fmt.Errorf("entity.NewOutboxEvent: %w", err)
	}

	if err := uc.outboxRepo.Create(ctx, outboxEvent); err != nil {
		return fmt.Errorf("uc.outboxRepo.Create: %w", err)
	}

	return nil
}

// mergeLineItems sums quantities of lines naming the same product,
// keeping first-seen order.
func mergeLineItems(items []entity.LineItem) []entity.LineItem {
	merged := make([]entity.LineItem, 0, len(items))
	index := make(map[string]int, len(items))

	for _, line := range items {
		if i, ok := index[line.ProductID]; ok {
			merged[i].Quantity += line.Quantity

			continue
		}

		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}

	return merged
}

func reservedItems(reservations []entity.Reservation) []entity.ReservedItem {
	items := make([]entity.ReservedItem, 0, len(reservations))
	for _, r := range reservations {
		items = append(items, entity.ReservedItem{ProductID: r.ProductID, Quantity: r.Quantity})
	}

	return items
}
