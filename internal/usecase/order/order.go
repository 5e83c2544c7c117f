package order

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/agriflow/procurement/internal/dto"
	"github.com/agriflow/procurement/internal/entity"
	"github.com/agriflow/procurement/internal/repo"
	"github.com/agriflow/procurement/internal/usecase"
	"github.com/agriflow/procurement/pkg/logger"
	"github.com/google/uuid"
)

// OrderUseCase owns the order aggregate. Every mutation writes the order
// and its outbox event in one transaction; the relay takes it from there.
type OrderUseCase struct {
	orderRepo  repo.OrderRepo
	outboxRepo repo.OutboxRepo
	transactor repo.Transactor
	guard      usecase.IdempotencyGuard

	logger logger.Interface
}

func New(
	orderRepo repo.OrderRepo,
	outboxRepo repo.OutboxRepo,
	transactor repo.Transactor,
	guard usecase.IdempotencyGuard,
	l logger.Interface,
) *OrderUseCase {
	return &OrderUseCase{
		orderRepo:  orderRepo,
		outboxRepo: outboxRepo,
		transactor: transactor,
		guard:      guard,
		logger:     l,
	}
}

// CreateOrder places an order under the client's idempotency key. A retry
// with the same key gets the original order back and causes no second
// write and no second OrderCreated.
func (uc *OrderUseCase) CreateOrder(ctx context.Context, idempotencyKey string, req dto.CreateOrder) (*entity.Order, error) {
	items := make([]entity.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, entity.OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Unit:        item.Unit,
		})
	}

	response, err := uc.guard.Execute(ctx, idempotencyKey, func(ctx context.Context) ([]byte, error) {
		order, event, err := entity.NewOrder(req.BuyerID, req.SupplierID, items)
		if err != nil {
			return nil, fmt.Errorf("entity.NewOrder: %w", err)
		}

		if err := uc.orderRepo.Create(ctx, order); err != nil {
			return nil, fmt.Errorf("uc.orderRepo.Create: %w", err)
		}

		if err := uc.appendOutbox(ctx, order, event); err != nil {
			return nil, err
		}

		return json.Marshal(order)
	})
	if err != nil {
		return nil, fmt.Errorf("OrderUseCase - CreateOrder - uc.guard.Execute: %w", err)
	}

	var order entity.Order
	if err := json.Unmarshal(response, &order); err != nil {
		return nil, fmt.Errorf("OrderUseCase - CreateOrder - json.Unmarshal: %w", err)
	}

	return &order, nil
}

func (uc *OrderUseCase) GetOrder(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	order, err := uc.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("OrderUseCase - GetOrder - uc.orderRepo.GetByID: %w", err)
	}

	return order, nil
}

func (uc *OrderUseCase) ConfirmOrder(ctx context.Context, orderID uuid.UUID) error {
	return uc.transition(ctx, "ConfirmOrder", orderID, func(order *entity.Order) (entity.Event, error) {
		return order.Confirm()
	})
}

func (uc *OrderUseCase) CancelOrder(ctx context.Context, orderID uuid.UUID, reason string) error {
	return uc.transition(ctx, "CancelOrder", orderID, func(order *entity.Order) (entity.Event, error) {
		return order.Cancel(reason)
	})
}

func (uc *OrderUseCase) CompleteOrder(ctx context.Context, orderID uuid.UUID) error {
	return uc.transition(ctx, "CompleteOrder", orderID, func(order *entity.Order) (entity.Event, error) {
		return order.Complete()
	})
}

func (uc *OrderUseCase) transition(
	ctx context.Context,
	name string,
	orderID uuid.UUID,
	apply func(order *entity.Order) (entity.Event, error),
) error {
	err := uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		order, err := uc.orderRepo.GetByID(ctx, orderID)
		if err != nil {
			return fmt.Errorf("uc.orderRepo.GetByID: %w", err)
		}

		event, err := apply(order)
		if err != nil {
			return fmt.Errorf("apply: %w", err)
		}

		if err := uc.orderRepo.Update(ctx, order); err != nil {
			return fmt.Errorf("uc.orderRepo.Update: %w", err)
		}

		return uc.appendOutbox(ctx, order, event)
	})
	if err != nil {
		return fmt.Errorf("OrderUseCase - %s - uc.transactor.WithinTransaction: %w", name, err)
	}

	return nil
}

func (uc *OrderUseCase) appendOutbox(ctx context.Context, order *entity.Order, event entity.Event) error {
	outboxEvent, err := entity.NewOutboxEvent(entity.AggregateOrder, order.ID.String(), order.Version, event)
	if err != nil {
		return fmt.Errorf("entity.NewOutboxEvent: %w", err)
	}

	if err := uc.outboxRepo.Create(ctx, outboxEvent); err != nil {
		return fmt.Errorf("uc.outboxRepo.Create: %w", err)
	}

	return nil
}
