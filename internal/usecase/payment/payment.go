package payment

import (
	"context"
	"fmt"

	"github.com/agriflow/procurement/internal/entity"
	"github.com/agriflow/procurement/internal/repo"
	"github.com/agriflow/procurement/pkg/logger"
)

// PaymentUseCase is a stand-in processor: it approves everything up to a
// configured amount and declines the rest. A decline is a business
// outcome reported as PaymentFailed, not an error.
type PaymentUseCase struct {
	outboxRepo repo.OutboxRepo
	transactor repo.Transactor

	declineAbove float64

	logger logger.Interface
}

func New(outboxRepo repo.OutboxRepo, transactor repo.Transactor, declineAbove float64, l logger.Interface) *PaymentUseCase {
	return &PaymentUseCase{
		outboxRepo:   outboxRepo,
		transactor:   transactor,
		declineAbove: declineAbove,
		logger:       l,
	}
}

func (uc *PaymentUseCase) Process(ctx context.Context, cmd entity.ProcessPayment) error {
	var event entity.Event

	if uc.declineAbove > 0 && cmd.TotalAmount > uc.declineAbove {
		reason := fmt.Sprintf("Payment declined for buyer %s: amount %.2f exceeds limit %.2f",
			cmd.BuyerID, cmd.TotalAmount, uc.declineAbove)
		uc.logger.Info("PaymentUseCase - Process - %s", reason)

		event = entity.PaymentFailed{OrderID: cmd.OrderID, Reason: reason}
	} else {
		uc.logger.Info("PaymentUseCase - Process - payment of %.2f approved for order %s", cmd.TotalAmount, cmd.OrderID)

		event = entity.PaymentProcessed{OrderID: cmd.OrderID}
	}

	err := uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		// one payment outcome per order, so the version is a constant
		outboxEvent, err := entity.NewOutboxEvent(entity.AggregatePayment, cmd.OrderID, 1, event)
		if err != nil {
			return fmt.Errorf("entity.NewOutboxEvent: %w", err)
		}

		return uc.outboxRepo.Create(ctx, outboxEvent)
	})
	if err != nil {
		return fmt.Errorf("PaymentUseCase - Process - uc.transactor.WithinTransaction: %w", err)
	}

	return nil
}
