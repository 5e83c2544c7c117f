package outbox

import (
	"context"
	"fmt"

	"github.com/agriflow/procurement/internal/entity"
	"github.com/agriflow/procurement/internal/repo"
	"github.com/agriflow/procurement/pkg/logger"
	"github.com/google/uuid"
)

// OutboxUseCase is the relay's view of the outbox table: fetch the oldest
// unprocessed rows, and flip them to processed once the bus has acked.
type OutboxUseCase struct {
	outboxRepo repo.OutboxRepo

	logger logger.Interface
}

func New(outboxRepo repo.OutboxRepo, l logger.Interface) *OutboxUseCase {
	return &OutboxUseCase{
		outboxRepo: outboxRepo,
		logger:     l,
	}
}

func (uc *OutboxUseCase) GetUnprocessedEvents(ctx context.Context, limit int) ([]*entity.OutboxEvent, error) {
	events, err := uc.outboxRepo.GetUnprocessed(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("OutboxUseCase - GetUnprocessedEvents - uc.outboxRepo.GetUnprocessed: %w", err)
	}

	return events, nil
}

func (uc *OutboxUseCase) MarkEventsProcessed(ctx context.Context, ids uuid.UUIDs) error {
	if len(ids) == 0 {
		return nil
	}

	err := uc.outboxRepo.MarkProcessedBatch(ctx, ids)
	if err != nil {
		return fmt.Errorf("OutboxUseCase - MarkEventsProcessed - uc.outboxRepo.MarkProcessedBatch: %w", err)
	}

	return nil
}
