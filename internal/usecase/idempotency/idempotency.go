package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agriflow/procurement/internal/entity"
	"github.com/agriflow/procurement/internal/repo"
	"github.com/agriflow/procurement/pkg/logger"
	"github.com/agriflow/procurement/pkg/types/errs"
)

// Guard makes keyed mutations exactly-once within a retention window.
// The operation and the key record commit in one transaction, so a key
// can never exist without its effects and effects can never exist twice
// under one key.
type Guard struct {
	idempotencyRepo repo.IdempotencyRepo
	transactor      repo.Transactor

	ttl time.Duration

	logger logger.Interface
}

func New(
	idempotencyRepo repo.IdempotencyRepo,
	transactor repo.Transactor,
	l logger.Interface,
	opts ...Option,
) *Guard {
	g := &Guard{
		idempotencyRepo: idempotencyRepo,
		transactor:      transactor,
		ttl:             entity.IdempotencyTTL,
		logger:          l,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

type Option func(*Guard)

func TTL(ttl time.Duration) Option {
	return func(g *Guard) {
		g.ttl = ttl
	}
}

// Execute runs op at most once for key. A repeat call within the TTL
// returns the stored response without running op; an expired record is
// dropped and op runs again. When two carriers race on the same key, the
// loser's insert hits the unique constraint, its transaction rolls back,
// and the winner's response is returned instead.
func (g *Guard) Execute(ctx context.Context, key string, op func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if key == "" {
		return nil, fmt.Errorf("Guard - Execute - empty key: %w", errs.ErrValidation)
	}

	// 1. replay a fresh record, discard a stale one
	record, err := g.idempotencyRepo.Get(ctx, key)
	if err != nil && !errors.Is(err, errs.ErrRecordNotFound) {
		return nil, fmt.Errorf("Guard - Execute - g.idempotencyRepo.Get: %w", err)
	}
	if record != nil {
		if !record.Expired() {
			g.logger.Debug("Guard - Execute - replaying stored response for key %s", key)
			return record.Response, nil
		}
		if err := g.idempotencyRepo.Delete(ctx, key); err != nil {
			return nil, fmt.Errorf("Guard - Execute - g.idempotencyRepo.Delete: %w", err)
		}
	}

	// 2. run op and claim the key atomically
	var response []byte

	err = g.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		response, err = op(ctx)
		if err != nil {
			return fmt.Errorf("Guard - Execute - op: %w", err)
		}

		record := entity.NewIdempotencyRecord(key, response, g.ttl)
		if err := g.idempotencyRepo.Create(ctx, record); err != nil {
			return fmt.Errorf("Guard - Execute - g.idempotencyRepo.Create: %w", err)
		}

		return nil
	})
	if err == nil {
		return response, nil
	}

	// 3. lost the race: the winner's record holds the answer
	if errors.Is(err, errs.ErrConflict) {
		winner, getErr := g.idempotencyRepo.Get(ctx, key)
		if getErr != nil {
			return nil, fmt.Errorf("Guard - Execute - g.idempotencyRepo.Get after conflict: %w", getErr)
		}

		g.logger.Warn("Guard - Execute - lost duplicate race for key %s, returning winner's response", key)

		return winner.Response, nil
	}

	return nil, err
}
