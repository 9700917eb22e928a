package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// persister writes a whole collection with bounded retries.
// A final failure is logged loudly and surfaced as a PersistenceError.
type persister struct {
	collection string
	maxRetries int
	logger     *zap.Logger
}

func (p persister) save(ctx context.Context, op string, write func(ctx context.Context) error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 50 * time.Millisecond
	policy.MaxInterval = time.Second
	policy.MaxElapsedTime = 5 * time.Second

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		if err := write(ctx); err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			p.logger.Warn("Persist attempt failed",
				zap.String("collection", p.collection),
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return err
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(max(0, p.maxRetries))), ctx))

	if err != nil {
		p.logger.Error("Failed to persist collection, in-memory state is ahead of storage",
			zap.String("collection", p.collection),
			zap.String("op", op),
			zap.Error(err),
		)
		return &domain.PersistenceError{Collection: p.collection, Op: op, Err: err}
	}
	return nil
}

// idSequence hands out ids that are never reused, even after the current maximum is deleted
type idSequence struct {
	name      string
	repo      repository.SequenceRepository
	last      int
	persisted int
}

func loadSequence(ctx context.Context, repo repository.SequenceRepository, name string, existingMax int) (*idSequence, error) {
	last, err := repo.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s sequence: %w", name, err)
	}
	return &idSequence{name: name, repo: repo, last: max(last, existingMax), persisted: last}, nil
}

// next returns max(high-water, existingMax) + 1 without committing it
func (s *idSequence) next(existingMax int) int {
	return max(s.last, existingMax) + 1
}

// commit records id as used and persists the high-water mark if storage is behind it
func (s *idSequence) commit(ctx context.Context, id int) error {
	s.last = max(s.last, id)
	if s.persisted >= s.last {
		return nil
	}
	if err := s.repo.Save(ctx, s.name, s.last); err != nil {
		return err
	}
	s.persisted = s.last
	return nil
}
