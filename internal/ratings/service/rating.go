package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"medibook/internal/appointments/repository"
	"medibook/pkg/config"
	apperrors "medibook/pkg/errors"
	"medibook/pkg/model"
)

// RatingSource reads the review data the aggregate is derived from.
type RatingSource interface {
	AggregateRating(ctx context.Context, providerID string) (model.RatingAggregate, error)
}

// AggregateStore persists the recomputed summary on the provider document.
type AggregateStore interface {
	UpdateRatingAggregate(ctx context.Context, id string, aggregate model.RatingAggregate) error
}

type RatingService interface {
	Recompute(ctx context.Context, providerID string) (model.RatingAggregate, error)
}

const (
	recomputeAttempts = 3
	recomputeBackoff  = 100 * time.Millisecond
)

type ratingService struct {
	source   RatingSource
	store    AggregateStore
	lockRepo repository.SlotLockRepository
	cfg      *config.Config
}

func NewRatingService(
	source RatingSource,
	store AggregateStore,
	lockRepo repository.SlotLockRepository,
	cfg *config.Config,
) RatingService {
	return &ratingService{
		source:   source,
		store:    store,
		lockRepo: lockRepo,
		cfg:      cfg,
	}
}

// Recompute re-derives a provider's review summary from the ledger, stores
// it and returns it. A per-provider advisory lock serializes concurrent
// recomputes so a stale average can never overwrite a fresher one. Transient
// failures are retried; the final failure is alert-logged and returned.
func (s *ratingService) Recompute(ctx context.Context, providerID string) (model.RatingAggregate, error) {
	if providerID == "" {
		return model.RatingAggregate{}, apperrors.InvalidInput("Provider ID cannot be empty")
	}

	var lastErr error
	for attempt := 1; attempt <= recomputeAttempts; attempt++ {
		aggregate, err := s.recomputeOnce(ctx, providerID)
		if err == nil {
			return aggregate, nil
		}
		lastErr = err

		s.cfg.Log.Warn("Rating aggregate recompute attempt failed",
			"provider_id", providerID,
			"attempt", attempt,
			"error", lastErr,
		)

		if attempt < recomputeAttempts {
			select {
			case <-ctx.Done():
				return model.RatingAggregate{}, apperrors.Timeout("Rating aggregate recompute cancelled")
			case <-time.After(time.Duration(attempt) * recomputeBackoff):
			}
		}
	}

	s.cfg.Log.Error("ALERT: rating aggregate recompute exhausted retries, stored average may be stale",
		"provider_id", providerID,
		"attempts", recomputeAttempts,
		"error", lastErr,
	)
	return model.RatingAggregate{}, lastErr
}

func (s *ratingService) recomputeOnce(ctx context.Context, providerID string) (model.RatingAggregate, error) {
	lockID, err := s.acquireRatingLock(ctx, providerID)
	if err != nil {
		return model.RatingAggregate{}, err
	}
	defer func() {
		if releaseErr := s.lockRepo.Delete(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release rating lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	aggregate, err := s.source.AggregateRating(ctx, providerID)
	if err != nil {
		return model.RatingAggregate{}, apperrors.Internal("Failed to aggregate ratings", err)
	}
	aggregate.Average = RoundAverage(aggregate.Average)

	if err := s.store.UpdateRatingAggregate(ctx, providerID, aggregate); err != nil {
		return model.RatingAggregate{}, apperrors.Internal("Failed to store rating aggregate", err)
	}

	s.cfg.Log.Info("Rating aggregate recomputed",
		"provider_id", providerID,
		"average", aggregate.Average,
		"total_reviews", aggregate.TotalReviews,
	)
	return aggregate, nil
}

// RoundAverage rounds to one decimal place, halves away from zero, so a
// mean of 4.25 stores as 4.3.
func RoundAverage(avg float64) float64 {
	return math.Round(avg*10) / 10
}

func (s *ratingService) acquireRatingLock(ctx context.Context, providerID string) (string, error) {
	lockID := fmt.Sprintf("rating:%s", providerID)

	lock := &model.SlotLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(s.cfg.SlotLockTTL),
	}

	if _, err := s.lockRepo.Create(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("Rating aggregate recompute already in progress")
		}
		return "", apperrors.Internal("Failed to acquire rating lock", err)
	}

	return lockID, nil
}
