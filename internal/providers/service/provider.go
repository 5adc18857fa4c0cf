package service

import (
	"context"
	"errors"
	"sync"
	"time"

	providererrors "medibook/internal/providers/errors"
	"medibook/internal/providers/repository"
	"medibook/internal/providers/validator"
	"medibook/pkg/config"
	apperrors "medibook/pkg/errors"
	"medibook/pkg/model"
	"medibook/pkg/sanitizer"
	"medibook/pkg/timeslot"
)

// ReviewLister is the slice of the appointment store the provider service
// needs for the public reviews listing.
type ReviewLister interface {
	FindRatedByProvider(ctx context.Context, providerID string, limit int, offset int64) ([]*model.Appointment, error)
	CountRatedByProvider(ctx context.Context, providerID string) (int64, error)
}

type ProviderService interface {
	Create(ctx context.Context, p *model.Provider) error
	GetByID(ctx context.Context, id string) (*model.Provider, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Provider, int64, error)
	UpdateSchedule(ctx context.Context, id string, updates *model.AvailabilityUpdate) (*model.Provider, error)
	Reviews(ctx context.Context, providerID string, limit int, offset int64) ([]*model.Review, int64, error)

	EffectiveAvailability(p *model.Provider) model.Availability
	IsWorkingDay(availability model.Availability, date time.Time) bool
}

type providerService struct {
	repo      repository.ProviderRepository
	reviews   ReviewLister
	validator *validator.ProviderValidator
	cfg       *config.Config
}

func NewProviderService(
	repo repository.ProviderRepository,
	reviews ReviewLister,
	validator *validator.ProviderValidator,
	cfg *config.Config,
) ProviderService {
	return &providerService{
		repo:      repo,
		reviews:   reviews,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *providerService) Create(ctx context.Context, p *model.Provider) error {
	s.sanitize(p)
	s.applyDefaults(p)

	if err := s.validator.Validate(p); err != nil {
		s.cfg.Log.Warn("Provider validation failed",
			"name", p.Name,
			"email", p.Email,
			"error", err,
		)
		return apperrors.Validation("Provider validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.cfg.Log.Error("Failed to create provider",
			"name", p.Name,
			"error", err,
		)
		return apperrors.Internal("Failed to create provider", err)
	}

	s.cfg.Log.Info("Provider created successfully",
		"id", p.ID,
		"name", p.Name,
		"specialty", p.Specialty,
	)
	return nil
}

func (s *providerService) GetByID(ctx context.Context, id string) (*model.Provider, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Provider ID cannot be empty")
	}

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, providererrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Provider", id)
		}
		if errors.Is(err, providererrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid provider ID format")
		}
		s.cfg.Log.Error("Failed to get provider by ID",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve provider", err)
	}

	return p, nil
}

func (s *providerService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Provider, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	// Shared context so a timeout in one lookup cancels the other.
	sharedCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var count int64
	var providers []*model.Provider
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(sharedCtx)
		if err != nil {
			s.cfg.Log.Error("Failed to count providers", "error", err)
			errCount = apperrors.Internal("Failed to count providers", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		providers, err = s.repo.FindAll(sharedCtx, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to get all providers",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve providers", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return providers, count, nil
}

func (s *providerService) UpdateSchedule(ctx context.Context, id string, updates *model.AvailabilityUpdate) (*model.Provider, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Provider ID cannot be empty")
	}

	s.sanitizeUpdate(updates)
	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Availability update validation failed",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Validation("Availability update validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := s.mergeAvailability(existing, updates)
	if err := s.validator.Validate(merged); err != nil {
		return nil, apperrors.Validation("Availability update validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.UpdateAvailability(ctx, id, merged.Availability, updates.Fee); err != nil {
		if errors.Is(err, providererrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Provider", id)
		}
		s.cfg.Log.Error("Failed to update provider availability",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to update provider availability", err)
	}

	s.cfg.Log.Info("Provider availability updated",
		"id", id,
		"working_days", merged.Availability.WorkingDays,
		"start_time", merged.Availability.StartTime,
		"end_time", merged.Availability.EndTime,
	)
	return merged, nil
}

func (s *providerService) Reviews(ctx context.Context, providerID string, limit int, offset int64) ([]*model.Review, int64, error) {
	if providerID == "" {
		return nil, 0, apperrors.InvalidInput("Provider ID cannot be empty")
	}

	// Resolve the provider first so an unknown ID reads as 404, not an
	// empty review list.
	if _, err := s.GetByID(ctx, providerID); err != nil {
		return nil, 0, err
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	appointments, err := s.reviews.FindRatedByProvider(ctx, providerID, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list provider reviews",
			"provider_id", providerID,
			"error", err,
		)
		return nil, 0, apperrors.Internal("Failed to retrieve reviews", err)
	}

	count, err := s.reviews.CountRatedByProvider(ctx, providerID)
	if err != nil {
		s.cfg.Log.Error("Failed to count provider reviews",
			"provider_id", providerID,
			"error", err,
		)
		return nil, 0, apperrors.Internal("Failed to count reviews", err)
	}

	reviews := make([]*model.Review, 0, len(appointments))
	for _, appt := range appointments {
		if appt.Rating == nil || !appt.Rating.IsRated {
			continue
		}
		reviews = append(reviews, &model.Review{
			AppointmentID: appt.ID,
			ClientID:      appt.ClientID,
			Score:         appt.Rating.Score,
			Feedback:      appt.Rating.Feedback,
			GivenAt:       appt.Rating.GivenAt,
		})
	}

	return reviews, count, nil
}

// EffectiveAvailability fills any unset schedule fields with the portal
// defaults. Providers created before a field existed still resolve to a
// complete calendar.
func (s *providerService) EffectiveAvailability(p *model.Provider) model.Availability {
	out := p.Availability
	if len(out.WorkingDays) == 0 {
		out.WorkingDays = append([]string{}, s.cfg.DefaultWorkingDays...)
	}
	if out.StartTime == "" {
		out.StartTime = s.cfg.DefaultStartOfDay
	}
	if out.EndTime == "" {
		out.EndTime = s.cfg.DefaultEndOfDay
	}
	if out.SlotDurationMin == 0 {
		out.SlotDurationMin = s.cfg.DefaultSlotDurationMin
	}
	return out
}

func (s *providerService) IsWorkingDay(availability model.Availability, date time.Time) bool {
	weekday := timeslot.WeekdayName(date)
	for _, d := range availability.WorkingDays {
		if d == weekday {
			return true
		}
	}
	return false
}

func (s *providerService) sanitize(p *model.Provider) {
	p.Name = sanitizer.NormalizeName(p.Name)
	p.Specialty = sanitizer.TrimAndNormalize(p.Specialty)
	p.Bio = sanitizer.NormalizeText(p.Bio)
	p.Phone = sanitizer.NormalizePhone(p.Phone)
	p.Availability.WorkingDays = sanitizer.NormalizeWorkingDays(p.Availability.WorkingDays)
}

func (s *providerService) sanitizeUpdate(updates *model.AvailabilityUpdate) {
	if len(updates.WorkingDays) > 0 {
		updates.WorkingDays = sanitizer.NormalizeWorkingDays(updates.WorkingDays)
	}
}

func (s *providerService) applyDefaults(p *model.Provider) {
	p.Active = true
	p.Availability = s.EffectiveAvailability(p)
}

func (s *providerService) mergeAvailability(existing *model.Provider, updates *model.AvailabilityUpdate) *model.Provider {
	merged := *existing
	merged.Availability = s.EffectiveAvailability(existing)

	if len(updates.WorkingDays) > 0 {
		merged.Availability.WorkingDays = updates.WorkingDays
	}
	if updates.StartTime != "" {
		merged.Availability.StartTime = updates.StartTime
	}
	if updates.EndTime != "" {
		merged.Availability.EndTime = updates.EndTime
	}
	if updates.SlotDurationMin != nil {
		merged.Availability.SlotDurationMin = *updates.SlotDurationMin
	}
	if updates.Fee != nil {
		merged.Fee = *updates.Fee
	}
	return &merged
}
