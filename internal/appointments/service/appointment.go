package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	appointmenterrors "medibook/internal/appointments/errors"
	"medibook/internal/appointments/repository"
	"medibook/internal/appointments/validator"
	"medibook/pkg/config"
	apperrors "medibook/pkg/errors"
	"medibook/pkg/model"
	"medibook/pkg/sanitizer"
	"medibook/pkg/timeslot"
)

// ProviderCalendar is the slice of the provider service the booking flow
// needs: resolve a provider and interpret their working pattern.
type ProviderCalendar interface {
	GetByID(ctx context.Context, id string) (*model.Provider, error)
	EffectiveAvailability(p *model.Provider) model.Availability
	IsWorkingDay(availability model.Availability, date time.Time) bool
}

// RatingAggregator recomputes a provider's review summary after a rating
// changes and hands back the fresh aggregate.
type RatingAggregator interface {
	Recompute(ctx context.Context, providerID string) (model.RatingAggregate, error)
}

type AppointmentService interface {
	Book(ctx context.Context, appt *model.Appointment) error
	GetByID(ctx context.Context, id string) (*model.Appointment, error)
	ListForClient(ctx context.Context, clientID string, limit int, offset int64) ([]*model.Appointment, int64, error)
	ListForProvider(ctx context.Context, providerID string, limit int, offset int64) ([]*model.Appointment, int64, error)
	SetStatus(ctx context.Context, id, providerID string, update *model.StatusUpdate) (*model.Appointment, error)
	Cancel(ctx context.Context, id, clientID string) error
	Hide(ctx context.Context, id, clientID string) error
	SubmitRating(ctx context.Context, id, clientID string, submission *model.RatingSubmission) (*model.Appointment, *model.RatingAggregate, error)
	DeleteRating(ctx context.Context, id, clientID string) (*model.RatingAggregate, error)
}

// allowedTransitions holds the legal status moves. Completed and cancelled
// are terminal.
var allowedTransitions = map[string][]string{
	model.StatusPending:   {model.StatusConfirmed, model.StatusCancelled},
	model.StatusConfirmed: {model.StatusCompleted, model.StatusCancelled},
}

type appointmentService struct {
	repo      repository.AppointmentRepository
	lockRepo  repository.SlotLockRepository
	calendar  ProviderCalendar
	ratings   RatingAggregator
	notifier  Notifier
	validator *validator.AppointmentValidator
	cfg       *config.Config
	now       func() time.Time
}

func NewAppointmentService(
	repo repository.AppointmentRepository,
	lockRepo repository.SlotLockRepository,
	calendar ProviderCalendar,
	ratings RatingAggregator,
	notifier Notifier,
	validator *validator.AppointmentValidator,
	cfg *config.Config,
) AppointmentService {
	return &appointmentService{
		repo:      repo,
		lockRepo:  lockRepo,
		calendar:  calendar,
		ratings:   ratings,
		notifier:  notifier,
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *appointmentService) Book(ctx context.Context, appt *model.Appointment) error {
	s.sanitize(appt)
	appt.Status = model.StatusPending
	appt.VisibleToClient = true
	appt.Rating = nil

	if err := s.validator.Validate(appt); err != nil {
		s.cfg.Log.Warn("Appointment validation failed",
			"provider_id", appt.ProviderID,
			"client_id", appt.ClientID,
			"error", err,
		)
		return apperrors.Validation("Appointment validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	provider, err := s.calendar.GetByID(ctx, appt.ProviderID)
	if err != nil {
		return err
	}
	appt.Fee = provider.Fee

	tod, err := s.resolveSlot(provider, appt.Date, appt.Time)
	if err != nil {
		return err
	}

	lockID, err := s.acquireSlotLock(ctx, appt.ProviderID, appt.Date, tod)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := s.releaseSlotLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release slot lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		_, err := s.repo.FindActiveBySlot(sessCtx, appt.ProviderID, appt.Date, tod.Representations())
		if err == nil {
			return apperrors.Conflict("Time slot already booked. Please choose another time.")
		}
		if !errors.Is(err, appointmenterrors.ErrNotFound) {
			return apperrors.Internal("Failed to check slot availability", err)
		}

		if err := s.repo.Create(sessCtx, appt); err != nil {
			return apperrors.Internal("Failed to create appointment", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to book appointment",
			"provider_id", appt.ProviderID,
			"date", appt.Date,
			"time", appt.Time,
			"error", err,
		)
		return err
	}

	s.cfg.Log.Info("Appointment booked successfully",
		"id", appt.ID,
		"provider_id", appt.ProviderID,
		"client_id", appt.ClientID,
		"date", appt.Date,
		"time", appt.Time,
	)
	return nil
}

// resolveSlot checks the requested slot against the provider's calendar and
// returns its canonical clock value.
func (s *appointmentService) resolveSlot(provider *model.Provider, date, clock string) (timeslot.TimeOfDay, error) {
	day, err := timeslot.ParseDate(date)
	if err != nil {
		return 0, apperrors.InvalidInput("Appointment date must be in YYYY-MM-DD format")
	}

	tod, err := timeslot.Parse(clock)
	if err != nil {
		return 0, apperrors.InvalidInput("Appointment time must be in HH:MM or H:MM AM/PM format")
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if day.Before(today) {
		return 0, apperrors.Validation("Appointment date is in the past", nil)
	}
	if timeslot.SameDate(day, now) && tod < timeslot.MinutesOfDay(now) {
		return 0, apperrors.Validation("Appointment time has already passed", nil)
	}

	availability := s.calendar.EffectiveAvailability(provider)
	if !s.calendar.IsWorkingDay(availability, day) {
		return 0, apperrors.Validation(
			fmt.Sprintf("Provider is not available on %s", timeslot.WeekdayName(day)), nil)
	}

	start, err := timeslot.Parse24(availability.StartTime)
	if err != nil {
		return 0, apperrors.Internal("Provider schedule has an invalid start time", err)
	}
	end, err := timeslot.Parse24(availability.EndTime)
	if err != nil {
		return 0, apperrors.Internal("Provider schedule has an invalid end time", err)
	}

	for _, slot := range timeslot.Grid(start, end, availability.SlotDurationMin) {
		if slot == tod {
			return tod, nil
		}
	}
	return 0, apperrors.Validation("Appointment time is outside the provider's schedule", nil)
}

func (s *appointmentService) GetByID(ctx context.Context, id string) (*model.Appointment, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Appointment ID cannot be empty")
	}

	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, appointmenterrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Appointment", id)
		}
		if errors.Is(err, appointmenterrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid appointment ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve appointment", err)
	}

	return appt, nil
}

func (s *appointmentService) ListForClient(ctx context.Context, clientID string, limit int, offset int64) ([]*model.Appointment, int64, error) {
	if clientID == "" {
		return nil, 0, apperrors.InvalidInput("Client ID cannot be empty")
	}
	return s.listPage(ctx, limit, offset,
		func(ctx context.Context, limit int, offset int64) ([]*model.Appointment, error) {
			return s.repo.FindByClient(ctx, clientID, limit, offset)
		},
		func(ctx context.Context) (int64, error) {
			return s.repo.CountByClient(ctx, clientID)
		},
	)
}

func (s *appointmentService) ListForProvider(ctx context.Context, providerID string, limit int, offset int64) ([]*model.Appointment, int64, error) {
	if providerID == "" {
		return nil, 0, apperrors.InvalidInput("Provider ID cannot be empty")
	}
	return s.listPage(ctx, limit, offset,
		func(ctx context.Context, limit int, offset int64) ([]*model.Appointment, error) {
			return s.repo.FindByProvider(ctx, providerID, limit, offset)
		},
		func(ctx context.Context) (int64, error) {
			return s.repo.CountByProvider(ctx, providerID)
		},
	)
}

func (s *appointmentService) listPage(
	ctx context.Context,
	limit int,
	offset int64,
	find func(context.Context, int, int64) ([]*model.Appointment, error),
	count func(context.Context) (int64, error),
) ([]*model.Appointment, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	sharedCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var total int64
	var appointments []*model.Appointment
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		total, errCount = count(sharedCtx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count appointments", "error", errCount)
			errCount = apperrors.Internal("Failed to count appointments", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		appointments, errFind = find(sharedCtx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list appointments", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve appointments", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return appointments, total, nil
}

func (s *appointmentService) SetStatus(ctx context.Context, id, providerID string, update *model.StatusUpdate) (*model.Appointment, error) {
	s.sanitizeStatusUpdate(update)
	if err := s.validator.ValidateStatusUpdate(update); err != nil {
		return nil, apperrors.Validation("Status update validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	appt, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.ProviderID != providerID {
		return nil, apperrors.Forbidden("Appointment belongs to a different provider")
	}

	if err := checkTransition(appt.Status, update.Status); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, id, update); err != nil {
		if errors.Is(err, appointmenterrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Appointment", id)
		}
		s.cfg.Log.Error("Failed to update appointment status",
			"id", id,
			"status", update.Status,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to update appointment status", err)
	}

	appt.Status = update.Status
	if update.Diagnosis != "" {
		appt.Diagnosis = update.Diagnosis
	}
	if update.Prescription != "" {
		appt.Prescription = update.Prescription
	}
	if update.ProviderNotes != "" {
		appt.ProviderNotes = update.ProviderNotes
	}

	s.cfg.Log.Info("Appointment status updated",
		"id", id,
		"provider_id", providerID,
		"status", update.Status,
	)

	switch update.Status {
	case model.StatusConfirmed:
		s.notifier.Notify(ctx, EventAppointmentConfirmed, appt)
	case model.StatusCancelled:
		s.notifier.Notify(ctx, EventAppointmentCancelled, appt)
	case model.StatusCompleted:
		s.notifier.Notify(ctx, EventAppointmentCompleted, appt)
	}

	return appt, nil
}

func checkTransition(from, to string) error {
	if from == to {
		return apperrors.Conflict(fmt.Sprintf("Appointment is already %s", from))
	}
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return apperrors.Conflict(fmt.Sprintf("Cannot change a %s appointment to %s", from, to))
}

func (s *appointmentService) Cancel(ctx context.Context, id, clientID string) error {
	appt, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if appt.ClientID != clientID {
		return apperrors.Forbidden("Appointment belongs to a different client")
	}
	if appt.Status != model.StatusPending && appt.Status != model.StatusConfirmed {
		return apperrors.Conflict(fmt.Sprintf("Cannot cancel a %s appointment", appt.Status))
	}

	update := &model.StatusUpdate{Status: model.StatusCancelled}
	if err := s.repo.UpdateStatus(ctx, id, update); err != nil {
		s.cfg.Log.Error("Failed to cancel appointment", "id", id, "error", err)
		return apperrors.Internal("Failed to cancel appointment", err)
	}

	appt.Status = model.StatusCancelled
	s.cfg.Log.Info("Appointment cancelled by client", "id", id, "client_id", clientID)
	s.notifier.Notify(ctx, EventAppointmentCancelled, appt)
	return nil
}

// Hide removes the appointment from the client's history without touching
// the ledger: the record keeps holding its slot history and the provider's
// view.
func (s *appointmentService) Hide(ctx context.Context, id, clientID string) error {
	appt, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if appt.ClientID != clientID {
		return apperrors.Forbidden("Appointment belongs to a different client")
	}

	if err := s.repo.SetVisibility(ctx, id, false); err != nil {
		s.cfg.Log.Error("Failed to hide appointment", "id", id, "error", err)
		return apperrors.Internal("Failed to hide appointment", err)
	}

	s.cfg.Log.Info("Appointment hidden from client history", "id", id, "client_id", clientID)
	return nil
}

func (s *appointmentService) SubmitRating(ctx context.Context, id, clientID string, submission *model.RatingSubmission) (*model.Appointment, *model.RatingAggregate, error) {
	submission.Feedback = sanitizer.NormalizeText(submission.Feedback)
	if err := s.validator.ValidateRating(submission); err != nil {
		return nil, nil, apperrors.Validation("Rating validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	appt, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if appt.ClientID != clientID {
		return nil, nil, apperrors.Forbidden("Appointment belongs to a different client")
	}
	if appt.Status != model.StatusCompleted {
		return nil, nil, apperrors.Conflict("Only completed appointments can be rated")
	}

	rating := &model.Rating{
		Score:    submission.Score,
		Feedback: submission.Feedback,
		IsRated:  true,
		GivenAt:  s.now().UTC().Truncate(time.Millisecond),
	}

	if err := s.repo.SetRating(ctx, id, rating); err != nil {
		s.cfg.Log.Error("Failed to save rating", "id", id, "error", err)
		return nil, nil, apperrors.Internal("Failed to save rating", err)
	}
	appt.Rating = rating

	s.cfg.Log.Info("Rating submitted",
		"id", id,
		"provider_id", appt.ProviderID,
		"score", rating.Score,
	)

	return appt, s.recomputeAggregate(ctx, appt.ProviderID), nil
}

func (s *appointmentService) DeleteRating(ctx context.Context, id, clientID string) (*model.RatingAggregate, error) {
	appt, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.ClientID != clientID {
		return nil, apperrors.Forbidden("Appointment belongs to a different client")
	}
	if appt.Rating == nil || !appt.Rating.IsRated {
		return nil, apperrors.NotFound("Rating")
	}

	if err := s.repo.ClearRating(ctx, id); err != nil {
		s.cfg.Log.Error("Failed to delete rating", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to delete rating", err)
	}

	s.cfg.Log.Info("Rating deleted", "id", id, "provider_id", appt.ProviderID)

	return s.recomputeAggregate(ctx, appt.ProviderID), nil
}

// recomputeAggregate refreshes the provider's review summary after a rating
// change. The rating itself is already committed; a failed recompute is
// retried inside the aggregator and alert-logged, never surfaced to the
// client, so the caller gets a nil aggregate instead of an error.
func (s *appointmentService) recomputeAggregate(ctx context.Context, providerID string) *model.RatingAggregate {
	aggregate, err := s.ratings.Recompute(ctx, providerID)
	if err != nil {
		s.cfg.Log.Warn("Rating aggregate recompute failed",
			"provider_id", providerID,
			"error", err,
		)
		return nil
	}
	return &aggregate
}

func (s *appointmentService) sanitize(appt *model.Appointment) {
	appt.Reason = sanitizer.NormalizeText(appt.Reason)
	appt.Date = sanitizer.TrimAndNormalize(appt.Date)
	appt.Time = sanitizer.TrimAndNormalize(appt.Time)
}

func (s *appointmentService) sanitizeStatusUpdate(update *model.StatusUpdate) {
	update.Diagnosis = sanitizer.NormalizeText(update.Diagnosis)
	update.Prescription = sanitizer.NormalizeText(update.Prescription)
	update.ProviderNotes = sanitizer.NormalizeText(update.ProviderNotes)
}

// acquireSlotLock creates an advisory lock keyed by the canonical slot
// coordinates, so both clock forms of the same slot contend on one key.
func (s *appointmentService) acquireSlotLock(ctx context.Context, providerID, date string, tod timeslot.TimeOfDay) (string, error) {
	lockID := fmt.Sprintf("slot:%s:%s:%s", providerID, date, tod.Format24())

	lock := &model.SlotLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(s.cfg.SlotLockTTL),
	}

	_, err := s.lockRepo.Create(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("This time slot is currently being booked by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire slot lock", err)
	}

	return lockID, nil
}

func (s *appointmentService) releaseSlotLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(ctx, lockID)
}
