package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	providererrors "medibook/internal/providers/errors"
	"medibook/internal/providers/validator"
	"medibook/pkg/config"
	mongotx "medibook/pkg/db/mongo"
	apperrors "medibook/pkg/errors"
	"medibook/pkg/logger"
	"medibook/pkg/model"
)

const testProviderID = "64f1a2b3c4d5e6f7a8b9c0d1"

type mockProviderRepository struct {
	createFunc             func(ctx context.Context, p *model.Provider) error
	findByIDFunc           func(ctx context.Context, id string) (*model.Provider, error)
	findAllFunc            func(ctx context.Context, limit int, offset int64) ([]*model.Provider, error)
	countFunc              func(ctx context.Context) (int64, error)
	updateAvailabilityFunc func(ctx context.Context, id string, availability model.Availability, fee *float64) error
}

func (m *mockProviderRepository) Create(ctx context.Context, p *model.Provider) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, p)
	}
	p.ID = testProviderID
	return nil
}

func (m *mockProviderRepository) FindByID(ctx context.Context, id string) (*model.Provider, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, providererrors.ErrNotFound
}

func (m *mockProviderRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Provider, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, limit, offset)
	}
	return []*model.Provider{}, nil
}

func (m *mockProviderRepository) Count(ctx context.Context) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}
	return 0, nil
}

func (m *mockProviderRepository) UpdateAvailability(ctx context.Context, id string, availability model.Availability, fee *float64) error {
	if m.updateAvailabilityFunc != nil {
		return m.updateAvailabilityFunc(ctx, id, availability, fee)
	}
	return nil
}

func (m *mockProviderRepository) UpdateRatingAggregate(ctx context.Context, id string, aggregate model.RatingAggregate) error {
	return nil
}

func (m *mockProviderRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockReviewLister struct {
	findRatedFunc  func(ctx context.Context, providerID string, limit int, offset int64) ([]*model.Appointment, error)
	countRatedFunc func(ctx context.Context, providerID string) (int64, error)
}

func (m *mockReviewLister) FindRatedByProvider(ctx context.Context, providerID string, limit int, offset int64) ([]*model.Appointment, error) {
	if m.findRatedFunc != nil {
		return m.findRatedFunc(ctx, providerID, limit, offset)
	}
	return []*model.Appointment{}, nil
}

func (m *mockReviewLister) CountRatedByProvider(ctx context.Context, providerID string) (int64, error) {
	if m.countRatedFunc != nil {
		return m.countRatedFunc(ctx, providerID)
	}
	return 0, nil
}

func newTestService(repo *mockProviderRepository, reviews *mockReviewLister) *providerService {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	cfg := &config.Config{
		Log:                    log,
		ReadTimeout:            5 * time.Second,
		WriteTimeout:           5 * time.Second,
		DefaultWorkingDays:     []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
		DefaultStartOfDay:      "09:00",
		DefaultEndOfDay:        "17:00",
		DefaultSlotDurationMin: 30,
	}
	if reviews == nil {
		reviews = &mockReviewLister{}
	}
	return &providerService{
		repo:      repo,
		reviews:   reviews,
		validator: validator.NewProviderValidator(log),
		cfg:       cfg,
	}
}

func TestCreate_AppliesDefaults(t *testing.T) {
	repo := &mockProviderRepository{}
	service := newTestService(repo, nil)

	p := &model.Provider{
		Name:      "  Sarah   Lin ",
		Email:     "sarah.lin@example.com",
		Specialty: "Dermatology",
		Fee:       150,
	}

	if err := service.Create(context.Background(), p); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !p.Active {
		t.Error("expected new provider to be active")
	}
	if p.Name != "Sarah Lin" {
		t.Errorf("expected normalized name, got %q", p.Name)
	}
	wantDays := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}
	if !reflect.DeepEqual(p.Availability.WorkingDays, wantDays) {
		t.Errorf("expected default working days, got %v", p.Availability.WorkingDays)
	}
	if p.Availability.StartTime != "09:00" || p.Availability.EndTime != "17:00" {
		t.Errorf("expected default hours 09:00-17:00, got %s-%s", p.Availability.StartTime, p.Availability.EndTime)
	}
	if p.Availability.SlotDurationMin != 30 {
		t.Errorf("expected default slot duration 30, got %d", p.Availability.SlotDurationMin)
	}
}

func TestCreate_KeepsExplicitAvailability(t *testing.T) {
	repo := &mockProviderRepository{}
	service := newTestService(repo, nil)

	p := &model.Provider{
		Name:      "Sarah Lin",
		Email:     "sarah.lin@example.com",
		Specialty: "Dermatology",
		Availability: model.Availability{
			WorkingDays:     []string{"saturday", "sunday"},
			StartTime:       "10:00",
			EndTime:         "14:00",
			SlotDurationMin: 20,
		},
	}

	if err := service.Create(context.Background(), p); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	wantDays := []string{"Saturday", "Sunday"}
	if !reflect.DeepEqual(p.Availability.WorkingDays, wantDays) {
		t.Errorf("expected canonicalized weekend days, got %v", p.Availability.WorkingDays)
	}
	if p.Availability.StartTime != "10:00" || p.Availability.SlotDurationMin != 20 {
		t.Errorf("expected explicit schedule kept, got %+v", p.Availability)
	}
}

func TestCreate_ValidationFailure(t *testing.T) {
	tests := []struct {
		name     string
		provider *model.Provider
	}{
		{"missing name", &model.Provider{Email: "a@b.com", Specialty: "Dermatology"}},
		{"bad email", &model.Provider{Name: "Sarah Lin", Email: "not-an-email", Specialty: "Dermatology"}},
		{"missing specialty", &model.Provider{Name: "Sarah Lin", Email: "a@b.com"}},
		{"negative fee", &model.Provider{Name: "Sarah Lin", Email: "a@b.com", Specialty: "Dermatology", Fee: -5}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			service := newTestService(&mockProviderRepository{}, nil)
			err := service.Create(context.Background(), tc.provider)
			if !apperrors.IsCode(err, apperrors.CodeValidation) {
				t.Errorf("expected %s, got %v", apperrors.CodeValidation, err)
			}
		})
	}
}

func TestGetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo := &mockProviderRepository{
			findByIDFunc: func(ctx context.Context, id string) (*model.Provider, error) {
				return &model.Provider{ID: id, Name: "Sarah Lin"}, nil
			},
		}
		service := newTestService(repo, nil)

		p, err := service.GetByID(context.Background(), testProviderID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if p.ID != testProviderID {
			t.Errorf("expected ID %s, got %s", testProviderID, p.ID)
		}
	})

	t.Run("not found", func(t *testing.T) {
		service := newTestService(&mockProviderRepository{}, nil)

		_, err := service.GetByID(context.Background(), testProviderID)
		if !apperrors.IsCode(err, apperrors.CodeNotFound) {
			t.Fatalf("expected %s, got %v", apperrors.CodeNotFound, err)
		}
	})

	t.Run("invalid ID", func(t *testing.T) {
		repo := &mockProviderRepository{
			findByIDFunc: func(ctx context.Context, id string) (*model.Provider, error) {
				return nil, providererrors.ErrInvalidID
			},
		}
		service := newTestService(repo, nil)

		_, err := service.GetByID(context.Background(), "nope")
		if !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
			t.Fatalf("expected %s, got %v", apperrors.CodeInvalidInput, err)
		}
	})
}

func TestGetAll(t *testing.T) {
	repo := &mockProviderRepository{
		findAllFunc: func(ctx context.Context, limit int, offset int64) ([]*model.Provider, error) {
			return []*model.Provider{{ID: testProviderID}}, nil
		},
		countFunc: func(ctx context.Context) (int64, error) {
			return 42, nil
		},
	}
	service := newTestService(repo, nil)

	providers, count, err := service.GetAll(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if count != 42 {
		t.Errorf("expected count 42, got %d", count)
	}
	if len(providers) != 1 {
		t.Errorf("expected 1 provider, got %d", len(providers))
	}
}

func TestGetAll_CountFailure(t *testing.T) {
	repo := &mockProviderRepository{
		countFunc: func(ctx context.Context) (int64, error) {
			return 0, errors.New("connection reset")
		},
	}
	service := newTestService(repo, nil)

	_, _, err := service.GetAll(context.Background(), 10, 0)
	if !apperrors.IsCode(err, apperrors.CodeInternal) {
		t.Fatalf("expected %s, got %v", apperrors.CodeInternal, err)
	}
}

func TestUpdateSchedule_MergesPartialUpdate(t *testing.T) {
	var savedAvailability model.Availability
	var savedFee *float64
	repo := &mockProviderRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Provider, error) {
			return &model.Provider{
				ID:        id,
				Name:      "Sarah Lin",
				Email:     "sarah.lin@example.com",
				Specialty: "Dermatology",
				Fee:       150,
				Availability: model.Availability{
					WorkingDays:     []string{"Monday", "Tuesday"},
					StartTime:       "09:00",
					EndTime:         "17:00",
					SlotDurationMin: 30,
				},
			}, nil
		},
		updateAvailabilityFunc: func(ctx context.Context, id string, availability model.Availability, fee *float64) error {
			savedAvailability = availability
			savedFee = fee
			return nil
		},
	}
	service := newTestService(repo, nil)

	newFee := 200.0
	updated, err := service.UpdateSchedule(context.Background(), testProviderID, &model.AvailabilityUpdate{
		EndTime: "13:00",
		Fee:     &newFee,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if savedAvailability.EndTime != "13:00" {
		t.Errorf("expected end time 13:00 persisted, got %s", savedAvailability.EndTime)
	}
	if savedAvailability.StartTime != "09:00" {
		t.Errorf("expected unchanged start time, got %s", savedAvailability.StartTime)
	}
	if !reflect.DeepEqual(savedAvailability.WorkingDays, []string{"Monday", "Tuesday"}) {
		t.Errorf("expected unchanged working days, got %v", savedAvailability.WorkingDays)
	}
	if savedFee == nil || *savedFee != 200 {
		t.Errorf("expected fee 200 persisted, got %v", savedFee)
	}
	if updated.Fee != 200 {
		t.Errorf("expected fee 200 on result, got %v", updated.Fee)
	}
}

func TestUpdateSchedule_RejectsInvertedWindow(t *testing.T) {
	repo := &mockProviderRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Provider, error) {
			return &model.Provider{
				ID:        id,
				Name:      "Sarah Lin",
				Email:     "sarah.lin@example.com",
				Specialty: "Dermatology",
				Availability: model.Availability{
					WorkingDays:     []string{"Monday"},
					StartTime:       "09:00",
					EndTime:         "17:00",
					SlotDurationMin: 30,
				},
			}, nil
		},
	}
	service := newTestService(repo, nil)

	_, err := service.UpdateSchedule(context.Background(), testProviderID, &model.AvailabilityUpdate{
		EndTime: "08:00",
	})
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected %s for end before start, got %v", apperrors.CodeValidation, err)
	}
}

func TestReviews(t *testing.T) {
	givenAt := time.Date(2026, 8, 20, 15, 0, 0, 0, time.UTC)
	repo := &mockProviderRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Provider, error) {
			return &model.Provider{ID: id, Name: "Sarah Lin"}, nil
		},
	}
	reviews := &mockReviewLister{
		findRatedFunc: func(ctx context.Context, providerID string, limit int, offset int64) ([]*model.Appointment, error) {
			return []*model.Appointment{
				{
					ID:       "64f1a2b3c4d5e6f7a8b9c0d3",
					ClientID: "64f1a2b3c4d5e6f7a8b9c0d2",
					Rating:   &model.Rating{Score: 5, Feedback: "Great", IsRated: true, GivenAt: givenAt},
				},
				// Defensive: unrated rows never make it into the projection.
				{ID: "64f1a2b3c4d5e6f7a8b9c0d4"},
			}, nil
		},
		countRatedFunc: func(ctx context.Context, providerID string) (int64, error) {
			return 1, nil
		},
	}
	service := newTestService(repo, reviews)

	got, count, err := service.Reviews(context.Background(), testProviderID, 10, 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 review, got %d", len(got))
	}
	if got[0].Score != 5 || got[0].Feedback != "Great" || !got[0].GivenAt.Equal(givenAt) {
		t.Errorf("unexpected review %+v", got[0])
	}
}

func TestReviews_UnknownProvider(t *testing.T) {
	service := newTestService(&mockProviderRepository{}, &mockReviewLister{})

	_, _, err := service.Reviews(context.Background(), testProviderID, 10, 0)
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected %s before touching the review list, got %v", apperrors.CodeNotFound, err)
	}
}

func TestEffectiveAvailability(t *testing.T) {
	service := newTestService(&mockProviderRepository{}, nil)

	t.Run("fills missing fields", func(t *testing.T) {
		p := &model.Provider{}
		got := service.EffectiveAvailability(p)
		if !reflect.DeepEqual(got.WorkingDays, []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}) {
			t.Errorf("expected default days, got %v", got.WorkingDays)
		}
		if got.StartTime != "09:00" || got.EndTime != "17:00" || got.SlotDurationMin != 30 {
			t.Errorf("expected default schedule, got %+v", got)
		}
	})

	t.Run("keeps set fields", func(t *testing.T) {
		p := &model.Provider{
			Availability: model.Availability{
				WorkingDays: []string{"Saturday"},
				StartTime:   "10:00",
			},
		}
		got := service.EffectiveAvailability(p)
		if !reflect.DeepEqual(got.WorkingDays, []string{"Saturday"}) {
			t.Errorf("expected Saturday kept, got %v", got.WorkingDays)
		}
		if got.StartTime != "10:00" {
			t.Errorf("expected start 10:00 kept, got %s", got.StartTime)
		}
		if got.EndTime != "17:00" || got.SlotDurationMin != 30 {
			t.Errorf("expected remaining defaults filled, got %+v", got)
		}
	})
}

func TestIsWorkingDay(t *testing.T) {
	service := newTestService(&mockProviderRepository{}, nil)
	availability := model.Availability{WorkingDays: []string{"Monday", "Wednesday"}}

	monday := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2026, 9, 6, 0, 0, 0, 0, time.UTC)

	if !service.IsWorkingDay(availability, monday) {
		t.Error("expected Monday to be a working day")
	}
	if service.IsWorkingDay(availability, sunday) {
		t.Error("expected Sunday to be off")
	}
}
