package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"

	apperrors "medibook/pkg/errors"
	"medibook/pkg/logger"
	"medibook/pkg/middleware"
	"medibook/pkg/model"
)

const (
	testProviderID    = "64f1a2b3c4d5e6f7a8b9c0d1"
	testClientID      = "64f1a2b3c4d5e6f7a8b9c0d2"
	testAppointmentID = "64f1a2b3c4d5e6f7a8b9c0d3"
)

type mockAppointmentService struct {
	bookFunc            func(ctx context.Context, appt *model.Appointment) error
	getByIDFunc         func(ctx context.Context, id string) (*model.Appointment, error)
	listForClientFunc   func(ctx context.Context, clientID string, limit int, offset int64) ([]*model.Appointment, int64, error)
	listForProviderFunc func(ctx context.Context, providerID string, limit int, offset int64) ([]*model.Appointment, int64, error)
	setStatusFunc       func(ctx context.Context, id, providerID string, update *model.StatusUpdate) (*model.Appointment, error)
	cancelFunc          func(ctx context.Context, id, clientID string) error
	submitRatingFunc    func(ctx context.Context, id, clientID string, submission *model.RatingSubmission) (*model.Appointment, *model.RatingAggregate, error)
	deleteRatingFunc    func(ctx context.Context, id, clientID string) (*model.RatingAggregate, error)
}

func (m *mockAppointmentService) Book(ctx context.Context, appt *model.Appointment) error {
	if m.bookFunc != nil {
		return m.bookFunc(ctx, appt)
	}
	return nil
}

func (m *mockAppointmentService) GetByID(ctx context.Context, id string) (*model.Appointment, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, apperrors.NotFoundWithID("Appointment", id)
}

func (m *mockAppointmentService) ListForClient(ctx context.Context, clientID string, limit int, offset int64) ([]*model.Appointment, int64, error) {
	if m.listForClientFunc != nil {
		return m.listForClientFunc(ctx, clientID, limit, offset)
	}
	return []*model.Appointment{}, 0, nil
}

func (m *mockAppointmentService) ListForProvider(ctx context.Context, providerID string, limit int, offset int64) ([]*model.Appointment, int64, error) {
	if m.listForProviderFunc != nil {
		return m.listForProviderFunc(ctx, providerID, limit, offset)
	}
	return []*model.Appointment{}, 0, nil
}

func (m *mockAppointmentService) SetStatus(ctx context.Context, id, providerID string, update *model.StatusUpdate) (*model.Appointment, error) {
	if m.setStatusFunc != nil {
		return m.setStatusFunc(ctx, id, providerID, update)
	}
	return nil, nil
}

func (m *mockAppointmentService) Cancel(ctx context.Context, id, clientID string) error {
	if m.cancelFunc != nil {
		return m.cancelFunc(ctx, id, clientID)
	}
	return nil
}

func (m *mockAppointmentService) Hide(ctx context.Context, id, clientID string) error {
	return nil
}

func (m *mockAppointmentService) SubmitRating(ctx context.Context, id, clientID string, submission *model.RatingSubmission) (*model.Appointment, *model.RatingAggregate, error) {
	if m.submitRatingFunc != nil {
		return m.submitRatingFunc(ctx, id, clientID, submission)
	}
	return nil, nil, nil
}

func (m *mockAppointmentService) DeleteRating(ctx context.Context, id, clientID string) (*model.RatingAggregate, error) {
	if m.deleteRatingFunc != nil {
		return m.deleteRatingFunc(ctx, id, clientID)
	}
	return nil, nil
}

func newTestHandler(service *mockAppointmentService) *AppointmentHandler {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return &AppointmentHandler{
		service: service,
		log:     log,
	}
}

func requestWithActor(method, target, body string, actor middleware.Actor) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(middleware.WithActor(req.Context(), actor))
}

func TestBook_ForcesActorAsClient(t *testing.T) {
	var booked *model.Appointment
	service := &mockAppointmentService{
		bookFunc: func(ctx context.Context, appt *model.Appointment) error {
			booked = appt
			return nil
		},
	}
	handler := newTestHandler(service)

	// The payload claims a different client; the actor identity wins.
	body := `{"provider_id":"` + testProviderID + `","client_id":"64f1a2b3c4d5e6f7a8b9c0ff","date":"2026-09-02","time":"09:30"}`
	req := requestWithActor(http.MethodPost, "/api/v1/appointments", body, middleware.Actor{
		ID:   testClientID,
		Role: middleware.RoleClient,
	})
	w := httptest.NewRecorder()

	handler.Book(w, req, httprouter.Params{})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", w.Code)
	}
	if booked == nil || booked.ClientID != testClientID {
		t.Errorf("expected client ID from actor, got %+v", booked)
	}
}

func TestBook_RequiresClientRole(t *testing.T) {
	handler := newTestHandler(&mockAppointmentService{})

	req := requestWithActor(http.MethodPost, "/api/v1/appointments", `{}`, middleware.Actor{
		ID:   testProviderID,
		Role: middleware.RoleProvider,
	})
	w := httptest.NewRecorder()

	handler.Book(w, req, httprouter.Params{})

	if w.Code != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", w.Code)
	}
}

func TestBook_MissingActor(t *testing.T) {
	handler := newTestHandler(&mockAppointmentService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(`{}`))
	w := httptest.NewRecorder()

	handler.Book(w, req, httprouter.Params{})

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}
}

func TestBook_InvalidBody(t *testing.T) {
	handler := newTestHandler(&mockAppointmentService{})

	req := requestWithActor(http.MethodPost, "/api/v1/appointments", `{not json`, middleware.Actor{
		ID:   testClientID,
		Role: middleware.RoleClient,
	})
	w := httptest.NewRecorder()

	handler.Book(w, req, httprouter.Params{})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestBook_SlotConflict(t *testing.T) {
	service := &mockAppointmentService{
		bookFunc: func(ctx context.Context, appt *model.Appointment) error {
			return apperrors.Conflict("Time slot already booked. Please choose another time.")
		},
	}
	handler := newTestHandler(service)

	body := `{"provider_id":"` + testProviderID + `","date":"2026-09-02","time":"09:30"}`
	req := requestWithActor(http.MethodPost, "/api/v1/appointments", body, middleware.Actor{
		ID:   testClientID,
		Role: middleware.RoleClient,
	})
	w := httptest.NewRecorder()

	handler.Book(w, req, httprouter.Params{})

	if w.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", w.Code)
	}

	var response struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Error != "Time slot already booked. Please choose another time." {
		t.Errorf("unexpected error message %q", response.Error)
	}
}

func TestGetByID_Visibility(t *testing.T) {
	appt := &model.Appointment{
		ID:              testAppointmentID,
		ProviderID:      testProviderID,
		ClientID:        testClientID,
		Status:          model.StatusConfirmed,
		VisibleToClient: true,
	}
	hidden := &model.Appointment{
		ID:              testAppointmentID,
		ProviderID:      testProviderID,
		ClientID:        testClientID,
		Status:          model.StatusCancelled,
		VisibleToClient: false,
	}

	tests := []struct {
		name     string
		appt     *model.Appointment
		actor    middleware.Actor
		wantCode int
	}{
		{"owning client", appt, middleware.Actor{ID: testClientID, Role: middleware.RoleClient}, http.StatusOK},
		{"owning provider", appt, middleware.Actor{ID: testProviderID, Role: middleware.RoleProvider}, http.StatusOK},
		{"other client reads as missing", appt, middleware.Actor{ID: "64f1a2b3c4d5e6f7a8b9c0ff", Role: middleware.RoleClient}, http.StatusNotFound},
		{"hidden record invisible to client", hidden, middleware.Actor{ID: testClientID, Role: middleware.RoleClient}, http.StatusNotFound},
		{"hidden record still on provider book", hidden, middleware.Actor{ID: testProviderID, Role: middleware.RoleProvider}, http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			service := &mockAppointmentService{
				getByIDFunc: func(ctx context.Context, id string) (*model.Appointment, error) {
					return tc.appt, nil
				},
			}
			handler := newTestHandler(service)

			req := requestWithActor(http.MethodGet, "/api/v1/appointments/id/"+testAppointmentID, "", tc.actor)
			w := httptest.NewRecorder()

			handler.GetByID(w, req, httprouter.Params{{Key: "id", Value: testAppointmentID}})

			if w.Code != tc.wantCode {
				t.Errorf("expected status %d, got %d", tc.wantCode, w.Code)
			}
		})
	}
}

func TestMine_PaginatedResponse(t *testing.T) {
	var receivedClientID string
	service := &mockAppointmentService{
		listForClientFunc: func(ctx context.Context, clientID string, limit int, offset int64) ([]*model.Appointment, int64, error) {
			receivedClientID = clientID
			return []*model.Appointment{
				{ID: testAppointmentID, ClientID: clientID},
			}, 25, nil
		},
	}
	handler := newTestHandler(service)

	req := requestWithActor(http.MethodGet, "/api/v1/appointments/mine?limit=10&offset=0", "", middleware.Actor{
		ID:   testClientID,
		Role: middleware.RoleClient,
	})
	w := httptest.NewRecorder()

	handler.Mine(w, req, httprouter.Params{})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if receivedClientID != testClientID {
		t.Errorf("expected list scoped to actor, got %s", receivedClientID)
	}

	var response struct {
		Data       []model.Appointment `json:"data"`
		TotalCount int64               `json:"total_count"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.TotalCount != 25 {
		t.Errorf("expected total_count 25, got %d", response.TotalCount)
	}
	if len(response.Data) != 1 {
		t.Errorf("expected 1 item, got %d", len(response.Data))
	}
}

func TestSetStatus_PassesActorAsProvider(t *testing.T) {
	var receivedProviderID string
	service := &mockAppointmentService{
		setStatusFunc: func(ctx context.Context, id, providerID string, update *model.StatusUpdate) (*model.Appointment, error) {
			receivedProviderID = providerID
			return &model.Appointment{ID: id, Status: update.Status}, nil
		},
	}
	handler := newTestHandler(service)

	req := requestWithActor(http.MethodPut, "/api/v1/appointments/id/"+testAppointmentID+"/status",
		`{"status":"confirmed"}`, middleware.Actor{ID: testProviderID, Role: middleware.RoleProvider})
	w := httptest.NewRecorder()

	handler.SetStatus(w, req, httprouter.Params{{Key: "id", Value: testAppointmentID}})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if receivedProviderID != testProviderID {
		t.Errorf("expected provider ID from actor, got %s", receivedProviderID)
	}
}

func TestCancel_NoContent(t *testing.T) {
	service := &mockAppointmentService{}
	handler := newTestHandler(service)

	req := requestWithActor(http.MethodPut, "/api/v1/appointments/id/"+testAppointmentID+"/cancel", "", middleware.Actor{
		ID:   testClientID,
		Role: middleware.RoleClient,
	})
	w := httptest.NewRecorder()

	handler.Cancel(w, req, httprouter.Params{{Key: "id", Value: testAppointmentID}})

	if w.Code != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", w.Code)
	}
}

func TestSubmitRating_ReturnsFreshAggregate(t *testing.T) {
	service := &mockAppointmentService{
		submitRatingFunc: func(ctx context.Context, id, clientID string, submission *model.RatingSubmission) (*model.Appointment, *model.RatingAggregate, error) {
			appt := &model.Appointment{
				ID:       id,
				ClientID: clientID,
				Status:   model.StatusCompleted,
				Rating:   &model.Rating{Score: submission.Score, IsRated: true},
			}
			return appt, &model.RatingAggregate{Average: 4.6, TotalReviews: 12}, nil
		},
	}
	handler := newTestHandler(service)

	req := requestWithActor(http.MethodPost, "/api/v1/appointments/id/"+testAppointmentID+"/rating",
		`{"score":5,"feedback":"Very thorough."}`, middleware.Actor{ID: testClientID, Role: middleware.RoleClient})
	w := httptest.NewRecorder()

	handler.SubmitRating(w, req, httprouter.Params{{Key: "id", Value: testAppointmentID}})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var response struct {
		Data struct {
			Appointment             *model.Appointment     `json:"appointment"`
			ProviderRatingAggregate *model.RatingAggregate `json:"provider_rating_aggregate"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Data.Appointment == nil || response.Data.Appointment.Rating == nil {
		t.Fatal("expected rated appointment in response")
	}
	agg := response.Data.ProviderRatingAggregate
	if agg == nil || agg.Average != 4.6 || agg.TotalReviews != 12 {
		t.Errorf("expected aggregate {4.6 12} in response, got %+v", agg)
	}
}

func TestDeleteRating_ReturnsFreshAggregate(t *testing.T) {
	service := &mockAppointmentService{
		deleteRatingFunc: func(ctx context.Context, id, clientID string) (*model.RatingAggregate, error) {
			return &model.RatingAggregate{Average: 4.2, TotalReviews: 11}, nil
		},
	}
	handler := newTestHandler(service)

	req := requestWithActor(http.MethodDelete, "/api/v1/appointments/id/"+testAppointmentID+"/rating", "", middleware.Actor{
		ID:   testClientID,
		Role: middleware.RoleClient,
	})
	w := httptest.NewRecorder()

	handler.DeleteRating(w, req, httprouter.Params{{Key: "id", Value: testAppointmentID}})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var response struct {
		Data struct {
			ProviderRatingAggregate *model.RatingAggregate `json:"provider_rating_aggregate"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	agg := response.Data.ProviderRatingAggregate
	if agg == nil || agg.Average != 4.2 || agg.TotalReviews != 11 {
		t.Errorf("expected aggregate {4.2 11} in response, got %+v", agg)
	}
}
