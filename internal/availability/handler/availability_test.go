package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"

	"medibook/internal/availability/service"
	apperrors "medibook/pkg/errors"
	"medibook/pkg/logger"
)

const testProviderID = "64f1a2b3c4d5e6f7a8b9c0d1"

type mockAvailabilityService struct {
	availableSlotsFunc func(ctx context.Context, providerID, date string) (*service.DaySlots, error)
	nextAvailableFunc  func(ctx context.Context, providerID string) (*service.NextSlot, error)
}

func (m *mockAvailabilityService) AvailableSlots(ctx context.Context, providerID, date string) (*service.DaySlots, error) {
	if m.availableSlotsFunc != nil {
		return m.availableSlotsFunc(ctx, providerID, date)
	}
	return &service.DaySlots{Date: date, Slots: []service.Slot{}}, nil
}

func (m *mockAvailabilityService) NextAvailable(ctx context.Context, providerID string) (*service.NextSlot, error) {
	if m.nextAvailableFunc != nil {
		return m.nextAvailableFunc(ctx, providerID)
	}
	return nil, nil
}

func newTestHandler(svc *mockAvailabilityService) *AvailabilityHandler {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return &AvailabilityHandler{
		service: svc,
		log:     log,
	}
}

func TestSlots_CarriesBothClockForms(t *testing.T) {
	svc := &mockAvailabilityService{
		availableSlotsFunc: func(ctx context.Context, providerID, date string) (*service.DaySlots, error) {
			return &service.DaySlots{
				Date: date,
				Slots: []service.Slot{
					{Time24: "09:00", Time12: "9:00 AM"},
					{Time24: "14:30", Time12: "2:30 PM"},
				},
			}, nil
		},
	}
	handler := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/providers/"+testProviderID+"/slots?date=2026-09-02", nil)
	w := httptest.NewRecorder()

	handler.Slots(w, req, httprouter.Params{{Key: "id", Value: testProviderID}})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var response struct {
		Data struct {
			Date  string `json:"date"`
			Slots []struct {
				Time24 string `json:"time24"`
				Time12 string `json:"time12"`
			} `json:"slots"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Data.Date != "2026-09-02" {
		t.Errorf("expected date 2026-09-02, got %q", response.Data.Date)
	}
	if len(response.Data.Slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(response.Data.Slots))
	}
	if response.Data.Slots[0].Time24 != "09:00" || response.Data.Slots[0].Time12 != "9:00 AM" {
		t.Errorf("expected 09:00/9:00 AM, got %+v", response.Data.Slots[0])
	}
	if response.Data.Slots[1].Time24 != "14:30" || response.Data.Slots[1].Time12 != "2:30 PM" {
		t.Errorf("expected 14:30/2:30 PM, got %+v", response.Data.Slots[1])
	}
}

func TestSlots_MissingDate(t *testing.T) {
	handler := newTestHandler(&mockAvailabilityService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/providers/"+testProviderID+"/slots", nil)
	w := httptest.NewRecorder()

	handler.Slots(w, req, httprouter.Params{{Key: "id", Value: testProviderID}})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestNextAvailable_IncludesTwelveHourForm(t *testing.T) {
	svc := &mockAvailabilityService{
		nextAvailableFunc: func(ctx context.Context, providerID string) (*service.NextSlot, error) {
			return &service.NextSlot{
				Label:  "Tomorrow",
				Date:   "2026-09-02",
				Time:   "10:00",
				Time12: "10:00 AM",
			}, nil
		},
	}
	handler := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/providers/"+testProviderID+"/next-available", nil)
	w := httptest.NewRecorder()

	handler.NextAvailable(w, req, httprouter.Params{{Key: "id", Value: testProviderID}})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var response struct {
		Data struct {
			Label  string `json:"label"`
			Date   string `json:"date"`
			Time   string `json:"time"`
			Time12 string `json:"time12"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Data.Label != "Tomorrow" || response.Data.Time12 != "10:00 AM" {
		t.Errorf("expected Tomorrow with 10:00 AM, got %+v", response.Data)
	}
}

func TestNextAvailable_BookedOutHorizonIsNull(t *testing.T) {
	handler := newTestHandler(&mockAvailabilityService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/providers/"+testProviderID+"/next-available", nil)
	w := httptest.NewRecorder()

	handler.NextAvailable(w, req, httprouter.Params{{Key: "id", Value: testProviderID}})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var response struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if string(response.Data) != "null" {
		t.Errorf("expected data null, got %s", response.Data)
	}
}

func TestSlots_ProviderNotFound(t *testing.T) {
	svc := &mockAvailabilityService{
		availableSlotsFunc: func(ctx context.Context, providerID, date string) (*service.DaySlots, error) {
			return nil, apperrors.NotFoundWithID("Provider", providerID)
		},
	}
	handler := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/providers/"+testProviderID+"/slots?date=2026-09-02", nil)
	w := httptest.NewRecorder()

	handler.Slots(w, req, httprouter.Params{{Key: "id", Value: testProviderID}})

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}
