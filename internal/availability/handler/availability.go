package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"medibook/internal/availability/service"
	apperrors "medibook/pkg/errors"
	httputil "medibook/pkg/http"
	"medibook/pkg/logger"
)

type AvailabilityHandler struct {
	service service.AvailabilityService
	log     *logger.Logger
}

func NewAvailabilityHandler(service service.AvailabilityService, log *logger.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		service: service,
		log:     log,
	}
}

func (h *AvailabilityHandler) Slots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	date := r.URL.Query().Get("date")
	if date == "" {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("date query parameter is required")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Slots", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	daySlots, err := h.service.AvailableSlots(r.Context(), ps.ByName("id"), date)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Slots", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, daySlots); err != nil {
		h.log.Error("failed to write success response", "handler", "Slots", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) NextAvailable(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	next, err := h.service.NextAvailable(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "NextAvailable", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	// A fully booked horizon is a valid answer, not an error: data is null.
	if err := httputil.WriteSuccess(w, next); err != nil {
		h.log.Error("failed to write success response", "handler", "NextAvailable", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/providers/:id/slots", h.Slots)
	router.GET("/api/v1/providers/:id/next-available", h.NextAvailable)
}
