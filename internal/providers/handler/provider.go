package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"medibook/internal/providers/service"
	apperrors "medibook/pkg/errors"
	httputil "medibook/pkg/http"
	"medibook/pkg/logger"
	"medibook/pkg/middleware"
	"medibook/pkg/model"
)

type ProviderHandler struct {
	service service.ProviderService
	log     *logger.Logger
}

func NewProviderHandler(service service.ProviderService, log *logger.Logger) *ProviderHandler {
	return &ProviderHandler{
		service: service,
		log:     log,
	}
}

func (h *ProviderHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var p model.Provider
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.Create(r.Context(), &p); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, p); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ProviderHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if id == "" {
		if err := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "ID parameter is required",
		}); err != nil {
			h.log.Error("failed to write bad request response", "handler", "GetByID", "operation", "WriteJSON", "error", err)
		}
		return
	}

	p, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, p); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ProviderHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	providers, totalCount, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, providers, totalCount, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

// UpdateSchedule lets a provider change their own working pattern and fee.
// The target provider is the acting provider; there is no path parameter.
func (h *ProviderHandler) UpdateSchedule(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		if writeErr := httputil.WriteError(w, apperrors.Unauthorized("Actor identity is required")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "UpdateSchedule", "operation", "WriteError", "error", writeErr)
		}
		return
	}
	if !actor.IsProvider() {
		if writeErr := httputil.WriteError(w, apperrors.Forbidden("Only providers can update a schedule")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "UpdateSchedule", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	var updates model.AvailabilityUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "UpdateSchedule", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	p, err := h.service.UpdateSchedule(r.Context(), actor.ID, &updates)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "UpdateSchedule", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, p); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateSchedule", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ProviderHandler) Reviews(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Reviews", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	reviews, totalCount, err := h.service.Reviews(r.Context(), id, limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Reviews", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, reviews, totalCount, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "Reviews", "operation", "WritePaginated", "error", err)
	}
}

func (h *ProviderHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/providers", h.Create)
	router.GET("/api/v1/providers", h.GetAll)
	router.GET("/api/v1/providers/:id", h.GetByID)
	router.PUT("/api/v1/providers/schedule", h.UpdateSchedule)
	router.GET("/api/v1/providers/:id/reviews", h.Reviews)
}
