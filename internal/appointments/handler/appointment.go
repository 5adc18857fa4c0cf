package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"medibook/internal/appointments/service"
	apperrors "medibook/pkg/errors"
	httputil "medibook/pkg/http"
	"medibook/pkg/logger"
	"medibook/pkg/middleware"
	"medibook/pkg/model"
)

type AppointmentHandler struct {
	service service.AppointmentService
	log     *logger.Logger
}

// ratingResponse pairs a rating mutation's outcome with the provider's
// refreshed review summary. The aggregate is null when the recompute could
// not complete; the stored summary catches up on the next rating change.
type ratingResponse struct {
	Appointment             *model.Appointment     `json:"appointment,omitempty"`
	ProviderRatingAggregate *model.RatingAggregate `json:"provider_rating_aggregate"`
}

func NewAppointmentHandler(service service.AppointmentService, log *logger.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		service: service,
		log:     log,
	}
}

func (h *AppointmentHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "operation", "WriteError", "error", writeErr)
	}
}

func (h *AppointmentHandler) actorWithRole(w http.ResponseWriter, r *http.Request, handlerName, role string) (middleware.Actor, bool) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		h.writeError(w, handlerName, apperrors.Unauthorized("Actor identity is required"))
		return middleware.Actor{}, false
	}
	if actor.Role != role {
		h.writeError(w, handlerName, apperrors.Forbidden("Operation requires the "+role+" role"))
		return middleware.Actor{}, false
	}
	return actor, true
}

// Book creates a pending appointment for the acting client.
func (h *AppointmentHandler) Book(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := h.actorWithRole(w, r, "Book", middleware.RoleClient)
	if !ok {
		return
	}

	var appt model.Appointment
	if err := json.NewDecoder(r.Body).Decode(&appt); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Book", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}
	appt.ClientID = actor.ID

	if err := h.service.Book(r.Context(), &appt); err != nil {
		h.writeError(w, "Book", err)
		return
	}

	if err := httputil.WriteCreated(w, appt); err != nil {
		h.log.Error("failed to write created response", "handler", "Book", "operation", "WriteCreated", "error", err)
	}
}

func (h *AppointmentHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		h.writeError(w, "GetByID", apperrors.Unauthorized("Actor identity is required"))
		return
	}

	appt, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	clientView := actor.IsClient() && actor.ID == appt.ClientID && appt.VisibleToClient
	providerView := actor.IsProvider() && actor.ID == appt.ProviderID
	if !clientView && !providerView {
		h.writeError(w, "GetByID", apperrors.NotFoundWithID("Appointment", appt.ID))
		return
	}

	if err := httputil.WriteSuccess(w, appt); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

// Mine lists the acting client's visible appointment history.
func (h *AppointmentHandler) Mine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := h.actorWithRole(w, r, "Mine", middleware.RoleClient)
	if !ok {
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "Mine", err)
		return
	}

	appointments, totalCount, err := h.service.ListForClient(r.Context(), actor.ID, limit, offset)
	if err != nil {
		h.writeError(w, "Mine", err)
		return
	}

	if err := httputil.WritePaginated(w, appointments, totalCount, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "Mine", "operation", "WritePaginated", "error", err)
	}
}

// ProviderList lists every appointment on the acting provider's book,
// including records clients have hidden from their own history.
func (h *AppointmentHandler) ProviderList(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := h.actorWithRole(w, r, "ProviderList", middleware.RoleProvider)
	if !ok {
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ProviderList", err)
		return
	}

	appointments, totalCount, err := h.service.ListForProvider(r.Context(), actor.ID, limit, offset)
	if err != nil {
		h.writeError(w, "ProviderList", err)
		return
	}

	if err := httputil.WritePaginated(w, appointments, totalCount, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ProviderList", "operation", "WritePaginated", "error", err)
	}
}

func (h *AppointmentHandler) SetStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := h.actorWithRole(w, r, "SetStatus", middleware.RoleProvider)
	if !ok {
		return
	}

	var update model.StatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "SetStatus", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	appt, err := h.service.SetStatus(r.Context(), ps.ByName("id"), actor.ID, &update)
	if err != nil {
		h.writeError(w, "SetStatus", err)
		return
	}

	if err := httputil.WriteSuccess(w, appt); err != nil {
		h.log.Error("failed to write success response", "handler", "SetStatus", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := h.actorWithRole(w, r, "Cancel", middleware.RoleClient)
	if !ok {
		return
	}

	if err := h.service.Cancel(r.Context(), ps.ByName("id"), actor.ID); err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *AppointmentHandler) Hide(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := h.actorWithRole(w, r, "Hide", middleware.RoleClient)
	if !ok {
		return
	}

	if err := h.service.Hide(r.Context(), ps.ByName("id"), actor.ID); err != nil {
		h.writeError(w, "Hide", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *AppointmentHandler) SubmitRating(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := h.actorWithRole(w, r, "SubmitRating", middleware.RoleClient)
	if !ok {
		return
	}

	var submission model.RatingSubmission
	if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "SubmitRating", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	appt, aggregate, err := h.service.SubmitRating(r.Context(), ps.ByName("id"), actor.ID, &submission)
	if err != nil {
		h.writeError(w, "SubmitRating", err)
		return
	}

	if err := httputil.WriteSuccess(w, ratingResponse{Appointment: appt, ProviderRatingAggregate: aggregate}); err != nil {
		h.log.Error("failed to write success response", "handler", "SubmitRating", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) DeleteRating(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := h.actorWithRole(w, r, "DeleteRating", middleware.RoleClient)
	if !ok {
		return
	}

	aggregate, err := h.service.DeleteRating(r.Context(), ps.ByName("id"), actor.ID)
	if err != nil {
		h.writeError(w, "DeleteRating", err)
		return
	}

	if err := httputil.WriteSuccess(w, ratingResponse{ProviderRatingAggregate: aggregate}); err != nil {
		h.log.Error("failed to write success response", "handler", "DeleteRating", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/appointments", h.Book)
	router.GET("/api/v1/appointments/mine", h.Mine)
	router.GET("/api/v1/appointments/provider", h.ProviderList)
	router.GET("/api/v1/appointments/id/:id", h.GetByID)
	router.PUT("/api/v1/appointments/id/:id/status", h.SetStatus)
	router.PUT("/api/v1/appointments/id/:id/cancel", h.Cancel)
	router.DELETE("/api/v1/appointments/id/:id", h.Hide)
	router.POST("/api/v1/appointments/id/:id/rating", h.SubmitRating)
	router.DELETE("/api/v1/appointments/id/:id/rating", h.DeleteRating)
}
