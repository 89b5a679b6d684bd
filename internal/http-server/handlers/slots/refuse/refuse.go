package refuse

import (
	"escala-service/api"
	"escala-service/pkg/middleware/identity"
	"escala-service/pkg/response"
	"escala-service/pkg/sl"
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type ParticipationRefuser interface {
	RefuseParticipation(ctx context.Context, slotID, callerID, reason string) (*api.SlotResponse, error)
}

type Request struct {
	api.ReasonRequest
}

type Response struct {
	response.Response
	Slot *api.SlotResponse `json:"slot,omitempty"`
}

// New refuses a pending assignment. The refusal clears the caller from
// the slot and alerts the district pastor and church leader.
func New(log *slog.Logger, refuser ParticipationRefuser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.slots.refuse.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		caller := identity.FromContext(r.Context())

		id := chi.URLParam(r, "id")
		if id == "" {
			log.Error("id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "id is required"))
			return
		}

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		if err := validator.New().Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)
			log.Error("Invalid request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}

		slot, err := refuser.RefuseParticipation(r.Context(), id, caller.ID, req.Reason)

		if errors.Is(err, response.ErrLocked) {
			log.Error("slot is locked")
			w.WriteHeader(http.StatusLocked)
			render.JSON(w, r, response.Error(string(response.LOCKED), "slot is locked"))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if errors.Is(err, response.ErrInvalidTransition) {
			log.Error("slot is not pending")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.INVALID_TRANSITION), "only a pending slot can be refused"))
			return
		}

		if errors.Is(err, response.ErrNotAssigned) {
			log.Error("caller is not assigned to this slot")
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error(string(response.NOT_ASSIGNED), "caller is not assigned to this slot"))
			return
		}

		if err != nil {
			log.Error("Failed to refuse participation", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to refuse participation"))
			return
		}

		log.Info("Participation refused", slog.String("slot_id", slot.ID))
		render.JSON(w, r, Response{
			Slot: slot,
		})
	}
}
