package volunteer

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
)

type SlotVolunteer interface {
	VolunteerForSlot(ctx context.Context, slotID, callerID string) (*api.SlotResponse, error)
}

type Response struct {
	response.Response
	Slot *api.SlotResponse `json:"slot,omitempty"`
}

// New claims an open preaching slot for the caller. The claim skips
// the pending stage: a volunteer has already agreed.
func New(log *slog.Logger, vol SlotVolunteer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.slots.volunteer.New"

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

		slot, err := vol.VolunteerForSlot(r.Context(), id, caller.ID)

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
			log.Error("slot is closed")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.INVALID_TRANSITION), "slot is closed"))
			return
		}

		if errors.Is(err, response.ErrPermissionDenied) {
			log.Error("caller is not a preacher")
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error(string(response.PERMISSION_DENIED), "only a preacher may volunteer"))
			return
		}

		if errors.Is(err, response.ErrConflict) {
			log.Error("assignment conflict", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.CONFLICT), err.Error()))
			return
		}

		if err != nil {
			log.Error("Failed to volunteer for slot", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to volunteer for slot"))
			return
		}

		log.Info("Volunteer assigned", slog.String("slot_id", slot.ID))
		render.JSON(w, r, Response{
			Slot: slot,
		})
	}
}
