package confirm

import (
	"escala-service/api"
	"escala-service/internal/models"
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

type ScheduleConfirmer interface {
	ConfirmSchedule(ctx context.Context, scheduleID string) (*api.ScheduleResponse, error)
}

type Response struct {
	response.Response
	Schedule *api.ScheduleResponse `json:"schedule,omitempty"`
}

// New publishes a draft schedule. Every slot needs a preacher first;
// the error names the first date that fails.
func New(log *slog.Logger, confirmer ScheduleConfirmer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.schedules.confirm.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		caller := identity.FromContext(r.Context())
		if !identity.HasAnyRole(caller, models.RoleDistrictPastor, models.RoleChurchLeader) {
			log.Error("caller lacks permission")
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error(string(response.PERMISSION_DENIED), "only a pastor or church leader may confirm schedules"))
			return
		}

		id := chi.URLParam(r, "id")
		if id == "" {
			log.Error("id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "id is required"))
			return
		}

		schedule, err := confirmer.ConfirmSchedule(r.Context(), id)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if errors.Is(err, response.ErrInvalidTransition) {
			log.Error("schedule is not a draft")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.INVALID_TRANSITION), "only a draft schedule can be confirmed"))
			return
		}

		if errors.Is(err, response.ErrIncompleteSchedule) {
			log.Error("schedule has unassigned slots", sl.Err(err))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error(string(response.SCHEDULE_INCOMPLETE), err.Error()))
			return
		}

		if err != nil {
			log.Error("Failed to confirm schedule", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to confirm schedule"))
			return
		}

		log.Info("Schedule confirmed", slog.String("id", schedule.ID))
		render.JSON(w, r, Response{
			Schedule: schedule,
		})
	}
}
