package create

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

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type ManualScheduleCreator interface {
	CreateManualSchedule(ctx context.Context, req *api.ManualScheduleRequest, callerID string) (*api.ScheduleResponse, error)
}

type Request struct {
	api.ManualScheduleRequest
}

type Response struct {
	response.Response
	Schedule *api.ScheduleResponse `json:"schedule,omitempty"`
}

// New creates an empty manual schedule: all slots laid out from the
// church's service days, none assigned.
func New(log *slog.Logger, creator ManualScheduleCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.schedules.create.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		caller := identity.FromContext(r.Context())
		if !identity.HasAnyRole(caller, models.RoleDistrictPastor, models.RoleChurchLeader) {
			log.Error("caller lacks permission")
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error(string(response.PERMISSION_DENIED), "only a pastor or church leader may create schedules"))
			return
		}

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		log.Info("Request body decoded", slog.Any("request", req))

		if err := validator.New().Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)
			log.Error("Invalid request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}

		schedule, err := creator.CreateManualSchedule(r.Context(), &req.ManualScheduleRequest, caller.ID)

		if errors.Is(err, response.ErrScheduleExists) {
			log.Error("schedule already exists")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.SCHEDULE_EXISTS), "schedule already exists for this church and month"))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("church not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "church not found"))
			return
		}

		if err != nil {
			log.Error("Failed to create schedule", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create schedule"))
			return
		}

		log.Info("Schedule created", slog.String("id", schedule.ID))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{
			Schedule: schedule,
		})
	}
}
