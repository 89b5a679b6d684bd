package generate

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

type ScheduleGenerator interface {
	GenerateAutoSchedules(ctx context.Context, req *api.GenerateScheduleRequest, callerID string) ([]*api.ScheduleResponse, error)
}

type Request struct {
	api.GenerateScheduleRequest
}

type Response struct {
	response.Response
	Schedules []api.ScheduleResponse `json:"schedules"`
}

func New(log *slog.Logger, generator ScheduleGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.schedules.generate.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		caller := identity.FromContext(r.Context())
		if !identity.HasAnyRole(caller, models.RoleDistrictPastor, models.RoleChurchLeader) {
			log.Error("caller lacks permission")
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error(string(response.PERMISSION_DENIED), "only a pastor or church leader may generate schedules"))
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

		schedules, err := generator.GenerateAutoSchedules(r.Context(), &req.GenerateScheduleRequest, caller.ID)

		if errors.Is(err, response.ErrLocked) {
			log.Error("generation already running for this district and month")
			w.WriteHeader(http.StatusLocked)
			render.JSON(w, r, response.Error(string(response.LOCKED), "generation already running for this district and month"))
			return
		}

		if errors.Is(err, response.ErrScheduleExists) {
			log.Error("schedule already exists")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.SCHEDULE_EXISTS), "schedule already exists for this church and month"))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to generate schedules", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to generate schedules"))
			return
		}

		log.Info("Schedules generated", slog.Int("count", len(schedules)))

		result := make([]api.ScheduleResponse, len(schedules))
		for i, schedule := range schedules {
			result[i] = *schedule
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{
			Schedules: result,
		})
	}
}
