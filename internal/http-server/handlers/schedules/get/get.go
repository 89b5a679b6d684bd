package get

import (
	"escala-service/api"
	"escala-service/internal/service"
	"escala-service/pkg/response"
	"escala-service/pkg/sl"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type ScheduleGetter interface {
	GetSchedule(ctx context.Context, id string) (*api.ScheduleResponse, error)
	ListSchedules(ctx context.Context, filters *service.ScheduleFilters) ([]*api.ScheduleResponse, error)
}

type Response struct {
	response.Response
	Schedules []api.ScheduleResponse `json:"schedules,omitempty"`
	Schedule  *api.ScheduleResponse  `json:"schedule,omitempty"`
}

func New(log *slog.Logger, getter ScheduleGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.schedules.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")

		if id != "" {
			// Get by ID
			schedule, err := getter.GetSchedule(r.Context(), id)

			if errors.Is(err, response.ErrNotFound) {
				log.Error("resource not found")
				w.WriteHeader(http.StatusNotFound)
				render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
				return
			}

			if err != nil {
				log.Error("Failed to get schedule", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get schedule"))
				return
			}

			log.Info("Schedule retrieved", slog.String("id", schedule.ID))
			render.JSON(w, r, Response{
				Schedule: schedule,
			})
			return
		}

		// List
		filters := &service.ScheduleFilters{}

		if v := r.URL.Query().Get("month"); v != "" {
			month, err := strconv.Atoi(v)
			if err != nil {
				log.Error("month is not a number")
				w.WriteHeader(http.StatusBadRequest)
				render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "month must be a number"))
				return
			}
			filters.Month = &month
		}
		if v := r.URL.Query().Get("year"); v != "" {
			year, err := strconv.Atoi(v)
			if err != nil {
				log.Error("year is not a number")
				w.WriteHeader(http.StatusBadRequest)
				render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "year must be a number"))
				return
			}
			filters.Year = &year
		}
		if v := r.URL.Query().Get("church_id"); v != "" {
			filters.ChurchID = &v
		}
		if v := r.URL.Query().Get("district_id"); v != "" {
			filters.DistrictID = &v
		}

		schedules, err := getter.ListSchedules(r.Context(), filters)
		if err != nil {
			log.Error("Failed to list schedules", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list schedules"))
			return
		}

		log.Info("Schedules retrieved", slog.Int("count", len(schedules)))

		result := make([]api.ScheduleResponse, len(schedules))
		for i, schedule := range schedules {
			result[i] = *schedule
		}
		render.JSON(w, r, Response{
			Schedules: result,
		})
	}
}
