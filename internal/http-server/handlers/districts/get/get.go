package get

import (
	"escala-service/api"
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

type DistrictGetter interface {
	GetDistrict(ctx context.Context, id string) (*api.DistrictResponse, error)
}

type Response struct {
	response.Response
	District *api.DistrictResponse `json:"district,omitempty"`
}

func New(log *slog.Logger, getter DistrictGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.districts.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")
		if id == "" {
			log.Error("id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "id is required"))
			return
		}

		district, err := getter.GetDistrict(r.Context(), id)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to get district", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get district"))
			return
		}

		log.Info("District retrieved", slog.String("id", district.ID))
		render.JSON(w, r, Response{
			District: district,
		})
	}
}
