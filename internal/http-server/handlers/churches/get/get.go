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

type ChurchGetter interface {
	GetChurchInfo(ctx context.Context, id string) (*api.ChurchResponse, error)
}

type Response struct {
	response.Response
	Church *api.ChurchResponse `json:"church,omitempty"`
}

func New(log *slog.Logger, getter ChurchGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.churches.get.New"

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

		church, err := getter.GetChurchInfo(r.Context(), id)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to get church", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get church"))
			return
		}

		log.Info("Church retrieved", slog.String("id", church.ID))
		render.JSON(w, r, Response{
			Church: church,
		})
	}
}
