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

type ChurchCreator interface {
	CreateChurch(ctx context.Context, req *api.ChurchRequest) (*api.ChurchResponse, error)
}

type Request struct {
	api.ChurchRequest
}

type Response struct {
	response.Response
	Church *api.ChurchResponse `json:"church,omitempty"`
}

func New(log *slog.Logger, creator ChurchCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.churches.create.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		caller := identity.FromContext(r.Context())
		if !identity.HasAnyRole(caller, models.RoleDistrictPastor) {
			log.Error("caller lacks permission")
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error(string(response.PERMISSION_DENIED), "only a district pastor may create churches"))
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

		church, err := creator.CreateChurch(r.Context(), &req.ChurchRequest)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("district not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "district not found"))
			return
		}

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("Invalid service day", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), err.Error()))
			return
		}

		if err != nil {
			log.Error("Failed to create church", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create church"))
			return
		}

		log.Info("Church created", slog.String("id", church.ID))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{
			Church: church,
		})
	}
}
