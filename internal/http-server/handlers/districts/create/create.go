package create

import (
	"escala-service/api"
	"escala-service/internal/models"
	"escala-service/pkg/middleware/identity"
	"escala-service/pkg/response"
	"escala-service/pkg/sl"
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type DistrictCreator interface {
	CreateDistrict(ctx context.Context, req *api.DistrictRequest) (*api.DistrictResponse, error)
}

type Request struct {
	api.DistrictRequest
}

type Response struct {
	response.Response
	District *api.DistrictResponse `json:"district,omitempty"`
}

func New(log *slog.Logger, creator DistrictCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.districts.create.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		caller := identity.FromContext(r.Context())
		if !identity.HasAnyRole(caller, models.RoleDistrictPastor) {
			log.Error("caller lacks permission")
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error(string(response.PERMISSION_DENIED), "only a district pastor may create districts"))
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

		district, err := creator.CreateDistrict(r.Context(), &req.DistrictRequest)
		if err != nil {
			log.Error("Failed to create district", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create district"))
			return
		}

		log.Info("District created", slog.String("id", district.ID))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{
			District: district,
		})
	}
}
