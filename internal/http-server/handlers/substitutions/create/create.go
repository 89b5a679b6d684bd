package create

import (
	"escala-service/api"
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

type SubstitutionCreator interface {
	CreateSubstitution(ctx context.Context, req *api.SubstitutionCreateRequest, requesterID string) (*api.SubstitutionResponse, error)
}

type Request struct {
	api.SubstitutionCreateRequest
}

type Response struct {
	response.Response
	Substitution *api.SubstitutionResponse `json:"substitution,omitempty"`
}

func New(log *slog.Logger, creator SubstitutionCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.substitutions.create.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		caller := identity.FromContext(r.Context())

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

		sub, err := creator.CreateSubstitution(r.Context(), &req.SubstitutionCreateRequest, caller.ID)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if errors.Is(err, response.ErrNotAssigned) {
			log.Error("caller is not assigned to this slot")
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error(string(response.NOT_ASSIGNED), "caller is not assigned to this slot"))
			return
		}

		if err != nil {
			log.Error("Failed to create substitution request", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create substitution request"))
			return
		}

		log.Info("Substitution request created", slog.String("id", sub.ID))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{
			Substitution: sub,
		})
	}
}
