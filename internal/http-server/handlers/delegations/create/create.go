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

type DelegationCreator interface {
	CreateDelegation(ctx context.Context, req *api.DelegationCreateRequest, callerID string) (*api.DelegationResponse, error)
}

type Request struct {
	api.DelegationCreateRequest
}

type Response struct {
	response.Response
	Delegation *api.DelegationResponse `json:"delegation,omitempty"`
}

func New(log *slog.Logger, creator DelegationCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.delegations.create.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		caller := identity.FromContext(r.Context())
		if !identity.HasAnyRole(caller, models.RoleDistrictPastor) {
			log.Error("caller lacks permission")
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error(string(response.PERMISSION_DENIED), "only a district pastor may delegate"))
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

		delegation, err := creator.CreateDelegation(r.Context(), &req.DelegationCreateRequest, caller.ID)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to create delegation", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create delegation"))
			return
		}

		log.Info("Delegation created", slog.String("id", delegation.ID))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{
			Delegation: delegation,
		})
	}
}
