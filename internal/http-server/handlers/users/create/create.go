package create

import (
	"escala-service/api"
	"escala-service/pkg/response"
	"escala-service/pkg/sl"
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type PersonCreator interface {
	CreatePerson(ctx context.Context, req *api.PersonRequest) (*api.PersonResponse, error)
}

type Request struct {
	api.PersonRequest
}

type Response struct {
	response.Response
	User *api.PersonResponse `json:"user,omitempty"`
}

func New(log *slog.Logger, creator PersonCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.users.create.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

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

		user, err := creator.CreatePerson(r.Context(), &req.PersonRequest)
		if err != nil {
			log.Error("Failed to create user", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create user"))
			return
		}

		log.Info("User created", slog.String("id", user.ID))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{
			User: user,
		})
	}
}
