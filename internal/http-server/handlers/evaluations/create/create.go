package create

import (
	"escala-service/api"
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

type EvaluationCreator interface {
	CreateEvaluation(ctx context.Context, req *api.EvaluationCreateRequest) (*api.EvaluationResponse, error)
}

type Request struct {
	api.EvaluationCreateRequest
}

type Response struct {
	response.Response
	Evaluation *api.EvaluationResponse `json:"evaluation,omitempty"`
}

// New records a service evaluation and folds it into the member's
// rotation score.
func New(log *slog.Logger, creator EvaluationCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.evaluations.create.New"

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

		evaluation, err := creator.CreateEvaluation(r.Context(), &req.EvaluationCreateRequest)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("evaluation rejected", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "cannot evaluate before the service"))
			return
		}

		if err != nil {
			log.Error("Failed to create evaluation", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create evaluation"))
			return
		}

		log.Info("Evaluation created", slog.String("id", evaluation.ID))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{
			Evaluation: evaluation,
		})
	}
}
