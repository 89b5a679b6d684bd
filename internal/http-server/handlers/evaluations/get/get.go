package get

import (
	"escala-service/api"
	"escala-service/pkg/response"
	"escala-service/pkg/sl"
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type EvaluationLister interface {
	ListEvaluationsByPerson(ctx context.Context, personID string) ([]*api.EvaluationResponse, error)
}

type Response struct {
	response.Response
	Evaluations []api.EvaluationResponse `json:"evaluations"`
}

func New(log *slog.Logger, lister EvaluationLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.evaluations.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		personID := r.URL.Query().Get("person_id")
		if personID == "" {
			log.Error("person_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "person_id is required"))
			return
		}

		evaluations, err := lister.ListEvaluationsByPerson(r.Context(), personID)
		if err != nil {
			log.Error("Failed to list evaluations", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list evaluations"))
			return
		}

		log.Info("Evaluations retrieved", slog.Int("count", len(evaluations)))

		result := make([]api.EvaluationResponse, len(evaluations))
		for i, evaluation := range evaluations {
			result[i] = *evaluation
		}
		render.JSON(w, r, Response{
			Evaluations: result,
		})
	}
}
