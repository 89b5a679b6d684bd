package pending

import (
	"escala-service/api"
	"escala-service/pkg/middleware/identity"
	"escala-service/pkg/response"
	"escala-service/pkg/sl"
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type PendingLister interface {
	ListPendingSubstitutions(ctx context.Context, targetID string) ([]*api.SubstitutionResponse, error)
}

type Response struct {
	response.Response
	Substitutions []api.SubstitutionResponse `json:"substitutions"`
}

// New lists the substitution requests waiting on the caller's answer.
func New(log *slog.Logger, lister PendingLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.substitutions.pending.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		caller := identity.FromContext(r.Context())

		subs, err := lister.ListPendingSubstitutions(r.Context(), caller.ID)
		if err != nil {
			log.Error("Failed to list substitutions", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list substitutions"))
			return
		}

		log.Info("Substitutions retrieved", slog.Int("count", len(subs)))

		result := make([]api.SubstitutionResponse, len(subs))
		for i, sub := range subs {
			result[i] = *sub
		}
		render.JSON(w, r, Response{
			Substitutions: result,
		})
	}
}
