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

type DelegationLister interface {
	ListDelegations(ctx context.Context, districtID string) ([]*api.DelegationResponse, error)
}

type Response struct {
	response.Response
	Delegations []api.DelegationResponse `json:"delegations"`
}

func New(log *slog.Logger, lister DelegationLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.delegations.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		districtID := r.URL.Query().Get("district_id")
		if districtID == "" {
			log.Error("district_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "district_id is required"))
			return
		}

		delegations, err := lister.ListDelegations(r.Context(), districtID)
		if err != nil {
			log.Error("Failed to list delegations", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list delegations"))
			return
		}

		log.Info("Delegations retrieved", slog.Int("count", len(delegations)))

		result := make([]api.DelegationResponse, len(delegations))
		for i, delegation := range delegations {
			result[i] = *delegation
		}
		render.JSON(w, r, Response{
			Delegations: result,
		})
	}
}
