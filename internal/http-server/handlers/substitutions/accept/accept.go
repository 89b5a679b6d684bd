package accept

import (
	"escala-service/api"
	"escala-service/pkg/middleware/identity"
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

type SubstitutionAccepter interface {
	AcceptSubstitution(ctx context.Context, subID, callerID string) (*api.SubstitutionResponse, error)
}

type Response struct {
	response.Response
	Substitution *api.SubstitutionResponse `json:"substitution,omitempty"`
}

// New accepts a substitution addressed to the caller and swaps them
// into the slot in the requester's place.
func New(log *slog.Logger, accepter SubstitutionAccepter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.substitutions.accept.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		caller := identity.FromContext(r.Context())

		id := chi.URLParam(r, "id")
		if id == "" {
			log.Error("id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "id is required"))
			return
		}

		sub, err := accepter.AcceptSubstitution(r.Context(), id, caller.ID)

		if errors.Is(err, response.ErrLocked) {
			log.Error("slot is locked")
			w.WriteHeader(http.StatusLocked)
			render.JSON(w, r, response.Error(string(response.LOCKED), "slot is locked"))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if errors.Is(err, response.ErrPermissionDenied) {
			log.Error("caller is not the target of this request")
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error(string(response.PERMISSION_DENIED), "only the requested substitute may respond"))
			return
		}

		if errors.Is(err, response.ErrInvalidTransition) {
			log.Error("request already answered")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.INVALID_TRANSITION), "request already answered"))
			return
		}

		if err != nil {
			log.Error("Failed to accept substitution", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to accept substitution"))
			return
		}

		log.Info("Substitution accepted", slog.String("id", sub.ID))
		render.JSON(w, r, Response{
			Substitution: sub,
		})
	}
}
