package identity

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"escala-service/internal/models"
	"escala-service/pkg/response"
	"escala-service/pkg/sl"

	"github.com/go-chi/render"
)

type ctxKey struct{}

// PersonProvider resolves a caller id to a person record.
type PersonProvider interface {
	GetPerson(ctx context.Context, id string) (*models.Person, error)
}

// New resolves the X-User-ID header into a person and stores it in the
// request context. Token verification happens upstream; this service
// only needs the identity and the role.
func New(log *slog.Logger, provider PersonProvider) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		log = log.With(
			slog.String("component", "middleware/identity"),
		)

		fn := func(w http.ResponseWriter, r *http.Request) {
			callerID := r.Header.Get("X-User-ID")
			if callerID == "" {
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error(string(response.UNAUTHORIZED), "caller identity is required"))
				return
			}

			caller, err := provider.GetPerson(r.Context(), callerID)
			if errors.Is(err, response.ErrNotFound) {
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error(string(response.UNAUTHORIZED), "unknown caller"))
				return
			}
			if err != nil {
				log.Error("Failed to resolve caller", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to resolve caller"))
				return
			}

			if !caller.IsActive {
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.Error(string(response.PERMISSION_DENIED), "caller is inactive"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		}

		return http.HandlerFunc(fn)
	}
}

// FromContext returns the caller stored by New, or nil.
func FromContext(ctx context.Context) *models.Person {
	caller, _ := ctx.Value(ctxKey{}).(*models.Person)
	return caller
}

// HasAnyRole reports whether the caller holds one of the given roles.
func HasAnyRole(caller *models.Person, roles ...models.Role) bool {
	if caller == nil {
		return false
	}
	for _, role := range roles {
		if caller.Role == role {
			return true
		}
	}
	return false
}
