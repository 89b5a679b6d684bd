package roster

import (
	"escala-service/api"
	"escala-service/internal/models"
	"escala-service/pkg/response"
	"escala-service/pkg/sl"
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type RosterLister interface {
	ListRoster(ctx context.Context, districtID string, memberType models.MemberType) ([]*api.PersonResponse, error)
}

type Response struct {
	response.Response
	Users []api.PersonResponse `json:"users"`
}

// New lists a district's preachers or singers. The type query
// parameter selects the pool, defaulting to preacher.
func New(log *slog.Logger, lister RosterLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.users.roster.New"

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

		memberType := models.MemberPreacher
		switch r.URL.Query().Get("type") {
		case "", "preacher":
		case "singer":
			memberType = models.MemberSinger
		default:
			log.Error("unknown member type")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "type must be preacher or singer"))
			return
		}

		users, err := lister.ListRoster(r.Context(), districtID, memberType)
		if err != nil {
			log.Error("Failed to list roster", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list roster"))
			return
		}

		log.Info("Roster retrieved", slog.Int("count", len(users)))

		result := make([]api.PersonResponse, len(users))
		for i, user := range users {
			result[i] = *user
		}
		render.JSON(w, r, Response{
			Users: result,
		})
	}
}
