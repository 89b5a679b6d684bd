package get

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

type NotificationLister interface {
	ListNotifications(ctx context.Context, personID string) ([]*api.NotificationResponse, error)
}

type Response struct {
	response.Response
	Notifications []api.NotificationResponse `json:"notifications"`
}

func New(log *slog.Logger, lister NotificationLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.notifications.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		caller := identity.FromContext(r.Context())

		notifications, err := lister.ListNotifications(r.Context(), caller.ID)
		if err != nil {
			log.Error("Failed to list notifications", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list notifications"))
			return
		}

		log.Info("Notifications retrieved", slog.Int("count", len(notifications)))

		result := make([]api.NotificationResponse, len(notifications))
		for i, notification := range notifications {
			result[i] = *notification
		}
		render.JSON(w, r, Response{
			Notifications: result,
		})
	}
}
