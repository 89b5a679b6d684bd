package read

import (
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

type NotificationReader interface {
	MarkNotificationRead(ctx context.Context, id, personID string) error
	MarkAllNotificationsRead(ctx context.Context, personID string) error
}

// New marks one of the caller's notifications as read.
func New(log *slog.Logger, reader NotificationReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.notifications.read.New"

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

		err := reader.MarkNotificationRead(r.Context(), id, caller.ID)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to mark notification read", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to mark notification read"))
			return
		}

		log.Info("Notification marked read", slog.String("id", id))

		w.WriteHeader(http.StatusNoContent)
	}
}

// NewAll marks every unread notification of the caller as read.
func NewAll(log *slog.Logger, reader NotificationReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.notifications.read.NewAll"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		caller := identity.FromContext(r.Context())

		if err := reader.MarkAllNotificationsRead(r.Context(), caller.ID); err != nil {
			log.Error("Failed to mark notifications read", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to mark notifications read"))
			return
		}

		log.Info("All notifications marked read")

		w.WriteHeader(http.StatusNoContent)
	}
}
