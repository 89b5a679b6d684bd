package notify

import (
	"context"
	"fmt"
	"log/slog"

	"escala-service/internal/models"
	"escala-service/pkg/sl"
)

// Store is the slice of persistence the sender needs.
type Store interface {
	GetPerson(ctx context.Context, id string) (*models.Person, error)
	CreateNotification(ctx context.Context, notification *models.Notification) (string, error)
}

// Sender persists in-app notifications and mocks the SMS channel.
// Delivery is fire-and-forget: failures are logged and never surfaced
// to the operation that triggered them.
type Sender struct {
	store Store
	log   *slog.Logger
}

func NewSender(store Store, log *slog.Logger) *Sender {
	return &Sender{store: store, log: log}
}

func (s *Sender) Notify(ctx context.Context, personID, category, title, message string, relatedID *string) {
	const op = "notify.Sender.Notify"

	notification := &models.Notification{
		PersonID:  personID,
		Category:  category,
		Title:     title,
		Message:   message,
		RelatedID: relatedID,
	}

	if _, err := s.store.CreateNotification(ctx, notification); err != nil {
		s.log.Error("Failed to store notification",
			slog.String("op", op),
			slog.String("person_id", personID),
			sl.Err(err),
		)
		return
	}

	person, err := s.store.GetPerson(ctx, personID)
	if err != nil {
		s.log.Error("Failed to load notification recipient",
			slog.String("op", op),
			slog.String("person_id", personID),
			sl.Err(err),
		)
		return
	}

	if person.Phone != nil && *person.Phone != "" {
		// TODO: integrate a real SMS/WhatsApp provider
		s.log.Info(fmt.Sprintf("[MOCK SMS to %s]: %s", *person.Phone, message))
	}
}
