package service

import (
	"context"
	"errors"
	"fmt"

	"escala-service/internal/models"
	"escala-service/pkg/response"
)

// IsAvailable reports whether the person has no declared unavailability
// covering date. Bounds are inclusive; dates are ISO strings so the
// lexicographic comparison agrees with the calendar one.
func (s *Service) IsAvailable(ctx context.Context, personID, date string) (bool, error) {
	const op = "service.IsAvailable"

	person, err := s.store.GetPerson(ctx, personID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return false, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return available(person, date), nil
}

func available(person *models.Person, date string) bool {
	for _, period := range person.UnavailablePeriods {
		if period.StartDate <= date && date <= period.EndDate {
			return false
		}
	}
	return true
}

// IsOccupied reports whether the person already holds an active
// assignment on date, as preacher or singer, on any slot in pending or
// confirmed status belonging to a schedule in confirmed or active
// status. The check is cross-church: the storage query spans all
// schedules, not just one church's.
func (s *Service) IsOccupied(ctx context.Context, personID, date string) (bool, error) {
	const op = "service.IsOccupied"

	slots, err := s.store.ListOccupancySlots(ctx, date)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	for _, slot := range slots {
		if slot.Status != models.SlotPending && slot.Status != models.SlotConfirmed {
			continue
		}
		if slot.HasAssignee(personID) {
			return true, nil
		}
	}

	return false, nil
}
