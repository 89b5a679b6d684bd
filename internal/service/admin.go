package service

import (
	"context"
	"errors"
	"fmt"

	"escala-service/api"
	"escala-service/internal/models"
	"escala-service/pkg/response"
)

const defaultScore = 50.0

// Districts

func (s *Service) CreateDistrict(ctx context.Context, req *api.DistrictRequest) (*api.DistrictResponse, error) {
	const op = "service.CreateDistrict"

	district := &models.District{
		Name:     req.Name,
		PastorID: req.PastorID,
		IsActive: true,
	}

	id, err := s.store.CreateDistrict(ctx, district)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetDistrict(ctx, id)
}

func (s *Service) GetDistrict(ctx context.Context, id string) (*api.DistrictResponse, error) {
	const op = "service.GetDistrict"

	district, err := s.store.GetDistrict(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return toDistrictResponse(district), nil
}

// Churches

func (s *Service) CreateChurch(ctx context.Context, req *api.ChurchRequest) (*api.ChurchResponse, error) {
	const op = "service.CreateChurch"

	if _, err := s.store.GetDistrict(ctx, req.DistrictID); err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: district: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	days := make([]models.ServiceDay, 0, len(req.ServiceDays))
	for _, d := range req.ServiceDays {
		weekday, ok := parseWeekdayFlexible(d.Weekday)
		if !ok {
			return nil, fmt.Errorf("%s: unknown weekday %q: %w", op, d.Weekday, response.ErrBadRequest)
		}
		days = append(days, models.ServiceDay{
			Weekday: canonicalWeekday(weekday),
			Time:    d.Time,
		})
	}

	church := &models.Church{
		Name:        req.Name,
		DistrictID:  req.DistrictID,
		Address:     req.Address,
		LeaderID:    req.LeaderID,
		ServiceDays: days,
		IsActive:    true,
	}

	id, err := s.store.CreateChurch(ctx, church)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetChurchInfo(ctx, id)
}

func (s *Service) GetChurchInfo(ctx context.Context, id string) (*api.ChurchResponse, error) {
	const op = "service.GetChurchInfo"

	church, err := s.store.GetChurch(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return toChurchResponse(church), nil
}

// Persons

func (s *Service) CreatePerson(ctx context.Context, req *api.PersonRequest) (*api.PersonResponse, error) {
	const op = "service.CreatePerson"

	periods := make([]models.UnavailablePeriod, 0, len(req.UnavailablePeriods))
	for _, p := range req.UnavailablePeriods {
		periods = append(periods, models.UnavailablePeriod{StartDate: p.StartDate, EndDate: p.EndDate})
	}

	person := &models.Person{
		Name:               req.Name,
		Email:              req.Email,
		Phone:              req.Phone,
		Role:               models.Role(req.Role),
		DistrictID:         req.DistrictID,
		ChurchID:           req.ChurchID,
		IsPreacher:         req.IsPreacher,
		IsSinger:           req.IsSinger,
		PreachingScore:     defaultScore,
		SingingScore:       defaultScore,
		UnavailablePeriods: periods,
		IsActive:           true,
	}

	id, err := s.store.CreatePerson(ctx, person)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetPersonInfo(ctx, id)
}

func (s *Service) GetPersonInfo(ctx context.Context, id string) (*api.PersonResponse, error) {
	const op = "service.GetPersonInfo"

	person, err := s.store.GetPerson(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return toPersonResponse(person), nil
}

// ListRoster lists a district's preachers or singers, the pools that
// feed automatic generation and singer assignment.
func (s *Service) ListRoster(ctx context.Context, districtID string, memberType models.MemberType) ([]*api.PersonResponse, error) {
	const op = "service.ListRoster"

	var (
		persons []*models.Person
		err     error
	)

	switch memberType {
	case models.MemberSinger:
		persons, err = s.store.ListSingers(ctx, districtID)
	default:
		persons, err = s.store.ListPreachers(ctx, districtID)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.PersonResponse, 0, len(persons))
	for _, person := range persons {
		result = append(result, toPersonResponse(person))
	}

	return result, nil
}

// Schedules (read/delete)

func (s *Service) GetSchedule(ctx context.Context, id string) (*api.ScheduleResponse, error) {
	const op = "service.GetSchedule"

	schedule, err := s.store.GetSchedule(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return toScheduleResponse(schedule), nil
}

func (s *Service) ListSchedules(ctx context.Context, filters *ScheduleFilters) ([]*api.ScheduleResponse, error) {
	const op = "service.ListSchedules"

	schedules, err := s.store.ListSchedules(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.ScheduleResponse, 0, len(schedules))
	for _, schedule := range schedules {
		result = append(result, toScheduleResponse(schedule))
	}

	return result, nil
}

func (s *Service) DeleteSchedule(ctx context.Context, id string) error {
	const op = "service.DeleteSchedule"

	err := s.store.DeleteSchedule(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Delegations. Stored and listed; permission evaluation stays at the
// role boundary.

func (s *Service) CreateDelegation(ctx context.Context, req *api.DelegationCreateRequest, callerID string) (*api.DelegationResponse, error) {
	const op = "service.CreateDelegation"

	if _, err := s.store.GetDistrict(ctx, req.DistrictID); err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: district: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.store.GetPerson(ctx, req.PersonID); err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: person: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	delegation := &models.Delegation{
		DistrictID:  req.DistrictID,
		PersonID:    req.PersonID,
		DelegatedBy: callerID,
		Permissions: req.Permissions,
		IsActive:    true,
	}

	id, err := s.store.CreateDelegation(ctx, delegation)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	delegation.ID = id
	delegation.CreatedAt = s.now()

	return toDelegationResponse(delegation), nil
}

func (s *Service) ListDelegations(ctx context.Context, districtID string) ([]*api.DelegationResponse, error) {
	const op = "service.ListDelegations"

	delegations, err := s.store.ListDelegations(ctx, districtID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.DelegationResponse, 0, len(delegations))
	for _, delegation := range delegations {
		result = append(result, toDelegationResponse(delegation))
	}

	return result, nil
}

// Notifications

func (s *Service) ListNotifications(ctx context.Context, personID string) ([]*api.NotificationResponse, error) {
	const op = "service.ListNotifications"

	notifications, err := s.store.ListNotifications(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		result = append(result, &api.NotificationResponse{
			ID:        n.ID,
			Category:  n.Category,
			Title:     n.Title,
			Message:   n.Message,
			RelatedID: n.RelatedID,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}

	return result, nil
}

func (s *Service) MarkNotificationRead(ctx context.Context, id, personID string) error {
	const op = "service.MarkNotificationRead"

	if err := s.store.MarkNotificationRead(ctx, id, personID); err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Service) MarkAllNotificationsRead(ctx context.Context, personID string) error {
	const op = "service.MarkAllNotificationsRead"

	if err := s.store.MarkAllNotificationsRead(ctx, personID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
