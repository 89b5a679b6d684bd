package service

import (
	"context"
	"fmt"
	"time"

	"escala-service/api"
	"escala-service/internal/lock"
	"escala-service/internal/models"
	"escala-service/pkg/response"
)

const (
	dateLayout = "2006-01-02"
	lockTTL    = 10 * time.Second
)

type Service struct {
	store    Store
	locker   lock.Locker
	notifier Notifier
	now      func() time.Time
}

func NewService(store Store, locker lock.Locker, notifier Notifier) *Service {
	return &Service{
		store:    store,
		locker:   locker,
		notifier: notifier,
		now:      time.Now,
	}
}

// Notifier delivers a notification to one person. Fire-and-forget: a
// delivery failure never rolls back the state transition that
// triggered it.
type Notifier interface {
	Notify(ctx context.Context, personID, category, title, message string, relatedID *string)
}

type ScheduleFilters struct {
	Month      *int
	Year       *int
	ChurchID   *string
	DistrictID *string
}

type Store interface {
	// Districts
	CreateDistrict(ctx context.Context, district *models.District) (string, error)
	GetDistrict(ctx context.Context, id string) (*models.District, error)

	// Churches
	CreateChurch(ctx context.Context, church *models.Church) (string, error)
	GetChurch(ctx context.Context, id string) (*models.Church, error)
	ListChurches(ctx context.Context, districtID string) ([]*models.Church, error)

	// Persons
	CreatePerson(ctx context.Context, person *models.Person) (string, error)
	GetPerson(ctx context.Context, id string) (*models.Person, error)
	ListPreachers(ctx context.Context, districtID string) ([]*models.Person, error)
	ListSingers(ctx context.Context, districtID string) ([]*models.Person, error)
	SetPersonScore(ctx context.Context, personID string, memberType models.MemberType, score float64) error

	// Schedules
	ScheduleExists(ctx context.Context, churchID string, month, year int) (bool, error)
	CreateSchedule(ctx context.Context, schedule *models.Schedule) (string, error)
	GetSchedule(ctx context.Context, id string) (*models.Schedule, error)
	ListSchedules(ctx context.Context, filters *ScheduleFilters) ([]*models.Schedule, error)
	UpdateScheduleStatus(ctx context.Context, id string, status models.ScheduleStatus) error
	DeleteSchedule(ctx context.Context, id string) error

	// Slots
	GetSlot(ctx context.Context, id string) (*models.Slot, error)
	UpdateSlot(ctx context.Context, slot *models.Slot) error
	// ListOccupancySlots returns every slot dated date whose schedule
	// status is confirmed or active, across all churches. Indexed by
	// (date) at the storage layer.
	ListOccupancySlots(ctx context.Context, date string) ([]*models.Slot, error)

	// Substitutions
	CreateSubstitution(ctx context.Context, sub *models.SubstitutionRequest) (string, error)
	GetSubstitution(ctx context.Context, id string) (*models.SubstitutionRequest, error)
	UpdateSubstitutionStatus(ctx context.Context, id string, status models.SubstitutionStatus, respondedAt time.Time) error
	ListPendingSubstitutions(ctx context.Context, targetID string) ([]*models.SubstitutionRequest, error)

	// Notifications
	CreateNotification(ctx context.Context, notification *models.Notification) (string, error)
	ListNotifications(ctx context.Context, personID string) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, id, personID string) error
	MarkAllNotificationsRead(ctx context.Context, personID string) error

	// Evaluations
	CreateEvaluation(ctx context.Context, evaluation *models.Evaluation) (string, error)
	ListEvaluationsByPerson(ctx context.Context, personID string) ([]*models.Evaluation, error)

	// Delegations
	CreateDelegation(ctx context.Context, delegation *models.Delegation) (string, error)
	ListDelegations(ctx context.Context, districtID string) ([]*models.Delegation, error)
}

func slotLockKey(slotID string) string {
	return fmt.Sprintf("slot:%s", slotID)
}

func assignLockKey(personID, date string) string {
	return fmt.Sprintf("assign:%s:%s", personID, date)
}

// acquireLocks takes every key or none. The returned release function
// is safe to call exactly once.
func (s *Service) acquireLocks(ctx context.Context, keys ...string) (func(), error) {
	acquired := make([]string, 0, len(keys))

	release := func() {
		for _, key := range acquired {
			_ = s.locker.Unlock(ctx, key)
		}
	}

	for _, key := range keys {
		locked, err := s.locker.Lock(ctx, key, lockTTL)
		if err != nil {
			release()
			return nil, fmt.Errorf("lock %s: %w", key, err)
		}
		if !locked {
			release()
			return nil, response.ErrLocked
		}
		acquired = append(acquired, key)
	}

	return release, nil
}

// daysUntil counts whole calendar days from now's date to date.
func daysUntil(now time.Time, date string) (int, error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", date, err)
	}

	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	return int(day.Sub(today).Hours() / 24), nil
}

// dto mapping

func toSlotResponse(slot *models.Slot) api.SlotResponse {
	singers := slot.SingerIDs
	if singers == nil {
		singers = []string{}
	}

	return api.SlotResponse{
		ID:            slot.ID,
		ScheduleID:    slot.ScheduleID,
		Date:          slot.Date,
		Time:          slot.Time,
		PreacherID:    slot.PreacherID,
		Singers:       singers,
		Status:        string(slot.Status),
		RefusalReason: slot.RefusalReason,
		ConfirmedAt:   slot.ConfirmedAt,
		CancelledAt:   slot.CancelledAt,
	}
}

func toScheduleResponse(schedule *models.Schedule) *api.ScheduleResponse {
	slots := make([]api.SlotResponse, 0, len(schedule.Slots))
	for _, slot := range schedule.Slots {
		slots = append(slots, toSlotResponse(slot))
	}

	return &api.ScheduleResponse{
		ID:          schedule.ID,
		Month:       schedule.Month,
		Year:        schedule.Year,
		ChurchID:    schedule.ChurchID,
		DistrictID:  schedule.DistrictID,
		GeneratedBy: schedule.GeneratedBy,
		Mode:        string(schedule.Mode),
		Status:      string(schedule.Status),
		Slots:       slots,
	}
}

func toPersonResponse(person *models.Person) *api.PersonResponse {
	periods := make([]api.UnavailablePeriod, 0, len(person.UnavailablePeriods))
	for _, p := range person.UnavailablePeriods {
		periods = append(periods, api.UnavailablePeriod{StartDate: p.StartDate, EndDate: p.EndDate})
	}

	return &api.PersonResponse{
		ID:                 person.ID,
		Name:               person.Name,
		Email:              person.Email,
		Phone:              person.Phone,
		Role:               string(person.Role),
		DistrictID:         person.DistrictID,
		ChurchID:           person.ChurchID,
		IsPreacher:         person.IsPreacher,
		IsSinger:           person.IsSinger,
		PreachingScore:     person.PreachingScore,
		SingingScore:       person.SingingScore,
		UnavailablePeriods: periods,
		IsActive:           person.IsActive,
	}
}

func toChurchResponse(church *models.Church) *api.ChurchResponse {
	days := make([]api.ServiceDay, 0, len(church.ServiceDays))
	for _, d := range church.ServiceDays {
		days = append(days, api.ServiceDay{Weekday: d.Weekday, Time: d.Time})
	}

	return &api.ChurchResponse{
		ID:          church.ID,
		Name:        church.Name,
		DistrictID:  church.DistrictID,
		Address:     church.Address,
		LeaderID:    church.LeaderID,
		ServiceDays: days,
		IsActive:    church.IsActive,
	}
}

func toDistrictResponse(district *models.District) *api.DistrictResponse {
	return &api.DistrictResponse{
		ID:       district.ID,
		Name:     district.Name,
		PastorID: district.PastorID,
		IsActive: district.IsActive,
	}
}

func toDelegationResponse(delegation *models.Delegation) *api.DelegationResponse {
	permissions := delegation.Permissions
	if permissions == nil {
		permissions = []string{}
	}

	return &api.DelegationResponse{
		ID:          delegation.ID,
		DistrictID:  delegation.DistrictID,
		PersonID:    delegation.PersonID,
		DelegatedBy: delegation.DelegatedBy,
		Permissions: permissions,
		IsActive:    delegation.IsActive,
		CreatedAt:   delegation.CreatedAt,
	}
}

func toSubstitutionResponse(sub *models.SubstitutionRequest) *api.SubstitutionResponse {
	return &api.SubstitutionResponse{
		ID:          sub.ID,
		SlotID:      sub.SlotID,
		ScheduleID:  sub.ScheduleID,
		RequesterID: sub.RequesterID,
		TargetID:    sub.TargetID,
		Reason:      sub.Reason,
		Status:      string(sub.Status),
		RespondedAt: sub.RespondedAt,
	}
}
