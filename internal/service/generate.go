package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"escala-service/api"
	"escala-service/internal/models"
	"escala-service/pkg/response"
)

// GenerateAutoSchedules creates one automatic draft schedule per church
// for (month, year). With req.ChurchID set only that church is
// generated and an existing schedule is an error; district-wide,
// churches that already have a schedule or have no service days are
// skipped. One rotation cursor and one in-run assignment set span the
// whole batch, so the same preacher is never given two churches' slots
// on one date even though the fresh schedules are still drafts and
// invisible to the occupancy query.
func (s *Service) GenerateAutoSchedules(ctx context.Context, req *api.GenerateScheduleRequest, callerID string) ([]*api.ScheduleResponse, error) {
	const op = "service.GenerateAutoSchedules"

	release, err := s.acquireLocks(ctx, generateLockKey(req.DistrictID, req.Month, req.Year))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer release()

	if _, err := s.store.GetDistrict(ctx, req.DistrictID); err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: district: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var churches []*models.Church
	if req.ChurchID != nil {
		church, err := s.store.GetChurch(ctx, *req.ChurchID)
		if err != nil {
			if errors.Is(err, response.ErrNotFound) {
				return nil, fmt.Errorf("%s: church: %w", op, response.ErrNotFound)
			}
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		churches = []*models.Church{church}
	} else {
		churches, err = s.store.ListChurches(ctx, req.DistrictID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	preachers, err := s.store.ListPreachers(ctx, req.DistrictID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rot := newRotation(preachers)
	taken := make(map[string]struct{})

	var result []*api.ScheduleResponse

	for _, church := range churches {
		if len(church.ServiceDays) == 0 {
			continue
		}

		exists, err := s.store.ScheduleExists(ctx, church.ID, req.Month, req.Year)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if exists {
			if req.ChurchID != nil {
				return nil, fmt.Errorf("%s: %w", op, response.ErrScheduleExists)
			}
			continue
		}

		slots, err := s.buildMonthSlots(ctx, church, req.Month, req.Year, rot, taken)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		schedule := &models.Schedule{
			Month:       req.Month,
			Year:        req.Year,
			ChurchID:    church.ID,
			DistrictID:  req.DistrictID,
			GeneratedBy: callerID,
			Mode:        models.ModeAutomatic,
			Status:      models.ScheduleDraft,
			Slots:       slots,
		}

		id, err := s.store.CreateSchedule(ctx, schedule)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		created, err := s.store.GetSchedule(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		result = append(result, toScheduleResponse(created))
	}

	return result, nil
}

// CreateManualSchedule expands the church's service days over the month
// into unassigned pending slots. Assignment happens later through slot
// updates.
func (s *Service) CreateManualSchedule(ctx context.Context, req *api.ManualScheduleRequest, callerID string) (*api.ScheduleResponse, error) {
	const op = "service.CreateManualSchedule"

	church, err := s.store.GetChurch(ctx, req.ChurchID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: church: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	exists, err := s.store.ScheduleExists(ctx, church.ID, req.Month, req.Year)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return nil, fmt.Errorf("%s: %w", op, response.ErrScheduleExists)
	}

	slots, err := s.buildMonthSlots(ctx, church, req.Month, req.Year, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	schedule := &models.Schedule{
		Month:       req.Month,
		Year:        req.Year,
		ChurchID:    church.ID,
		DistrictID:  church.DistrictID,
		GeneratedBy: callerID,
		Mode:        models.ModeManual,
		Status:      models.ScheduleDraft,
		Slots:       slots,
	}

	id, err := s.store.CreateSchedule(ctx, schedule)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.store.GetSchedule(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return toScheduleResponse(created), nil
}

// buildMonthSlots walks every day of the month and creates one pending
// slot per matching service-day definition. Duplicate definitions on
// one weekday yield multiple slots on the same date. With rot non-nil
// each slot gets a preacher attempt immediately after creation, so the
// cursor and the taken set observe all earlier slots of the run.
func (s *Service) buildMonthSlots(ctx context.Context, church *models.Church, month, year int, rot *rotation, taken map[string]struct{}) ([]*models.Slot, error) {
	slots := make([]*models.Slot, 0)

	for day := 1; day <= daysInMonth(month, year); day++ {
		date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		weekday := canonicalWeekday(date.Weekday())

		for _, def := range church.ServiceDays {
			defWeekday, ok := parseWeekdayFlexible(def.Weekday)
			if !ok || canonicalWeekday(defWeekday) != weekday {
				continue
			}

			slot := &models.Slot{
				Date:      date.Format(dateLayout),
				Time:      def.Time,
				SingerIDs: []string{},
				Status:    models.SlotPending,
			}

			if rot != nil {
				picked, err := rot.next(func(candidate *models.Person) (bool, error) {
					if _, dup := taken[candidate.ID+"|"+slot.Date]; dup {
						return false, nil
					}
					if !available(candidate, slot.Date) {
						return false, nil
					}
					occupied, err := s.IsOccupied(ctx, candidate.ID, slot.Date)
					if err != nil {
						return false, err
					}
					return !occupied, nil
				})
				if err != nil {
					return nil, err
				}

				if picked != nil {
					preacherID := picked.ID
					slot.PreacherID = &preacherID
					taken[preacherID+"|"+slot.Date] = struct{}{}
				}
			}

			slots = append(slots, slot)
		}
	}

	return slots, nil
}

func generateLockKey(districtID string, month, year int) string {
	return fmt.Sprintf("generate:%s:%04d-%02d", districtID, year, month)
}

func daysInMonth(month, year int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// canonicalWeekday is the stored form: lowercase English weekday name.
func canonicalWeekday(weekday time.Weekday) string {
	return strings.ToLower(weekday.String())
}

// parseWeekdayFlexible accepts the canonical name plus the aliases the
// clients send: abbreviations, numbers (0=Sunday, or 1..7 with Monday
// first) and Portuguese names.
func parseWeekdayFlexible(raw string) (time.Weekday, bool) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return 0, false
	}

	if n, err := strconv.Atoi(raw); err == nil {
		if n >= 0 && n <= 6 {
			return time.Weekday(n), true
		}
		if n == 7 {
			return time.Sunday, true
		}
		return 0, false
	}

	switch raw {
	case "sun", "sunday", "domingo":
		return time.Sunday, true
	case "mon", "monday", "segunda", "segunda-feira":
		return time.Monday, true
	case "tue", "tues", "tuesday", "terca", "terça", "terca-feira", "terça-feira":
		return time.Tuesday, true
	case "wed", "wednesday", "quarta", "quarta-feira":
		return time.Wednesday, true
	case "thu", "thur", "thursday", "quinta", "quinta-feira":
		return time.Thursday, true
	case "fri", "friday", "sexta", "sexta-feira":
		return time.Friday, true
	case "sat", "saturday", "sabado", "sábado":
		return time.Saturday, true
	default:
		return 0, false
	}
}
