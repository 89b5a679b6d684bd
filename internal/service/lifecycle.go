package service

import (
	"context"
	"errors"
	"fmt"

	"escala-service/api"
	"escala-service/internal/models"
	"escala-service/pkg/response"
)

// UpdateSlotAssignments applies a privileged field-level patch to a
// pending slot. Every assignee the patch introduces is occupancy
// checked before anything is written: one conflict fails the whole
// update with the conflicting person named.
func (s *Service) UpdateSlotAssignments(ctx context.Context, slotID string, req *api.SlotUpdateRequest) (*api.SlotResponse, error) {
	const op = "service.UpdateSlotAssignments"

	release, err := s.acquireLocks(ctx, slotLockKey(slotID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer release()

	slot, err := s.store.GetSlot(ctx, slotID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if slot.Status != models.SlotPending {
		return nil, fmt.Errorf("%s: %w", op, response.ErrInvalidTransition)
	}

	newAssignees := make([]string, 0)
	if req.PreacherID != nil && (slot.PreacherID == nil || *slot.PreacherID != *req.PreacherID) {
		newAssignees = append(newAssignees, *req.PreacherID)
	}
	if req.Singers != nil {
		for _, singerID := range *req.Singers {
			if !slot.HasAssignee(singerID) {
				newAssignees = append(newAssignees, singerID)
			}
		}
	}

	assignKeys := make([]string, 0, len(newAssignees))
	for _, personID := range newAssignees {
		assignKeys = append(assignKeys, assignLockKey(personID, slot.Date))
	}
	releaseAssign, err := s.acquireLocks(ctx, assignKeys...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer releaseAssign()

	for _, personID := range newAssignees {
		occupied, err := s.IsOccupied(ctx, personID, slot.Date)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if occupied {
			return nil, fmt.Errorf("%s: %w", op, &response.ConflictError{PersonID: personID, Date: slot.Date})
		}
	}

	if req.PreacherID != nil {
		preacherID := *req.PreacherID
		slot.PreacherID = &preacherID
	}
	if req.Singers != nil {
		slot.SingerIDs = *req.Singers
	}

	if err := s.store.UpdateSlot(ctx, slot); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp := toSlotResponse(slot)
	return &resp, nil
}

// ConfirmSchedule moves a draft schedule to confirmed. Every slot must
// have a preacher; the first unassigned date fails the call. On success
// every assigned preacher and singer is notified.
func (s *Service) ConfirmSchedule(ctx context.Context, scheduleID string) (*api.ScheduleResponse, error) {
	const op = "service.ConfirmSchedule"

	schedule, err := s.store.GetSchedule(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if schedule.Status != models.ScheduleDraft {
		return nil, fmt.Errorf("%s: %w", op, response.ErrInvalidTransition)
	}

	for _, slot := range schedule.Slots {
		if slot.PreacherID == nil {
			return nil, fmt.Errorf("%s: %w", op, &response.IncompleteScheduleError{Date: slot.Date})
		}
	}

	if err := s.store.UpdateScheduleStatus(ctx, scheduleID, models.ScheduleConfirmed); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	church, err := s.store.GetChurch(ctx, schedule.ChurchID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, slot := range schedule.Slots {
		slotID := slot.ID
		if slot.PreacherID != nil {
			s.notifier.Notify(ctx, *slot.PreacherID, "schedule_assignment", "New Preaching Assignment",
				fmt.Sprintf("You are scheduled to preach at %s on %s at %s", church.Name, slot.Date, slot.Time), &slotID)
		}
		for _, singerID := range slot.SingerIDs {
			s.notifier.Notify(ctx, singerID, "schedule_assignment", "New Singing Assignment",
				fmt.Sprintf("You are scheduled to sing at %s on %s at %s", church.Name, slot.Date, slot.Time), &slotID)
		}
	}

	confirmed, err := s.store.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return toScheduleResponse(confirmed), nil
}

// ConfirmParticipation transitions a pending slot to confirmed on
// behalf of one of its assignees.
func (s *Service) ConfirmParticipation(ctx context.Context, slotID, callerID string) (*api.SlotResponse, error) {
	const op = "service.ConfirmParticipation"

	release, err := s.acquireLocks(ctx, slotLockKey(slotID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer release()

	slot, err := s.store.GetSlot(ctx, slotID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if slot.Status != models.SlotPending {
		return nil, fmt.Errorf("%s: %w", op, response.ErrInvalidTransition)
	}

	if !slot.HasAssignee(callerID) {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotAssigned)
	}

	now := s.now()
	slot.Status = models.SlotConfirmed
	slot.ConfirmedAt = &now

	if err := s.store.UpdateSlot(ctx, slot); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp := toSlotResponse(slot)
	return &resp, nil
}

// RefuseParticipation clears the caller's assignment from a pending
// slot, moves it to refused and notifies the district pastor and the
// church leader.
func (s *Service) RefuseParticipation(ctx context.Context, slotID, callerID, reason string) (*api.SlotResponse, error) {
	const op = "service.RefuseParticipation"

	release, err := s.acquireLocks(ctx, slotLockKey(slotID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer release()

	slot, err := s.store.GetSlot(ctx, slotID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if slot.Status != models.SlotPending {
		return nil, fmt.Errorf("%s: %w", op, response.ErrInvalidTransition)
	}

	var memberType models.MemberType
	switch {
	case slot.PreacherID != nil && *slot.PreacherID == callerID:
		slot.PreacherID = nil
		memberType = models.MemberPreacher
	case slot.HasAssignee(callerID):
		slot.SingerIDs = removeID(slot.SingerIDs, callerID)
		memberType = models.MemberSinger
	default:
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotAssigned)
	}

	slot.Status = models.SlotRefused
	slot.RefusalReason = &reason

	if err := s.store.UpdateSlot(ctx, slot); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.notifyRefusal(ctx, slot, callerID, memberType, reason)

	resp := toSlotResponse(slot)
	return &resp, nil
}

func (s *Service) notifyRefusal(ctx context.Context, slot *models.Slot, callerID string, memberType models.MemberType, reason string) {
	caller, err := s.store.GetPerson(ctx, callerID)
	if err != nil {
		return
	}
	schedule, err := s.store.GetSchedule(ctx, slot.ScheduleID)
	if err != nil {
		return
	}
	church, err := s.store.GetChurch(ctx, schedule.ChurchID)
	if err != nil {
		return
	}
	district, err := s.store.GetDistrict(ctx, schedule.DistrictID)
	if err != nil {
		return
	}

	slotID := slot.ID
	message := fmt.Sprintf("%s (%s) refused the assignment at %s on %s at %s. Reason: %s",
		caller.Name, memberType, church.Name, slot.Date, slot.Time, reason)

	if district.PastorID != nil {
		s.notifier.Notify(ctx, *district.PastorID, "schedule_refusal", "Assignment Refused", message, &slotID)
	}
	if church.LeaderID != nil {
		s.notifier.Notify(ctx, *church.LeaderID, "schedule_refusal", "Assignment Refused", message, &slotID)
	}
}

// CancelParticipation withdraws from a confirmed slot. Allowed only
// while the slot's date is at least two whole calendar days away; the
// slot dated today+2 is the earliest instant that still passes.
func (s *Service) CancelParticipation(ctx context.Context, slotID, callerID, reason string) (*api.SlotResponse, error) {
	const op = "service.CancelParticipation"

	release, err := s.acquireLocks(ctx, slotLockKey(slotID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer release()

	slot, err := s.store.GetSlot(ctx, slotID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if slot.Status != models.SlotConfirmed {
		return nil, fmt.Errorf("%s: %w", op, response.ErrInvalidTransition)
	}

	if !slot.HasAssignee(callerID) {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotAssigned)
	}

	days, err := daysUntil(s.now(), slot.Date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if days < 2 {
		return nil, fmt.Errorf("%s: %w", op, response.ErrTooLate)
	}

	if slot.PreacherID != nil && *slot.PreacherID == callerID {
		slot.PreacherID = nil
	} else {
		slot.SingerIDs = removeID(slot.SingerIDs, callerID)
	}

	now := s.now()
	slot.Status = models.SlotCancelled
	slot.CancelledAt = &now
	slot.RefusalReason = &reason

	if err := s.store.UpdateSlot(ctx, slot); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp := toSlotResponse(slot)
	return &resp, nil
}

// VolunteerForSlot assigns the caller as preacher of an open slot and
// confirms it in one step. The caller must hold preacher capability and
// pass both the availability and the occupancy check.
func (s *Service) VolunteerForSlot(ctx context.Context, slotID, callerID string) (*api.SlotResponse, error) {
	const op = "service.VolunteerForSlot"

	release, err := s.acquireLocks(ctx, slotLockKey(slotID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer release()

	slot, err := s.store.GetSlot(ctx, slotID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if slot.Status.Terminal() {
		return nil, fmt.Errorf("%s: %w", op, response.ErrInvalidTransition)
	}

	if slot.PreacherID != nil {
		return nil, fmt.Errorf("%s: slot already has a preacher: %w", op, response.ErrConflict)
	}

	releaseAssign, err := s.acquireLocks(ctx, assignLockKey(callerID, slot.Date))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer releaseAssign()

	caller, err := s.store.GetPerson(ctx, callerID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !caller.IsPreacher {
		return nil, fmt.Errorf("%s: preacher capability required: %w", op, response.ErrPermissionDenied)
	}

	if !available(caller, slot.Date) {
		return nil, fmt.Errorf("%s: %w", op, &response.ConflictError{PersonID: callerID, Date: slot.Date})
	}

	occupied, err := s.IsOccupied(ctx, callerID, slot.Date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if occupied {
		return nil, fmt.Errorf("%s: %w", op, &response.ConflictError{PersonID: callerID, Date: slot.Date})
	}

	now := s.now()
	slot.PreacherID = &callerID
	slot.Status = models.SlotConfirmed
	slot.ConfirmedAt = &now

	if err := s.store.UpdateSlot(ctx, slot); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp := toSlotResponse(slot)
	return &resp, nil
}

// GetSlotInfo exposes a slot, including its assignment membership, so
// the boundary can authorize assignee-only operations.
func (s *Service) GetSlotInfo(ctx context.Context, slotID string) (*api.SlotResponse, error) {
	const op = "service.GetSlotInfo"

	slot, err := s.store.GetSlot(ctx, slotID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp := toSlotResponse(slot)
	return &resp, nil
}

func removeID(ids []string, id string) []string {
	result := make([]string, 0, len(ids))
	for _, existing := range ids {
		if existing != id {
			result = append(result, existing)
		}
	}
	return result
}
