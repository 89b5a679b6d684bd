package service

import (
	"context"
	"errors"
	"fmt"

	"escala-service/api"
	"escala-service/internal/models"
	"escala-service/pkg/response"
)

// CreateSubstitution opens a swap proposal from a slot incumbent to a
// named target. The target is notified; the slot is untouched until
// acceptance.
func (s *Service) CreateSubstitution(ctx context.Context, req *api.SubstitutionCreateRequest, requesterID string) (*api.SubstitutionResponse, error) {
	const op = "service.CreateSubstitution"

	slot, err := s.store.GetSlot(ctx, req.SlotID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !slot.HasAssignee(requesterID) {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotAssigned)
	}

	if _, err := s.store.GetPerson(ctx, req.TargetID); err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: target: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sub := &models.SubstitutionRequest{
		SlotID:      slot.ID,
		ScheduleID:  slot.ScheduleID,
		RequesterID: requesterID,
		TargetID:    req.TargetID,
		Reason:      req.Reason,
		Status:      models.SubstitutionPending,
	}

	id, err := s.store.CreateSubstitution(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	requester, err := s.store.GetPerson(ctx, requesterID)
	if err == nil {
		s.notifier.Notify(ctx, req.TargetID, "substitution_request", "Substitution Request",
			fmt.Sprintf("%s asked you to take over the assignment on %s. Reason: %s", requester.Name, slot.Date, req.Reason), &id)
	}

	created, err := s.store.GetSubstitution(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return toSubstitutionResponse(created), nil
}

// AcceptSubstitution performs the literal swap on the referenced slot:
// the requester's assignment becomes the target's, the slot status is
// untouched. The requester is NOT re-verified as the incumbent at
// acceptance time; if the assignment changed in between, the swap is
// still applied as recorded. Known staleness gap, kept deliberately.
func (s *Service) AcceptSubstitution(ctx context.Context, subID, callerID string) (*api.SubstitutionResponse, error) {
	const op = "service.AcceptSubstitution"

	sub, err := s.store.GetSubstitution(ctx, subID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if sub.TargetID != callerID {
		return nil, fmt.Errorf("%s: %w", op, response.ErrPermissionDenied)
	}

	if sub.Status != models.SubstitutionPending {
		return nil, fmt.Errorf("%s: %w", op, response.ErrInvalidTransition)
	}

	release, err := s.acquireLocks(ctx, slotLockKey(sub.SlotID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer release()

	if err := s.store.UpdateSubstitutionStatus(ctx, subID, models.SubstitutionAccepted, s.now()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	slot, err := s.store.GetSlot(ctx, sub.SlotID)
	if err == nil {
		changed := false
		if slot.PreacherID != nil && *slot.PreacherID == sub.RequesterID {
			targetID := callerID
			slot.PreacherID = &targetID
			changed = true
		} else if slot.HasAssignee(sub.RequesterID) {
			slot.SingerIDs = append(removeID(slot.SingerIDs, sub.RequesterID), callerID)
			changed = true
		}

		if changed {
			if err := s.store.UpdateSlot(ctx, slot); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		}
	}

	caller, err := s.store.GetPerson(ctx, callerID)
	if err == nil {
		s.notifier.Notify(ctx, sub.RequesterID, "substitution_accepted", "Substitution Accepted",
			fmt.Sprintf("Your substitution request was accepted by %s", caller.Name), &subID)
	}

	accepted, err := s.store.GetSubstitution(ctx, subID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return toSubstitutionResponse(accepted), nil
}

// RejectSubstitution closes the proposal without touching the slot.
func (s *Service) RejectSubstitution(ctx context.Context, subID, callerID string) (*api.SubstitutionResponse, error) {
	const op = "service.RejectSubstitution"

	sub, err := s.store.GetSubstitution(ctx, subID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if sub.TargetID != callerID {
		return nil, fmt.Errorf("%s: %w", op, response.ErrPermissionDenied)
	}

	if sub.Status != models.SubstitutionPending {
		return nil, fmt.Errorf("%s: %w", op, response.ErrInvalidTransition)
	}

	if err := s.store.UpdateSubstitutionStatus(ctx, subID, models.SubstitutionRejected, s.now()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	caller, err := s.store.GetPerson(ctx, callerID)
	if err == nil {
		s.notifier.Notify(ctx, sub.RequesterID, "substitution_rejected", "Substitution Rejected",
			fmt.Sprintf("Your substitution request was rejected by %s", caller.Name), &subID)
	}

	rejected, err := s.store.GetSubstitution(ctx, subID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return toSubstitutionResponse(rejected), nil
}

// ListPendingSubstitutions lists proposals waiting on the caller.
func (s *Service) ListPendingSubstitutions(ctx context.Context, targetID string) ([]*api.SubstitutionResponse, error) {
	const op = "service.ListPendingSubstitutions"

	subs, err := s.store.ListPendingSubstitutions(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.SubstitutionResponse, 0, len(subs))
	for _, sub := range subs {
		result = append(result, toSubstitutionResponse(sub))
	}

	return result, nil
}
