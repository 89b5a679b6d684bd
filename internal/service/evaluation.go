package service

import (
	"context"
	"errors"
	"fmt"

	"escala-service/api"
	"escala-service/internal/models"
	"escala-service/pkg/response"
)

const (
	scoreMin = 0.0
	scoreMax = 100.0
)

// CreateEvaluation records a 1..5 rating for a slot participant and
// applies the bounded score adjustment: (rating - 3) * 2, clamped to
// [0, 100]. Only services that already took place can be evaluated.
func (s *Service) CreateEvaluation(ctx context.Context, req *api.EvaluationCreateRequest) (*api.EvaluationResponse, error) {
	const op = "service.CreateEvaluation"

	slot, err := s.store.GetSlot(ctx, req.SlotID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	today := s.now().UTC().Format(dateLayout)
	if slot.Date > today {
		return nil, fmt.Errorf("%s: cannot evaluate before the service: %w", op, response.ErrBadRequest)
	}

	person, err := s.store.GetPerson(ctx, req.PersonID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: person: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	evaluation := &models.Evaluation{
		SlotID:     req.SlotID,
		ChurchID:   req.ChurchID,
		MemberType: models.MemberType(req.MemberType),
		PersonID:   req.PersonID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	}

	id, err := s.store.CreateEvaluation(ctx, evaluation)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	current := person.PreachingScore
	if evaluation.MemberType == models.MemberSinger {
		current = person.SingingScore
	}

	impact := float64(req.Rating-3) * 2
	newScore := clampScore(current + impact)

	if err := s.store.SetPersonScore(ctx, req.PersonID, evaluation.MemberType, newScore); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &api.EvaluationResponse{
		ID:         id,
		SlotID:     req.SlotID,
		ChurchID:   req.ChurchID,
		MemberType: req.MemberType,
		PersonID:   req.PersonID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	}, nil
}

// ListEvaluationsByPerson lists the ratings a person has received.
func (s *Service) ListEvaluationsByPerson(ctx context.Context, personID string) ([]*api.EvaluationResponse, error) {
	const op = "service.ListEvaluationsByPerson"

	evaluations, err := s.store.ListEvaluationsByPerson(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.EvaluationResponse, 0, len(evaluations))
	for _, e := range evaluations {
		result = append(result, &api.EvaluationResponse{
			ID:         e.ID,
			SlotID:     e.SlotID,
			ChurchID:   e.ChurchID,
			MemberType: string(e.MemberType),
			PersonID:   e.PersonID,
			Rating:     e.Rating,
			Comment:    e.Comment,
		})
	}

	return result, nil
}

func clampScore(score float64) float64 {
	if score < scoreMin {
		return scoreMin
	}
	if score > scoreMax {
		return scoreMax
	}
	return score
}
