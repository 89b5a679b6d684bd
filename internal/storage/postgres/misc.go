package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"escala-service/internal/models"
	"escala-service/pkg/response"

	"github.com/google/uuid"
)

// #### substitutions ####

func (s *Storage) CreateSubstitution(ctx context.Context, sub *models.SubstitutionRequest) (string, error) {
	const op = "storage.postgres.CreateSubstitution"

	id := uuid.NewString()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO substitution_requests
		(id, slot_id, schedule_id, requester_id, target_id, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id,
		sub.SlotID,
		sub.ScheduleID,
		sub.RequesterID,
		sub.TargetID,
		sub.Reason,
		string(sub.Status),
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, mapPqError(err))
	}

	return id, nil
}

func (s *Storage) GetSubstitution(ctx context.Context, id string) (*models.SubstitutionRequest, error) {
	const op = "storage.postgres.GetSubstitution"

	var sub models.SubstitutionRequest

	err := s.db.QueryRowContext(ctx,
		`SELECT id, slot_id, schedule_id, requester_id, target_id, reason, status, created_at, responded_at
		FROM substitution_requests WHERE id=$1`, id).
		Scan(
			&sub.ID,
			&sub.SlotID,
			&sub.ScheduleID,
			&sub.RequesterID,
			&sub.TargetID,
			&sub.Reason,
			&sub.Status,
			&sub.CreatedAt,
			&sub.RespondedAt,
		)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &sub, nil
}

func (s *Storage) UpdateSubstitutionStatus(ctx context.Context, id string, status models.SubstitutionStatus, respondedAt time.Time) error {
	const op = "storage.postgres.UpdateSubstitutionStatus"

	res, err := s.db.ExecContext(ctx,
		`UPDATE substitution_requests SET status=$1, responded_at=$2 WHERE id=$3`,
		string(status), respondedAt, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

func (s *Storage) ListPendingSubstitutions(ctx context.Context, targetID string) ([]*models.SubstitutionRequest, error) {
	const op = "storage.postgres.ListPendingSubstitutions"

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, slot_id, schedule_id, requester_id, target_id, reason, status, created_at, responded_at
		FROM substitution_requests
		WHERE target_id=$1 AND status='pending'
		ORDER BY created_at`, targetID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var subs []*models.SubstitutionRequest

	for rows.Next() {
		var sub models.SubstitutionRequest

		err := rows.Scan(
			&sub.ID,
			&sub.SlotID,
			&sub.ScheduleID,
			&sub.RequesterID,
			&sub.TargetID,
			&sub.Reason,
			&sub.Status,
			&sub.CreatedAt,
			&sub.RespondedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		subs = append(subs, &sub)
	}

	return subs, nil
}

// #### notifications ####

func (s *Storage) CreateNotification(ctx context.Context, notification *models.Notification) (string, error) {
	const op = "storage.postgres.CreateNotification"

	id := uuid.NewString()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (id, person_id, category, title, message, related_id, is_read)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)`,
		id,
		notification.PersonID,
		notification.Category,
		notification.Title,
		notification.Message,
		notification.RelatedID,
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, mapPqError(err))
	}

	return id, nil
}

func (s *Storage) ListNotifications(ctx context.Context, personID string) ([]*models.Notification, error) {
	const op = "storage.postgres.ListNotifications"

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, person_id, category, title, message, related_id, is_read, created_at
		FROM notifications WHERE person_id=$1
		ORDER BY created_at DESC
		LIMIT 100`, personID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var notifications []*models.Notification

	for rows.Next() {
		var n models.Notification

		err := rows.Scan(
			&n.ID,
			&n.PersonID,
			&n.Category,
			&n.Title,
			&n.Message,
			&n.RelatedID,
			&n.Read,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		notifications = append(notifications, &n)
	}

	return notifications, nil
}

func (s *Storage) MarkNotificationRead(ctx context.Context, id, personID string) error {
	const op = "storage.postgres.MarkNotificationRead"

	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read=TRUE WHERE id=$1 AND person_id=$2`,
		id, personID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

func (s *Storage) MarkAllNotificationsRead(ctx context.Context, personID string) error {
	const op = "storage.postgres.MarkAllNotificationsRead"

	_, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read=TRUE WHERE person_id=$1 AND is_read=FALSE`,
		personID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// #### delegations ####

func (s *Storage) CreateDelegation(ctx context.Context, delegation *models.Delegation) (string, error) {
	const op = "storage.postgres.CreateDelegation"

	id := uuid.NewString()

	permissions, err := json.Marshal(delegation.Permissions)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO delegations (id, district_id, person_id, delegated_by, permissions, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)`,
		id,
		delegation.DistrictID,
		delegation.PersonID,
		delegation.DelegatedBy,
		permissions,
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, mapPqError(err))
	}

	return id, nil
}

func (s *Storage) ListDelegations(ctx context.Context, districtID string) ([]*models.Delegation, error) {
	const op = "storage.postgres.ListDelegations"

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, district_id, person_id, delegated_by, permissions, is_active, created_at
		FROM delegations WHERE district_id=$1 AND is_active=TRUE
		ORDER BY created_at`, districtID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var delegations []*models.Delegation

	for rows.Next() {
		var (
			d           models.Delegation
			permissions []byte
		)

		err := rows.Scan(
			&d.ID,
			&d.DistrictID,
			&d.PersonID,
			&d.DelegatedBy,
			&permissions,
			&d.IsActive,
			&d.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if err := json.Unmarshal(permissions, &d.Permissions); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		delegations = append(delegations, &d)
	}

	return delegations, nil
}

// #### evaluations ####

func (s *Storage) CreateEvaluation(ctx context.Context, evaluation *models.Evaluation) (string, error) {
	const op = "storage.postgres.CreateEvaluation"

	id := uuid.NewString()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO evaluations (id, slot_id, church_id, member_type, person_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id,
		evaluation.SlotID,
		evaluation.ChurchID,
		string(evaluation.MemberType),
		evaluation.PersonID,
		evaluation.Rating,
		evaluation.Comment,
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, mapPqError(err))
	}

	return id, nil
}

func (s *Storage) ListEvaluationsByPerson(ctx context.Context, personID string) ([]*models.Evaluation, error) {
	const op = "storage.postgres.ListEvaluationsByPerson"

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, slot_id, church_id, member_type, person_id, rating, comment, created_at
		FROM evaluations WHERE person_id=$1
		ORDER BY created_at DESC`, personID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var evaluations []*models.Evaluation

	for rows.Next() {
		var e models.Evaluation

		err := rows.Scan(
			&e.ID,
			&e.SlotID,
			&e.ChurchID,
			&e.MemberType,
			&e.PersonID,
			&e.Rating,
			&e.Comment,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		evaluations = append(evaluations, &e)
	}

	return evaluations, nil
}
