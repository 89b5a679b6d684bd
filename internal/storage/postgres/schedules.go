package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"escala-service/internal/models"
	"escala-service/internal/service"
	"escala-service/pkg/response"

	"github.com/google/uuid"
)

// #### schedules ####

func (s *Storage) ScheduleExists(ctx context.Context, churchID string, month, year int) (bool, error) {
	const op = "storage.postgres.ScheduleExists"

	var exists bool

	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM schedules WHERE church_id=$1 AND month=$2 AND year=$3)`,
		churchID, month, year).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return exists, nil
}

// CreateSchedule inserts the schedule and all its slots in one
// transaction; the (church_id, month, year) unique constraint backs
// the duplicate-schedule invariant at the storage level too.
func (s *Storage) CreateSchedule(ctx context.Context, schedule *models.Schedule) (string, error) {
	const op = "storage.postgres.CreateSchedule"

	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO schedules (id, month, year, church_id, district_id, generated_by, mode, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id,
		schedule.Month,
		schedule.Year,
		schedule.ChurchID,
		schedule.DistrictID,
		schedule.GeneratedBy,
		string(schedule.Mode),
		string(schedule.Status),
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, mapPqError(err))
	}

	for _, slot := range schedule.Slots {
		slotID := uuid.NewString()

		singers, err := json.Marshal(slot.SingerIDs)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO slots (id, schedule_id, date, time, preacher_id, singer_ids, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			slotID,
			id,
			slot.Date,
			slot.Time,
			slot.PreacherID,
			singers,
			string(slot.Status),
		)
		if err != nil {
			return "", fmt.Errorf("%s: create slot: %w", op, mapPqError(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("%s: commit: %w", op, err)
	}

	return id, nil
}

func (s *Storage) GetSchedule(ctx context.Context, id string) (*models.Schedule, error) {
	const op = "storage.postgres.GetSchedule"

	var schedule models.Schedule

	err := s.db.QueryRowContext(ctx,
		`SELECT id, month, year, church_id, district_id, generated_by, mode, status, created_at, updated_at
		FROM schedules WHERE id=$1`, id).
		Scan(
			&schedule.ID,
			&schedule.Month,
			&schedule.Year,
			&schedule.ChurchID,
			&schedule.DistrictID,
			&schedule.GeneratedBy,
			&schedule.Mode,
			&schedule.Status,
			&schedule.CreatedAt,
			&schedule.UpdatedAt,
		)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	slots, err := s.listScheduleSlots(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	schedule.Slots = slots

	return &schedule, nil
}

const slotColumns = `id, schedule_id, date, time, preacher_id, singer_ids, status,
	refusal_reason, confirmed_at, cancelled_at, created_at, updated_at`

func scanSlotRow(scan func(dest ...any) error) (*models.Slot, error) {
	var slot models.Slot
	var singers []byte

	err := scan(
		&slot.ID,
		&slot.ScheduleID,
		&slot.Date,
		&slot.Time,
		&slot.PreacherID,
		&singers,
		&slot.Status,
		&slot.RefusalReason,
		&slot.ConfirmedAt,
		&slot.CancelledAt,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(singers, &slot.SingerIDs); err != nil {
		return nil, err
	}

	return &slot, nil
}

func (s *Storage) listScheduleSlots(ctx context.Context, scheduleID string) ([]*models.Slot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+slotColumns+` FROM slots WHERE schedule_id=$1 ORDER BY date, time`, scheduleID)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var slots []*models.Slot

	for rows.Next() {
		slot, err := scanSlotRow(rows.Scan)
		if err != nil {
			return nil, err
		}

		slots = append(slots, slot)
	}

	return slots, nil
}

func (s *Storage) ListSchedules(ctx context.Context, filters *service.ScheduleFilters) ([]*models.Schedule, error) {
	const op = "storage.postgres.ListSchedules"

	query := `SELECT id, month, year, church_id, district_id, generated_by, mode, status, created_at, updated_at
		FROM schedules`

	var conditions []string
	var args []any

	addCondition := func(column string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if filters != nil {
		if filters.Month != nil {
			addCondition("month", *filters.Month)
		}
		if filters.Year != nil {
			addCondition("year", *filters.Year)
		}
		if filters.ChurchID != nil {
			addCondition("church_id", *filters.ChurchID)
		}
		if filters.DistrictID != nil {
			addCondition("district_id", *filters.DistrictID)
		}
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY year, month, created_at"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var schedules []*models.Schedule

	for rows.Next() {
		var schedule models.Schedule

		err := rows.Scan(
			&schedule.ID,
			&schedule.Month,
			&schedule.Year,
			&schedule.ChurchID,
			&schedule.DistrictID,
			&schedule.GeneratedBy,
			&schedule.Mode,
			&schedule.Status,
			&schedule.CreatedAt,
			&schedule.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		schedules = append(schedules, &schedule)
	}

	for _, schedule := range schedules {
		slots, err := s.listScheduleSlots(ctx, schedule.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		schedule.Slots = slots
	}

	return schedules, nil
}

func (s *Storage) UpdateScheduleStatus(ctx context.Context, id string, status models.ScheduleStatus) error {
	const op = "storage.postgres.UpdateScheduleStatus"

	res, err := s.db.ExecContext(ctx,
		`UPDATE schedules SET status=$1, updated_at=now() WHERE id=$2`,
		string(status), id)
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

func (s *Storage) DeleteSchedule(ctx context.Context, id string) error {
	const op = "storage.postgres.DeleteSchedule"

	res, err := s.db.ExecContext(ctx, `DELETE FROM schedules WHERE id=$1`, id)
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

// #### slots ####

func (s *Storage) GetSlot(ctx context.Context, id string) (*models.Slot, error) {
	const op = "storage.postgres.GetSlot"

	row := s.db.QueryRowContext(ctx,
		`SELECT `+slotColumns+` FROM slots WHERE id=$1`, id)

	slot, err := scanSlotRow(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return slot, nil
}

func (s *Storage) UpdateSlot(ctx context.Context, slot *models.Slot) error {
	const op = "storage.postgres.UpdateSlot"

	singers, err := json.Marshal(slot.SingerIDs)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE slots
		SET preacher_id=$1, singer_ids=$2, status=$3, refusal_reason=$4,
			confirmed_at=$5, cancelled_at=$6, updated_at=now()
		WHERE id=$7`,
		slot.PreacherID,
		singers,
		string(slot.Status),
		slot.RefusalReason,
		slot.ConfirmedAt,
		slot.CancelledAt,
		slot.ID,
	)
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

// ListOccupancySlots is the indexed occupancy query: every slot on the
// date whose schedule participates in conflict checks.
func (s *Storage) ListOccupancySlots(ctx context.Context, date string) ([]*models.Slot, error) {
	const op = "storage.postgres.ListOccupancySlots"

	rows, err := s.db.QueryContext(ctx,
		`SELECT sl.id, sl.schedule_id, sl.date, sl.time, sl.preacher_id, sl.singer_ids, sl.status,
			sl.refusal_reason, sl.confirmed_at, sl.cancelled_at, sl.created_at, sl.updated_at
		FROM slots sl
		JOIN schedules sc ON sc.id = sl.schedule_id
		WHERE sl.date=$1 AND sc.status IN ('confirmed', 'active')`, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var slots []*models.Slot

	for rows.Next() {
		slot, err := scanSlotRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		slots = append(slots, slot)
	}

	return slots, nil
}
