package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"escala-service/internal/models"
	"escala-service/pkg/response"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Storage struct {
	db *sql.DB
}

func New(storagePath string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

// mapPqError translates the constraint violations the service cares
// about into sentinel errors.
func mapPqError(err error) error {
	sqlErr, ok := err.(*pq.Error)
	if !ok {
		return err
	}
	switch sqlErr.Code {
	case "23505":
		return response.ErrScheduleExists
	case "23503":
		return response.ErrNotFound
	default:
		return err
	}
}

// #### districts ####

func (s *Storage) CreateDistrict(ctx context.Context, district *models.District) (string, error) {
	const op = "storage.postgres.CreateDistrict"

	id := uuid.NewString()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO districts (id, name, pastor_id, is_active)
		VALUES ($1, $2, $3, $4)`,
		id,
		district.Name,
		district.PastorID,
		district.IsActive,
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, mapPqError(err))
	}

	return id, nil
}

func (s *Storage) GetDistrict(ctx context.Context, id string) (*models.District, error) {
	const op = "storage.postgres.GetDistrict"

	var district models.District

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, pastor_id, is_active, created_at
		FROM districts WHERE id=$1`, id).
		Scan(
			&district.ID,
			&district.Name,
			&district.PastorID,
			&district.IsActive,
			&district.CreatedAt,
		)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &district, nil
}

// #### churches ####

func (s *Storage) CreateChurch(ctx context.Context, church *models.Church) (string, error) {
	const op = "storage.postgres.CreateChurch"

	id := uuid.NewString()

	days, err := json.Marshal(church.ServiceDays)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO churches (id, name, district_id, address, leader_id, service_days, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id,
		church.Name,
		church.DistrictID,
		church.Address,
		church.LeaderID,
		days,
		church.IsActive,
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, mapPqError(err))
	}

	return id, nil
}

func scanChurch(row *sql.Row) (*models.Church, error) {
	var church models.Church
	var days []byte

	err := row.Scan(
		&church.ID,
		&church.Name,
		&church.DistrictID,
		&church.Address,
		&church.LeaderID,
		&days,
		&church.IsActive,
		&church.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(days, &church.ServiceDays); err != nil {
		return nil, err
	}

	return &church, nil
}

func (s *Storage) GetChurch(ctx context.Context, id string) (*models.Church, error) {
	const op = "storage.postgres.GetChurch"

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, district_id, address, leader_id, service_days, is_active, created_at
		FROM churches WHERE id=$1`, id)

	church, err := scanChurch(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return church, nil
}

func (s *Storage) ListChurches(ctx context.Context, districtID string) ([]*models.Church, error) {
	const op = "storage.postgres.ListChurches"

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, district_id, address, leader_id, service_days, is_active, created_at
		FROM churches WHERE district_id=$1 AND is_active=TRUE
		ORDER BY created_at`, districtID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var churches []*models.Church

	for rows.Next() {
		var church models.Church
		var days []byte

		err := rows.Scan(
			&church.ID,
			&church.Name,
			&church.DistrictID,
			&church.Address,
			&church.LeaderID,
			&days,
			&church.IsActive,
			&church.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if err := json.Unmarshal(days, &church.ServiceDays); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		churches = append(churches, &church)
	}

	return churches, nil
}

// #### persons ####

func (s *Storage) CreatePerson(ctx context.Context, person *models.Person) (string, error) {
	const op = "storage.postgres.CreatePerson"

	id := uuid.NewString()

	periods, err := json.Marshal(person.UnavailablePeriods)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO persons
		(id, name, email, phone, role, district_id, church_id,
		is_preacher, is_singer, preaching_score, singing_score,
		unavailable_periods, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		id,
		person.Name,
		person.Email,
		person.Phone,
		string(person.Role),
		person.DistrictID,
		person.ChurchID,
		person.IsPreacher,
		person.IsSinger,
		person.PreachingScore,
		person.SingingScore,
		periods,
		person.IsActive,
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, mapPqError(err))
	}

	return id, nil
}

const personColumns = `id, name, email, phone, role, district_id, church_id,
	is_preacher, is_singer, preaching_score, singing_score,
	unavailable_periods, is_active, created_at, updated_at`

func scanPersonRow(scan func(dest ...any) error) (*models.Person, error) {
	var person models.Person
	var periods []byte

	err := scan(
		&person.ID,
		&person.Name,
		&person.Email,
		&person.Phone,
		&person.Role,
		&person.DistrictID,
		&person.ChurchID,
		&person.IsPreacher,
		&person.IsSinger,
		&person.PreachingScore,
		&person.SingingScore,
		&periods,
		&person.IsActive,
		&person.CreatedAt,
		&person.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(periods, &person.UnavailablePeriods); err != nil {
		return nil, err
	}

	return &person, nil
}

func (s *Storage) GetPerson(ctx context.Context, id string) (*models.Person, error) {
	const op = "storage.postgres.GetPerson"

	row := s.db.QueryRowContext(ctx,
		`SELECT `+personColumns+` FROM persons WHERE id=$1`, id)

	person, err := scanPersonRow(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return person, nil
}

func (s *Storage) listPersons(ctx context.Context, op, query string, args ...any) ([]*models.Person, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var persons []*models.Person

	for rows.Next() {
		person, err := scanPersonRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		persons = append(persons, person)
	}

	return persons, nil
}

// ListPreachers keeps a stable creation order; the rotation applies the
// score ordering itself.
func (s *Storage) ListPreachers(ctx context.Context, districtID string) ([]*models.Person, error) {
	const op = "storage.postgres.ListPreachers"

	return s.listPersons(ctx, op,
		`SELECT `+personColumns+` FROM persons
		WHERE district_id=$1 AND is_preacher=TRUE AND is_active=TRUE
		ORDER BY created_at`, districtID)
}

func (s *Storage) ListSingers(ctx context.Context, districtID string) ([]*models.Person, error) {
	const op = "storage.postgres.ListSingers"

	return s.listPersons(ctx, op,
		`SELECT `+personColumns+` FROM persons
		WHERE district_id=$1 AND is_singer=TRUE AND is_active=TRUE
		ORDER BY created_at`, districtID)
}

func (s *Storage) SetPersonScore(ctx context.Context, personID string, memberType models.MemberType, score float64) error {
	const op = "storage.postgres.SetPersonScore"

	column := "preaching_score"
	if memberType == models.MemberSinger {
		column = "singing_score"
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE persons SET `+column+`=$1, updated_at=now() WHERE id=$2`,
		score, personID)
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
