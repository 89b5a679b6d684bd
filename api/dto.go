package api

import "time"

// Persons

type UnavailablePeriod struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

type PersonRequest struct {
	Name               string              `json:"name" validate:"required,max=200"`
	Email              *string             `json:"email,omitempty" validate:"omitempty,email"`
	Phone              *string             `json:"phone,omitempty"`
	Role               string              `json:"role" validate:"required,oneof=district_pastor church_leader preacher singer member"`
	DistrictID         *string             `json:"district_id,omitempty"`
	ChurchID           *string             `json:"church_id,omitempty"`
	IsPreacher         bool                `json:"is_preacher"`
	IsSinger           bool                `json:"is_singer"`
	UnavailablePeriods []UnavailablePeriod `json:"unavailable_periods,omitempty" validate:"omitempty,dive"`
}

type PersonResponse struct {
	ID                 string              `json:"id"`
	Name               string              `json:"name"`
	Email              *string             `json:"email,omitempty"`
	Phone              *string             `json:"phone,omitempty"`
	Role               string              `json:"role"`
	DistrictID         *string             `json:"district_id,omitempty"`
	ChurchID           *string             `json:"church_id,omitempty"`
	IsPreacher         bool                `json:"is_preacher"`
	IsSinger           bool                `json:"is_singer"`
	PreachingScore     float64             `json:"preaching_score"`
	SingingScore       float64             `json:"singing_score"`
	UnavailablePeriods []UnavailablePeriod `json:"unavailable_periods"`
	IsActive           bool                `json:"is_active"`
}

// Districts

type DistrictRequest struct {
	Name     string  `json:"name" validate:"required,max=200"`
	PastorID *string `json:"pastor_id,omitempty"`
}

type DistrictResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	PastorID *string `json:"pastor_id,omitempty"`
	IsActive bool    `json:"is_active"`
}

// Churches

type ServiceDay struct {
	Weekday string `json:"weekday" validate:"required"`
	Time    string `json:"time" validate:"required,datetime=15:04"`
}

type ChurchRequest struct {
	Name        string       `json:"name" validate:"required,max=200"`
	DistrictID  string       `json:"district_id" validate:"required"`
	Address     *string      `json:"address,omitempty"`
	LeaderID    *string      `json:"leader_id,omitempty"`
	ServiceDays []ServiceDay `json:"service_days" validate:"omitempty,dive"`
}

type ChurchResponse struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	DistrictID  string       `json:"district_id"`
	Address     *string      `json:"address,omitempty"`
	LeaderID    *string      `json:"leader_id,omitempty"`
	ServiceDays []ServiceDay `json:"service_days"`
	IsActive    bool         `json:"is_active"`
}

// Schedules

type GenerateScheduleRequest struct {
	Month      int     `json:"month" validate:"required,min=1,max=12"`
	Year       int     `json:"year" validate:"required,min=2000,max=2100"`
	DistrictID string  `json:"district_id" validate:"required"`
	ChurchID   *string `json:"church_id,omitempty"`
}

type ManualScheduleRequest struct {
	Month    int    `json:"month" validate:"required,min=1,max=12"`
	Year     int    `json:"year" validate:"required,min=2000,max=2100"`
	ChurchID string `json:"church_id" validate:"required"`
}

type SlotResponse struct {
	ID            string     `json:"id"`
	ScheduleID    string     `json:"schedule_id"`
	Date          string     `json:"date"`
	Time          string     `json:"time"`
	PreacherID    *string    `json:"preacher_id,omitempty"`
	Singers       []string   `json:"singers"`
	Status        string     `json:"status"`
	RefusalReason *string    `json:"refusal_reason,omitempty"`
	ConfirmedAt   *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
}

type ScheduleResponse struct {
	ID          string         `json:"id"`
	Month       int            `json:"month"`
	Year        int            `json:"year"`
	ChurchID    string         `json:"church_id"`
	DistrictID  string         `json:"district_id"`
	GeneratedBy string         `json:"generated_by"`
	Mode        string         `json:"generation_mode"`
	Status      string         `json:"status"`
	Slots       []SlotResponse `json:"slots"`
}

/// SlotUpdateRequest is a field-level patch: nil fields are untouched.
type SlotUpdateRequest struct {
	PreacherID *string   `json:"preacher_id,omitempty"`
	Singers    *[]string `json:"singers,omitempty"`
}

type ReasonRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// Substitutions

type SubstitutionCreateRequest struct {
	SlotID   string `json:"slot_id" validate:"required"`
	TargetID string `json:"target_id" validate:"required"`
	Reason   string `json:"reason" validate:"required"`
}

type SubstitutionResponse struct {
	ID          string     `json:"id"`
	SlotID      string     `json:"slot_id"`
	ScheduleID  string     `json:"schedule_id"`
	RequesterID string     `json:"requester_id"`
	TargetID    string     `json:"target_id"`
	Reason      string     `json:"reason"`
	Status      string     `json:"status"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

// Evaluations

type EvaluationCreateRequest struct {
	SlotID     string  `json:"slot_id" validate:"required"`
	ChurchID   string  `json:"church_id" validate:"required"`
	MemberType string  `json:"member_type" validate:"required,oneof=preacher singer"`
	PersonID   string  `json:"person_id" validate:"required"`
	Rating     int     `json:"rating" validate:"required,min=1,max=5"`
	Comment    *string `json:"comment,omitempty"`
}

type EvaluationResponse struct {
	ID         string  `json:"id"`
	SlotID     string  `json:"slot_id"`
	ChurchID   string  `json:"church_id"`
	MemberType string  `json:"member_type"`
	PersonID   string  `json:"person_id"`
	Rating     int     `json:"rating"`
	Comment    *string `json:"comment,omitempty"`
}

// Delegations

type DelegationCreateRequest struct {
	DistrictID  string   `json:"district_id" validate:"required"`
	PersonID    string   `json:"person_id" validate:"required"`
	Permissions []string `json:"permissions" validate:"required,min=1"`
}

type DelegationResponse struct {
	ID          string    `json:"id"`
	DistrictID  string    `json:"district_id"`
	PersonID    string    `json:"person_id"`
	DelegatedBy string    `json:"delegated_by"`
	Permissions []string  `json:"permissions"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Notifications

type NotificationResponse struct {
	ID        string    `json:"id"`
	Category  string    `json:"category"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	RelatedID *string   `json:"related_id,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
