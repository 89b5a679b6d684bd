package models

import "time"

type Role string

const (
	RoleDistrictPastor Role = "district_pastor"
	RoleChurchLeader   Role = "church_leader"
	RolePreacher       Role = "preacher"
	RoleSinger         Role = "singer"
	RoleMember         Role = "member"
)

type ScheduleStatus string

const (
	ScheduleDraft     ScheduleStatus = "draft"
	ScheduleConfirmed ScheduleStatus = "confirmed"
	ScheduleActive    ScheduleStatus = "active"
)

type GenerationMode string

const (
	ModeAutomatic GenerationMode = "automatic"
	ModeManual    GenerationMode = "manual"
)

type SlotStatus string

const (
	SlotPending   SlotStatus = "pending"
	SlotConfirmed SlotStatus = "confirmed"
	SlotRefused   SlotStatus = "refused"
	SlotCancelled SlotStatus = "cancelled"
	SlotCompleted SlotStatus = "completed"
)

// Terminal reports whether no further transition is allowed out of s.
func (s SlotStatus) Terminal() bool {
	return s == SlotRefused || s == SlotCancelled || s == SlotCompleted
}

type SubstitutionStatus string

const (
	SubstitutionPending  SubstitutionStatus = "pending"
	SubstitutionAccepted SubstitutionStatus = "accepted"
	SubstitutionRejected SubstitutionStatus = "rejected"
)

type MemberType string

const (
	MemberPreacher MemberType = "preacher"
	MemberSinger   MemberType = "singer"
)

// UnavailablePeriod is an inclusive date interval, both bounds YYYY-MM-DD.
type UnavailablePeriod struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type Person struct {
	ID                 string              `db:"id"`
	Name               string              `db:"name"`
	Email              *string             `db:"email"`
	Phone              *string             `db:"phone"`
	Role               Role                `db:"role"`
	DistrictID         *string             `db:"district_id"`
	ChurchID           *string             `db:"church_id"`
	IsPreacher         bool                `db:"is_preacher"`
	IsSinger           bool                `db:"is_singer"`
	PreachingScore     float64             `db:"preaching_score"`
	SingingScore       float64             `db:"singing_score"`
	UnavailablePeriods []UnavailablePeriod `db:"unavailable_periods"`
	IsActive           bool                `db:"is_active"`
	CreatedAt          time.Time           `db:"created_at"`
	UpdatedAt          time.Time           `db:"updated_at"`
}

type District struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	PastorID  *string   `db:"pastor_id"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
}

// ServiceDay is one weekly recurring service definition of a church.
// Weekday is stored canonically as a lowercase English weekday name.
type ServiceDay struct {
	Weekday string `json:"weekday"`
	Time    string `json:"time"`
}

type Church struct {
	ID          string       `db:"id"`
	Name        string       `db:"name"`
	DistrictID  string       `db:"district_id"`
	Address     *string      `db:"address"`
	LeaderID    *string      `db:"leader_id"`
	ServiceDays []ServiceDay `db:"service_days"`
	IsActive    bool         `db:"is_active"`
	CreatedAt   time.Time    `db:"created_at"`
}

// Schedule is the month plan of one church. At most one schedule may
// exist per (church, month, year).
type Schedule struct {
	ID          string         `db:"id"`
	Month       int            `db:"month"`
	Year        int            `db:"year"`
	ChurchID    string         `db:"church_id"`
	DistrictID  string         `db:"district_id"`
	GeneratedBy string         `db:"generated_by"`
	Mode        GenerationMode `db:"mode"`
	Status      ScheduleStatus `db:"status"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
	Slots       []*Slot
}

// Slot is one dated, timed assignment unit within a schedule.
/// Date is YYYY-MM-DD, Time is HH:MM.
type Slot struct {
	ID            string     `db:"id"`
	ScheduleID    string     `db:"schedule_id"`
	Date          string     `db:"date"`
	Time          string     `db:"time"`
	PreacherID    *string    `db:"preacher_id"`
	SingerIDs     []string   `db:"singer_ids"`
	Status        SlotStatus `db:"status"`
	RefusalReason *string    `db:"refusal_reason"`
	ConfirmedAt   *time.Time `db:"confirmed_at"`
	CancelledAt   *time.Time `db:"cancelled_at"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

// HasAssignee reports whether personID is the slot's preacher or one of
// its singers.
func (s *Slot) HasAssignee(personID string) bool {
	if s.PreacherID != nil && *s.PreacherID == personID {
		return true
	}
	for _, id := range s.SingerIDs {
		if id == personID {
			return true
		}
	}
	return false
}

type SubstitutionRequest struct {
	ID          string             `db:"id"`
	SlotID      string             `db:"slot_id"`
	ScheduleID  string             `db:"schedule_id"`
	RequesterID string             `db:"requester_id"`
	TargetID    string             `db:"target_id"`
	Reason      string             `db:"reason"`
	Status      SubstitutionStatus `db:"status"`
	CreatedAt   time.Time          `db:"created_at"`
	RespondedAt *time.Time         `db:"responded_at"`
}

type Notification struct {
	ID        string    `db:"id"`
	PersonID  string    `db:"person_id"`
	Category  string    `db:"category"`
	Title     string    `db:"title"`
	Message   string    `db:"message"`
	RelatedID *string   `db:"related_id"`
	Read      bool      `db:"is_read"`
	CreatedAt time.Time `db:"created_at"`
}

type Evaluation struct {
	ID         string     `db:"id"`
	SlotID     string     `db:"slot_id"`
	ChurchID   string     `db:"church_id"`
	MemberType MemberType `db:"member_type"`
	PersonID   string     `db:"person_id"`
	Rating     int        `db:"rating"`
	Comment    *string    `db:"comment"`
	CreatedAt  time.Time  `db:"created_at"`
}

// Delegation grants schedule permissions inside a district. Stored and
// listed only; permission evaluation happens at the boundary.
type Delegation struct {
	ID          string    `db:"id"`
	DistrictID  string    `db:"district_id"`
	PersonID    string    `db:"person_id"`
	DelegatedBy string    `db:"delegated_by"`
	Permissions []string  `db:"permissions"`
	IsActive    bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
}
