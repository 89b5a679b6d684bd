package response

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Response struct {
	ResponseError `json:"error,omitzero"`
}

type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

//Error Codes
type ErrCode string

var (
	FAILED_REQUEST      ErrCode = "REQUEST_FAILED"
	BAD_REQUEST         ErrCode = "FAILED_TO_DECODE"
	NOT_FOUND           ErrCode = "NOT_FOUND"
	LOCKED              ErrCode = "LOCKED"
	CONFLICT            ErrCode = "CONFLICT"
	SCHEDULE_EXISTS     ErrCode = "SCHEDULE_EXISTS"
	INVALID_TRANSITION  ErrCode = "INVALID_TRANSITION"
	SCHEDULE_INCOMPLETE ErrCode = "SCHEDULE_INCOMPLETE"
	NOT_ASSIGNED        ErrCode = "NOT_ASSIGNED"
	TOO_LATE            ErrCode = "TOO_LATE"
	PERMISSION_DENIED   ErrCode = "PERMISSION_DENIED"
	UNAUTHORIZED        ErrCode = "UNAUTHORIZED"
)

var (
	ErrBadRequest         = errors.New("bad request")
	ErrNotFound           = errors.New("resource not found")
	ErrLocked             = errors.New("resource is locked")
	ErrConflict           = errors.New("assignment conflict")
	ErrScheduleExists     = errors.New("schedule already exists for this church and month")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrIncompleteSchedule = errors.New("schedule has unassigned slots")
	ErrNotAssigned        = errors.New("caller is not assigned to this slot")
	ErrTooLate            = errors.New("cancellation window has closed")
	ErrPermissionDenied   = errors.New("permission denied")
)

// ConflictError names the person and date of an occupancy clash.
// errors.Is(err, ErrConflict) matches it.
type ConflictError struct {
	PersonID string
	Date     string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("person %s is already assigned on %s", e.PersonID, e.Date)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// IncompleteScheduleError names the first unassigned slot date that
// blocked a schedule confirmation.
type IncompleteScheduleError struct {
	Date string
}

func (e *IncompleteScheduleError) Error() string {
	return fmt.Sprintf("slot on %s has no preacher assigned", e.Date)
}

func (e *IncompleteScheduleError) Is(target error) bool {
	return target == ErrIncompleteSchedule
}

func Error(code, msg string) Response {
	return Response{
		ResponseError: ResponseError{
			Code:    code,
			Message: msg,
		},
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	var errMsg []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errMsg = append(errMsg, fmt.Sprintf("Field '%s' is required", err.Field()))
		case "min":
			errMsg = append(errMsg, fmt.Sprintf("Field '%s' must be at least %s", err.Field(), err.Param()))
		case "max":
			errMsg = append(errMsg, fmt.Sprintf("Field '%s' must be at most %s", err.Field(), err.Param()))
		case "oneof":
			errMsg = append(errMsg, fmt.Sprintf("Field '%s' must be one of: %s", err.Field(), err.Param()))
		default:
			errMsg = append(errMsg, fmt.Sprintf("Field '%s' is invalid", err.Field()))
		}
	}

	return Error(string(BAD_REQUEST), strings.Join(errMsg, ", "))
}
