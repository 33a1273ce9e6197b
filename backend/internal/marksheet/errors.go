package marksheet

import "errors"

var (
	ErrStudentNotFound = errors.New("student not found")
	ErrSubjectNotFound = errors.New("subject not found")
	ErrFacultyNotFound = errors.New("faculty profile not found")
	ErrEntryNotFound   = errors.New("marksheet entry not found")

	// ErrUnauthorized matches every *AuthorizationError.
	ErrUnauthorized = errors.New("not authorized")
	// ErrNotAssigned matches an *AuthorizationError with ReasonNotAssigned.
	ErrNotAssigned = errors.New("not assigned to subject")
)

// Reason tells apart the ways a faculty member can be refused access to a
// student's marks.
type Reason string

const (
	ReasonDifferentDepartment    Reason = "DIFFERENT_DEPARTMENT"
	ReasonNotAssigned            Reason = "NOT_ASSIGNED"
	ReasonSubjectOtherDepartment Reason = "SUBJECT_OTHER_DEPARTMENT"
)

var reasonMessages = map[Reason]string{
	ReasonDifferentDepartment:    "You are not authorized to feed marks for this student (different department).",
	ReasonNotAssigned:            "You are not assigned to this subject.",
	ReasonSubjectOtherDepartment: "This subject belongs to another department. You cannot feed marks for this student.",
}

// Message returns the user-facing text for r.
func (r Reason) Message() string {
	if msg, ok := reasonMessages[r]; ok {
		return msg
	}
	return "You are not authorized to perform this action."
}

// AuthorizationError is returned when a student exists but the acting
// faculty member may not see or edit their marks.
type AuthorizationError struct {
	Reason Reason
}

func (e *AuthorizationError) Error() string {
	return e.Reason.Message()
}

func (e *AuthorizationError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return true
	case ErrNotAssigned:
		return e.Reason == ReasonNotAssigned
	}
	return false
}

func denied(reason Reason) error {
	return &AuthorizationError{Reason: reason}
}

// AsAuthorizationError unwraps err into an *AuthorizationError.
func AsAuthorizationError(err error) (*AuthorizationError, bool) {
	var aErr *AuthorizationError
	if errors.As(err, &aErr) {
		return aErr, true
	}
	return nil, false
}
