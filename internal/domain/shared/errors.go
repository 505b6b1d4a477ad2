// Package shared contains common domain types, errors and events that are
// used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Access errors
	ErrForbidden = errors.New("forbidden")

	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrConflict      = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Submission errors
	ErrInvalidSubmission  = errors.New("invalid submission")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmptyValue         = errors.New("value cannot be empty")
	ErrValueOutOfRange    = errors.New("value out of range")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrQueueUnavailable   = errors.New("queue unavailable")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "progress", "achievement", "certificate"
	Op      string // Operation that failed, e.g., "SubmitActivity", "Issue"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Progress domain errors
var (
	ErrActivityLocked     = NewDomainError("progress", "CheckAccess", ErrForbidden, "activity is locked")
	ErrLessonLocked       = NewDomainError("progress", "CheckAccess", ErrForbidden, "lesson is locked")
	ErrCourseLocked       = NewDomainError("progress", "CheckAccess", ErrForbidden, "course is locked")
	ErrActivityNotFound   = NewDomainError("progress", "Find", ErrNotFound, "activity not found")
	ErrLessonNotFound     = NewDomainError("progress", "Find", ErrNotFound, "lesson not found")
	ErrCourseNotFound     = NewDomainError("progress", "Find", ErrNotFound, "course not found")
	ErrEnrollmentNotFound = NewDomainError("progress", "Find", ErrNotFound, "enrollment not found")
	ErrAlreadyEnrolled    = NewDomainError("progress", "Enroll", ErrConflict, "already enrolled in this course")
	ErrSubmissionRejected = NewDomainError("progress", "Validate", ErrInvalidSubmission, "submission failed validation")
	ErrProgressNotFound   = NewDomainError("progress", "Find", ErrNotFound, "no progress recorded")
)

// Exam domain errors
var (
	ErrExamNotFound        = NewDomainError("exam", "Find", ErrNotFound, "final exam not found")
	ErrProjectNotApproved  = NewDomainError("exam", "CheckAccess", ErrPreconditionFailed, "final project has not been approved")
	ErrProjectNotFound     = NewDomainError("exam", "Find", ErrNotFound, "final project submission not found")
	ErrInvalidProjectState = NewDomainError("exam", "Review", ErrInvalidInput, "invalid project review status")
)

// Achievement domain errors
var (
	ErrAchievementExists = NewDomainError("achievement", "Grant", ErrConflict, "achievement already granted")
)

// Certificate domain errors
var (
	ErrCertificateNotFound = NewDomainError("certificate", "Find", ErrNotFound, "certificate not found")
	ErrCourseNotCompleted  = NewDomainError("certificate", "Issue", ErrPreconditionFailed, "course is not completed")
)

// User domain errors
var (
	ErrUserNotFound      = NewDomainError("user", "Find", ErrNotFound, "user not found")
	ErrUserAlreadyExists = NewDomainError("user", "Register", ErrConflict, "user already exists")
)

// IsForbidden checks if the error is an access error.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if the error is an "already exists" error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsInvalidSubmission checks if the error is a submission validation error.
func IsInvalidSubmission(err error) bool {
	return errors.Is(err, ErrInvalidSubmission)
}

// IsPreconditionFailed checks if the error is a precondition error.
func IsPreconditionFailed(err error) bool {
	return errors.Is(err, ErrPreconditionFailed)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}
