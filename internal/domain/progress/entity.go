// Package progress contains the progression state of users through the
// catalog: enrollments, lesson progress, activity submissions and final
// assessment results, together with the pure rules that decide access,
// validate submissions and grade exams.
package progress

import (
	"encoding/json"
	"time"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENROLLMENT
// ══════════════════════════════════════════════════════════════════════════════

// Enrollment records a user's participation in one course. There is at
// most one enrollment per (user, course).
//
// UnlockedCourses is a watermark: the highest course number the user may
// access. It is shared in spirit across all of a user's enrollments -
// every update that raises it propagates to the user's other enrollment
// rows, and reads always take the max across rows so a missed propagation
// self-heals. It never decreases.
type Enrollment struct {
	UserID   string
	CourseID string

	// CurrentLesson is the highest lesson number currently accessible in
	// this course. 1-based, monotonically non-decreasing.
	CurrentLesson int

	// UnlockedCourses is the unlocked-course watermark. Monotonically
	// non-decreasing, minimum 1.
	UnlockedCourses int

	EnrolledAt  time.Time
	CompletedAt *time.Time
}

// IsCompleted returns true once the course has been completed.
func (e *Enrollment) IsCompleted() bool {
	return e.CompletedAt != nil
}

// NewEnrollment creates an enrollment opened at the given watermark.
func NewEnrollment(userID, courseID string, watermark int, now time.Time) *Enrollment {
	if watermark < 1 {
		watermark = 1
	}
	return &Enrollment{
		UserID:          userID,
		CourseID:        courseID,
		CurrentLesson:   1,
		UnlockedCourses: watermark,
		EnrolledAt:      now,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// LESSON PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

// LessonProgress records a user's position within one lesson. Created
// lazily on first interaction; at most one row per (user, lesson).
type LessonProgress struct {
	UserID   string
	LessonID string

	Completed   bool
	CompletedAt *time.Time

	// CurrentActivity is the activity-number watermark within the lesson.
	// 1-based, monotonically non-decreasing.
	CurrentActivity int

	// VideoPosition is the saved playback position in seconds. Pure
	// convenience state; it does not participate in gating.
	VideoPosition int

	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY SUBMISSION
// ══════════════════════════════════════════════════════════════════════════════

// ActivitySubmission is the live submission for one (user, activity).
// Resubmission overwrites; a submission with Completed=true is immutable
// evidence for lesson-completion counting and is never deleted by any
// cascade.
type ActivitySubmission struct {
	UserID     string
	ActivityID string

	// Response is the raw response exactly as submitted.
	Response json.RawMessage

	Completed   bool
	Feedback    string
	SubmittedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// FINAL PROJECT SUBMISSION
// ══════════════════════════════════════════════════════════════════════════════

// ProjectStatus is the review state of a final project submission.
type ProjectStatus string

const (
	// ProjectStatusPending - submitted, awaiting review.
	ProjectStatusPending ProjectStatus = "pending"

	// ProjectStatusApproved - approved; unlocks the final exam.
	ProjectStatusApproved ProjectStatus = "approved"

	// ProjectStatusNeedsRevision - sent back for rework.
	ProjectStatusNeedsRevision ProjectStatus = "needs_revision"
)

// IsValid checks that the status is one of the known review states.
func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectStatusPending, ProjectStatusApproved, ProjectStatusNeedsRevision:
		return true
	default:
		return false
	}
}

// FinalProjectSubmission is a user's submission of a course's final
// project. The final exam unlocks only once Status is approved.
type FinalProjectSubmission struct {
	UserID    string
	ProjectID string

	Status      ProjectStatus
	Description string
	RepoURL     string

	SubmittedAt time.Time
	ReviewedAt  *time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// FINAL EXAM RESULT
// ══════════════════════════════════════════════════════════════════════════════

// GradingStatus is the grading state of a final exam result.
type GradingStatus string

const (
	// GradingStatusGraded - every question was auto-graded.
	GradingStatusGraded GradingStatus = "GRADED"

	// GradingStatusPendingReview - at least one question needs a human.
	GradingStatusPendingReview GradingStatus = "PENDING_REVIEW"
)

// FinalExamResult is the latest exam result for one (user, exam).
// A retake overwrites the previous result wholesale.
type FinalExamResult struct {
	UserID string
	ExamID string

	// Score is the auto-graded percentage [0,100].
	Score int

	// Passed is true only for fully auto-graded results that clear the
	// passing score. It is never true while GradingStatus is
	// PENDING_REVIEW; see Validate.
	Passed bool

	GradingStatus GradingStatus

	// Answers is the raw answer set exactly as submitted.
	Answers json.RawMessage

	SubmittedAt time.Time
}

// Validate enforces the grading-gate invariant: a result with any
// manually-gradable question can never be passed while pending review.
func (r *FinalExamResult) Validate() error {
	if r.Passed && r.GradingStatus == GradingStatusPendingReview {
		return shared.NewDomainError("progress", "Validate", shared.ErrInvalidEntity,
			"exam result cannot be passed while pending manual review")
	}
	if r.Score < 0 || r.Score > 100 {
		return shared.NewDomainError("progress", "Validate", shared.ErrValueOutOfRange,
			"exam score must be within [0,100]")
	}
	return nil
}
