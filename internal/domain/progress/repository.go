package progress

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// EnrollmentRepository persists enrollments and their watermarks.
//
// Watermark writes are conditional at the storage level: an update that
// would lower CurrentLesson or UnlockedCourses must be a no-op even under
// concurrent callers.
type EnrollmentRepository interface {
	// Create inserts a new enrollment. Returns a Conflict-kind error when
	// the (user, course) pair already exists.
	Create(ctx context.Context, enrollment *Enrollment) error

	// Get returns the enrollment for a (user, course) pair, or a
	// NotFound-kind error.
	Get(ctx context.Context, userID, courseID string) (*Enrollment, error)

	// ListByUser returns all of a user's enrollments ordered by course number.
	ListByUser(ctx context.Context, userID string) ([]*Enrollment, error)

	// EffectiveWatermark returns the max UnlockedCourses across all of the
	// user's enrollments, and at least 1 even when there are none.
	EffectiveWatermark(ctx context.Context, userID string) (int, error)

	// RaiseCurrentLesson raises the lesson watermark for one enrollment.
	// Values lower than the stored watermark leave it untouched.
	RaiseCurrentLesson(ctx context.Context, userID, courseID string, lessonNumber int) error

	// CompleteAndPropagate marks the enrollment completed and raises the
	// unlocked-courses watermark on every enrollment the user has, all in
	// one transaction. Returns false when the enrollment was already
	// completed; the watermark propagation still runs in that case.
	CompleteAndPropagate(ctx context.Context, userID, courseID string, completedAt time.Time, watermark int) (bool, error)

	// CountCompleted returns how many courses the user has completed.
	CountCompleted(ctx context.Context, userID string) (int, error)
}

// LessonProgressRepository persists per-lesson progress rows.
type LessonProgressRepository interface {
	// Get returns the progress row for a (user, lesson) pair, or a
	// NotFound-kind error when the user has not touched the lesson yet.
	Get(ctx context.Context, userID, lessonID string) (*LessonProgress, error)

	// AdvanceActivityCursor raises the activity watermark, creating the
	// progress row when absent. Values lower than the stored watermark
	// leave it untouched.
	AdvanceActivityCursor(ctx context.Context, userID, lessonID string, activityNumber int) error

	// MarkCompleted flips the lesson to completed. Returns true only for
	// the call that performed the transition; repeated calls return false.
	MarkCompleted(ctx context.Context, userID, lessonID string, at time.Time) (bool, error)

	// SaveVideoPosition upserts the playback position for a lesson.
	SaveVideoPosition(ctx context.Context, userID, lessonID string, seconds int) error

	// CountCompletedLessons returns how many lessons of a course the user
	// has completed.
	CountCompletedLessons(ctx context.Context, userID, courseID string) (int, error)
}

// SubmissionRepository persists activity submissions.
type SubmissionRepository interface {
	// Upsert inserts or overwrites the submission for a (user, activity)
	// pair. Resubmission replaces the previous response and feedback.
	Upsert(ctx context.Context, submission *ActivitySubmission) error

	// Get returns the submission for a (user, activity) pair, or a
	// NotFound-kind error.
	Get(ctx context.Context, userID, activityID string) (*ActivitySubmission, error)

	// CountCompleted returns how many of the given activities the user has
	// a completed submission for.
	CountCompleted(ctx context.Context, userID string, activityIDs []string) (int, error)
}

// ProjectRepository persists final project submissions.
type ProjectRepository interface {
	// Upsert inserts or overwrites the submission for a (user, project)
	// pair. A resubmission resets the status to pending.
	Upsert(ctx context.Context, submission *FinalProjectSubmission) error

	// Get returns the submission for a (user, project) pair, or a
	// NotFound-kind error.
	Get(ctx context.Context, userID, projectID string) (*FinalProjectSubmission, error)

	// SetStatus records a review decision.
	SetStatus(ctx context.Context, userID, projectID string, status ProjectStatus, reviewedAt time.Time) error
}

// ExamResultRepository persists final exam results.
type ExamResultRepository interface {
	// Upsert inserts or overwrites the result for a (user, exam) pair.
	// A retake replaces the previous result wholesale.
	Upsert(ctx context.Context, result *FinalExamResult) error

	// Get returns the result for a (user, exam) pair, or a NotFound-kind
	// error.
	Get(ctx context.Context, userID, examID string) (*FinalExamResult, error)
}
