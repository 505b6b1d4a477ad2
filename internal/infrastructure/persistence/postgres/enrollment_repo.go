package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/progress"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENROLLMENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// EnrollmentRepository implements progress.EnrollmentRepository for
// PostgreSQL. Watermark raises are conditional in SQL with GREATEST, so
// a stale writer can never lower a value another writer already raised.
type EnrollmentRepository struct {
	conn *Connection
}

// NewEnrollmentRepository creates a new EnrollmentRepository.
func NewEnrollmentRepository(conn *Connection) *EnrollmentRepository {
	return &EnrollmentRepository{conn: conn}
}

// Create inserts a new enrollment.
func (r *EnrollmentRepository) Create(ctx context.Context, e *progress.Enrollment) error {
	query := `
		INSERT INTO enrollments (user_id, course_id, current_lesson, unlocked_courses, enrolled_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.conn.Exec(ctx, query,
		e.UserID, e.CourseID, e.CurrentLesson, e.UnlockedCourses, e.EnrolledAt, e.CompletedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadyEnrolled
		}
		return fmt.Errorf("failed to create enrollment: %w", err)
	}
	return nil
}

// Get returns the enrollment for a (user, course) pair.
func (r *EnrollmentRepository) Get(ctx context.Context, userID, courseID string) (*progress.Enrollment, error) {
	query := `
		SELECT user_id, course_id, current_lesson, unlocked_courses, enrolled_at, completed_at
		FROM enrollments
		WHERE user_id = $1 AND course_id = $2
	`

	var e progress.Enrollment
	err := r.conn.QueryRow(ctx, query, userID, courseID).Scan(
		&e.UserID, &e.CourseID, &e.CurrentLesson, &e.UnlockedCourses, &e.EnrolledAt, &e.CompletedAt)
	if IsNoRows(err) {
		return nil, shared.ErrEnrollmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return &e, nil
}

// ListByUser returns all of a user's enrollments ordered by course number.
func (r *EnrollmentRepository) ListByUser(ctx context.Context, userID string) ([]*progress.Enrollment, error) {
	query := `
		SELECT e.user_id, e.course_id, e.current_lesson, e.unlocked_courses, e.enrolled_at, e.completed_at
		FROM enrollments e
		JOIN courses c ON c.id = e.course_id
		WHERE e.user_id = $1
		ORDER BY c.course_number ASC
	`

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []*progress.Enrollment
	for rows.Next() {
		var e progress.Enrollment
		err := rows.Scan(&e.UserID, &e.CourseID, &e.CurrentLesson, &e.UnlockedCourses, &e.EnrolledAt, &e.CompletedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		enrollments = append(enrollments, &e)
	}
	return enrollments, rows.Err()
}

// EffectiveWatermark returns the max unlocked-courses watermark across
// all of the user's enrollments, and at least 1 even with none.
func (r *EnrollmentRepository) EffectiveWatermark(ctx context.Context, userID string) (int, error) {
	var watermark int
	err := r.conn.QueryRow(ctx,
		"SELECT COALESCE(MAX(unlocked_courses), 1) FROM enrollments WHERE user_id = $1",
		userID,
	).Scan(&watermark)
	if err != nil {
		return 0, fmt.Errorf("failed to get effective watermark: %w", err)
	}
	if watermark < 1 {
		watermark = 1
	}
	return watermark, nil
}

// RaiseCurrentLesson raises the lesson watermark for one enrollment.
// A value at or below the stored watermark leaves the row untouched.
func (r *EnrollmentRepository) RaiseCurrentLesson(ctx context.Context, userID, courseID string, lessonNumber int) error {
	query := `
		UPDATE enrollments
		SET current_lesson = GREATEST(current_lesson, $3)
		WHERE user_id = $1 AND course_id = $2
	`

	result, err := r.conn.Exec(ctx, query, userID, courseID, lessonNumber)
	if err != nil {
		return fmt.Errorf("failed to raise current lesson: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrEnrollmentNotFound
	}
	return nil
}

// CompleteAndPropagate marks the enrollment completed and raises the
// unlocked-courses watermark on every enrollment the user has, in one
// transaction. The completion timestamp is written once; re-running after
// a crash between the two statements repairs the propagation without
// re-reporting a first completion.
func (r *EnrollmentRepository) CompleteAndPropagate(ctx context.Context, userID, courseID string, completedAt time.Time, watermark int) (bool, error) {
	var first bool
	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		var exists bool
		err := tx.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM enrollments WHERE user_id = $1 AND course_id = $2)",
			userID, courseID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check enrollment: %w", err)
		}
		if !exists {
			return shared.ErrEnrollmentNotFound
		}

		result, err := tx.Exec(ctx, `
			UPDATE enrollments
			SET completed_at = $3
			WHERE user_id = $1 AND course_id = $2 AND completed_at IS NULL
		`, userID, courseID, completedAt)
		if err != nil {
			return fmt.Errorf("failed to mark enrollment completed: %w", err)
		}
		first = result.RowsAffected() > 0

		_, err = tx.Exec(ctx, `
			UPDATE enrollments
			SET unlocked_courses = GREATEST(unlocked_courses, $2)
			WHERE user_id = $1
		`, userID, watermark)
		if err != nil {
			return fmt.Errorf("failed to propagate watermark: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return first, nil
}

// CountCompleted returns how many courses the user has completed.
func (r *EnrollmentRepository) CountCompleted(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM enrollments WHERE user_id = $1 AND completed_at IS NOT NULL",
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed courses: %w", err)
	}
	return count, nil
}
