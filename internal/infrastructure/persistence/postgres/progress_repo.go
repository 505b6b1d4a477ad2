package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/progress"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LESSON PROGRESS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LessonProgressRepository implements progress.LessonProgressRepository
// for PostgreSQL. Rows are created lazily on first write; the activity
// cursor is raised with GREATEST so it never moves backwards.
type LessonProgressRepository struct {
	conn *Connection
}

// NewLessonProgressRepository creates a new LessonProgressRepository.
func NewLessonProgressRepository(conn *Connection) *LessonProgressRepository {
	return &LessonProgressRepository{conn: conn}
}

// Get returns the progress row for a (user, lesson) pair.
func (r *LessonProgressRepository) Get(ctx context.Context, userID, lessonID string) (*progress.LessonProgress, error) {
	query := `
		SELECT user_id, lesson_id, completed, completed_at, current_activity, video_position, updated_at
		FROM lesson_progress
		WHERE user_id = $1 AND lesson_id = $2
	`

	var lp progress.LessonProgress
	err := r.conn.QueryRow(ctx, query, userID, lessonID).Scan(
		&lp.UserID, &lp.LessonID, &lp.Completed, &lp.CompletedAt,
		&lp.CurrentActivity, &lp.VideoPosition, &lp.UpdatedAt)
	if IsNoRows(err) {
		return nil, shared.ErrProgressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson progress: %w", err)
	}
	return &lp, nil
}

// AdvanceActivityCursor raises the activity watermark, creating the row
// when absent. A value at or below the stored cursor is a no-op.
func (r *LessonProgressRepository) AdvanceActivityCursor(ctx context.Context, userID, lessonID string, activityNumber int) error {
	query := `
		INSERT INTO lesson_progress (user_id, lesson_id, current_activity, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, lesson_id) DO UPDATE SET
			current_activity = GREATEST(lesson_progress.current_activity, EXCLUDED.current_activity),
			updated_at = NOW()
	`

	if _, err := r.conn.Exec(ctx, query, userID, lessonID, activityNumber); err != nil {
		return fmt.Errorf("failed to advance activity cursor: %w", err)
	}
	return nil
}

// MarkCompleted flips the lesson to completed. Only the call that
// performed the transition sees true; the conditional update is the
// once-only check.
func (r *LessonProgressRepository) MarkCompleted(ctx context.Context, userID, lessonID string, at time.Time) (bool, error) {
	insert := `
		INSERT INTO lesson_progress (user_id, lesson_id, completed, completed_at, updated_at)
		VALUES ($1, $2, TRUE, $3, NOW())
		ON CONFLICT (user_id, lesson_id) DO NOTHING
	`
	result, err := r.conn.Exec(ctx, insert, userID, lessonID, at)
	if err != nil {
		return false, fmt.Errorf("failed to mark lesson completed: %w", err)
	}
	if result.RowsAffected() > 0 {
		return true, nil
	}

	update := `
		UPDATE lesson_progress
		SET completed = TRUE, completed_at = $3, updated_at = NOW()
		WHERE user_id = $1 AND lesson_id = $2 AND NOT completed
	`
	result, err = r.conn.Exec(ctx, update, userID, lessonID, at)
	if err != nil {
		return false, fmt.Errorf("failed to mark lesson completed: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// SaveVideoPosition upserts the playback position for a lesson.
func (r *LessonProgressRepository) SaveVideoPosition(ctx context.Context, userID, lessonID string, seconds int) error {
	query := `
		INSERT INTO lesson_progress (user_id, lesson_id, video_position, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, lesson_id) DO UPDATE SET
			video_position = EXCLUDED.video_position,
			updated_at = NOW()
	`

	if _, err := r.conn.Exec(ctx, query, userID, lessonID, seconds); err != nil {
		return fmt.Errorf("failed to save video position: %w", err)
	}
	return nil
}

// CountCompletedLessons returns how many lessons of a course the user
// has completed.
func (r *LessonProgressRepository) CountCompletedLessons(ctx context.Context, userID, courseID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM lesson_progress lp
		JOIN lessons l ON l.id = lp.lesson_id
		WHERE lp.user_id = $1 AND l.course_id = $2 AND lp.completed
	`

	var count int
	if err := r.conn.QueryRow(ctx, query, userID, courseID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count completed lessons: %w", err)
	}
	return count, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBMISSION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SubmissionRepository implements progress.SubmissionRepository for
// PostgreSQL.
type SubmissionRepository struct {
	conn *Connection
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(conn *Connection) *SubmissionRepository {
	return &SubmissionRepository{conn: conn}
}

// Upsert inserts or overwrites the submission for a (user, activity) pair.
func (r *SubmissionRepository) Upsert(ctx context.Context, s *progress.ActivitySubmission) error {
	query := `
		INSERT INTO activity_submissions (user_id, activity_id, response, completed, feedback, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, activity_id) DO UPDATE SET
			response = EXCLUDED.response,
			completed = EXCLUDED.completed,
			feedback = EXCLUDED.feedback,
			submitted_at = EXCLUDED.submitted_at
	`

	_, err := r.conn.Exec(ctx, query,
		s.UserID, s.ActivityID, s.Response, s.Completed, s.Feedback, s.SubmittedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert submission: %w", err)
	}
	return nil
}

// Get returns the submission for a (user, activity) pair.
func (r *SubmissionRepository) Get(ctx context.Context, userID, activityID string) (*progress.ActivitySubmission, error) {
	query := `
		SELECT user_id, activity_id, response, completed, feedback, submitted_at
		FROM activity_submissions
		WHERE user_id = $1 AND activity_id = $2
	`

	var s progress.ActivitySubmission
	err := r.conn.QueryRow(ctx, query, userID, activityID).Scan(
		&s.UserID, &s.ActivityID, &s.Response, &s.Completed, &s.Feedback, &s.SubmittedAt)
	if IsNoRows(err) {
		return nil, shared.NewDomainError("progress", "Find", shared.ErrNotFound, "submission not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return &s, nil
}

// CountCompleted returns how many of the given activities the user has a
// completed submission for.
func (r *SubmissionRepository) CountCompleted(ctx context.Context, userID string, activityIDs []string) (int, error) {
	if len(activityIDs) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(activityIDs))
	args := make([]interface{}, 0, len(activityIDs)+1)
	args = append(args, userID)
	for i, id := range activityIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}

	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM activity_submissions
		WHERE user_id = $1 AND completed AND activity_id IN (%s)
	`, strings.Join(placeholders, ", "))

	var count int
	if err := r.conn.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count completed submissions: %w", err)
	}
	return count, nil
}
