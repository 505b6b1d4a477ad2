package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/progress"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROJECT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProjectRepository implements progress.ProjectRepository for PostgreSQL.
type ProjectRepository struct {
	conn *Connection
}

// NewProjectRepository creates a new ProjectRepository.
func NewProjectRepository(conn *Connection) *ProjectRepository {
	return &ProjectRepository{conn: conn}
}

// Upsert inserts or overwrites the submission for a (user, project) pair.
// A resubmission resets the status to pending and clears the review
// timestamp.
func (r *ProjectRepository) Upsert(ctx context.Context, s *progress.FinalProjectSubmission) error {
	query := `
		INSERT INTO project_submissions (user_id, project_id, status, description, repo_url, submitted_at, reviewed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, project_id) DO UPDATE SET
			status = EXCLUDED.status,
			description = EXCLUDED.description,
			repo_url = EXCLUDED.repo_url,
			submitted_at = EXCLUDED.submitted_at,
			reviewed_at = EXCLUDED.reviewed_at
	`

	_, err := r.conn.Exec(ctx, query,
		s.UserID, s.ProjectID, string(s.Status), s.Description, s.RepoURL, s.SubmittedAt, s.ReviewedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert project submission: %w", err)
	}
	return nil
}

// Get returns the submission for a (user, project) pair.
func (r *ProjectRepository) Get(ctx context.Context, userID, projectID string) (*progress.FinalProjectSubmission, error) {
	query := `
		SELECT user_id, project_id, status, description, repo_url, submitted_at, reviewed_at
		FROM project_submissions
		WHERE user_id = $1 AND project_id = $2
	`

	var s progress.FinalProjectSubmission
	var status string
	err := r.conn.QueryRow(ctx, query, userID, projectID).Scan(
		&s.UserID, &s.ProjectID, &status, &s.Description, &s.RepoURL, &s.SubmittedAt, &s.ReviewedAt)
	if IsNoRows(err) {
		return nil, shared.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project submission: %w", err)
	}
	s.Status = progress.ProjectStatus(status)
	return &s, nil
}

// SetStatus records a review decision.
func (r *ProjectRepository) SetStatus(ctx context.Context, userID, projectID string, status progress.ProjectStatus, reviewedAt time.Time) error {
	query := `
		UPDATE project_submissions
		SET status = $3, reviewed_at = $4
		WHERE user_id = $1 AND project_id = $2
	`

	result, err := r.conn.Exec(ctx, query, userID, projectID, string(status), reviewedAt)
	if err != nil {
		return fmt.Errorf("failed to set project status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrProjectNotFound
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// EXAM RESULT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ExamResultRepository implements progress.ExamResultRepository for
// PostgreSQL. A retake overwrites the previous result wholesale.
type ExamResultRepository struct {
	conn *Connection
}

// NewExamResultRepository creates a new ExamResultRepository.
func NewExamResultRepository(conn *Connection) *ExamResultRepository {
	return &ExamResultRepository{conn: conn}
}

// Upsert inserts or overwrites the result for a (user, exam) pair.
func (r *ExamResultRepository) Upsert(ctx context.Context, result *progress.FinalExamResult) error {
	query := `
		INSERT INTO exam_results (user_id, exam_id, score, passed, grading_status, answers, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, exam_id) DO UPDATE SET
			score = EXCLUDED.score,
			passed = EXCLUDED.passed,
			grading_status = EXCLUDED.grading_status,
			answers = EXCLUDED.answers,
			submitted_at = EXCLUDED.submitted_at
	`

	_, err := r.conn.Exec(ctx, query,
		result.UserID, result.ExamID, result.Score, result.Passed,
		string(result.GradingStatus), result.Answers, result.SubmittedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert exam result: %w", err)
	}
	return nil
}

// Get returns the result for a (user, exam) pair.
func (r *ExamResultRepository) Get(ctx context.Context, userID, examID string) (*progress.FinalExamResult, error) {
	query := `
		SELECT user_id, exam_id, score, passed, grading_status, answers, submitted_at
		FROM exam_results
		WHERE user_id = $1 AND exam_id = $2
	`

	var result progress.FinalExamResult
	var gradingStatus string
	err := r.conn.QueryRow(ctx, query, userID, examID).Scan(
		&result.UserID, &result.ExamID, &result.Score, &result.Passed,
		&gradingStatus, &result.Answers, &result.SubmittedAt)
	if IsNoRows(err) {
		return nil, shared.NewDomainError("exam", "Find", shared.ErrNotFound, "exam result not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get exam result: %w", err)
	}
	result.GradingStatus = progress.GradingStatus(gradingStatus)
	return &result, nil
}
