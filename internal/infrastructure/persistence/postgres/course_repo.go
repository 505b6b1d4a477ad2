package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/course"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COURSE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CourseRepository implements course.Repository for PostgreSQL.
type CourseRepository struct {
	conn *Connection
}

// NewCourseRepository creates a new CourseRepository.
func NewCourseRepository(conn *Connection) *CourseRepository {
	return &CourseRepository{conn: conn}
}

const courseColumns = `id, course_number, title, description, published,
	   COALESCE(final_project_id::text, ''), COALESCE(final_exam_id::text, ''),
	   created_at, updated_at`

// ─────────────────────────────────────────────────────────────────────────────
// Courses
// ─────────────────────────────────────────────────────────────────────────────

// GetCourse returns a course by internal ID.
func (r *CourseRepository) GetCourse(ctx context.Context, id string) (*course.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE id = $1", courseColumns)
	return r.scanCourse(r.conn.QueryRow(ctx, query, id))
}

// GetCourseByNumber returns the course at a position in the sequence.
func (r *CourseRepository) GetCourseByNumber(ctx context.Context, number int) (*course.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE course_number = $1", courseColumns)
	return r.scanCourse(r.conn.QueryRow(ctx, query, number))
}

// ListCourses returns all published courses ordered by course number.
func (r *CourseRepository) ListCourses(ctx context.Context) ([]*course.Course, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM courses WHERE published ORDER BY course_number ASC", courseColumns)

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer rows.Close()

	var courses []*course.Course
	for rows.Next() {
		c, err := r.scanCourseFromRows(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Lessons
// ─────────────────────────────────────────────────────────────────────────────

const lessonColumns = `id, course_id, lesson_number, title, description, video_url, created_at, updated_at`

// GetLesson returns a lesson by internal ID.
func (r *CourseRepository) GetLesson(ctx context.Context, id string) (*course.Lesson, error) {
	query := fmt.Sprintf("SELECT %s FROM lessons WHERE id = $1", lessonColumns)
	return r.scanLesson(r.conn.QueryRow(ctx, query, id))
}

// GetLessonByNumber returns the lesson at a position within a course.
func (r *CourseRepository) GetLessonByNumber(ctx context.Context, courseID string, number int) (*course.Lesson, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM lessons WHERE course_id = $1 AND lesson_number = $2", lessonColumns)
	return r.scanLesson(r.conn.QueryRow(ctx, query, courseID, number))
}

// ListLessons returns a course's lessons ordered by lesson number.
func (r *CourseRepository) ListLessons(ctx context.Context, courseID string) ([]*course.Lesson, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM lessons WHERE course_id = $1 ORDER BY lesson_number ASC", lessonColumns)

	rows, err := r.conn.Query(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	defer rows.Close()

	var lessons []*course.Lesson
	for rows.Next() {
		var l course.Lesson
		err := rows.Scan(&l.ID, &l.CourseID, &l.LessonNumber, &l.Title,
			&l.Description, &l.VideoURL, &l.CreatedAt, &l.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		lessons = append(lessons, &l)
	}
	return lessons, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Activities
// ─────────────────────────────────────────────────────────────────────────────

const activityColumns = `id, lesson_id, activity_number, type, title, content, required, created_at, updated_at`

// GetActivity returns an activity by internal ID.
func (r *CourseRepository) GetActivity(ctx context.Context, id string) (*course.Activity, error) {
	query := fmt.Sprintf("SELECT %s FROM activities WHERE id = $1", activityColumns)
	return r.scanActivity(r.conn.QueryRow(ctx, query, id))
}

// ListActivities returns a lesson's activities ordered by activity number.
func (r *CourseRepository) ListActivities(ctx context.Context, lessonID string) ([]*course.Activity, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM activities WHERE lesson_id = $1 ORDER BY activity_number ASC", activityColumns)

	rows, err := r.conn.Query(ctx, query, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var activities []*course.Activity
	for rows.Next() {
		var a course.Activity
		var activityType string
		err := rows.Scan(&a.ID, &a.LessonID, &a.ActivityNumber, &activityType,
			&a.Title, &a.Content, &a.Required, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		a.Type = course.ActivityType(activityType)
		activities = append(activities, &a)
	}
	return activities, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Final Assessments
// ─────────────────────────────────────────────────────────────────────────────

// GetExam returns a final exam by internal ID.
func (r *CourseRepository) GetExam(ctx context.Context, id string) (*course.FinalExam, error) {
	query := `
		SELECT id, course_id, title, questions, passing_score, created_at, updated_at
		FROM final_exams
		WHERE id = $1
	`

	var e course.FinalExam
	err := r.conn.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.CourseID, &e.Title, &e.Questions, &e.PassingScore, &e.CreatedAt, &e.UpdatedAt)
	if IsNoRows(err) {
		return nil, shared.ErrExamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	return &e, nil
}

// GetProject returns a final project definition by internal ID.
func (r *CourseRepository) GetProject(ctx context.Context, id string) (*course.FinalProject, error) {
	query := `
		SELECT id, course_id, title, brief, created_at
		FROM final_projects
		WHERE id = $1
	`

	var p course.FinalProject
	err := r.conn.QueryRow(ctx, query, id).Scan(&p.ID, &p.CourseID, &p.Title, &p.Brief, &p.CreatedAt)
	if IsNoRows(err) {
		return nil, shared.NewDomainError("course", "GetProject", shared.ErrNotFound, "final project not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &p, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER METHODS
// ══════════════════════════════════════════════════════════════════════════════

func (r *CourseRepository) scanCourse(row pgx.Row) (*course.Course, error) {
	var c course.Course
	err := row.Scan(&c.ID, &c.CourseNumber, &c.Title, &c.Description, &c.Published,
		&c.FinalProjectID, &c.FinalExamID, &c.CreatedAt, &c.UpdatedAt)
	if IsNoRows(err) {
		return nil, shared.ErrCourseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan course: %w", err)
	}
	return &c, nil
}

func (r *CourseRepository) scanCourseFromRows(rows pgx.Rows) (*course.Course, error) {
	var c course.Course
	err := rows.Scan(&c.ID, &c.CourseNumber, &c.Title, &c.Description, &c.Published,
		&c.FinalProjectID, &c.FinalExamID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan course: %w", err)
	}
	return &c, nil
}

func (r *CourseRepository) scanLesson(row pgx.Row) (*course.Lesson, error) {
	var l course.Lesson
	err := row.Scan(&l.ID, &l.CourseID, &l.LessonNumber, &l.Title,
		&l.Description, &l.VideoURL, &l.CreatedAt, &l.UpdatedAt)
	if IsNoRows(err) {
		return nil, shared.ErrLessonNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan lesson: %w", err)
	}
	return &l, nil
}

func (r *CourseRepository) scanActivity(row pgx.Row) (*course.Activity, error) {
	var a course.Activity
	var activityType string
	err := row.Scan(&a.ID, &a.LessonID, &a.ActivityNumber, &activityType,
		&a.Title, &a.Content, &a.Required, &a.CreatedAt, &a.UpdatedAt)
	if IsNoRows(err) {
		return nil, shared.ErrActivityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan activity: %w", err)
	}
	a.Type = course.ActivityType(activityType)
	return &a, nil
}
