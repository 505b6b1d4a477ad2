package course

import (
	"context"
)

// Repository provides read access to the authored catalog.
//
// Implementations must return errors whose Kind matches shared.ErrNotFound
// when an entity does not exist, so callers can translate uniformly.
type Repository interface {
	// GetCourse returns a course by internal ID.
	GetCourse(ctx context.Context, id string) (*Course, error)

	// GetCourseByNumber returns the course at a position in the sequence.
	GetCourseByNumber(ctx context.Context, number int) (*Course, error)

	// ListCourses returns all published courses ordered by course number.
	ListCourses(ctx context.Context) ([]*Course, error)

	// GetLesson returns a lesson by internal ID.
	GetLesson(ctx context.Context, id string) (*Lesson, error)

	// GetLessonByNumber returns the lesson at a position within a course.
	GetLessonByNumber(ctx context.Context, courseID string, number int) (*Lesson, error)

	// ListLessons returns a course's lessons ordered by lesson number.
	ListLessons(ctx context.Context, courseID string) ([]*Lesson, error)

	// GetActivity returns an activity by internal ID.
	GetActivity(ctx context.Context, id string) (*Activity, error)

	// ListActivities returns a lesson's activities ordered by activity number.
	ListActivities(ctx context.Context, lessonID string) ([]*Activity, error)

	// GetExam returns a final exam by internal ID.
	GetExam(ctx context.Context, id string) (*FinalExam, error)

	// GetProject returns a final project definition by internal ID.
	GetProject(ctx context.Context, id string) (*FinalProject, error)
}
