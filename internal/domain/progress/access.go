package progress

import (
	"context"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/course"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACCESS EVALUATOR
// ══════════════════════════════════════════════════════════════════════════════

// AccessEvaluator decides whether a user may enter a course, lesson or
// activity. Lock state is a pure function of the unit's position and the
// user's watermarks; nothing is stored per unit.
//
// Every check fails closed: unknown users, missing enrollments and
// unpublished content all read as locked.
type AccessEvaluator struct {
	courses     course.Repository
	enrollments EnrollmentRepository
	lessons     LessonProgressRepository
}

// NewAccessEvaluator creates an access evaluator.
func NewAccessEvaluator(
	courses course.Repository,
	enrollments EnrollmentRepository,
	lessons LessonProgressRepository,
) *AccessEvaluator {
	return &AccessEvaluator{
		courses:     courses,
		enrollments: enrollments,
		lessons:     lessons,
	}
}

// CanAccessCourse reports whether the course is unlocked for the user.
// A course is accessible iff its course number does not exceed the user's
// effective unlocked-courses watermark.
func (e *AccessEvaluator) CanAccessCourse(ctx context.Context, userID, courseID string) (bool, error) {
	c, err := e.courses.GetCourse(ctx, courseID)
	if err != nil {
		return false, err
	}
	if !c.Published {
		return false, nil
	}

	watermark, err := e.enrollments.EffectiveWatermark(ctx, userID)
	if err != nil {
		return false, err
	}
	return c.CourseNumber <= watermark, nil
}

// CanAccessLesson reports whether the lesson is unlocked for the user.
// Requires an enrollment in the lesson's course; the lesson is accessible
// iff its lesson number does not exceed the enrollment's lesson watermark.
func (e *AccessEvaluator) CanAccessLesson(ctx context.Context, userID, lessonID string) (bool, error) {
	l, err := e.courses.GetLesson(ctx, lessonID)
	if err != nil {
		return false, err
	}

	enrollment, err := e.enrollments.Get(ctx, userID, l.CourseID)
	if err != nil {
		if shared.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return l.LessonNumber <= enrollment.CurrentLesson, nil
}

// CanAccessActivity reports whether the activity is unlocked for the user.
// The containing lesson must itself be accessible, and the activity number
// must not exceed the lesson's activity watermark. Users with no progress
// row yet may only access activity 1.
func (e *AccessEvaluator) CanAccessActivity(ctx context.Context, userID, activityID string) (bool, error) {
	a, err := e.courses.GetActivity(ctx, activityID)
	if err != nil {
		return false, err
	}

	lessonOK, err := e.CanAccessLesson(ctx, userID, a.LessonID)
	if err != nil {
		return false, err
	}
	if !lessonOK {
		return false, nil
	}

	currentActivity := 1
	lp, err := e.lessons.Get(ctx, userID, a.LessonID)
	switch {
	case err == nil:
		currentActivity = lp.CurrentActivity
	case shared.IsNotFound(err):
		// First interaction with the lesson; the cursor starts at 1.
	default:
		return false, err
	}
	return a.ActivityNumber <= currentActivity, nil
}
