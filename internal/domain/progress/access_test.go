package progress

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/course"
)

func seedCatalog() *fakeCatalog {
	catalog := newFakeCatalog()
	catalog.courses["c1"] = &course.Course{ID: "c1", CourseNumber: 1, Title: "Foundations", Published: true}
	catalog.courses["c2"] = &course.Course{ID: "c2", CourseNumber: 2, Title: "Intermediate", Published: true}
	catalog.courses["c3"] = &course.Course{ID: "c3", CourseNumber: 3, Title: "Draft", Published: false}
	catalog.lessons["l1"] = &course.Lesson{ID: "l1", CourseID: "c1", LessonNumber: 1}
	catalog.lessons["l2"] = &course.Lesson{ID: "l2", CourseID: "c1", LessonNumber: 2}
	catalog.activities["a1"] = &course.Activity{ID: "a1", LessonID: "l1", ActivityNumber: 1, Type: course.ActivityTypeExercise}
	catalog.activities["a2"] = &course.Activity{ID: "a2", LessonID: "l1", ActivityNumber: 2, Type: course.ActivityTypeExercise}
	catalog.activities["a3"] = &course.Activity{ID: "a3", LessonID: "l1", ActivityNumber: 3, Type: course.ActivityTypeExercise}
	return catalog
}

func TestCanAccessCourse(t *testing.T) {
	ctx := context.Background()
	catalog := seedCatalog()
	enrollments := newFakeEnrollments()
	evaluator := NewAccessEvaluator(catalog, enrollments, newFakeLessonProgress())

	require.NoError(t, enrollments.Create(ctx, NewEnrollment("u1", "c1", 1, time.Now())))

	ok, err := evaluator.CanAccessCourse(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.True(t, ok, "first course is always unlocked")

	ok, err = evaluator.CanAccessCourse(ctx, "u1", "c2")
	require.NoError(t, err)
	assert.False(t, ok, "second course is locked until the first is completed")

	// Completing course 1 raises the watermark to 2.
	_, err = enrollments.CompleteAndPropagate(ctx, "u1", "c1", time.Now(), 2)
	require.NoError(t, err)

	ok, err = evaluator.CanAccessCourse(ctx, "u1", "c2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCanAccessCourse_UnpublishedIsLocked(t *testing.T) {
	ctx := context.Background()
	evaluator := NewAccessEvaluator(seedCatalog(), newFakeEnrollments(), newFakeLessonProgress())

	ok, err := evaluator.CanAccessCourse(ctx, "u1", "c3")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanAccessCourse_WatermarkSpansEnrollments(t *testing.T) {
	ctx := context.Background()
	catalog := seedCatalog()
	enrollments := newFakeEnrollments()
	evaluator := NewAccessEvaluator(catalog, enrollments, newFakeLessonProgress())

	// A watermark earned anywhere unlocks courses everywhere.
	require.NoError(t, enrollments.Create(ctx, NewEnrollment("u1", "c1", 1, time.Now())))
	_, err := enrollments.CompleteAndPropagate(ctx, "u1", "c1", time.Now(), 2)
	require.NoError(t, err)

	ok, err := evaluator.CanAccessCourse(ctx, "u1", "c2")
	require.NoError(t, err)
	assert.True(t, ok, "watermark from the completed enrollment applies before enrolling in c2")
}

func TestCanAccessLesson(t *testing.T) {
	ctx := context.Background()
	catalog := seedCatalog()
	enrollments := newFakeEnrollments()
	evaluator := NewAccessEvaluator(catalog, enrollments, newFakeLessonProgress())

	require.NoError(t, enrollments.Create(ctx, NewEnrollment("u1", "c1", 1, time.Now())))

	ok, err := evaluator.CanAccessLesson(ctx, "u1", "l1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = evaluator.CanAccessLesson(ctx, "u1", "l2")
	require.NoError(t, err)
	assert.False(t, ok, "lesson 2 is locked while the watermark sits at 1")

	require.NoError(t, enrollments.RaiseCurrentLesson(ctx, "u1", "c1", 2))

	ok, err = evaluator.CanAccessLesson(ctx, "u1", "l2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCanAccessLesson_NoEnrollment(t *testing.T) {
	ctx := context.Background()
	evaluator := NewAccessEvaluator(seedCatalog(), newFakeEnrollments(), newFakeLessonProgress())

	ok, err := evaluator.CanAccessLesson(ctx, "stranger", "l1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanAccessActivity(t *testing.T) {
	ctx := context.Background()
	catalog := seedCatalog()
	enrollments := newFakeEnrollments()
	lessons := newFakeLessonProgress()
	evaluator := NewAccessEvaluator(catalog, enrollments, lessons)

	require.NoError(t, enrollments.Create(ctx, NewEnrollment("u1", "c1", 1, time.Now())))

	// No progress row yet: only activity 1 is open.
	ok, err := evaluator.CanAccessActivity(ctx, "u1", "a1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = evaluator.CanAccessActivity(ctx, "u1", "a2")
	require.NoError(t, err)
	assert.False(t, ok)

	// Completing activity 1 advances the cursor to 2; activity 3 stays locked.
	require.NoError(t, lessons.AdvanceActivityCursor(ctx, "u1", "l1", 2))

	ok, err = evaluator.CanAccessActivity(ctx, "u1", "a2")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = evaluator.CanAccessActivity(ctx, "u1", "a3")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanAccessActivity_LockedLessonGates(t *testing.T) {
	ctx := context.Background()
	catalog := seedCatalog()
	catalog.activities["b1"] = &course.Activity{ID: "b1", LessonID: "l2", ActivityNumber: 1}
	enrollments := newFakeEnrollments()
	evaluator := NewAccessEvaluator(catalog, enrollments, newFakeLessonProgress())

	require.NoError(t, enrollments.Create(ctx, NewEnrollment("u1", "c1", 1, time.Now())))

	ok, err := evaluator.CanAccessActivity(ctx, "u1", "b1")
	require.NoError(t, err)
	assert.False(t, ok, "first activity of a locked lesson is still locked")
}
