package command

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/course"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/progress"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/shared"
)

// seedTwoLessonCourse builds course c1 with two lessons; lesson l1 has an
// exercise and a one-question quiz, lesson l2 has a single exercise.
func seedTwoLessonCourse(e *env) {
	e.catalog.courses["c1"] = &course.Course{ID: "c1", CourseNumber: 1, Title: "Foundations", Published: true}
	e.catalog.lessons["l1"] = &course.Lesson{ID: "l1", CourseID: "c1", LessonNumber: 1}
	e.catalog.lessons["l2"] = &course.Lesson{ID: "l2", CourseID: "c1", LessonNumber: 2}

	quiz, _ := json.Marshal(course.QuizContent{Questions: []course.QuizQuestion{
		{Question: "1+1?", Options: []string{"2", "3"}, CorrectAnswer: 0},
	}})
	e.catalog.activities["a1"] = &course.Activity{
		ID: "a1", LessonID: "l1", ActivityNumber: 1, Type: course.ActivityTypeExercise, Required: true}
	e.catalog.activities["a2"] = &course.Activity{
		ID: "a2", LessonID: "l1", ActivityNumber: 2, Type: course.ActivityTypeQuiz, Content: quiz, Required: true}
	e.catalog.activities["b1"] = &course.Activity{
		ID: "b1", LessonID: "l2", ActivityNumber: 1, Type: course.ActivityTypeExercise, Required: true}
}

func enrollUser(t *testing.T, e *env, userID, courseID string) {
	t.Helper()
	require.NoError(t, e.enrollments.Create(context.Background(),
		progress.NewEnrollment(userID, courseID, 1, time.Now())))
}

func TestSubmitActivity_AdvancesCursor(t *testing.T) {
	e := newEnv()
	seedTwoLessonCourse(e)
	enrollUser(t, e, "u1", "c1")

	result, err := e.submitActivity.Handle(context.Background(), SubmitActivityCommand{
		UserID: "u1", ActivityID: "a1", Response: json.RawMessage(`{"answer":"done"}`),
	})
	require.NoError(t, err)

	assert.True(t, result.Completed)
	assert.Equal(t, 2, result.NextActivityNumber)
	assert.False(t, result.LessonCompleted, "required quiz still outstanding")
}

func TestSubmitActivity_LockedActivityRejected(t *testing.T) {
	e := newEnv()
	seedTwoLessonCourse(e)
	enrollUser(t, e, "u1", "c1")

	_, err := e.submitActivity.Handle(context.Background(), SubmitActivityCommand{
		UserID: "u1", ActivityID: "a2", Response: json.RawMessage(`{"answers":[0]}`),
	})

	assert.True(t, shared.IsForbidden(err), "activity 2 is locked while activity 1 is incomplete")
}

func TestSubmitActivity_InvalidSubmissionLeavesStateUntouched(t *testing.T) {
	e := newEnv()
	seedTwoLessonCourse(e)
	enrollUser(t, e, "u1", "c1")

	_, err := e.submitActivity.Handle(context.Background(), SubmitActivityCommand{
		UserID: "u1", ActivityID: "a1", Response: json.RawMessage(`{"answer":"   "}`),
	})
	assert.True(t, shared.IsInvalidSubmission(err))

	_, err = e.lessonProg.Get(context.Background(), "u1", "l1")
	assert.True(t, shared.IsNotFound(err), "rejected submission must not create progress state")
	_, err = e.submissions.Get(context.Background(), "u1", "a1")
	assert.True(t, shared.IsNotFound(err))
}

func TestSubmitActivity_CompletesLesson(t *testing.T) {
	e := newEnv()
	seedTwoLessonCourse(e)
	enrollUser(t, e, "u1", "c1")
	ctx := context.Background()

	_, err := e.submitActivity.Handle(ctx, SubmitActivityCommand{
		UserID: "u1", ActivityID: "a1", Response: json.RawMessage(`{"answer":"done"}`),
	})
	require.NoError(t, err)

	result, err := e.submitActivity.Handle(ctx, SubmitActivityCommand{
		UserID: "u1", ActivityID: "a2", Response: json.RawMessage(`{"answers":[0]}`),
	})
	require.NoError(t, err)

	assert.True(t, result.LessonCompleted)
	assert.Contains(t, result.Feedback, "1 out of 1 correct (100%)")

	enrollment, err := e.enrollments.Get(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, enrollment.CurrentLesson, "lesson watermark advances to the next lesson")

	assert.Len(t, e.publisher.ofType(shared.EventLessonCompleted), 1)
}

func TestSubmitActivity_ResubmissionDoesNotRepeatCompletion(t *testing.T) {
	e := newEnv()
	seedTwoLessonCourse(e)
	enrollUser(t, e, "u1", "c1")
	ctx := context.Background()

	for _, c := range []SubmitActivityCommand{
		{UserID: "u1", ActivityID: "a1", Response: json.RawMessage(`{"answer":"done"}`)},
		{UserID: "u1", ActivityID: "a2", Response: json.RawMessage(`{"answers":[0]}`)},
	} {
		_, err := e.submitActivity.Handle(ctx, c)
		require.NoError(t, err)
	}

	result, err := e.submitActivity.Handle(ctx, SubmitActivityCommand{
		UserID: "u1", ActivityID: "a1", Response: json.RawMessage(`{"answer":"revised"}`),
	})
	require.NoError(t, err)

	assert.False(t, result.LessonCompleted, "lesson already completed earlier")
	assert.Len(t, e.publisher.ofType(shared.EventLessonCompleted), 1, "completion event fires once")

	saved, err := e.submissions.Get(ctx, "u1", "a1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"answer":"revised"}`, string(saved.Response), "resubmission overwrites")
}

func TestSubmitActivity_WatermarkNeverDecreases(t *testing.T) {
	e := newEnv()
	seedTwoLessonCourse(e)
	enrollUser(t, e, "u1", "c1")
	ctx := context.Background()

	// Complete lesson 1, then go back and resubmit activity 1.
	for _, c := range []SubmitActivityCommand{
		{UserID: "u1", ActivityID: "a1", Response: json.RawMessage(`{"answer":"done"}`)},
		{UserID: "u1", ActivityID: "a2", Response: json.RawMessage(`{"answers":[0]}`)},
		{UserID: "u1", ActivityID: "a1", Response: json.RawMessage(`{"answer":"again"}`)},
	} {
		_, err := e.submitActivity.Handle(ctx, c)
		require.NoError(t, err)
	}

	lp, err := e.lessonProg.Get(ctx, "u1", "l1")
	require.NoError(t, err)
	assert.Equal(t, 2, lp.CurrentActivity, "revisiting an earlier activity never lowers the cursor")

	enrollment, err := e.enrollments.Get(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, enrollment.CurrentLesson)
}

func TestSubmitActivity_LastLessonCompletesCourse(t *testing.T) {
	e := newEnv()
	seedTwoLessonCourse(e)
	enrollUser(t, e, "u1", "c1")
	ctx := context.Background()

	for _, c := range []SubmitActivityCommand{
		{UserID: "u1", ActivityID: "a1", Response: json.RawMessage(`{"answer":"done"}`)},
		{UserID: "u1", ActivityID: "a2", Response: json.RawMessage(`{"answers":[0]}`)},
	} {
		_, err := e.submitActivity.Handle(ctx, c)
		require.NoError(t, err)
	}

	result, err := e.submitActivity.Handle(ctx, SubmitActivityCommand{
		UserID: "u1", ActivityID: "b1", Response: json.RawMessage(`{"answer":"final"}`),
	})
	require.NoError(t, err)

	assert.True(t, result.CourseCompleted, "course without final assessments completes with its last lesson")

	enrollment, err := e.enrollments.Get(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.True(t, enrollment.IsCompleted())
	assert.Equal(t, 2, enrollment.UnlockedCourses)

	assert.Len(t, e.publisher.ofType(shared.EventCourseCompleted), 1)
}

func TestSubmitActivity_CursorStopsAtLastActivity(t *testing.T) {
	e := newEnv()
	seedTwoLessonCourse(e)
	enrollUser(t, e, "u1", "c1")
	ctx := context.Background()

	_, err := e.submitActivity.Handle(ctx, SubmitActivityCommand{
		UserID: "u1", ActivityID: "a1", Response: json.RawMessage(`{"answer":"done"}`),
	})
	require.NoError(t, err)

	result, err := e.submitActivity.Handle(ctx, SubmitActivityCommand{
		UserID: "u1", ActivityID: "a2", Response: json.RawMessage(`{"answers":[0]}`),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.NextActivityNumber,
		"submitting the last activity does not point the cursor past the lesson")

	lp, err := e.lessonProg.Get(ctx, "u1", "l1")
	require.NoError(t, err)
	assert.Equal(t, 2, lp.CurrentActivity)
}

func TestSubmitActivity_OptionalActivityDoesNotGate(t *testing.T) {
	e := newEnv()
	seedTwoLessonCourse(e)
	// A third, optional activity on lesson 1.
	e.catalog.activities["a3"] = &course.Activity{
		ID: "a3", LessonID: "l1", ActivityNumber: 3, Type: course.ActivityTypeExercise, Required: false}
	enrollUser(t, e, "u1", "c1")
	ctx := context.Background()

	_, err := e.submitActivity.Handle(ctx, SubmitActivityCommand{
		UserID: "u1", ActivityID: "a1", Response: json.RawMessage(`{"answer":"done"}`),
	})
	require.NoError(t, err)

	result, err := e.submitActivity.Handle(ctx, SubmitActivityCommand{
		UserID: "u1", ActivityID: "a2", Response: json.RawMessage(`{"answers":[0]}`),
	})
	require.NoError(t, err)

	assert.True(t, result.LessonCompleted, "optional activity does not block lesson completion")
}
