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

// seedExamCourse builds course c2 with one lesson, a final project p1 and
// a final exam e1 with two auto-gradable questions worth 10 points each.
func seedExamCourse(e *env, withProject bool) {
	c := &course.Course{ID: "c2", CourseNumber: 2, Title: "Intermediate", Published: true, FinalExamID: "e1"}
	if withProject {
		c.FinalProjectID = "p1"
		e.catalog.projects["p1"] = &course.FinalProject{ID: "p1", CourseID: "c2", Title: "Capstone"}
	}
	e.catalog.courses["c2"] = c
	e.catalog.lessons["cl1"] = &course.Lesson{ID: "cl1", CourseID: "c2", LessonNumber: 1}

	questions, _ := json.Marshal([]course.ExamQuestion{
		{ID: "q1", Type: course.QuestionTypeMultipleChoice, Points: 10, Options: []course.ExamOption{
			{Text: "Paris", IsCorrect: true}, {Text: "London"},
		}},
		{ID: "q2", Type: course.QuestionTypeTrueFalse, Points: 10, Options: []course.ExamOption{
			{Text: "true", IsCorrect: true}, {Text: "false"},
		}},
	})
	e.catalog.exams["e1"] = &course.FinalExam{ID: "e1", CourseID: "c2", Questions: questions, PassingScore: 70}
}

// finishLessons marks every lesson of the course completed for the user.
func finishLessons(t *testing.T, e *env, userID, courseID string) {
	t.Helper()
	ctx := context.Background()
	lessons, err := e.catalog.ListLessons(ctx, courseID)
	require.NoError(t, err)
	for _, l := range lessons {
		_, err := e.lessonProg.MarkCompleted(ctx, userID, l.ID, time.Now())
		require.NoError(t, err)
	}
}

func TestSubmitFinalExam_PassCompletesCourse(t *testing.T) {
	e := newEnv()
	seedExamCourse(e, false)
	enrollUser(t, e, "u1", "c2")
	finishLessons(t, e, "u1", "c2")

	result, err := e.submitExam.Handle(context.Background(), SubmitFinalExamCommand{
		UserID: "u1", ExamID: "e1", Answers: map[string]string{"q1": "Paris", "q2": "true"},
	})
	require.NoError(t, err)

	assert.Equal(t, 100, result.Score)
	assert.True(t, result.Passed)
	assert.Equal(t, progress.GradingStatusGraded, result.GradingStatus)
	assert.True(t, result.CourseCompleted)

	enrollment, err := e.enrollments.Get(context.Background(), "u1", "c2")
	require.NoError(t, err)
	assert.Equal(t, 3, enrollment.UnlockedCourses, "passing raises the watermark past course 2")

	assert.Len(t, e.publisher.ofType(shared.EventExamSubmitted), 1)
	assert.Len(t, e.publisher.ofType(shared.EventCourseCompleted), 1)
}

func TestSubmitFinalExam_FailBelowPassingScore(t *testing.T) {
	e := newEnv()
	seedExamCourse(e, false)
	enrollUser(t, e, "u1", "c2")
	finishLessons(t, e, "u1", "c2")

	result, err := e.submitExam.Handle(context.Background(), SubmitFinalExamCommand{
		UserID: "u1", ExamID: "e1", Answers: map[string]string{"q1": "Paris", "q2": "false"},
	})
	require.NoError(t, err)

	assert.Equal(t, 50, result.Score)
	assert.False(t, result.Passed)
	assert.False(t, result.CourseCompleted)
	assert.Empty(t, e.publisher.ofType(shared.EventCourseCompleted))
}

func TestSubmitFinalExam_ShortAnswerForcesPendingReview(t *testing.T) {
	e := newEnv()
	seedExamCourse(e, false)
	questions, _ := json.Marshal([]course.ExamQuestion{
		{ID: "q1", Type: course.QuestionTypeMultipleChoice, Points: 10, Options: []course.ExamOption{
			{Text: "Paris", IsCorrect: true},
		}},
		{ID: "q2", Type: course.QuestionTypeShortAnswer, Points: 10, Prompt: "Explain"},
	})
	e.catalog.exams["e1"].Questions = questions
	enrollUser(t, e, "u1", "c2")
	finishLessons(t, e, "u1", "c2")

	result, err := e.submitExam.Handle(context.Background(), SubmitFinalExamCommand{
		UserID: "u1", ExamID: "e1", Answers: map[string]string{"q1": "Paris", "q2": "because"},
	})
	require.NoError(t, err)

	assert.Equal(t, progress.GradingStatusPendingReview, result.GradingStatus)
	assert.False(t, result.Passed, "never passed while pending review")
	assert.False(t, result.CourseCompleted)
	assert.Empty(t, e.publisher.events, "pending results emit nothing")

	stored, err := e.examResults.Get(context.Background(), "u1", "e1")
	require.NoError(t, err)
	assert.Equal(t, progress.GradingStatusPendingReview, stored.GradingStatus)
}

func TestSubmitFinalExam_ProjectGate(t *testing.T) {
	e := newEnv()
	seedExamCourse(e, true)
	enrollUser(t, e, "u1", "c2")
	finishLessons(t, e, "u1", "c2")
	ctx := context.Background()

	// No project submitted yet.
	_, err := e.submitExam.Handle(ctx, SubmitFinalExamCommand{
		UserID: "u1", ExamID: "e1", Answers: map[string]string{"q1": "Paris", "q2": "true"},
	})
	assert.True(t, shared.IsPreconditionFailed(err))

	// Pending project still blocks.
	_, err = e.submitProject.Handle(ctx, SubmitFinalProjectCommand{
		UserID: "u1", ProjectID: "p1", RepoURL: "https://example.com/r",
	})
	require.NoError(t, err)
	_, err = e.submitExam.Handle(ctx, SubmitFinalExamCommand{
		UserID: "u1", ExamID: "e1", Answers: map[string]string{"q1": "Paris", "q2": "true"},
	})
	assert.True(t, shared.IsPreconditionFailed(err))

	// Approval opens the exam.
	_, err = e.reviewProject.Handle(ctx, ReviewFinalProjectCommand{
		UserID: "u1", ProjectID: "p1", Status: progress.ProjectStatusApproved,
	})
	require.NoError(t, err)

	result, err := e.submitExam.Handle(ctx, SubmitFinalExamCommand{
		UserID: "u1", ExamID: "e1", Answers: map[string]string{"q1": "Paris", "q2": "true"},
	})
	require.NoError(t, err)
	assert.True(t, result.Passed)
	assert.True(t, result.CourseCompleted)
}

func TestSubmitFinalExam_RetakeOverwrites(t *testing.T) {
	e := newEnv()
	seedExamCourse(e, false)
	enrollUser(t, e, "u1", "c2")
	finishLessons(t, e, "u1", "c2")
	ctx := context.Background()

	_, err := e.submitExam.Handle(ctx, SubmitFinalExamCommand{
		UserID: "u1", ExamID: "e1", Answers: map[string]string{"q1": "London", "q2": "false"},
	})
	require.NoError(t, err)

	result, err := e.submitExam.Handle(ctx, SubmitFinalExamCommand{
		UserID: "u1", ExamID: "e1", Answers: map[string]string{"q1": "Paris", "q2": "true"},
	})
	require.NoError(t, err)
	assert.True(t, result.Passed)

	stored, err := e.examResults.Get(ctx, "u1", "e1")
	require.NoError(t, err)
	assert.Equal(t, 100, stored.Score, "retake replaces the stored result")
}

func TestSubmitFinalProject_LockedUntilLessonsDone(t *testing.T) {
	e := newEnv()
	seedExamCourse(e, true)
	enrollUser(t, e, "u1", "c2")

	_, err := e.submitProject.Handle(context.Background(), SubmitFinalProjectCommand{
		UserID: "u1", ProjectID: "p1", RepoURL: "https://example.com/r",
	})
	assert.True(t, shared.IsForbidden(err))
}

func TestReviewFinalProject_NeedsRevisionAllowsResubmit(t *testing.T) {
	e := newEnv()
	seedExamCourse(e, true)
	enrollUser(t, e, "u1", "c2")
	finishLessons(t, e, "u1", "c2")
	ctx := context.Background()

	_, err := e.submitProject.Handle(ctx, SubmitFinalProjectCommand{
		UserID: "u1", ProjectID: "p1", RepoURL: "https://example.com/r",
	})
	require.NoError(t, err)

	review, err := e.reviewProject.Handle(ctx, ReviewFinalProjectCommand{
		UserID: "u1", ProjectID: "p1", Status: progress.ProjectStatusNeedsRevision,
	})
	require.NoError(t, err)
	assert.False(t, review.CourseCompleted)

	// Resubmission goes back to pending and can be reviewed again.
	_, err = e.submitProject.Handle(ctx, SubmitFinalProjectCommand{
		UserID: "u1", ProjectID: "p1", RepoURL: "https://example.com/r2",
	})
	require.NoError(t, err)

	stored, err := e.projects.Get(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.Equal(t, progress.ProjectStatusPending, stored.Status)
}
