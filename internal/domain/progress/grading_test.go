package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/course"
)

func examQuestions() []course.ExamQuestion {
	return []course.ExamQuestion{
		{
			ID:     "q1",
			Type:   course.QuestionTypeMultipleChoice,
			Points: 10,
			Options: []course.ExamOption{
				{Text: "Paris", IsCorrect: true},
				{Text: "London"},
			},
		},
		{
			ID:     "q2",
			Type:   course.QuestionTypeTrueFalse,
			Points: 5,
			Options: []course.ExamOption{
				{Text: "true", IsCorrect: true},
				{Text: "false"},
			},
		},
		{
			ID:     "q3",
			Type:   course.QuestionTypeMultipleChoice,
			Points: 5,
			Options: []course.ExamOption{
				{Text: "4", IsCorrect: true},
				{Text: "5"},
			},
		},
	}
}

func TestGradeAllCorrect(t *testing.T) {
	g := NewGradingEngine()

	result := g.Grade(examQuestions(), map[string]string{"q1": "Paris", "q2": "true", "q3": "4"})

	assert.Equal(t, 100, result.Score)
	assert.Equal(t, 20, result.PointsAwarded)
	assert.Equal(t, 20, result.TotalPoints)
	assert.False(t, result.RequiresManualGrading)

	status, passed := g.Outcome(result, 70)
	assert.Equal(t, GradingStatusGraded, status)
	assert.True(t, passed)
}

func TestGradePartial(t *testing.T) {
	g := NewGradingEngine()

	result := g.Grade(examQuestions(), map[string]string{"q1": "Paris", "q2": "false", "q3": "5"})

	assert.Equal(t, 10, result.PointsAwarded)
	assert.Equal(t, 50, result.Score)

	status, passed := g.Outcome(result, 70)
	assert.Equal(t, GradingStatusGraded, status)
	assert.False(t, passed)
}

func TestGradeUnansweredScoresZero(t *testing.T) {
	g := NewGradingEngine()

	result := g.Grade(examQuestions(), map[string]string{"q1": "Paris"})

	assert.Equal(t, 10, result.PointsAwarded)
	assert.Equal(t, 50, result.Score)
	assert.False(t, result.RequiresManualGrading)
}

func TestGradeShortAnswerForcesReview(t *testing.T) {
	g := NewGradingEngine()
	questions := append(examQuestions(), course.ExamQuestion{
		ID: "q4", Type: course.QuestionTypeShortAnswer, Points: 10, Prompt: "Explain your reasoning",
	})

	// A perfect auto-graded score still cannot pass while review is pending.
	result := g.Grade(questions, map[string]string{
		"q1": "Paris", "q2": "true", "q3": "4", "q4": "free text answer",
	})

	assert.True(t, result.RequiresManualGrading)
	assert.Equal(t, 20, result.PointsAwarded)
	assert.Equal(t, 30, result.TotalPoints)

	status, passed := g.Outcome(result, 50)
	assert.Equal(t, GradingStatusPendingReview, status)
	assert.False(t, passed)
}

func TestGradeUnansweredShortAnswerStaysAutomatic(t *testing.T) {
	g := NewGradingEngine()
	questions := append(examQuestions(), course.ExamQuestion{
		ID: "q4", Type: course.QuestionTypeShortAnswer, Points: 10,
	})

	result := g.Grade(questions, map[string]string{"q1": "Paris", "q2": "true", "q3": "4"})

	assert.False(t, result.RequiresManualGrading, "an unanswered short answer question scores zero without review")
	assert.Equal(t, 67, result.Score)
}

func TestGradeEmptyExam(t *testing.T) {
	g := NewGradingEngine()

	result := g.Grade(nil, nil)

	assert.Equal(t, 0, result.Score)
	assert.Equal(t, 0, result.TotalPoints)
}
