package progress

import (
	"math"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/course"
)

// ══════════════════════════════════════════════════════════════════════════════
// GRADING ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// GradeResult is the outcome of auto-grading one exam submission.
type GradeResult struct {
	// Score is the rounded percentage of points awarded [0,100].
	Score int

	// PointsAwarded and TotalPoints are the raw tallies behind Score.
	PointsAwarded int
	TotalPoints   int

	// RequiresManualGrading is true when at least one answered question
	// cannot be auto-graded.
	RequiresManualGrading bool
}

// GradingEngine auto-grades final exam submissions. Short answer
// questions are never auto-graded; their presence forces the result into
// manual review and withholds any pass verdict.
type GradingEngine struct{}

// NewGradingEngine creates a grading engine.
func NewGradingEngine() *GradingEngine {
	return &GradingEngine{}
}

// Grade scores a set of answers against the exam's questions. Answers map
// question ID to the submitted answer text; an auto-gradable question is
// awarded its points iff the answer matches the correct option's text.
// Unanswered questions score zero and never trigger manual review.
func (g *GradingEngine) Grade(questions []course.ExamQuestion, answers map[string]string) GradeResult {
	var result GradeResult
	for _, q := range questions {
		result.TotalPoints += q.Points

		answer, ok := answers[q.ID]
		if !ok || answer == "" {
			continue
		}

		switch q.Type {
		case course.QuestionTypeMultipleChoice, course.QuestionTypeTrueFalse:
			if correct := q.CorrectOption(); correct != nil && answer == correct.Text {
				result.PointsAwarded += q.Points
			}
		case course.QuestionTypeShortAnswer:
			result.RequiresManualGrading = true
		}
	}

	if result.TotalPoints > 0 {
		result.Score = int(math.Round(float64(result.PointsAwarded) / float64(result.TotalPoints) * 100))
	}
	return result
}

// Outcome derives the stored grading status and pass verdict from a grade
// result. A result awaiting manual review is never passed, whatever the
// auto-graded score.
func (g *GradingEngine) Outcome(result GradeResult, passingScore int) (GradingStatus, bool) {
	if result.RequiresManualGrading {
		return GradingStatusPendingReview, false
	}
	return GradingStatusGraded, result.Score >= passingScore
}
