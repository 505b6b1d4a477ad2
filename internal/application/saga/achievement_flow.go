// Package saga contains multi-step business processes that orchestrate
// several domain operations in a coordinated manner.
package saga

import (
	"context"
	"errors"
	"time"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/achievement"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT FLOW SAGA
// Flow: Evaluate Candidates → Grant (insert-as-check) → Publish Events
//
// The flow is safe to re-run with the same input: granting is keyed on
// (user, title) at the storage layer, so a re-delivered event produces no
// second grant and no second unlocked event.
// ══════════════════════════════════════════════════════════════════════════════

// Trigger identifies what kind of milestone starts the flow.
type Trigger string

const (
	TriggerLessonCompleted Trigger = "lesson_completed"
	TriggerCourseCompleted Trigger = "course_completed"
	TriggerExamGraded      Trigger = "exam_graded"
)

// AchievementCheckInput contains the milestone to evaluate.
type AchievementCheckInput struct {
	UserID  string
	Trigger Trigger

	// LessonsCompleted - total completed lessons (lesson_completed).
	LessonsCompleted int

	// CourseID, CourseTitle, CoursesCompleted - course milestone data
	// (course_completed).
	CourseID         string
	CourseTitle      string
	CoursesCompleted int

	// ExamScore - the auto-graded score (exam_graded).
	ExamScore int
}

// Validate checks if the input is valid.
func (i AchievementCheckInput) Validate() error {
	if i.UserID == "" {
		return errors.New("achievement_flow: user ID is required")
	}
	switch i.Trigger {
	case TriggerLessonCompleted, TriggerCourseCompleted, TriggerExamGraded:
		return nil
	default:
		return errors.New("achievement_flow: unknown trigger")
	}
}

// AchievementFlowResult contains the result of one flow run.
type AchievementFlowResult struct {
	UserID          string
	NewAchievements []*achievement.Achievement
	ProcessedAt     time.Time
}

// HasNewAchievements returns true if any achievements were unlocked.
func (r *AchievementFlowResult) HasNewAchievements() bool {
	return len(r.NewAchievements) > 0
}

// AchievementFlowSaga evaluates milestones and grants what they unlock.
type AchievementFlowSaga struct {
	achievementRepo achievement.Repository
	evaluator       *achievement.Evaluator
	eventPublisher  shared.EventPublisher
}

// NewAchievementFlowSaga creates a new AchievementFlowSaga.
func NewAchievementFlowSaga(
	achievementRepo achievement.Repository,
	evaluator *achievement.Evaluator,
	eventPublisher shared.EventPublisher,
) *AchievementFlowSaga {
	return &AchievementFlowSaga{
		achievementRepo: achievementRepo,
		evaluator:       evaluator,
		eventPublisher:  eventPublisher,
	}
}

// Execute runs the achievement flow for one milestone.
func (s *AchievementFlowSaga) Execute(ctx context.Context, input AchievementCheckInput) (*AchievementFlowResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var candidates []*achievement.Achievement
	switch input.Trigger {
	case TriggerLessonCompleted:
		candidates = s.evaluator.OnLessonCompleted(input.UserID, input.LessonsCompleted)
	case TriggerCourseCompleted:
		candidates = s.evaluator.OnCourseCompleted(
			input.UserID, input.CourseID, input.CourseTitle, input.CoursesCompleted)
	case TriggerExamGraded:
		candidates = s.evaluator.OnExamGraded(input.UserID, input.CourseID, input.ExamScore)
	}

	result := &AchievementFlowResult{UserID: input.UserID, ProcessedAt: time.Now().UTC()}

	for _, candidate := range candidates {
		granted, err := s.achievementRepo.Grant(ctx, candidate)
		if err != nil {
			return result, err
		}
		if !granted {
			continue
		}
		result.NewAchievements = append(result.NewAchievements, candidate)
		_ = s.eventPublisher.Publish(shared.NewAchievementUnlockedEvent(
			candidate.UserID, candidate.Title, string(candidate.Rarity)))
	}

	return result, nil
}
