package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/course"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/progress"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT FINAL EXAM COMMAND
// Auto-grades an exam submission. Short answer questions push the result
// into manual review, which withholds the pass verdict and every
// downstream effect until a human finishes grading. A retake overwrites
// the previous result.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitFinalExamCommand contains the data to submit a final exam.
type SubmitFinalExamCommand struct {
	UserID string
	ExamID string

	// Answers map question ID to the submitted answer text.
	Answers map[string]string
}

// Validate validates the command.
func (c SubmitFinalExamCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("submit_final_exam: user_id is required")
	}
	if c.ExamID == "" {
		return errors.New("submit_final_exam: exam_id is required")
	}
	if len(c.Answers) == 0 {
		return errors.New("submit_final_exam: answers are required")
	}
	return nil
}

// SubmitFinalExamResult contains the result of the exam submission.
type SubmitFinalExamResult struct {
	Score         int
	Passed        bool
	GradingStatus progress.GradingStatus

	// CourseCompleted is true when passing the exam completed the course.
	CourseCompleted bool

	SubmittedAt time.Time
}

// SubmitFinalExamHandler handles the SubmitFinalExamCommand.
type SubmitFinalExamHandler struct {
	courseRepo     course.Repository
	enrollmentRepo progress.EnrollmentRepository
	projectRepo    progress.ProjectRepository
	examRepo       progress.ExamResultRepository
	grader         *progress.GradingEngine
	completeCourse *CompleteCourseHandler
	eventPublisher shared.EventPublisher
}

// NewSubmitFinalExamHandler creates a new SubmitFinalExamHandler.
func NewSubmitFinalExamHandler(
	courseRepo course.Repository,
	enrollmentRepo progress.EnrollmentRepository,
	projectRepo progress.ProjectRepository,
	examRepo progress.ExamResultRepository,
	grader *progress.GradingEngine,
	completeCourse *CompleteCourseHandler,
	eventPublisher shared.EventPublisher,
) *SubmitFinalExamHandler {
	return &SubmitFinalExamHandler{
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		projectRepo:    projectRepo,
		examRepo:       examRepo,
		grader:         grader,
		completeCourse: completeCourse,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the submit final exam command.
func (h *SubmitFinalExamHandler) Handle(ctx context.Context, cmd SubmitFinalExamCommand) (*SubmitFinalExamResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("submit_final_exam: validation failed: %w", err)
	}

	exam, err := h.courseRepo.GetExam(ctx, cmd.ExamID)
	if err != nil {
		return nil, err
	}
	c, err := h.courseRepo.GetCourse(ctx, exam.CourseID)
	if err != nil {
		return nil, err
	}
	if _, err := h.enrollmentRepo.Get(ctx, cmd.UserID, exam.CourseID); err != nil {
		return nil, err
	}

	// The exam stays locked behind the final project where the course has one.
	if c.HasFinalProject() {
		submission, err := h.projectRepo.Get(ctx, cmd.UserID, c.FinalProjectID)
		if err != nil || submission.Status != progress.ProjectStatusApproved {
			return nil, shared.ErrProjectNotApproved
		}
	}

	questions, err := exam.DecodeQuestions()
	if err != nil {
		return nil, err
	}

	graded := h.grader.Grade(questions, cmd.Answers)
	status, passed := h.grader.Outcome(graded, exam.EffectivePassingScore())

	rawAnswers, err := json.Marshal(cmd.Answers)
	if err != nil {
		return nil, fmt.Errorf("submit_final_exam: failed to encode answers: %w", err)
	}

	now := time.Now().UTC()
	result := &progress.FinalExamResult{
		UserID:        cmd.UserID,
		ExamID:        cmd.ExamID,
		Score:         graded.Score,
		Passed:        passed,
		GradingStatus: status,
		Answers:       rawAnswers,
		SubmittedAt:   now,
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}
	if err := h.examRepo.Upsert(ctx, result); err != nil {
		return nil, fmt.Errorf("submit_final_exam: failed to save result: %w", err)
	}

	out := &SubmitFinalExamResult{
		Score:         graded.Score,
		Passed:        passed,
		GradingStatus: status,
		SubmittedAt:   now,
	}

	// Results awaiting manual review emit nothing until a human grades them.
	if status != progress.GradingStatusGraded {
		return out, nil
	}

	_ = h.eventPublisher.Publish(shared.NewExamSubmittedEvent(
		cmd.UserID, cmd.ExamID, exam.CourseID, graded.Score, passed))

	if passed {
		courseResult, err := h.completeCourse.Handle(ctx, CompleteCourseCommand{
			UserID: cmd.UserID, CourseID: exam.CourseID,
		})
		if err != nil {
			return nil, err
		}
		out.CourseCompleted = courseResult.FirstCompletion
	}

	return out, nil
}
