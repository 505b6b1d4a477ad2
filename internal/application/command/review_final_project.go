package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/course"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/progress"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REVIEW FINAL PROJECT COMMAND
// Records a reviewer's verdict. Approving the project of a course without
// a final exam completes the course immediately; with an exam, approval
// only unlocks the exam.
// ══════════════════════════════════════════════════════════════════════════════

// ReviewFinalProjectCommand contains the review verdict.
type ReviewFinalProjectCommand struct {
	UserID    string
	ProjectID string
	Status    progress.ProjectStatus
}

// Validate validates the command.
func (c ReviewFinalProjectCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("review_final_project: user_id is required")
	}
	if c.ProjectID == "" {
		return errors.New("review_final_project: project_id is required")
	}
	if c.Status != progress.ProjectStatusApproved && c.Status != progress.ProjectStatusNeedsRevision {
		return errors.New("review_final_project: status must be approved or needs_revision")
	}
	return nil
}

// ReviewFinalProjectResult contains the result of the review.
type ReviewFinalProjectResult struct {
	Status          progress.ProjectStatus
	CourseCompleted bool
	ReviewedAt      time.Time
}

// ReviewFinalProjectHandler handles the ReviewFinalProjectCommand.
type ReviewFinalProjectHandler struct {
	courseRepo     course.Repository
	projectRepo    progress.ProjectRepository
	completeCourse *CompleteCourseHandler
	eventPublisher shared.EventPublisher
}

// NewReviewFinalProjectHandler creates a new ReviewFinalProjectHandler.
func NewReviewFinalProjectHandler(
	courseRepo course.Repository,
	projectRepo progress.ProjectRepository,
	completeCourse *CompleteCourseHandler,
	eventPublisher shared.EventPublisher,
) *ReviewFinalProjectHandler {
	return &ReviewFinalProjectHandler{
		courseRepo:     courseRepo,
		projectRepo:    projectRepo,
		completeCourse: completeCourse,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the review final project command.
func (h *ReviewFinalProjectHandler) Handle(ctx context.Context, cmd ReviewFinalProjectCommand) (*ReviewFinalProjectResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("review_final_project: validation failed: %w", err)
	}

	p, err := h.courseRepo.GetProject(ctx, cmd.ProjectID)
	if err != nil {
		return nil, err
	}
	submission, err := h.projectRepo.Get(ctx, cmd.UserID, cmd.ProjectID)
	if err != nil {
		return nil, err
	}
	if submission.Status != progress.ProjectStatusPending {
		return nil, shared.ErrInvalidProjectState
	}

	now := time.Now().UTC()
	if err := h.projectRepo.SetStatus(ctx, cmd.UserID, cmd.ProjectID, cmd.Status, now); err != nil {
		return nil, fmt.Errorf("review_final_project: failed to record verdict: %w", err)
	}

	_ = h.eventPublisher.Publish(shared.NewProjectReviewedEvent(
		cmd.UserID, cmd.ProjectID, p.CourseID, string(cmd.Status)))

	result := &ReviewFinalProjectResult{Status: cmd.Status, ReviewedAt: now}

	if cmd.Status == progress.ProjectStatusApproved {
		c, err := h.courseRepo.GetCourse(ctx, p.CourseID)
		if err != nil {
			return nil, err
		}
		if !c.HasFinalExam() {
			courseResult, err := h.completeCourse.Handle(ctx, CompleteCourseCommand{
				UserID: cmd.UserID, CourseID: p.CourseID,
			})
			if err != nil {
				return nil, err
			}
			result.CourseCompleted = courseResult.FirstCompletion
		}
	}

	return result, nil
}
