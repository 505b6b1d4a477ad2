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
// SUBMIT FINAL PROJECT COMMAND
// Accepts a final project for review. Resubmission after a needs_revision
// verdict resets the status to pending.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitFinalProjectCommand contains the data to submit a final project.
type SubmitFinalProjectCommand struct {
	UserID      string
	ProjectID   string
	Description string
	RepoURL     string
}

// Validate validates the command.
func (c SubmitFinalProjectCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("submit_final_project: user_id is required")
	}
	if c.ProjectID == "" {
		return errors.New("submit_final_project: project_id is required")
	}
	if c.Description == "" && c.RepoURL == "" {
		return errors.New("submit_final_project: a description or repository URL is required")
	}
	return nil
}

// SubmitFinalProjectResult contains the result of the submission.
type SubmitFinalProjectResult struct {
	Status      progress.ProjectStatus
	SubmittedAt time.Time
}

// SubmitFinalProjectHandler handles the SubmitFinalProjectCommand.
type SubmitFinalProjectHandler struct {
	courseRepo     course.Repository
	enrollmentRepo progress.EnrollmentRepository
	lessonRepo     progress.LessonProgressRepository
	projectRepo    progress.ProjectRepository
	eventPublisher shared.EventPublisher
}

// NewSubmitFinalProjectHandler creates a new SubmitFinalProjectHandler.
func NewSubmitFinalProjectHandler(
	courseRepo course.Repository,
	enrollmentRepo progress.EnrollmentRepository,
	lessonRepo progress.LessonProgressRepository,
	projectRepo progress.ProjectRepository,
	eventPublisher shared.EventPublisher,
) *SubmitFinalProjectHandler {
	return &SubmitFinalProjectHandler{
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		lessonRepo:     lessonRepo,
		projectRepo:    projectRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the submit final project command.
func (h *SubmitFinalProjectHandler) Handle(ctx context.Context, cmd SubmitFinalProjectCommand) (*SubmitFinalProjectResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("submit_final_project: validation failed: %w", err)
	}

	p, err := h.courseRepo.GetProject(ctx, cmd.ProjectID)
	if err != nil {
		return nil, err
	}
	if _, err := h.enrollmentRepo.Get(ctx, cmd.UserID, p.CourseID); err != nil {
		return nil, err
	}

	// The project only opens once every lesson of the course is done.
	lessons, err := h.courseRepo.ListLessons(ctx, p.CourseID)
	if err != nil {
		return nil, err
	}
	completed, err := h.lessonRepo.CountCompletedLessons(ctx, cmd.UserID, p.CourseID)
	if err != nil {
		return nil, err
	}
	if completed < len(lessons) {
		return nil, shared.NewDomainError("progress", "SubmitFinalProject", shared.ErrForbidden,
			"final project is locked until all lessons are completed")
	}

	now := time.Now().UTC()
	submission := &progress.FinalProjectSubmission{
		UserID:      cmd.UserID,
		ProjectID:   cmd.ProjectID,
		Status:      progress.ProjectStatusPending,
		Description: cmd.Description,
		RepoURL:     cmd.RepoURL,
		SubmittedAt: now,
	}
	if err := h.projectRepo.Upsert(ctx, submission); err != nil {
		return nil, fmt.Errorf("submit_final_project: failed to save submission: %w", err)
	}

	_ = h.eventPublisher.Publish(shared.NewProjectSubmittedEvent(cmd.UserID, cmd.ProjectID, p.CourseID))

	return &SubmitFinalProjectResult{Status: progress.ProjectStatusPending, SubmittedAt: now}, nil
}
