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
// ENROLL COMMAND
// Opens an enrollment in an unlocked course. The new enrollment inherits
// the user's effective unlocked-courses watermark so progress earned in
// other courses is visible immediately.
// ══════════════════════════════════════════════════════════════════════════════

// EnrollCommand contains the data to enroll a user in a course.
type EnrollCommand struct {
	UserID   string
	CourseID string
}

// Validate validates the command.
func (c EnrollCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("enroll: user_id is required")
	}
	if c.CourseID == "" {
		return errors.New("enroll: course_id is required")
	}
	return nil
}

// EnrollResult contains the result of enrolling.
type EnrollResult struct {
	UserID        string
	CourseID      string
	CurrentLesson int
	EnrolledAt    time.Time
}

// EnrollHandler handles the EnrollCommand.
type EnrollHandler struct {
	courseRepo     course.Repository
	enrollmentRepo progress.EnrollmentRepository
	access         *progress.AccessEvaluator
	eventPublisher shared.EventPublisher
}

// NewEnrollHandler creates a new EnrollHandler.
func NewEnrollHandler(
	courseRepo course.Repository,
	enrollmentRepo progress.EnrollmentRepository,
	access *progress.AccessEvaluator,
	eventPublisher shared.EventPublisher,
) *EnrollHandler {
	return &EnrollHandler{
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		access:         access,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the enroll command.
func (h *EnrollHandler) Handle(ctx context.Context, cmd EnrollCommand) (*EnrollResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("enroll: validation failed: %w", err)
	}

	c, err := h.courseRepo.GetCourse(ctx, cmd.CourseID)
	if err != nil {
		return nil, err
	}

	ok, err := h.access.CanAccessCourse(ctx, cmd.UserID, cmd.CourseID)
	if err != nil {
		return nil, fmt.Errorf("enroll: access check failed: %w", err)
	}
	if !ok {
		return nil, shared.ErrCourseLocked
	}

	watermark, err := h.enrollmentRepo.EffectiveWatermark(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("enroll: failed to read watermark: %w", err)
	}

	enrollment := progress.NewEnrollment(cmd.UserID, cmd.CourseID, watermark, time.Now().UTC())
	if err := h.enrollmentRepo.Create(ctx, enrollment); err != nil {
		return nil, err
	}

	_ = h.eventPublisher.Publish(shared.NewEnrollmentCreatedEvent(cmd.UserID, cmd.CourseID, c.CourseNumber))

	return &EnrollResult{
		UserID:        cmd.UserID,
		CourseID:      cmd.CourseID,
		CurrentLesson: enrollment.CurrentLesson,
		EnrolledAt:    enrollment.EnrolledAt,
	}, nil
}
