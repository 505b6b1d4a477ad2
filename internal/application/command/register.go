// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/course"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/progress"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/shared"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER COMMAND
// Creates an account and opens the first enrollment, so a fresh user lands
// directly in course 1 lesson 1.
// ══════════════════════════════════════════════════════════════════════════════

// RegisterCommand contains the data to create an account.
type RegisterCommand struct {
	Email    string
	Name     string
	Password string
}

// Validate validates the command.
func (c RegisterCommand) Validate() error {
	if c.Email == "" {
		return errors.New("register: email is required")
	}
	if len(c.Password) < 8 {
		return errors.New("register: password must be at least 8 characters")
	}
	return nil
}

// RegisterResult contains the result of registration.
type RegisterResult struct {
	UserID     string
	ExternalID string

	// EnrolledCourseID is the first course the user was auto-enrolled in.
	// Empty when the catalog has no published course 1 yet.
	EnrolledCourseID string
}

// RegisterHandler handles the RegisterCommand.
type RegisterHandler struct {
	userRepo       user.Repository
	courseRepo     course.Repository
	enrollmentRepo progress.EnrollmentRepository
	eventPublisher shared.EventPublisher
}

// NewRegisterHandler creates a new RegisterHandler.
func NewRegisterHandler(
	userRepo user.Repository,
	courseRepo course.Repository,
	enrollmentRepo progress.EnrollmentRepository,
	eventPublisher shared.EventPublisher,
) *RegisterHandler {
	return &RegisterHandler{
		userRepo:       userRepo,
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the register command.
func (h *RegisterHandler) Handle(ctx context.Context, cmd RegisterCommand) (*RegisterResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("register: validation failed: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("register: failed to hash password: %w", err)
	}

	u := user.New(cmd.Email, cmd.Name, string(hash))
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := h.userRepo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("register: failed to create user: %w", err)
	}

	result := &RegisterResult{UserID: u.ID, ExternalID: u.ExternalID}

	// Auto-enroll into the first course. Failure here leaves a valid
	// account the user can enroll from explicitly.
	first, err := h.courseRepo.GetCourseByNumber(ctx, 1)
	if err == nil {
		enrollment := progress.NewEnrollment(u.ID, first.ID, 1, time.Now().UTC())
		if err := h.enrollmentRepo.Create(ctx, enrollment); err == nil {
			result.EnrolledCourseID = first.ID
			_ = h.eventPublisher.Publish(shared.NewEnrollmentCreatedEvent(u.ID, first.ID, first.CourseNumber))
		}
	}

	return result, nil
}
