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
// COMPLETE COURSE COMMAND
// Verifies every completion requirement, marks the enrollment completed and
// raises the unlocked-courses watermark across all of the user's
// enrollments in one transaction. Re-running against an already completed
// course is a harmless no-op that still repairs a missed propagation.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteCourseCommand contains the data to complete a course.
type CompleteCourseCommand struct {
	UserID   string
	CourseID string
}

// Validate validates the command.
func (c CompleteCourseCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("complete_course: user_id is required")
	}
	if c.CourseID == "" {
		return errors.New("complete_course: course_id is required")
	}
	return nil
}

// CompleteCourseResult contains the result of completing a course.
type CompleteCourseResult struct {
	// FirstCompletion is true only for the call that performed the
	// transition. Side effects fire once, on that call.
	FirstCompletion bool

	CoursesCompleted int
	UnlockedCourses  int
}

// CompleteCourseHandler handles the CompleteCourseCommand.
type CompleteCourseHandler struct {
	courseRepo     course.Repository
	enrollmentRepo progress.EnrollmentRepository
	lessonRepo     progress.LessonProgressRepository
	projectRepo    progress.ProjectRepository
	examRepo       progress.ExamResultRepository
	eventPublisher shared.EventPublisher
}

// NewCompleteCourseHandler creates a new CompleteCourseHandler.
func NewCompleteCourseHandler(
	courseRepo course.Repository,
	enrollmentRepo progress.EnrollmentRepository,
	lessonRepo progress.LessonProgressRepository,
	projectRepo progress.ProjectRepository,
	examRepo progress.ExamResultRepository,
	eventPublisher shared.EventPublisher,
) *CompleteCourseHandler {
	return &CompleteCourseHandler{
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		lessonRepo:     lessonRepo,
		projectRepo:    projectRepo,
		examRepo:       examRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the complete course command.
func (h *CompleteCourseHandler) Handle(ctx context.Context, cmd CompleteCourseCommand) (*CompleteCourseResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("complete_course: validation failed: %w", err)
	}

	c, err := h.courseRepo.GetCourse(ctx, cmd.CourseID)
	if err != nil {
		return nil, err
	}
	if _, err := h.enrollmentRepo.Get(ctx, cmd.UserID, cmd.CourseID); err != nil {
		return nil, err
	}

	if err := h.verifyRequirements(ctx, cmd.UserID, c); err != nil {
		return nil, err
	}

	first, err := h.enrollmentRepo.CompleteAndPropagate(
		ctx, cmd.UserID, cmd.CourseID, time.Now().UTC(), c.CourseNumber+1)
	if err != nil {
		return nil, fmt.Errorf("complete_course: failed to complete enrollment: %w", err)
	}

	coursesCompleted, err := h.enrollmentRepo.CountCompleted(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("complete_course: failed to count completions: %w", err)
	}

	if first {
		_ = h.eventPublisher.Publish(shared.NewCourseCompletedEvent(
			cmd.UserID, c.ID, c.Title, c.CourseNumber, coursesCompleted))
	}

	return &CompleteCourseResult{
		FirstCompletion:  first,
		CoursesCompleted: coursesCompleted,
		UnlockedCourses:  c.CourseNumber + 1,
	}, nil
}

// verifyRequirements checks every gate on the completion path: all lessons
// done, final project approved and final exam passed where the course has
// them.
func (h *CompleteCourseHandler) verifyRequirements(ctx context.Context, userID string, c *course.Course) error {
	lessons, err := h.courseRepo.ListLessons(ctx, c.ID)
	if err != nil {
		return err
	}
	completed, err := h.lessonRepo.CountCompletedLessons(ctx, userID, c.ID)
	if err != nil {
		return err
	}
	if completed < len(lessons) {
		return shared.NewDomainError("progress", "CompleteCourse", shared.ErrPreconditionFailed,
			fmt.Sprintf("only %d of %d lessons completed", completed, len(lessons)))
	}

	if c.HasFinalProject() {
		submission, err := h.projectRepo.Get(ctx, userID, c.FinalProjectID)
		if err != nil || submission.Status != progress.ProjectStatusApproved {
			return shared.ErrProjectNotApproved
		}
	}

	if c.HasFinalExam() {
		result, err := h.examRepo.Get(ctx, userID, c.FinalExamID)
		if err != nil || !result.Passed {
			return shared.NewDomainError("progress", "CompleteCourse", shared.ErrPreconditionFailed,
				"final exam has not been passed")
		}
	}

	return nil
}
