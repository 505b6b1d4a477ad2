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
// SUBMIT ACTIVITY COMMAND
// The hot path of the engine: accepts a response to the currently unlocked
// activity, advances the activity cursor and cascades into lesson and
// course completion when this was the last gate.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitActivityCommand contains the data to submit an activity response.
type SubmitActivityCommand struct {
	UserID     string
	ActivityID string

	// Response is the raw response payload; its shape depends on the
	// activity type.
	Response json.RawMessage
}

// Validate validates the command.
func (c SubmitActivityCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("submit_activity: user_id is required")
	}
	if c.ActivityID == "" {
		return errors.New("submit_activity: activity_id is required")
	}
	if len(c.Response) == 0 {
		return errors.New("submit_activity: response is required")
	}
	return nil
}

// SubmitActivityResult contains the result of a submission.
type SubmitActivityResult struct {
	Completed bool
	Feedback  string

	// NextActivityNumber is the activity cursor after this submission.
	NextActivityNumber int

	// LessonCompleted is true only when this submission completed the
	// lesson for the first time.
	LessonCompleted bool

	// CourseCompleted is true when the lesson cascade completed the whole
	// course.
	CourseCompleted bool

	SubmittedAt time.Time
}

// SubmitActivityHandler handles the SubmitActivityCommand.
type SubmitActivityHandler struct {
	courseRepo     course.Repository
	enrollmentRepo progress.EnrollmentRepository
	lessonRepo     progress.LessonProgressRepository
	submissionRepo progress.SubmissionRepository
	access         *progress.AccessEvaluator
	validator      *progress.SubmissionValidator
	completeCourse *CompleteCourseHandler
	eventPublisher shared.EventPublisher
}

// NewSubmitActivityHandler creates a new SubmitActivityHandler.
func NewSubmitActivityHandler(
	courseRepo course.Repository,
	enrollmentRepo progress.EnrollmentRepository,
	lessonRepo progress.LessonProgressRepository,
	submissionRepo progress.SubmissionRepository,
	access *progress.AccessEvaluator,
	validator *progress.SubmissionValidator,
	completeCourse *CompleteCourseHandler,
	eventPublisher shared.EventPublisher,
) *SubmitActivityHandler {
	return &SubmitActivityHandler{
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		lessonRepo:     lessonRepo,
		submissionRepo: submissionRepo,
		access:         access,
		validator:      validator,
		completeCourse: completeCourse,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the submit activity command.
func (h *SubmitActivityHandler) Handle(ctx context.Context, cmd SubmitActivityCommand) (*SubmitActivityResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("submit_activity: validation failed: %w", err)
	}

	a, err := h.courseRepo.GetActivity(ctx, cmd.ActivityID)
	if err != nil {
		return nil, err
	}
	l, err := h.courseRepo.GetLesson(ctx, a.LessonID)
	if err != nil {
		return nil, err
	}
	activities, err := h.courseRepo.ListActivities(ctx, a.LessonID)
	if err != nil {
		return nil, fmt.Errorf("submit_activity: failed to list activities: %w", err)
	}

	ok, err := h.access.CanAccessActivity(ctx, cmd.UserID, cmd.ActivityID)
	if err != nil {
		return nil, fmt.Errorf("submit_activity: access check failed: %w", err)
	}
	if !ok {
		return nil, shared.ErrActivityLocked
	}

	// Rejection leaves all progression state untouched.
	if !h.validator.Validate(a, cmd.Response) {
		return nil, shared.ErrSubmissionRejected
	}

	now := time.Now().UTC()
	feedback := h.validator.Feedback(a, cmd.Response)

	submission := &progress.ActivitySubmission{
		UserID:      cmd.UserID,
		ActivityID:  cmd.ActivityID,
		Response:    cmd.Response,
		Completed:   true,
		Feedback:    feedback,
		SubmittedAt: now,
	}
	if err := h.submissionRepo.Upsert(ctx, submission); err != nil {
		return nil, fmt.Errorf("submit_activity: failed to save submission: %w", err)
	}

	// The cursor stays within the lesson: submitting the last activity
	// does not advance it, so it always names a real activity.
	next := a.ActivityNumber
	if a.ActivityNumber < lastActivityNumber(activities) {
		next = a.ActivityNumber + 1
	}
	if err := h.lessonRepo.AdvanceActivityCursor(ctx, cmd.UserID, a.LessonID, next); err != nil {
		return nil, fmt.Errorf("submit_activity: failed to advance cursor: %w", err)
	}

	result := &SubmitActivityResult{
		Completed:          true,
		Feedback:           feedback,
		NextActivityNumber: next,
		SubmittedAt:        now,
	}

	if err := h.cascadeCompletion(ctx, cmd.UserID, l, activities, now, result); err != nil {
		return nil, err
	}

	return result, nil
}

// cascadeCompletion checks whether every required activity of the lesson
// is now complete and, if so, walks the completion chain upward. The
// checks re-run on every submission so an interrupted cascade heals on
// the next attempt.
func (h *SubmitActivityHandler) cascadeCompletion(
	ctx context.Context,
	userID string,
	l *course.Lesson,
	activities []*course.Activity,
	now time.Time,
	result *SubmitActivityResult,
) error {
	var requiredIDs []string
	for _, a := range activities {
		if a.Required {
			requiredIDs = append(requiredIDs, a.ID)
		}
	}
	done, err := h.submissionRepo.CountCompleted(ctx, userID, requiredIDs)
	if err != nil {
		return fmt.Errorf("submit_activity: failed to count submissions: %w", err)
	}
	if done < len(requiredIDs) {
		return nil
	}

	first, err := h.lessonRepo.MarkCompleted(ctx, userID, l.ID, now)
	if err != nil {
		return fmt.Errorf("submit_activity: failed to complete lesson: %w", err)
	}
	if err := h.enrollmentRepo.RaiseCurrentLesson(ctx, userID, l.CourseID, l.LessonNumber+1); err != nil {
		return fmt.Errorf("submit_activity: failed to raise lesson watermark: %w", err)
	}

	if first {
		result.LessonCompleted = true
		_ = h.eventPublisher.Publish(shared.NewLessonCompletedEvent(userID, l.CourseID, l.ID, l.LessonNumber))
	}

	// Courses without final assessments complete as soon as the last
	// lesson does.
	c, err := h.courseRepo.GetCourse(ctx, l.CourseID)
	if err != nil {
		return err
	}
	if c.HasFinalProject() || c.HasFinalExam() {
		return nil
	}
	lessons, err := h.courseRepo.ListLessons(ctx, l.CourseID)
	if err != nil {
		return err
	}
	if l.LessonNumber < len(lessons) {
		return nil
	}

	courseResult, err := h.completeCourse.Handle(ctx, CompleteCourseCommand{UserID: userID, CourseID: l.CourseID})
	if err != nil {
		return err
	}
	result.CourseCompleted = courseResult.FirstCompletion

	return nil
}

// lastActivityNumber returns the highest activity number in the lesson,
// or 0 for a lesson with no activities.
func lastActivityNumber(activities []*course.Activity) int {
	last := 0
	for _, a := range activities {
		if a.ActivityNumber > last {
			last = a.ActivityNumber
		}
	}
	return last
}
