// Package query contains read operations (CQRS - Queries). Queries never
// mutate progression state.
package query

import (
	"context"
	"errors"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/course"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/progress"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET COURSE OUTLINE QUERY
// Renders a course as the user sees it: every lesson and activity with its
// lock state and completion state, derived live from the watermarks.
// ══════════════════════════════════════════════════════════════════════════════

// GetCourseOutlineQuery identifies the user and course to render.
type GetCourseOutlineQuery struct {
	UserID   string
	CourseID string
}

// ActivityView is one activity in the outline.
type ActivityView struct {
	ID             string `json:"id"`
	ActivityNumber int    `json:"activityNumber"`
	Type           string `json:"type"`
	Title          string `json:"title"`
	Required       bool   `json:"required"`
	Locked         bool   `json:"locked"`
	Completed      bool   `json:"completed"`
}

// LessonView is one lesson in the outline.
type LessonView struct {
	ID            string         `json:"id"`
	LessonNumber  int            `json:"lessonNumber"`
	Title         string         `json:"title"`
	Locked        bool           `json:"locked"`
	Completed     bool           `json:"completed"`
	VideoPosition int            `json:"videoPosition"`
	Activities    []ActivityView `json:"activities"`
}

// CourseOutline is the full rendered course.
type CourseOutline struct {
	CourseID      string       `json:"courseId"`
	CourseNumber  int          `json:"courseNumber"`
	Title         string       `json:"title"`
	CurrentLesson int          `json:"currentLesson"`
	Completed     bool         `json:"completed"`
	Lessons       []LessonView `json:"lessons"`
}

// GetCourseOutlineHandler handles the GetCourseOutlineQuery.
type GetCourseOutlineHandler struct {
	courseRepo     course.Repository
	enrollmentRepo progress.EnrollmentRepository
	lessonRepo     progress.LessonProgressRepository
	submissionRepo progress.SubmissionRepository
}

// NewGetCourseOutlineHandler creates a new GetCourseOutlineHandler.
func NewGetCourseOutlineHandler(
	courseRepo course.Repository,
	enrollmentRepo progress.EnrollmentRepository,
	lessonRepo progress.LessonProgressRepository,
	submissionRepo progress.SubmissionRepository,
) *GetCourseOutlineHandler {
	return &GetCourseOutlineHandler{
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		lessonRepo:     lessonRepo,
		submissionRepo: submissionRepo,
	}
}

// Handle executes the query.
func (h *GetCourseOutlineHandler) Handle(ctx context.Context, q GetCourseOutlineQuery) (*CourseOutline, error) {
	if q.UserID == "" || q.CourseID == "" {
		return nil, errors.New("get_course_outline: user_id and course_id are required")
	}

	c, err := h.courseRepo.GetCourse(ctx, q.CourseID)
	if err != nil {
		return nil, err
	}
	enrollment, err := h.enrollmentRepo.Get(ctx, q.UserID, q.CourseID)
	if err != nil {
		return nil, err
	}
	lessons, err := h.courseRepo.ListLessons(ctx, q.CourseID)
	if err != nil {
		return nil, err
	}

	outline := &CourseOutline{
		CourseID:      c.ID,
		CourseNumber:  c.CourseNumber,
		Title:         c.Title,
		CurrentLesson: enrollment.CurrentLesson,
		Completed:     enrollment.IsCompleted(),
	}

	for _, l := range lessons {
		view := LessonView{
			ID:           l.ID,
			LessonNumber: l.LessonNumber,
			Title:        l.Title,
			Locked:       l.LessonNumber > enrollment.CurrentLesson,
		}

		currentActivity := 1
		lp, err := h.lessonRepo.Get(ctx, q.UserID, l.ID)
		switch {
		case err == nil:
			view.Completed = lp.Completed
			view.VideoPosition = lp.VideoPosition
			currentActivity = lp.CurrentActivity
		case shared.IsNotFound(err):
			// Untouched lesson; defaults apply.
		default:
			return nil, err
		}

		activities, err := h.courseRepo.ListActivities(ctx, l.ID)
		if err != nil {
			return nil, err
		}
		for _, a := range activities {
			av := ActivityView{
				ID:             a.ID,
				ActivityNumber: a.ActivityNumber,
				Type:           string(a.Type),
				Title:          a.Title,
				Required:       a.Required,
				Locked:         view.Locked || a.ActivityNumber > currentActivity,
			}
			if s, err := h.submissionRepo.Get(ctx, q.UserID, a.ID); err == nil {
				av.Completed = s.Completed
			}
			view.Activities = append(view.Activities, av)
		}

		outline.Lessons = append(outline.Lessons, view)
	}

	return outline, nil
}
