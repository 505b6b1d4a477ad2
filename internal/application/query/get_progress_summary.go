package query

import (
	"context"
	"errors"
	"time"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/achievement"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/certificate"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/course"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/progress"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROGRESS SUMMARY QUERY
// The dashboard view: every enrollment with lesson counts, plus earned
// achievements and certificates.
// ══════════════════════════════════════════════════════════════════════════════

// GetProgressSummaryQuery identifies the user to summarize.
type GetProgressSummaryQuery struct {
	UserID string
}

// EnrollmentSummary is one enrollment on the dashboard.
type EnrollmentSummary struct {
	CourseID         string     `json:"courseId"`
	CourseNumber     int        `json:"courseNumber"`
	CourseTitle      string     `json:"courseTitle"`
	CurrentLesson    int        `json:"currentLesson"`
	LessonsCompleted int        `json:"lessonsCompleted"`
	LessonsTotal     int        `json:"lessonsTotal"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
}

// AchievementSummary is one earned achievement.
type AchievementSummary struct {
	Title    string    `json:"title"`
	Rarity   string    `json:"rarity"`
	EarnedAt time.Time `json:"earnedAt"`
}

// CertificateSummary is one issued certificate.
type CertificateSummary struct {
	CourseTitle      string    `json:"courseTitle"`
	VerificationCode string    `json:"verificationCode"`
	IssuedAt         time.Time `json:"issuedAt"`
}

// ProgressSummary is the full dashboard payload.
type ProgressSummary struct {
	UserID          string               `json:"userId"`
	UnlockedCourses int                  `json:"unlockedCourses"`
	Enrollments     []EnrollmentSummary  `json:"enrollments"`
	Achievements    []AchievementSummary `json:"achievements"`
	Certificates    []CertificateSummary `json:"certificates"`
}

// GetProgressSummaryHandler handles the GetProgressSummaryQuery.
type GetProgressSummaryHandler struct {
	courseRepo      course.Repository
	enrollmentRepo  progress.EnrollmentRepository
	lessonRepo      progress.LessonProgressRepository
	achievementRepo achievement.Repository
	certificateRepo certificate.Repository
}

// NewGetProgressSummaryHandler creates a new GetProgressSummaryHandler.
func NewGetProgressSummaryHandler(
	courseRepo course.Repository,
	enrollmentRepo progress.EnrollmentRepository,
	lessonRepo progress.LessonProgressRepository,
	achievementRepo achievement.Repository,
	certificateRepo certificate.Repository,
) *GetProgressSummaryHandler {
	return &GetProgressSummaryHandler{
		courseRepo:      courseRepo,
		enrollmentRepo:  enrollmentRepo,
		lessonRepo:      lessonRepo,
		achievementRepo: achievementRepo,
		certificateRepo: certificateRepo,
	}
}

// Handle executes the query.
func (h *GetProgressSummaryHandler) Handle(ctx context.Context, q GetProgressSummaryQuery) (*ProgressSummary, error) {
	if q.UserID == "" {
		return nil, errors.New("get_progress_summary: user_id is required")
	}

	enrollments, err := h.enrollmentRepo.ListByUser(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	watermark, err := h.enrollmentRepo.EffectiveWatermark(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	summary := &ProgressSummary{UserID: q.UserID, UnlockedCourses: watermark}

	for _, e := range enrollments {
		c, err := h.courseRepo.GetCourse(ctx, e.CourseID)
		if err != nil {
			return nil, err
		}
		lessons, err := h.courseRepo.ListLessons(ctx, e.CourseID)
		if err != nil {
			return nil, err
		}
		completed, err := h.lessonRepo.CountCompletedLessons(ctx, q.UserID, e.CourseID)
		if err != nil {
			return nil, err
		}
		summary.Enrollments = append(summary.Enrollments, EnrollmentSummary{
			CourseID:         e.CourseID,
			CourseNumber:     c.CourseNumber,
			CourseTitle:      c.Title,
			CurrentLesson:    e.CurrentLesson,
			LessonsCompleted: completed,
			LessonsTotal:     len(lessons),
			CompletedAt:      e.CompletedAt,
		})
	}

	achievements, err := h.achievementRepo.ListByUser(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	for _, a := range achievements {
		summary.Achievements = append(summary.Achievements, AchievementSummary{
			Title:    a.Title,
			Rarity:   string(a.Rarity),
			EarnedAt: a.EarnedAt,
		})
	}

	certificates, err := h.certificateRepo.ListByUser(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	for _, cert := range certificates {
		summary.Certificates = append(summary.Certificates, CertificateSummary{
			CourseTitle:      cert.CourseTitle,
			VerificationCode: cert.VerificationCode,
			IssuedAt:         cert.IssuedAt,
		})
	}

	return summary, nil
}
