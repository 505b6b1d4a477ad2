package eventhandler

import (
	"context"
	"log/slog"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/application/saga"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/certificate"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/progress"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON COURSE COMPLETED HANDLER
// The heaviest side-effect pipeline: certificate → notification →
// achievements. Each step is isolated so one failure never blocks the
// others, and every step tolerates re-delivery.
// ═══════════════════════════════════════════════════════════════════════════

// OnCourseCompletedHandler processes course completion events.
type OnCourseCompletedHandler struct {
	certificateRepo certificate.Repository
	enrollmentRepo  progress.EnrollmentRepository
	achievementFlow *saga.AchievementFlowSaga
	notifier        Notifier
	eventPublisher  shared.EventPublisher
	logger          *slog.Logger
}

// NewOnCourseCompletedHandler creates a new OnCourseCompletedHandler.
func NewOnCourseCompletedHandler(
	certificateRepo certificate.Repository,
	enrollmentRepo progress.EnrollmentRepository,
	achievementFlow *saga.AchievementFlowSaga,
	notifier Notifier,
	eventPublisher shared.EventPublisher,
	logger *slog.Logger,
) *OnCourseCompletedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnCourseCompletedHandler{
		certificateRepo: certificateRepo,
		enrollmentRepo:  enrollmentRepo,
		achievementFlow: achievementFlow,
		notifier:        notifier,
		eventPublisher:  eventPublisher,
		logger:          logger.With("handler", "on_course_completed"),
	}
}

// Handle implements shared.EventHandler.
func (h *OnCourseCompletedHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	e, ok := event.(shared.CourseCompletedEvent)
	if !ok {
		h.logger.Warn("received unexpected event", "event_type", event.EventType())
		return nil
	}

	h.issueCertificate(ctx, e)

	if err := h.notifier.Notify(ctx, e.UserID, shared.EventCourseCompleted, map[string]interface{}{
		"courseId":     e.CourseID,
		"courseNumber": e.CourseNumber,
		"courseTitle":  e.CourseTitle,
	}); err != nil {
		h.logger.Error("notification failed", "user_id", e.UserID, "error", err)
	}

	if _, err := h.achievementFlow.Execute(ctx, saga.AchievementCheckInput{
		UserID:           e.UserID,
		Trigger:          saga.TriggerCourseCompleted,
		CourseID:         e.CourseID,
		CourseTitle:      e.CourseTitle,
		CoursesCompleted: e.CoursesCompleted,
	}); err != nil {
		h.logger.Error("achievement flow failed", "user_id", e.UserID, "error", err)
	}

	return nil
}

// issueCertificate mints the completion certificate. A certificate only
// exists for a completed enrollment, so the enrollment's completion is
// re-verified here rather than trusted from the event. The repository
// treats a duplicate (user, course) insert as already-issued, so
// re-delivered events are harmless.
func (h *OnCourseCompletedHandler) issueCertificate(ctx context.Context, e shared.CourseCompletedEvent) {
	enrollment, err := h.enrollmentRepo.Get(ctx, e.UserID, e.CourseID)
	if err != nil {
		h.logger.Error("certificate refused, enrollment lookup failed",
			"user_id", e.UserID, "course_id", e.CourseID, "error", err)
		return
	}
	if !enrollment.IsCompleted() {
		h.logger.Error("certificate refused",
			"user_id", e.UserID, "course_id", e.CourseID, "error", shared.ErrCourseNotCompleted)
		return
	}

	cert := certificate.New(e.UserID, e.CourseID, e.CourseTitle)
	issued, err := h.certificateRepo.Issue(ctx, cert)
	if err != nil {
		h.logger.Error("certificate issue failed", "user_id", e.UserID, "course_id", e.CourseID, "error", err)
		return
	}
	if !issued {
		h.logger.Info("certificate already issued", "user_id", e.UserID, "course_id", e.CourseID)
		return
	}

	h.logger.Info("certificate issued",
		"user_id", e.UserID, "course_id", e.CourseID, "code", cert.VerificationCode)
	_ = h.eventPublisher.Publish(shared.NewCertificateIssuedEvent(e.UserID, e.CourseID, cert.VerificationCode))

	if err := h.notifier.Notify(ctx, e.UserID, shared.EventCertificateIssued, map[string]interface{}{
		"courseId":         e.CourseID,
		"courseTitle":      e.CourseTitle,
		"verificationCode": cert.VerificationCode,
	}); err != nil {
		h.logger.Error("certificate notification failed", "user_id", e.UserID, "error", err)
	}
}
