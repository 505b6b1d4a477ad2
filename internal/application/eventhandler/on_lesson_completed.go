package eventhandler

import (
	"context"
	"log/slog"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/application/saga"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/progress"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON LESSON COMPLETED HANDLER
// Fires once per (user, lesson). Evaluates lesson milestones and sends the
// outbound notification.
// ═══════════════════════════════════════════════════════════════════════════

// OnLessonCompletedHandler processes lesson completion events.
type OnLessonCompletedHandler struct {
	lessonRepo      progress.LessonProgressRepository
	achievementFlow *saga.AchievementFlowSaga
	notifier        Notifier
	logger          *slog.Logger
}

// NewOnLessonCompletedHandler creates a new OnLessonCompletedHandler.
func NewOnLessonCompletedHandler(
	lessonRepo progress.LessonProgressRepository,
	achievementFlow *saga.AchievementFlowSaga,
	notifier Notifier,
	logger *slog.Logger,
) *OnLessonCompletedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnLessonCompletedHandler{
		lessonRepo:      lessonRepo,
		achievementFlow: achievementFlow,
		notifier:        notifier,
		logger:          logger.With("handler", "on_lesson_completed"),
	}
}

// Handle implements shared.EventHandler.
func (h *OnLessonCompletedHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	e, ok := event.(shared.LessonCompletedEvent)
	if !ok {
		h.logger.Warn("received unexpected event", "event_type", event.EventType())
		return nil
	}

	lessonsCompleted, err := h.lessonRepo.CountCompletedLessons(ctx, e.UserID, e.CourseID)
	if err != nil {
		h.logger.Error("failed to count completed lessons", "user_id", e.UserID, "error", err)
		lessonsCompleted = 1
	}

	if _, err := h.achievementFlow.Execute(ctx, saga.AchievementCheckInput{
		UserID:           e.UserID,
		Trigger:          saga.TriggerLessonCompleted,
		LessonsCompleted: lessonsCompleted,
	}); err != nil {
		h.logger.Error("achievement flow failed", "user_id", e.UserID, "error", err)
	}

	if err := h.notifier.Notify(ctx, e.UserID, shared.EventLessonCompleted, map[string]interface{}{
		"courseId":     e.CourseID,
		"lessonId":     e.LessonID,
		"lessonNumber": e.LessonNumber,
	}); err != nil {
		h.logger.Error("notification failed", "user_id", e.UserID, "error", err)
	}

	return nil
}
