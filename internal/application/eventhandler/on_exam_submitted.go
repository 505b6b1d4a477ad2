package eventhandler

import (
	"context"
	"log/slog"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/application/saga"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON EXAM SUBMITTED HANDLER
// Only fully auto-graded results reach this handler; pending reviews emit
// no event at all.
// ═══════════════════════════════════════════════════════════════════════════

// OnExamSubmittedHandler processes graded exam events.
type OnExamSubmittedHandler struct {
	achievementFlow *saga.AchievementFlowSaga
	notifier        Notifier
	logger          *slog.Logger
}

// NewOnExamSubmittedHandler creates a new OnExamSubmittedHandler.
func NewOnExamSubmittedHandler(
	achievementFlow *saga.AchievementFlowSaga,
	notifier Notifier,
	logger *slog.Logger,
) *OnExamSubmittedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnExamSubmittedHandler{
		achievementFlow: achievementFlow,
		notifier:        notifier,
		logger:          logger.With("handler", "on_exam_submitted"),
	}
}

// Handle implements shared.EventHandler.
func (h *OnExamSubmittedHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	e, ok := event.(shared.ExamSubmittedEvent)
	if !ok {
		h.logger.Warn("received unexpected event", "event_type", event.EventType())
		return nil
	}

	if _, err := h.achievementFlow.Execute(ctx, saga.AchievementCheckInput{
		UserID:    e.UserID,
		Trigger:   saga.TriggerExamGraded,
		CourseID:  e.CourseID,
		ExamScore: e.Score,
	}); err != nil {
		h.logger.Error("achievement flow failed", "user_id", e.UserID, "error", err)
	}

	if err := h.notifier.Notify(ctx, e.UserID, shared.EventExamSubmitted, map[string]interface{}{
		"examId":   e.ExamID,
		"courseId": e.CourseID,
		"score":    e.Score,
		"passed":   e.Passed,
	}); err != nil {
		h.logger.Error("notification failed", "user_id", e.UserID, "error", err)
	}

	return nil
}
