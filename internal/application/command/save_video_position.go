package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/progress"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SAVE VIDEO POSITION COMMAND
// Persists playback position so the player can resume. Positions are
// convenience state only and never influence gating.
// ══════════════════════════════════════════════════════════════════════════════

// SaveVideoPositionCommand contains the playback position to save.
type SaveVideoPositionCommand struct {
	UserID   string
	LessonID string
	Seconds  int
}

// Validate validates the command.
func (c SaveVideoPositionCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("save_video_position: user_id is required")
	}
	if c.LessonID == "" {
		return errors.New("save_video_position: lesson_id is required")
	}
	if c.Seconds < 0 {
		return errors.New("save_video_position: seconds must be non-negative")
	}
	return nil
}

// SaveVideoPositionHandler handles the SaveVideoPositionCommand.
type SaveVideoPositionHandler struct {
	lessonRepo progress.LessonProgressRepository
	access     *progress.AccessEvaluator
}

// NewSaveVideoPositionHandler creates a new SaveVideoPositionHandler.
func NewSaveVideoPositionHandler(
	lessonRepo progress.LessonProgressRepository,
	access *progress.AccessEvaluator,
) *SaveVideoPositionHandler {
	return &SaveVideoPositionHandler{lessonRepo: lessonRepo, access: access}
}

// Handle executes the save video position command.
func (h *SaveVideoPositionHandler) Handle(ctx context.Context, cmd SaveVideoPositionCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("save_video_position: validation failed: %w", err)
	}

	ok, err := h.access.CanAccessLesson(ctx, cmd.UserID, cmd.LessonID)
	if err != nil {
		return fmt.Errorf("save_video_position: access check failed: %w", err)
	}
	if !ok {
		return shared.ErrLessonLocked
	}

	return h.lessonRepo.SaveVideoPosition(ctx, cmd.UserID, cmd.LessonID, cmd.Seconds)
}
