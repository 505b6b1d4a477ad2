// Package achievement contains earned achievements and the rules that
// decide when one is unlocked.
package achievement

import (
	"time"

	"github.com/google/uuid"
)

// Rarity grades how hard an achievement is to earn.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Achievement is a single earned achievement. Achievements are keyed by
// (user, title): granting the same title twice is a no-op, enforced by a
// unique constraint rather than a read-then-write check.
type Achievement struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Rarity      Rarity

	// CourseID links course-scoped achievements to their course. Empty
	// for global milestones.
	CourseID string

	EarnedAt time.Time
}

// New creates an achievement ready for granting.
func New(userID, title, description string, rarity Rarity, courseID string) *Achievement {
	return &Achievement{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Rarity:      rarity,
		CourseID:    courseID,
		EarnedAt:    time.Now().UTC(),
	}
}
