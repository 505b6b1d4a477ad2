package postgres

import (
	"context"
	"fmt"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/achievement"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AchievementRepository implements achievement.Repository for PostgreSQL.
// The UNIQUE(user_id, title) constraint is the idempotency check: a
// duplicate grant inserts nothing and reports false.
type AchievementRepository struct {
	conn *Connection
}

// NewAchievementRepository creates a new AchievementRepository.
func NewAchievementRepository(conn *Connection) *AchievementRepository {
	return &AchievementRepository{conn: conn}
}

// Grant inserts the achievement. Returns false without error when the
// user already holds an achievement with the same title.
func (r *AchievementRepository) Grant(ctx context.Context, a *achievement.Achievement) (bool, error) {
	query := `
		INSERT INTO achievements (id, user_id, title, description, rarity, course_id, earned_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
		ON CONFLICT (user_id, title) DO NOTHING
	`

	result, err := r.conn.Exec(ctx, query,
		a.ID, a.UserID, a.Title, a.Description, string(a.Rarity), a.CourseID, a.EarnedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to grant achievement: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// ListByUser returns a user's achievements, newest first.
func (r *AchievementRepository) ListByUser(ctx context.Context, userID string) ([]*achievement.Achievement, error) {
	query := `
		SELECT id, user_id, title, description, rarity, COALESCE(course_id::text, ''), earned_at
		FROM achievements
		WHERE user_id = $1
		ORDER BY earned_at DESC
	`

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	defer rows.Close()

	var achievements []*achievement.Achievement
	for rows.Next() {
		var a achievement.Achievement
		var rarity string
		err := rows.Scan(&a.ID, &a.UserID, &a.Title, &a.Description, &rarity, &a.CourseID, &a.EarnedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		a.Rarity = achievement.Rarity(rarity)
		achievements = append(achievements, &a)
	}
	return achievements, rows.Err()
}

// CountByUser returns how many achievements the user holds.
func (r *AchievementRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM achievements WHERE user_id = $1",
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count achievements: %w", err)
	}
	return count, nil
}
