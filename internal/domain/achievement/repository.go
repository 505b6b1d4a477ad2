package achievement

import "context"

// Repository persists earned achievements.
type Repository interface {
	// Grant inserts the achievement. Returns false without error when the
	// user already holds an achievement with the same title; the insert
	// itself is the idempotency check.
	Grant(ctx context.Context, a *Achievement) (bool, error)

	// ListByUser returns a user's achievements, newest first.
	ListByUser(ctx context.Context, userID string) ([]*Achievement, error)

	// CountByUser returns how many achievements the user holds.
	CountByUser(ctx context.Context, userID string) (int, error)
}
