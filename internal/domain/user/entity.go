// Package user contains the platform account needed to anchor enrollments
// and outbound notifications.
package user

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/shared"
)

// User is a platform account.
type User struct {
	ID    string
	Email string
	Name  string

	// ExternalID is the identifier the notification receiver knows the
	// user by. It is the only user identifier that leaves the system.
	ExternalID string

	// PasswordHash is the bcrypt hash of the account password.
	PasswordHash string

	CreatedAt time.Time
}

// New creates a user with generated internal and external identifiers.
func New(email, name, passwordHash string) *User {
	return &User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Name:         strings.TrimSpace(name),
		ExternalID:   uuid.NewString(),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
}

// Validate checks the account is complete enough to persist.
func (u *User) Validate() error {
	if u.Email == "" {
		return shared.NewDomainError("user", "Validate", shared.ErrEmptyValue, "email is required")
	}
	if u.PasswordHash == "" {
		return shared.NewDomainError("user", "Validate", shared.ErrEmptyValue, "password hash is required")
	}
	return nil
}

// Repository persists user accounts.
type Repository interface {
	// Create inserts a new user. Returns a Conflict-kind error when the
	// email is already taken.
	Create(ctx context.Context, u *User) error

	// GetByID returns a user by internal ID, or a NotFound-kind error.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail returns a user by email, or a NotFound-kind error.
	GetByEmail(ctx context.Context, email string) (*User, error)
}
