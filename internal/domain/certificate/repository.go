package certificate

import "context"

// Repository persists certificates.
type Repository interface {
	// Issue inserts the certificate. Returns false without error when a
	// certificate for the (user, course) pair already exists; the insert
	// itself is the idempotency check.
	Issue(ctx context.Context, cert *Certificate) (bool, error)

	// GetByCode returns the certificate with the given verification code,
	// or a NotFound-kind error.
	GetByCode(ctx context.Context, code string) (*Certificate, error)

	// Get returns the certificate for a (user, course) pair, or a
	// NotFound-kind error.
	Get(ctx context.Context, userID, courseID string) (*Certificate, error)

	// ListByUser returns a user's certificates, newest first.
	ListByUser(ctx context.Context, userID string) ([]*Certificate, error)
}
