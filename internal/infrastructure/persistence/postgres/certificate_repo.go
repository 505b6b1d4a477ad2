package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/certificate"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CERTIFICATE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CertificateRepository implements certificate.Repository for PostgreSQL.
// The UNIQUE(user_id, course_id) constraint guarantees a single
// certificate per completion regardless of how often the completion
// event is redelivered.
type CertificateRepository struct {
	conn *Connection
}

// NewCertificateRepository creates a new CertificateRepository.
func NewCertificateRepository(conn *Connection) *CertificateRepository {
	return &CertificateRepository{conn: conn}
}

// Issue inserts the certificate. Returns false without error when a
// certificate for the (user, course) pair already exists.
func (r *CertificateRepository) Issue(ctx context.Context, cert *certificate.Certificate) (bool, error) {
	if err := cert.Validate(); err != nil {
		return false, err
	}

	query := `
		INSERT INTO certificates (id, user_id, course_id, course_title, verification_code, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, course_id) DO NOTHING
	`

	result, err := r.conn.Exec(ctx, query,
		cert.ID, cert.UserID, cert.CourseID, cert.CourseTitle, cert.VerificationCode, cert.IssuedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to issue certificate: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// GetByCode returns the certificate with the given verification code.
func (r *CertificateRepository) GetByCode(ctx context.Context, code string) (*certificate.Certificate, error) {
	query := `
		SELECT id, user_id, course_id, course_title, verification_code, issued_at
		FROM certificates
		WHERE verification_code = $1
	`
	return r.scanCertificate(r.conn.QueryRow(ctx, query, code))
}

// Get returns the certificate for a (user, course) pair.
func (r *CertificateRepository) Get(ctx context.Context, userID, courseID string) (*certificate.Certificate, error) {
	query := `
		SELECT id, user_id, course_id, course_title, verification_code, issued_at
		FROM certificates
		WHERE user_id = $1 AND course_id = $2
	`
	return r.scanCertificate(r.conn.QueryRow(ctx, query, userID, courseID))
}

// ListByUser returns a user's certificates, newest first.
func (r *CertificateRepository) ListByUser(ctx context.Context, userID string) ([]*certificate.Certificate, error) {
	query := `
		SELECT id, user_id, course_id, course_title, verification_code, issued_at
		FROM certificates
		WHERE user_id = $1
		ORDER BY issued_at DESC
	`

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list certificates: %w", err)
	}
	defer rows.Close()

	var certs []*certificate.Certificate
	for rows.Next() {
		var c certificate.Certificate
		err := rows.Scan(&c.ID, &c.UserID, &c.CourseID, &c.CourseTitle, &c.VerificationCode, &c.IssuedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan certificate: %w", err)
		}
		certs = append(certs, &c)
	}
	return certs, rows.Err()
}

func (r *CertificateRepository) scanCertificate(row pgx.Row) (*certificate.Certificate, error) {
	var c certificate.Certificate
	err := row.Scan(&c.ID, &c.UserID, &c.CourseID, &c.CourseTitle, &c.VerificationCode, &c.IssuedAt)
	if IsNoRows(err) {
		return nil, shared.ErrCertificateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan certificate: %w", err)
	}
	return &c, nil
}
