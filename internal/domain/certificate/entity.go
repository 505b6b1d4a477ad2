// Package certificate contains course completion certificates and their
// public verification codes.
package certificate

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/shared"
)

// Certificate is proof that a user completed a course. One certificate
// exists per (user, course); repeated completions never mint a second.
type Certificate struct {
	ID       string
	UserID   string
	CourseID string

	// CourseTitle is denormalized at issue time so the certificate stays
	// renderable even if the catalog changes later.
	CourseTitle string

	// VerificationCode is the public lookup key. Globally unique, safe to
	// share, reveals nothing about the holder.
	VerificationCode string

	IssuedAt time.Time
}

// New mints a certificate with a fresh verification code.
func New(userID, courseID, courseTitle string) *Certificate {
	now := time.Now().UTC()
	return &Certificate{
		ID:               uuid.NewString(),
		UserID:           userID,
		CourseID:         courseID,
		CourseTitle:      courseTitle,
		VerificationCode: NewVerificationCode(now),
		IssuedAt:         now,
	}
}

// NewVerificationCode builds a code of the form CERT-<ts36>-<rand>:
// a base36 issue timestamp for rough chronological ordering plus a
// random suffix for uniqueness.
func NewVerificationCode(issuedAt time.Time) string {
	ts := strings.ToUpper(strconv.FormatInt(issuedAt.Unix(), 36))
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
	return "CERT-" + ts + "-" + suffix
}

// Validate checks the certificate is complete enough to persist.
func (c *Certificate) Validate() error {
	if c.UserID == "" || c.CourseID == "" {
		return shared.NewDomainError("certificate", "Validate", shared.ErrEmptyValue,
			"certificate requires a user and a course")
	}
	if c.VerificationCode == "" {
		return shared.NewDomainError("certificate", "Validate", shared.ErrEmptyValue,
			"certificate requires a verification code")
	}
	return nil
}
