package query

import (
	"context"
	"errors"
	"time"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/certificate"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VERIFY CERTIFICATE QUERY
// Public lookup by verification code. Returns only what a third party may
// see; an unknown code yields Valid=false rather than an error so the
// endpoint does not leak which codes exist as distinct failure shapes.
// ══════════════════════════════════════════════════════════════════════════════

// VerifyCertificateQuery carries the code to look up.
type VerifyCertificateQuery struct {
	Code string
}

// CertificateVerification is the public verification payload.
type CertificateVerification struct {
	Valid       bool      `json:"valid"`
	CourseTitle string    `json:"courseTitle,omitempty"`
	IssuedAt    time.Time `json:"issuedAt,omitempty"`
}

// VerifyCertificateHandler handles the VerifyCertificateQuery.
type VerifyCertificateHandler struct {
	certificateRepo certificate.Repository
}

// NewVerifyCertificateHandler creates a new VerifyCertificateHandler.
func NewVerifyCertificateHandler(certificateRepo certificate.Repository) *VerifyCertificateHandler {
	return &VerifyCertificateHandler{certificateRepo: certificateRepo}
}

// Handle executes the query.
func (h *VerifyCertificateHandler) Handle(ctx context.Context, q VerifyCertificateQuery) (*CertificateVerification, error) {
	if q.Code == "" {
		return nil, errors.New("verify_certificate: code is required")
	}

	cert, err := h.certificateRepo.GetByCode(ctx, q.Code)
	if err != nil {
		if shared.IsNotFound(err) {
			return &CertificateVerification{Valid: false}, nil
		}
		return nil, err
	}

	return &CertificateVerification{
		Valid:       true,
		CourseTitle: cert.CourseTitle,
		IssuedAt:    cert.IssuedAt,
	}, nil
}
