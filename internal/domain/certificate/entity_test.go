package certificate

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCertificate(t *testing.T) {
	cert := New("u1", "c1", "Foundations")

	require.NoError(t, cert.Validate())
	assert.NotEmpty(t, cert.ID)
	assert.Equal(t, "Foundations", cert.CourseTitle)
	assert.True(t, strings.HasPrefix(cert.VerificationCode, "CERT-"))
}

func TestVerificationCodesAreUnique(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := NewVerificationCode(now)
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}

func TestValidateRejectsIncomplete(t *testing.T) {
	cert := New("u1", "c1", "Foundations")
	cert.UserID = ""
	assert.Error(t, cert.Validate())

	cert = New("u1", "c1", "Foundations")
	cert.VerificationCode = ""
	assert.Error(t, cert.Validate())
}
