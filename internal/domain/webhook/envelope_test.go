package webhook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/shared"
)

func TestSignAndVerify(t *testing.T) {
	env := NewEnvelope(shared.EventCourseCompleted, "ext-42", map[string]interface{}{
		"courseId": "c1",
	})
	body, err := env.Body()
	require.NoError(t, err)

	sig := Sign(body, "secret")
	assert.Len(t, sig, 64, "hex encoded sha256")
	assert.True(t, VerifySignature(body, "secret", sig))
	assert.False(t, VerifySignature(body, "other-secret", sig))
	assert.False(t, VerifySignature(append(body, ' '), "secret", sig),
		"signature covers the exact body bytes")
}

func TestSignIsDeterministic(t *testing.T) {
	body := []byte(`{"eventType":"course.completed"}`)
	assert.Equal(t, Sign(body, "k"), Sign(body, "k"))
	assert.NotEqual(t, Sign(body, "k"), Sign(body, "k2"))
}

func TestMessageExpiry(t *testing.T) {
	now := time.Now()

	fresh := &Message{EnqueuedAt: now.Add(-time.Hour)}
	assert.False(t, fresh.Expired(now))

	stale := &Message{EnqueuedAt: now.Add(-MaxAge - time.Minute)}
	assert.True(t, stale.Expired(now))
}
