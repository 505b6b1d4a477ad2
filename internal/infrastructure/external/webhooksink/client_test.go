package webhooksink

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/shared"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/webhook"
)

func TestClient_DeliverSignsBody(t *testing.T) {
	secret := "test-secret"
	var gotBody []byte
	var gotSignature string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		gotBody, err = io.ReadAll(r.Body)
		require.NoError(t, err)
		gotSignature = r.Header.Get(SignatureHeader)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(DefaultClientConfig(server.URL, secret))
	envelope := webhook.NewEnvelope(shared.EventCourseCompleted, "ext-42", map[string]interface{}{
		"courseId": "c1",
	})

	err := client.Deliver(context.Background(), envelope)
	require.NoError(t, err)

	assert.True(t, webhook.VerifySignature(gotBody, secret, gotSignature),
		"signature must verify against the exact bytes received")

	var decoded webhook.Envelope
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, "ext-42", decoded.ExternalUserID)
	assert.Equal(t, string(shared.EventCourseCompleted), decoded.EventType)
}

func TestClient_DeliverServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(DefaultClientConfig(server.URL, "s"))
	envelope := webhook.NewEnvelope(shared.EventLessonCompleted, "ext-1", nil)

	err := client.Deliver(context.Background(), envelope)
	require.Error(t, err)
	assert.True(t, shared.IsRetryable(err), "5xx should be retryable")
}

func TestClient_DeliverRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(DefaultClientConfig(server.URL, "s"))
	envelope := webhook.NewEnvelope(shared.EventLessonCompleted, "ext-1", nil)

	err := client.Deliver(context.Background(), envelope)
	require.Error(t, err)
	assert.False(t, shared.IsRetryable(err), "4xx should not be retryable")
}

func TestClient_CircuitOpensAfterFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(DefaultClientConfig(server.URL, "s"))
	envelope := webhook.NewEnvelope(shared.EventLessonCompleted, "ext-1", nil)

	for i := 0; i < 3; i++ {
		_ = client.Deliver(context.Background(), envelope)
	}
	assert.False(t, client.IsHealthy(), "circuit should open after consecutive failures")
}
