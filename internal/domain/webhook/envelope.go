// Package webhook contains the outbound notification envelope, its
// signature scheme and the queue/sink contracts the dispatcher works
// against.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/shared"
)

// Envelope is the wire shape delivered to the external notification
// endpoint. ExternalUserID is the receiver's identifier for the user,
// never our internal one.
type Envelope struct {
	EventType      string                 `json:"eventType"`
	ExternalUserID string                 `json:"externalUserId"`
	Timestamp      time.Time              `json:"timestamp"`
	Data           map[string]interface{} `json:"data"`
}

// NewEnvelope builds an envelope stamped with the current time.
func NewEnvelope(eventType shared.EventType, externalUserID string, data map[string]interface{}) *Envelope {
	return &Envelope{
		EventType:      string(eventType),
		ExternalUserID: externalUserID,
		Timestamp:      time.Now().UTC(),
		Data:           data,
	}
}

// Body returns the canonical JSON body that is both sent and signed.
func (e *Envelope) Body() ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, shared.WrapError("webhook", "Encode", shared.ErrInvalidEntity, "envelope not serializable", err)
	}
	return body, nil
}

// Sign computes the hex HMAC-SHA256 of the body under the shared secret.
// The receiver recomputes it over the raw request body, so the signature
// must always cover the exact bytes sent.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a received signature in constant time.
func VerifySignature(body []byte, secret, signature string) bool {
	expected := Sign(body, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Message is an envelope waiting in a user's queue.
type Message struct {
	Envelope   *Envelope `json:"envelope"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

// MaxAge is how long a queued message stays deliverable. Drains discard
// anything older.
const MaxAge = 7 * 24 * time.Hour

// Expired reports whether the message is past its delivery window.
func (m *Message) Expired(now time.Time) bool {
	return now.Sub(m.EnqueuedAt) > MaxAge
}

// Queue stores undelivered envelopes per user until a drain runs.
type Queue interface {
	// Enqueue appends a message to the user's queue.
	Enqueue(ctx context.Context, userID string, msg *Message) error

	// Dequeue pops the oldest message from the user's queue. Returns a
	// NotFound-kind error when the queue is empty.
	Dequeue(ctx context.Context, userID string) (*Message, error)

	// Users returns the IDs of users with pending messages.
	Users(ctx context.Context) ([]string, error)
}

// Sink delivers envelopes to the external notification endpoint.
type Sink interface {
	Deliver(ctx context.Context, envelope *Envelope) error
}
