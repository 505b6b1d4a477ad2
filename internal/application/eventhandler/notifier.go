// Package eventhandler contains the domain event handlers that run the
// engine's side effects: certificates, achievements and outbound
// notifications. Side effects are best-effort; a failure is logged and
// never propagated back to the progression write that caused it.
package eventhandler

import (
	"context"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/shared"
)

// Notifier sends an outbound notification about a user's milestone. The
// implementation decides between queueing and synchronous delivery.
type Notifier interface {
	Notify(ctx context.Context, userID string, eventType shared.EventType, data map[string]interface{}) error
}

// NopNotifier discards notifications. Used when no webhook endpoint is
// configured.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(context.Context, string, shared.EventType, map[string]interface{}) error {
	return nil
}
