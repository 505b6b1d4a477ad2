// Package webhooksink implements the HTTP client that delivers signed
// notification envelopes to the external webhook receiver.
package webhooksink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/shared"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/webhook"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/pkg/circuitbreaker"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// SignatureHeader carries the hex HMAC-SHA256 of the request body.
const SignatureHeader = "X-Webhook-Signature"

// ClientConfig contains configuration for the webhook sink client.
type ClientConfig struct {
	// Endpoint is the receiver URL envelopes are POSTed to.
	Endpoint string

	// Secret is the shared HMAC signing secret.
	Secret string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(endpoint, secret string) ClientConfig {
	return ClientConfig{
		Endpoint: endpoint,
		Secret:   secret,
		Timeout:  10 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client implements webhook.Sink over HTTP. The circuit breaker fails
// fast while the receiver is down so callers fall back to the queue
// path instead of stacking up timeouts.
type Client struct {
	config         ClientConfig
	httpClient     *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	logger         *slog.Logger
}

// NewClient creates a new webhook sink client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	logger := config.Logger.With("component", "webhook_sink")
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		circuitBreaker: circuitbreaker.WebhookSinkBreaker(func(name string, from, to circuitbreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		}),
		logger: logger,
	}
}

// Deliver signs and POSTs the envelope to the receiver. The signature is
// computed over the exact body bytes sent.
func (c *Client) Deliver(ctx context.Context, envelope *webhook.Envelope) error {
	return c.circuitBreaker.Execute(ctx, func(ctx context.Context) error {
		return c.deliverOnce(ctx, envelope)
	})
}

func (c *Client) deliverOnce(ctx context.Context, envelope *webhook.Envelope) error {
	body, err := envelope.Body()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, webhook.Sign(body, c.config.Secret))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return shared.WrapError("webhook", "Deliver", shared.ErrServiceUnavailable, "webhook request failed", err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		c.logger.Debug("webhook delivered",
			"event_type", envelope.EventType, "status", resp.StatusCode)
		return nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return shared.NewDomainError("webhook", "Deliver", shared.ErrServiceUnavailable,
			fmt.Sprintf("receiver returned status %d", resp.StatusCode))
	default:
		// 4xx means the receiver rejected this envelope; retrying the
		// same bytes will not help.
		return shared.NewDomainError("webhook", "Deliver", shared.ErrExternalService,
			fmt.Sprintf("receiver rejected envelope with status %d", resp.StatusCode))
	}
}

// IsHealthy reports whether the circuit to the receiver is closed.
func (c *Client) IsHealthy() bool {
	return c.circuitBreaker.IsClosed()
}
