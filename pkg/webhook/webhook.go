// Package webhook posts chat analysis reports to HTTP endpoints.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ccollicutt/chatsift/pkg/config"
	"github.com/ccollicutt/chatsift/pkg/output"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 10 * time.Second

// EventStats is the event name carried by stats deliveries.
const EventStats = "chatsift.stats"

// Client sends analysis reports to webhook endpoints.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a new webhook client.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{},
	}
}

// SendOptions configures a webhook request.
type SendOptions struct {
	URL     string
	Token   string        // Bearer token (optional)
	Timeout time.Duration // Request timeout (uses DefaultTimeout if zero)
}

// Payload is the JSON body of a delivery.
type Payload struct {
	ID     string         `json:"id"`
	Event  string         `json:"event"`
	SentAt time.Time      `json:"sent_at"`
	Report *output.Report `json:"report"`
}

// Response contains the result of a webhook request.
type Response struct {
	DeliveryID string
	StatusCode int
	Body       string
	Duration   time.Duration
	Error      error
}

// Success returns true if the webhook was sent successfully (2xx status).
func (r *Response) Success() bool {
	return r.Error == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Send posts a stats report to a webhook endpoint.
func (c *Client) Send(ctx context.Context, report *output.Report, opts SendOptions) *Response {
	start := time.Now()
	resp := &Response{DeliveryID: uuid.NewString()}

	payload, err := json.Marshal(Payload{
		ID:     resp.DeliveryID,
		Event:  EventStats,
		SentAt: start.UTC(),
		Report: report,
	})
	if err != nil {
		resp.Error = fmt.Errorf("failed to marshal report: %w", err)
		resp.Duration = time.Since(start)
		return resp
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.URL, bytes.NewReader(payload))
	if err != nil {
		resp.Error = fmt.Errorf("failed to create request: %w", err)
		resp.Duration = time.Since(start)
		return resp
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "chatsift-webhook")
	req.Header.Set("X-Chatsift-Delivery", resp.DeliveryID)
	if opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.Token)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		resp.Error = fmt.Errorf("request failed: %w", err)
		resp.Duration = time.Since(start)
		return resp
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 1024*1024)) // Limit to 1MB
	if err != nil {
		resp.Error = fmt.Errorf("failed to read response: %w", err)
		resp.Duration = time.Since(start)
		return resp
	}

	resp.StatusCode = httpResp.StatusCode
	resp.Body = string(body)
	resp.Duration = time.Since(start)

	if resp.StatusCode >= 400 {
		resp.Error = fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return resp
}

// ShouldFire reports whether a webhook with the given trigger fires for a
// run that did or did not produce messages.
func ShouldFire(trigger config.WebhookTrigger, hasMessages bool) bool {
	switch trigger {
	case config.WebhookTriggerAlways:
		return true
	case config.WebhookTriggerNever:
		return false
	default:
		return hasMessages
	}
}

// Notify sends report to every hook whose trigger fires. Failures are
// logged and never returned; the number of successful deliveries is.
func (c *Client) Notify(ctx context.Context, hooks []config.WebhookConfig, report *output.Report, logger *slog.Logger) int {
	if logger == nil {
		logger = slog.Default()
	}

	sent := 0
	for _, wh := range hooks {
		if !ShouldFire(wh.Trigger, report.HasMessages()) {
			continue
		}

		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		resp := c.Send(ctx, report, SendOptions{
			URL:     wh.URL,
			Token:   wh.Token,
			Timeout: wh.TimeoutDuration(),
		})
		if resp.Success() {
			sent++
			logger.Info("webhook sent", "webhook", name, "status", resp.StatusCode,
				"delivery", resp.DeliveryID, "duration", resp.Duration)
			continue
		}
		logger.Warn("webhook failed", "webhook", name, "delivery", resp.DeliveryID, "error", resp.Error)
	}
	return sent
}
