// Package dispatch performs the outbound call to the external workflow
// engine's webhook and normalizes whatever comes back into an UpstreamPayload.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/fishperson113/scholarships-routing/pkg/models"
	"github.com/fishperson113/scholarships-routing/pkg/version"
)

// Client sends chat payloads to the configured webhook URL.
// The zero value is not usable; construct with NewClient.
type Client struct {
	httpClient *http.Client
	webhookURL string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewClient creates a webhook dispatch client. timeout bounds each outbound
// call; it is also used in timeout diagnostics.
func NewClient(webhookURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		webhookURL: webhookURL,
		timeout:    timeout,
		logger:     slog.Default(),
	}
}

// Send performs exactly one POST of the payload to the webhook and returns an
// UpstreamPayload. It never returns a Go error: malformed bodies are wrapped
// as a text fallback, and network or HTTP failures become error payloads so
// the formatting stage always receives a valid input. Retry policy, if any,
// belongs to the queue's redelivery mechanism, not here.
func (c *Client) Send(ctx context.Context, payload map[string]any) models.UpstreamPayload {
	if c.webhookURL == "" {
		return errorPayload("webhook URL is not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errorPayload(fmt.Sprintf("encode payload: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return errorPayload(fmt.Sprintf("create request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.Full())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			c.logger.Warn("Webhook call timed out", "url", c.webhookURL, "timeout", c.timeout)
			return errorPayload(fmt.Sprintf("upstream timeout after %s", c.timeout))
		}
		c.logger.Warn("Webhook call failed", "url", c.webhookURL, "error", err)
		return errorPayload(fmt.Sprintf("upstream request failed: %v", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errorPayload(fmt.Sprintf("read upstream response: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("Webhook returned non-2xx status",
			"url", c.webhookURL, "status", resp.StatusCode)
		return errorPayload(fmt.Sprintf("upstream returned HTTP %d", resp.StatusCode))
	}

	return parseBody(raw)
}

// parseBody attempts a structured parse of the upstream body. Non-JSON bodies
// (plain text, HTML error pages) are wrapped rather than rejected — the
// workflow engine's reply shape is not under our control.
func parseBody(raw []byte) models.UpstreamPayload {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj
	}

	// A top-level JSON array is still structured data; keep the parsed value
	// so the normalizer can inspect its first element.
	var arr []any
	if err := json.Unmarshal(raw, &arr); err == nil {
		return models.UpstreamPayload{"output": arr}
	}

	// A bare JSON string is unwrapped so the reply does not carry quotes.
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return models.UpstreamPayload{
			"output": s,
			"status": models.StatusTextFallback,
		}
	}

	return models.UpstreamPayload{
		"output": string(raw),
		"status": models.StatusTextFallback,
	}
}

func errorPayload(message string) models.UpstreamPayload {
	return models.UpstreamPayload{
		"status":  models.StatusError,
		"message": message,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
