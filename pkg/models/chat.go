// Package models defines the wire-level data shapes shared by the HTTP API,
// the task pipeline, and the upstream dispatch stage.
package models

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Response status values. The workflow engine is free to put anything in its
// "status" field; these are the only values this service itself produces.
const (
	// StatusSuccess indicates the upstream returned a well-formed JSON body.
	StatusSuccess = "success"

	// StatusTextFallback indicates the upstream body was not valid JSON and
	// the raw text was wrapped into the payload's "output" field.
	StatusTextFallback = "success_with_text_fallback"

	// StatusError indicates the upstream call failed (unreachable, timed out,
	// or returned a non-2xx status). The diagnostic lives in "message".
	StatusError = "error"
)

// ChatRequest is the HTTP request body for POST /chat/sync.
//
// SessionID is used only for correlation; it is echoed back verbatim in the
// response and never stored. UseProfile controls whether the workflow engine
// may read the user's profile data; it defaults to false.
type ChatRequest struct {
	Query      string     `json:"query"`
	Plan       string     `json:"plan"`
	UserID     string     `json:"user_id"`
	UseProfile bool       `json:"use_profile"`
	SessionID  *uuid.UUID `json:"session_id,omitempty"`
}

// Validate checks the required fields. Field-type errors are already caught
// by request binding; this only enforces presence.
func (r *ChatRequest) Validate() error {
	if r.Query == "" {
		return fmt.Errorf("query is required")
	}
	if r.Plan == "" {
		return fmt.Errorf("plan is required")
	}
	if r.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	return nil
}

// QueuePayload builds the transport-safe payload submitted to the task
// pipeline. The whole request is round-tripped through JSON so that new
// optional fields pass through without this function changing; only
// session_id is overridden, because a uuid.UUID is not guaranteed to survive
// the queue's encoding layer as anything but its canonical string form.
// An empty sessionID means the request had none; the key is dropped entirely.
func (r *ChatRequest) QueuePayload(sessionID string) (map[string]any, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}
	payload := make(map[string]any)
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal chat request: %w", err)
	}
	if sessionID == "" {
		delete(payload, "session_id")
	} else {
		payload["session_id"] = sessionID
	}
	return payload, nil
}

// ChatResponse is the HTTP response body for POST /chat/sync.
//
// Reply is never empty when Status is success or success_with_text_fallback;
// for error it carries the diagnostic text. RawResult holds the unmodified
// upstream-derived structure for diagnostics. Queued is true when the reply
// was produced via the asynchronous pipeline.
type ChatResponse struct {
	Reply     string `json:"reply"`
	RawResult any    `json:"raw_result,omitempty"`
	Status    string `json:"status"`
	SessionID string `json:"session_id,omitempty"`
	Queued    bool   `json:"queued"`
}

// UpstreamPayload is the dict-like structure produced by the dispatch stage:
// either the parsed JSON body from the workflow engine, the text-fallback
// wrapper, or an error payload. No other shape leaves the dispatch stage.
type UpstreamPayload map[string]any

// Status returns the payload's "status" field, or StatusSuccess when absent.
func (p UpstreamPayload) Status() string {
	if s, ok := p["status"].(string); ok && s != "" {
		return s
	}
	return StatusSuccess
}

// Message returns the payload's "message" field as text, or the fallback
// when absent. Used for error payloads.
func (p UpstreamPayload) Message(fallback string) string {
	if m, ok := p["message"]; ok && m != nil {
		return fmt.Sprint(m)
	}
	return fallback
}
