package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     ChatRequest
		wantErr string
	}{
		{
			name: "valid request",
			req:  ChatRequest{Query: "Hello", Plan: "basic", UserID: "u1"},
		},
		{
			name:    "missing query",
			req:     ChatRequest{Plan: "basic", UserID: "u1"},
			wantErr: "query is required",
		},
		{
			name:    "missing plan",
			req:     ChatRequest{Query: "Hello", UserID: "u1"},
			wantErr: "plan is required",
		},
		{
			name:    "missing user_id",
			req:     ChatRequest{Query: "Hello", Plan: "basic"},
			wantErr: "user_id is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.wantErr)
			}
		})
	}
}

func TestQueuePayload_FieldPassthrough(t *testing.T) {
	req := ChatRequest{Query: "Hello", Plan: "basic", UserID: "u1"}

	payload, err := req.QueuePayload("550e8400-e29b-41d4-a716-446655440000")
	require.NoError(t, err)

	assert.Equal(t, "Hello", payload["query"])
	assert.Equal(t, "basic", payload["plan"])
	assert.Equal(t, "u1", payload["user_id"])
	// use_profile defaults to false and still crosses the queue boundary
	assert.Equal(t, false, payload["use_profile"])
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", payload["session_id"])
}

func TestQueuePayload_NoSessionIDOmitsKey(t *testing.T) {
	req := ChatRequest{Query: "Hello", Plan: "basic", UserID: "u1"}

	payload, err := req.QueuePayload("")
	require.NoError(t, err)

	assert.NotContains(t, payload, "session_id")
}

func TestQueuePayload_UseProfileTrue(t *testing.T) {
	req := ChatRequest{Query: "q", Plan: "pro", UserID: "u2", UseProfile: true}

	payload, err := req.QueuePayload("sid")
	require.NoError(t, err)

	assert.Equal(t, true, payload["use_profile"])
}

func TestQueuePayload_SessionIDIsText(t *testing.T) {
	id := uuid.New()
	req := ChatRequest{Query: "q", Plan: "basic", UserID: "u1", SessionID: &id}

	payload, err := req.QueuePayload(id.String())
	require.NoError(t, err)

	// The payload must be JSON-serializable with session_id as plain text.
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, id.String(), decoded["session_id"])
}

func TestUpstreamPayloadStatus(t *testing.T) {
	assert.Equal(t, StatusSuccess, UpstreamPayload{}.Status())
	assert.Equal(t, StatusSuccess, UpstreamPayload{"status": ""}.Status())
	assert.Equal(t, StatusError, UpstreamPayload{"status": "error"}.Status())
	assert.Equal(t, StatusTextFallback,
		UpstreamPayload{"status": "success_with_text_fallback"}.Status())
	// Non-string status falls back to success rather than panicking.
	assert.Equal(t, StatusSuccess, UpstreamPayload{"status": 7}.Status())
}

func TestUpstreamPayloadMessage(t *testing.T) {
	assert.Equal(t, "boom", UpstreamPayload{"message": "boom"}.Message("fallback"))
	assert.Equal(t, "fallback", UpstreamPayload{}.Message("fallback"))
	assert.Equal(t, "42", UpstreamPayload{"message": 42}.Message("fallback"))
}
