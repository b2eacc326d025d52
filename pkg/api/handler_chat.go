package api

import (
	"log/slog"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/fishperson113/scholarships-routing/pkg/chat"
	"github.com/fishperson113/scholarships-routing/pkg/models"
)

// chatSyncHandler handles POST /chat/sync.
//
// It bridges the synchronous HTTP contract onto the asynchronous pipeline:
// submit the task, block once for the result (bounded by the configured wait
// timeout), and map the outcome. Upstream-originated failures return 200 with
// an error-shaped ChatResponse so chat clients always get a parseable body;
// only the gateway wait timeout and infrastructure failures map to HTTP
// failure statuses.
func (s *Server) chatSyncHandler(c *echo.Context) error {
	start := time.Now()

	var req models.ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// The session id crosses the queue boundary as plain text; a request
	// without one stays without one, and the response omits the field.
	sessionID := ""
	if req.SessionID != nil {
		sessionID = req.SessionID.String()
	}

	payload, err := req.QueuePayload(sessionID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to build task payload")
	}

	log := slog.With("session_id", sessionID, "user_id", req.UserID)

	handle, err := s.broker.Submit(c.Request().Context(), payload)
	if err != nil {
		log.Error("Failed to submit chat task", "error", err)
		s.countRequest("infra_error", start)
		return mapQueueError(err)
	}
	log.Info("Chat task submitted", "task_id", handle.ID)

	result, err := s.broker.Await(c.Request().Context(), handle, s.cfg.Gateway.WaitTimeout)
	if err != nil {
		// The wait is abandoned on expiry; the in-flight task keeps running
		// and its result expires from the backend via TTL.
		log.Warn("Chat task wait ended without result", "task_id", handle.ID, "error", err)
		s.countTimeoutOrError(err, start)
		return mapQueueError(err)
	}

	resp := buildChatResponse(result, sessionID)
	log.Info("Chat task completed", "task_id", handle.ID, "status", resp.Status)
	s.countRequest(resp.Status, start)
	return c.JSON(http.StatusOK, resp)
}

// buildChatResponse converts the pipeline's result mapping into the response
// DTO, overlaying the session id from the original request. If the result does
// not already conform (a crashed or foreign payload), the normalizer is
// applied once more so the reply is still usable text.
func buildChatResponse(result map[string]any, sessionID string) *models.ChatResponse {
	status, _ := result["status"].(string)
	if status == "" {
		status = models.StatusSuccess
	}

	reply, _ := result["reply"].(string)
	if reply == "" {
		reply = chat.ExtractReply(result)
	}

	queued, ok := result["queued"].(bool)
	if !ok {
		queued = true
	}

	return &models.ChatResponse{
		Reply:     reply,
		RawResult: result["raw_result"],
		Status:    status,
		SessionID: sessionID,
		Queued:    queued,
	}
}
