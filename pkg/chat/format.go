package chat

import "github.com/fishperson113/scholarships-routing/pkg/models"

// FormatResult is the result formatting stage of the task pipeline. It
// consumes the dispatch stage's payload and produces the ChatResponse-shaped
// mapping that crosses back over the queue boundary.
//
// session_id is deliberately not set here: the gateway attaches it from the
// original request, because the workflow engine is not trusted to echo it
// faithfully. queued is always true — this stage only runs inside the
// asynchronous pipeline.
func FormatResult(payload models.UpstreamPayload) map[string]any {
	status := payload.Status()

	if status == models.StatusError {
		return map[string]any{
			"reply":      payload.Message("unknown upstream error"),
			"raw_result": map[string]any(payload),
			"status":     models.StatusError,
			"queued":     true,
		}
	}

	return map[string]any{
		"reply":      ExtractReply(map[string]any(payload)),
		"raw_result": map[string]any(payload),
		"status":     status,
		"queued":     true,
	}
}
