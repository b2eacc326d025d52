// Package chat converts loosely-structured workflow engine results into the
// canonical chat response shape.
package chat

import "fmt"

// EmptyReplyFallback is returned when no usable text can be extracted.
const EmptyReplyFallback = "[empty response]"

// replyKeys are searched in priority order when the result is a mapping.
var replyKeys = []string{"output", "text", "reply"}

// errorKeys are searched when none of the reply keys are present, so that
// failures still surface as user-visible text instead of an empty reply.
var errorKeys = []string{"error", "message"}

// ExtractReply derives a single display string from an arbitrary upstream
// result value. It never fails: unusable inputs produce EmptyReplyFallback.
// The function is pure; calling it twice on the same input yields the same
// text.
func ExtractReply(v any) string {
	switch val := v.(type) {
	case nil:
		return EmptyReplyFallback
	case string:
		if val == "" {
			return EmptyReplyFallback
		}
		return val
	case map[string]any:
		return extractFromMap(val)
	case []any:
		// Some workflow engines return an array of result objects; the first
		// element carries the reply.
		if len(val) == 0 {
			return EmptyReplyFallback
		}
		return ExtractReply(val[0])
	default:
		return fmt.Sprint(val)
	}
}

func extractFromMap(m map[string]any) string {
	for _, key := range replyKeys {
		if v, ok := m[key]; ok && v != nil {
			return coerce(v)
		}
	}
	for _, key := range errorKeys {
		if v, ok := m[key]; ok && v != nil {
			return coerce(v)
		}
	}
	return EmptyReplyFallback
}

// coerce renders a found value as text. Nested structures recurse so that
// shapes like {"output": {"text": "hi"}} still yield "hi".
func coerce(v any) string {
	switch val := v.(type) {
	case string:
		if val == "" {
			return EmptyReplyFallback
		}
		return val
	case map[string]any, []any:
		return ExtractReply(val)
	default:
		return fmt.Sprint(val)
	}
}
