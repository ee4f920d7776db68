package httpclient

import (
	"encoding/json"
	"fmt"
	"strings"
)

// valueErrorPrefix is stripped from validation messages, case-insensitively
const valueErrorPrefix = "value error, "

// NormalizeMessage reduces an error payload to a single message:
// a string is returned verbatim; for a non-empty list the first element
// wins, either its "msg" field (without a leading "Value error, ") or the
// element itself when it is a string. Anything else yields fallback.
func NormalizeMessage(payload any, fallback string) string {
	switch p := payload.(type) {
	case string:
		return p
	case []any:
		if len(p) == 0 {
			return fallback
		}
		switch first := p[0].(type) {
		case map[string]any:
			if msg, ok := first["msg"].(string); ok {
				return stripValueErrorPrefix(msg)
			}
		case string:
			return first
		}
	}
	return fallback
}

// StructuredErrorMessage parses body as JSON and normalizes its "detail"
// field. A body that is not a JSON object is treated as an empty object.
func StructuredErrorMessage(body []byte, fallback string) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		payload = map[string]any{}
	}
	return NormalizeMessage(payload["detail"], fallback)
}

// BlobErrorMessage is the message for a failed binary download: the
// structured detail when the body is JSON, otherwise the body text as sent,
// otherwise
// the generic status message.
func BlobErrorMessage(status int, body []byte) string {
	fallback := DefaultErrorMessage(status)

	var payload any
	if err := json.Unmarshal(body, &payload); err == nil {
		var detail any
		if obj, ok := payload.(map[string]any); ok {
			detail = obj["detail"]
		}
		return NormalizeMessage(detail, fallback)
	}

	if len(body) > 0 {
		return string(body)
	}
	return fallback
}

// DefaultErrorMessage is used when a response carries no usable message.
func DefaultErrorMessage(status int) string {
	return fmt.Sprintf("HTTP error %d", status)
}

func stripValueErrorPrefix(msg string) string {
	if len(msg) >= len(valueErrorPrefix) && strings.EqualFold(msg[:len(valueErrorPrefix)], valueErrorPrefix) {
		return msg[len(valueErrorPrefix):]
	}
	return msg
}
