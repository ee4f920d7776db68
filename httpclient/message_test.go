package httpclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const testFallback = "HTTP error 422"

func TestNormalizeMessage(t *testing.T) {
	tests := []struct {
		name     string
		payload  any
		expected string
	}{
		{name: "plain string", payload: "quota exceeded", expected: "quota exceeded"},
		{name: "empty string is still a string", payload: "", expected: ""},
		{name: "validation list", payload: []any{map[string]any{"msg": "Value error, must be positive"}}, expected: "must be positive"},
		{name: "prefix is case-insensitive", payload: []any{map[string]any{"msg": "VALUE ERROR, too large"}}, expected: "too large"},
		{name: "prefix only stripped at start", payload: []any{map[string]any{"msg": "got Value error, twice"}}, expected: "got Value error, twice"},
		{name: "msg without prefix", payload: []any{map[string]any{"msg": "field required", "loc": []any{"body", "type"}}}, expected: "field required"},
		{
			name: "first error wins",
			payload: []any{
				map[string]any{"msg": "Value error, first"},
				map[string]any{"msg": "Value error, second"},
			},
			expected: "first",
		},
		{name: "list of strings", payload: []any{"bad type", "bad format"}, expected: "bad type"},
		{name: "empty list", payload: []any{}, expected: testFallback},
		{name: "object without msg", payload: []any{map[string]any{"type": "missing"}}, expected: testFallback},
		{name: "non-string msg", payload: []any{map[string]any{"msg": 42.0}}, expected: testFallback},
		{name: "first element number", payload: []any{1.0}, expected: testFallback},
		{name: "nil", payload: nil, expected: testFallback},
		{name: "object", payload: map[string]any{"msg": "nested"}, expected: testFallback},
		{name: "number", payload: 3.5, expected: testFallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeMessage(tt.payload, testFallback))
		})
	}
}

func TestStructuredErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{name: "detail string", body: `{"detail": "quota exceeded"}`, expected: "quota exceeded"},
		{name: "detail list", body: `{"detail": [{"msg": "Value error, must be positive"}]}`, expected: "must be positive"},
		{name: "no detail", body: `{"error": "boom"}`, expected: testFallback},
		{name: "not json", body: `<html>Bad Gateway</html>`, expected: testFallback},
		{name: "json array", body: `[{"msg": "x"}]`, expected: testFallback},
		{name: "empty", body: ``, expected: testFallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StructuredErrorMessage([]byte(tt.body), testFallback))
		})
	}
}

func TestBlobErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected string
	}{
		{name: "structured detail", status: 400, body: `{"detail": "unknown scaffold type"}`, expected: "unknown scaffold type"},
		{name: "json without detail", status: 500, body: `{"error": "boom"}`, expected: "HTTP error 500"},
		{name: "json scalar", status: 500, body: `"oops"`, expected: "HTTP error 500"},
		{name: "plain text", status: 502, body: "upstream mesher crashed", expected: "upstream mesher crashed"},
		{name: "plain text kept verbatim", status: 502, body: "  mesher busy\n", expected: "  mesher busy\n"},
		{name: "empty body", status: 503, body: "", expected: "HTTP error 503"},
		{name: "whitespace body is text", status: 503, body: " \n\t", expected: " \n\t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BlobErrorMessage(tt.status, []byte(tt.body)))
		})
	}
}

func TestDefaultErrorMessage(t *testing.T) {
	assert.Equal(t, "HTTP error 404", DefaultErrorMessage(404))
}
