package httpclient

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		retryable    bool
		withTimeouts bool
	}{
		{name: "500", err: NewHTTPError("x", 500, nil), retryable: true, withTimeouts: true},
		{name: "503", err: NewHTTPError("x", 503, nil), retryable: true, withTimeouts: true},
		{name: "599", err: NewHTTPError("x", 599, nil), retryable: true, withTimeouts: true},
		{name: "600", err: NewHTTPError("x", 600, nil)},
		{name: "400", err: NewHTTPError("x", 400, nil)},
		{name: "404", err: NewHTTPError("x", 404, nil)},
		{name: "429", err: NewHTTPError("x", 429, nil)},
		{name: "network", err: NewNetworkError("refused", errors.New("dial tcp")), retryable: true, withTimeouts: true},
		{name: "network cancellation", err: NewNetworkError("request cancelled", context.Canceled), retryable: true, withTimeouts: true},
		{name: "timeout", err: NewTimeoutError("request timed out", time.Second), withTimeouts: true},
		{name: "validation", err: NewValidationError("x", "url")},
		{name: "interceptor", err: NewInterceptorError("x", "request", errors.New("y"))},
		{name: "decode", err: NewDecodeError("x", errors.New("y"))},
		{name: "plain error", err: errors.New("boom")},
		{name: "nil", err: nil},
		{name: "wrapped 502", err: fmt.Errorf("generate: %w", NewHTTPError("x", 502, nil)), retryable: true, withTimeouts: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, Classify(tt.err))
			assert.Equal(t, tt.withTimeouts, RetryTimeouts(tt.err))
		})
	}
}

func TestClassifyEveryStatus(t *testing.T) {
	for status := 100; status < 700; status++ {
		want := status >= 500 && status < 600
		assert.Equal(t, want, Classify(NewHTTPError("x", status, nil)), "status %d", status)
	}
}
