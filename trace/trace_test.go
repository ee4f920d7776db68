package trace

import (
	"context"
	nethttp "net/http"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestHeaderConstants(t *testing.T) {
	assert.Equal(t, "X-Request-ID", HeaderXRequestID)
	assert.Equal(t, "traceparent", HeaderTraceParent)
	assert.Equal(t, "tracestate", HeaderTraceState)
}

func TestEnsureRequestID_UsesExisting(t *testing.T) {
	ctx := WithRequestID(context.Background(), "existing-id")
	assert.Equal(t, "existing-id", EnsureRequestID(ctx))
}

func TestEnsureRequestID_GeneratesWhenMissing(t *testing.T) {
	got := EnsureRequestID(context.Background())
	re := regexp.MustCompile(`^[a-f0-9\-]{36}$`)
	assert.True(t, re.MatchString(got))
	assert.NotEqual(t, got, EnsureRequestID(context.Background()))
}

func TestRequestIDFromContext_EmptyIgnored(t *testing.T) {
	_, ok := RequestIDFromContext(WithRequestID(context.Background(), ""))
	assert.False(t, ok)
}

func TestInject(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "call")
	defer span.End()

	t.Run("writes traceparent for active span", func(t *testing.T) {
		h := nethttp.Header{}
		Inject(ctx, h)

		tp := h.Get(HeaderTraceParent)
		require.NotEmpty(t, tp)
		assert.Contains(t, tp, span.SpanContext().TraceID().String())
	})

	t.Run("keeps caller supplied traceparent", func(t *testing.T) {
		h := nethttp.Header{}
		h.Set(HeaderTraceParent, "00-0123456789abcdef0123456789abcdef-0123456789abcdef-01")
		Inject(ctx, h)
		assert.Equal(t, "00-0123456789abcdef0123456789abcdef-0123456789abcdef-01", h.Get(HeaderTraceParent))
	})

	t.Run("no span means no header", func(t *testing.T) {
		h := nethttp.Header{}
		Inject(context.Background(), h)
		assert.Empty(t, h.Get(HeaderTraceParent))
	})
}
