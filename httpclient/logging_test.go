package httpclient

import (
	"context"
	"errors"
	"maps"
	nethttp "net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scaffoldkit/scaffold-client/logger"
)

const (
	testRestClientRequest  = "REST client request"
	testRestClientResponse = "REST client response"
)

// fakeLogEvent implements logger.LogEvent for testing
type fakeLogEvent struct {
	logger *fakeLogger
	level  string
	fields map[string]any
}

func (e *fakeLogEvent) Msg(msg string) {
	e.logger.mu.Lock()
	defer e.logger.mu.Unlock()
	e.logger.events = append(e.logger.events, loggedEvent{
		level:   e.level,
		fields:  maps.Clone(e.fields),
		message: msg,
	})
}

func (e *fakeLogEvent) Msgf(format string, _ ...any) { e.Msg(format) }

func (e *fakeLogEvent) Err(err error) logger.LogEvent { return e.set("error", err) }

func (e *fakeLogEvent) Str(key, value string) logger.LogEvent { return e.set(key, value) }

func (e *fakeLogEvent) Int(key string, value int) logger.LogEvent { return e.set(key, value) }

func (e *fakeLogEvent) Int64(key string, value int64) logger.LogEvent { return e.set(key, value) }

func (e *fakeLogEvent) Uint64(key string, value uint64) logger.LogEvent { return e.set(key, value) }

func (e *fakeLogEvent) Dur(key string, d time.Duration) logger.LogEvent { return e.set(key, d) }

func (e *fakeLogEvent) Interface(key string, i any) logger.LogEvent { return e.set(key, i) }

func (e *fakeLogEvent) Bytes(key string, val []byte) logger.LogEvent { return e.set(key, val) }

func (e *fakeLogEvent) set(key string, value any) logger.LogEvent {
	e.fields[key] = value
	return e
}

// fakeLogger implements logger.Logger and records every sent event
type fakeLogger struct {
	mu     sync.Mutex
	events []loggedEvent
}

type loggedEvent struct {
	level   string
	fields  map[string]any
	message string
}

func (l *fakeLogger) event(level string) logger.LogEvent {
	return &fakeLogEvent{logger: l, level: level, fields: make(map[string]any)}
}

func (l *fakeLogger) Info() logger.LogEvent { return l.event("info") }
func (l *fakeLogger) Error() logger.LogEvent { return l.event("error") }
func (l *fakeLogger) Debug() logger.LogEvent { return l.event("debug") }
func (l *fakeLogger) Warn() logger.LogEvent { return l.event("warn") }
func (l *fakeLogger) Fatal() logger.LogEvent { return l.event("fatal") }

func (l *fakeLogger) WithContext(_ any) logger.Logger { return l }

func (l *fakeLogger) WithFields(_ map[string]any) logger.Logger { return l }

func (l *fakeLogger) eventsByLevel(level string) []loggedEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var events []loggedEvent
	for _, event := range l.events {
		if event.level == level {
			events = append(events, event)
		}
	}
	return events
}

func newTestRequest(t *testing.T, method, url string) *nethttp.Request {
	t.Helper()
	req, err := nethttp.NewRequestWithContext(context.Background(), method, url, nethttp.NoBody)
	require.NoError(t, err)
	return req
}

func TestClientLogRequest(t *testing.T) {
	t.Run("basic request logging", func(t *testing.T) {
		fakeLog := &fakeLogger{}
		c := &client{logger: fakeLog, config: &Config{MaxPayloadLogBytes: 1024}}

		req := newTestRequest(t, nethttp.MethodPost, "https://scaffold.example.com/api/preview")
		req.Header.Set("Authorization", "Bearer token")
		req.Header.Set(HeaderContentType, ContentTypeJSON)
		body := []byte(`{"type": "gyroid"}`)

		c.logRequest(req, body, "req-123")

		infoEvents := fakeLog.eventsByLevel("info")
		require.Len(t, infoEvents, 1)
		event := infoEvents[0]
		assert.Equal(t, testRestClientRequest, event.message)
		assert.Equal(t, "outbound", event.fields["direction"])
		assert.Equal(t, nethttp.MethodPost, event.fields["method"])
		assert.Equal(t, "https://scaffold.example.com/api/preview", event.fields["url"])
		assert.Equal(t, "req-123", event.fields["request_id"])
		assert.Equal(t, 2, event.fields["header_count"])
		assert.Equal(t, len(body), event.fields["body_size"])
		assert.Empty(t, fakeLog.eventsByLevel("debug"))
	})

	t.Run("request with empty body and no headers", func(t *testing.T) {
		fakeLog := &fakeLogger{}
		c := &client{logger: fakeLog, config: &Config{}}

		c.logRequest(newTestRequest(t, nethttp.MethodGet, "https://scaffold.example.com/health"), nil, "req-456")

		infoEvents := fakeLog.eventsByLevel("info")
		require.Len(t, infoEvents, 1)
		assert.NotContains(t, infoEvents[0].fields, "body_size")
		assert.NotContains(t, infoEvents[0].fields, "header_count")
	})

	t.Run("payload logging", func(t *testing.T) {
		fakeLog := &fakeLogger{}
		c := &client{logger: fakeLog, config: &Config{LogPayloads: true, MaxPayloadLogBytes: 50}}

		req := newTestRequest(t, nethttp.MethodPut, "https://scaffold.example.com/api/preview")
		req.Header.Set("X-API-Key", "secret")
		body := []byte(`{"type": "lattice"}`)

		c.logRequest(req, body, "req-789")

		require.Len(t, fakeLog.eventsByLevel("info"), 1)
		debugEvents := fakeLog.eventsByLevel("debug")
		require.Len(t, debugEvents, 1)
		event := debugEvents[0]
		assert.Equal(t, testRestClientRequest, event.message)
		assert.Equal(t, "req-789", event.fields["request_id"])
		assert.NotNil(t, event.fields["headers"])
		assert.Equal(t, "false", event.fields["body_truncated"])
		assert.Equal(t, body, event.fields["body_preview"])
	})

	t.Run("truncation", func(t *testing.T) {
		fakeLog := &fakeLogger{}
		c := &client{logger: fakeLog, config: &Config{LogPayloads: true, MaxPayloadLogBytes: 10}}

		body := []byte("a body that is longer than ten bytes")
		c.logRequest(newTestRequest(t, nethttp.MethodPost, "https://scaffold.example.com/api/generate"), body, "req-trunc")

		event := fakeLog.eventsByLevel("debug")[0]
		assert.Equal(t, len(body), event.fields["body_size"])
		assert.Equal(t, "true", event.fields["body_truncated"])
		assert.Equal(t, body[:10], event.fields["body_preview"])
	})

	t.Run("zero limit uses default", func(t *testing.T) {
		fakeLog := &fakeLogger{}
		c := &client{logger: fakeLog, config: &Config{LogPayloads: true}}

		body := make([]byte, 1500)
		for i := range body {
			body[i] = byte('A' + (i % 26))
		}
		c.logRequest(newTestRequest(t, nethttp.MethodPost, "https://scaffold.example.com/api/generate"), body, "req-default")

		event := fakeLog.eventsByLevel("debug")[0]
		assert.Equal(t, "true", event.fields["body_truncated"])
		assert.Equal(t, body[:DefaultMaxPayloadLogBytes], event.fields["body_preview"])
	})
}

func TestClientLogResponse(t *testing.T) {
	t.Run("basic response logging", func(t *testing.T) {
		fakeLog := &fakeLogger{}
		c := &client{logger: fakeLog, config: &Config{}}

		resp := &Response{
			StatusCode: 200,
			Body:       []byte(`{"status": "ok"}`),
			Headers:    nethttp.Header{HeaderContentType: []string{ContentTypeJSON}},
			Stats:      Stats{ElapsedTime: 250 * time.Millisecond, CallCount: 5, Attempts: 1},
		}
		c.logResponse(resp, "req-response")

		infoEvents := fakeLog.eventsByLevel("info")
		require.Len(t, infoEvents, 1)
		event := infoEvents[0]
		assert.Equal(t, testRestClientResponse, event.message)
		assert.Equal(t, "inbound", event.fields["direction"])
		assert.Equal(t, 200, event.fields["status"])
		assert.Equal(t, 250*time.Millisecond, event.fields["elapsed"])
		assert.Equal(t, int64(5), event.fields["call_count"])
		assert.Equal(t, "req-response", event.fields["request_id"])
		assert.Equal(t, len(resp.Body), event.fields["body_size"])
		assert.Empty(t, fakeLog.eventsByLevel("debug"))
	})

	t.Run("empty body", func(t *testing.T) {
		fakeLog := &fakeLogger{}
		c := &client{logger: fakeLog, config: &Config{}}

		c.logResponse(&Response{StatusCode: 204, Headers: nethttp.Header{}}, "req-empty")

		event := fakeLog.eventsByLevel("info")[0]
		assert.Equal(t, 204, event.fields["status"])
		assert.NotContains(t, event.fields, "body_size")
	})

	t.Run("payload logging with truncation", func(t *testing.T) {
		fakeLog := &fakeLogger{}
		c := &client{logger: fakeLog, config: &Config{LogPayloads: true, MaxPayloadLogBytes: 15}}

		body := []byte(`{"data": "a response that is long enough to truncate"}`)
		c.logResponse(&Response{StatusCode: 200, Body: body, Headers: nethttp.Header{}}, "req-large")

		event := fakeLog.eventsByLevel("debug")[0]
		assert.Equal(t, testRestClientResponse, event.message)
		assert.Equal(t, "true", event.fields["body_truncated"])
		assert.Equal(t, body[:15], event.fields["body_preview"])
	})
}

func TestClientLogFailure(t *testing.T) {
	fakeLog := &fakeLogger{}
	c := &client{logger: fakeLog, config: &Config{}}
	cl := &call{method: nethttp.MethodPost, target: "https://scaffold.example.com/api/generate", requestID: "req-fail"}

	c.logFailure(cl, 4, errors.New("boom"))

	events := fakeLog.eventsByLevel("error")
	require.Len(t, events, 1)
	assert.Equal(t, "REST client request failed", events[0].message)
	assert.Equal(t, 4, events[0].fields["attempts"])
	assert.Equal(t, "req-fail", events[0].fields["request_id"])
}

func TestBuilderLoggingDefaults(t *testing.T) {
	built := NewBuilder(&fakeLogger{}).Build()
	impl, ok := built.(*client)
	require.True(t, ok)

	assert.False(t, impl.config.LogPayloads)
	assert.Equal(t, DefaultMaxPayloadLogBytes, impl.config.MaxPayloadLogBytes)
}
