package httpclient

import (
	"context"
	nethttp "net/http"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	scaffoldtrace "github.com/scaffoldkit/scaffold-client/trace"
)

const (
	// HeaderXRequestID is the standard header name for request tracing
	HeaderXRequestID = scaffoldtrace.HeaderXRequestID
	// HeaderContentType is merged into every request unless the caller sets it
	HeaderContentType = "Content-Type"
	// ContentTypeJSON is the default request content type
	ContentTypeJSON = "application/json"
)

// Client defines the REST client interface for making HTTP requests
type Client interface {
	Get(ctx context.Context, req *Request) (*Response, error)
	Post(ctx context.Context, req *Request) (*Response, error)
	Put(ctx context.Context, req *Request) (*Response, error)
	Patch(ctx context.Context, req *Request) (*Response, error)
	Delete(ctx context.Context, req *Request) (*Response, error)
	Do(ctx context.Context, method string, req *Request) (*Response, error)

	// JSON performs the call and decodes a successful body into out.
	JSON(ctx context.Context, method string, req *Request, out any) error
	// Blob performs the call and returns a successful body unmodified.
	Blob(ctx context.Context, method string, req *Request) ([]byte, error)
}

// Request describes one logical call. It is reused verbatim on every attempt.
type Request struct {
	// URL is an absolute URL or a path resolved against the client's base URL.
	URL     string
	Headers map[string]string
	Body    []byte
	Auth    *BasicAuth
	// Timeout overrides the client's per-attempt timeout when positive.
	Timeout time.Duration
}

// Response represents an HTTP response with tracking information
type Response struct {
	StatusCode int
	Body       []byte
	Headers    nethttp.Header
	Stats      Stats
}

// Stats contains request execution statistics
type Stats struct {
	ElapsedTime time.Duration
	CallCount   int64
	// Attempts is the number of attempts made so far in this call.
	Attempts int
}

// BasicAuth contains basic authentication credentials
type BasicAuth struct {
	Username string
	Password string
}

// RequestInterceptor is called before sending the request
type RequestInterceptor func(ctx context.Context, req *nethttp.Request) error

// ResponseInterceptor is called after receiving the response
type ResponseInterceptor func(ctx context.Context, req *nethttp.Request, resp *nethttp.Response) error

// Config holds the REST client configuration
type Config struct {
	Timeout    time.Duration
	MaxRetries int
	Schedule   Schedule
	// RetryOnTimeout makes timed-out attempts retryable
	RetryOnTimeout bool
	// BaseURL is prepended to relative request URLs
	BaseURL              string
	RequestInterceptors  []RequestInterceptor
	ResponseInterceptors []ResponseInterceptor
	BasicAuth            *BasicAuth
	DefaultHeaders       map[string]string
	// LogPayloads enables debug-level logging of headers and body payloads
	LogPayloads bool
	// MaxPayloadLogBytes caps the number of body bytes logged when LogPayloads is enabled
	MaxPayloadLogBytes int
	// TraceIDHeader configures the header name used for request id propagation (default: X-Request-ID)
	TraceIDHeader string
	// NewTraceID generates a request id when the context carries none (default: uuid)
	NewTraceID func() string
	// RateLimit and RateBurst configure an optional limiter awaited before every attempt
	RateLimit rate.Limit
	RateBurst int

	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	Sleep          Sleeper
}
