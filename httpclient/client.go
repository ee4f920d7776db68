package httpclient

import (
	"bytes"
	"context"
	"io"
	"maps"
	nethttp "net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/scaffoldkit/scaffold-client/logger"
	scaffoldtrace "github.com/scaffoldkit/scaffold-client/trace"
)

// DefaultMaxPayloadLogBytes caps logged body previews
const DefaultMaxPayloadLogBytes = 1024

// client implements the Client interface
type client struct {
	httpClient           *nethttp.Client
	logger               logger.Logger
	config               *Config
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
	limiter              *rate.Limiter
	telemetry            *telemetry
	callCount            int64
}

// NewClient creates a new REST client with default configuration
func NewClient(log logger.Logger) Client {
	return NewBuilder(log).Build()
}

// Builder provides a fluent interface for configuring the REST client
type Builder struct {
	config     *Config
	logger     logger.Logger
	httpClient *nethttp.Client
}

// NewBuilder creates a new client builder
func NewBuilder(log logger.Logger) *Builder {
	if log == nil {
		log = logger.Nop()
	}
	return &Builder{
		config: &Config{
			Timeout:              DefaultTimeout,
			MaxRetries:           DefaultMaxRetries,
			Schedule:             append(Schedule(nil), DefaultSchedule...),
			RequestInterceptors:  []RequestInterceptor{},
			ResponseInterceptors: []ResponseInterceptor{},
			DefaultHeaders:       make(map[string]string),
			MaxPayloadLogBytes:   DefaultMaxPayloadLogBytes,
			TraceIDHeader:        HeaderXRequestID,
			NewTraceID:           scaffoldtrace.NewRequestID,
		},
		logger: log,
	}
}

// WithTimeout sets the per-attempt timeout
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.config.Timeout = timeout
	return b
}

// WithRetries sets the retry budget and, when given, the backoff schedule
func (b *Builder) WithRetries(maxRetries int, schedule ...time.Duration) *Builder {
	if maxRetries < 0 {
		maxRetries = 0
	}
	b.config.MaxRetries = maxRetries
	if len(schedule) > 0 {
		b.config.Schedule = append(Schedule(nil), schedule...)
	}
	return b
}

// WithRetryOnTimeout makes timed-out attempts retryable
func (b *Builder) WithRetryOnTimeout(enabled bool) *Builder {
	b.config.RetryOnTimeout = enabled
	return b
}

// WithBaseURL sets the URL relative request URLs are resolved against
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.BaseURL = baseURL
	return b
}

// WithBasicAuth sets basic authentication credentials
func (b *Builder) WithBasicAuth(username, password string) *Builder {
	b.config.BasicAuth = &BasicAuth{
		Username: username,
		Password: password,
	}
	return b
}

// WithDefaultHeader adds a default header that will be sent with all requests
func (b *Builder) WithDefaultHeader(key, value string) *Builder {
	b.config.DefaultHeaders[key] = value
	return b
}

// WithRequestInterceptor adds a request interceptor
func (b *Builder) WithRequestInterceptor(interceptor RequestInterceptor) *Builder {
	b.config.RequestInterceptors = append(b.config.RequestInterceptors, interceptor)
	return b
}

// WithResponseInterceptor adds a response interceptor
func (b *Builder) WithResponseInterceptor(interceptor ResponseInterceptor) *Builder {
	b.config.ResponseInterceptors = append(b.config.ResponseInterceptors, interceptor)
	return b
}

// WithHTTPClient replaces the underlying http.Client
func (b *Builder) WithHTTPClient(httpClient *nethttp.Client) *Builder {
	b.httpClient = httpClient
	return b
}

// WithTransport sets the round tripper of the underlying http.Client
func (b *Builder) WithTransport(rt nethttp.RoundTripper) *Builder {
	if b.httpClient == nil {
		b.httpClient = &nethttp.Client{}
	}
	b.httpClient.Transport = rt
	return b
}

// WithTraceIDHeader sets the header carrying the request id
func (b *Builder) WithTraceIDHeader(header string) *Builder {
	if header != "" {
		b.config.TraceIDHeader = header
	}
	return b
}

// WithTraceIDGenerator sets the request id generator
func (b *Builder) WithTraceIDGenerator(gen func() string) *Builder {
	if gen != nil {
		b.config.NewTraceID = gen
	}
	return b
}

// WithPayloadLogging enables debug logging of bodies, truncated to maxBytes
// (zero keeps the default)
func (b *Builder) WithPayloadLogging(enabled bool, maxBytes int) *Builder {
	b.config.LogPayloads = enabled
	if maxBytes > 0 {
		b.config.MaxPayloadLogBytes = maxBytes
	}
	return b
}

// WithRateLimit waits on a token bucket before every attempt
func (b *Builder) WithRateLimit(limit rate.Limit, burst int) *Builder {
	b.config.RateLimit = limit
	b.config.RateBurst = burst
	return b
}

// WithTracerProvider sets the tracer provider (default: otel global)
func (b *Builder) WithTracerProvider(tp trace.TracerProvider) *Builder {
	b.config.TracerProvider = tp
	return b
}

// WithMeterProvider sets the meter provider (default: otel global)
func (b *Builder) WithMeterProvider(mp metric.MeterProvider) *Builder {
	b.config.MeterProvider = mp
	return b
}

// WithSleeper replaces the backoff sleep
func (b *Builder) WithSleeper(sleep Sleeper) *Builder {
	b.config.Sleep = sleep
	return b
}

// Build creates the REST client with the configured options
func (b *Builder) Build() Client {
	httpClient := b.httpClient
	if httpClient == nil {
		// attempts are bounded by WithTimeout, not by http.Client.Timeout
		httpClient = &nethttp.Client{}
	}

	cfg := *b.config
	cfg.DefaultHeaders = maps.Clone(b.config.DefaultHeaders)

	c := &client{
		httpClient:           httpClient,
		logger:               b.logger,
		config:               &cfg,
		requestInterceptors:  cfg.RequestInterceptors,
		responseInterceptors: cfg.ResponseInterceptors,
		telemetry:            newTelemetry(cfg.TracerProvider, cfg.MeterProvider, b.logger),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(cfg.RateLimit, burst)
	}
	return c
}

// Get performs a GET request
func (c *client) Get(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodGet, req)
}

// Post performs a POST request
func (c *client) Post(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPost, req)
}

// Put performs a PUT request
func (c *client) Put(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPut, req)
}

// Patch performs a PATCH request
func (c *client) Patch(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPatch, req)
}

// Delete performs a DELETE request
func (c *client) Delete(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodDelete, req)
}

// call carries the per-call state shared by all attempts
type call struct {
	method    string
	target    string
	requestID string
	req       *Request
	timeout   time.Duration
	start     time.Time
	callCount int64
	attempts  atomic.Int32
}

// Do performs an HTTP request with the specified method. Non-2xx responses
// are returned together with an HTTP error.
func (c *client) Do(ctx context.Context, method string, req *Request) (*Response, error) {
	if err := c.validateRequest(req); err != nil {
		return nil, err
	}
	target, err := c.resolveURL(req.URL)
	if err != nil {
		return nil, err
	}

	cl := &call{
		method:    method,
		target:    target,
		requestID: c.requestID(ctx, req),
		req:       req,
		timeout:   c.config.Timeout,
		start:     time.Now(),
		callCount: atomic.AddInt64(&c.callCount, 1),
	}
	if req.Timeout > 0 {
		cl.timeout = req.Timeout
	}

	ctx = scaffoldtrace.WithRequestID(ctx, cl.requestID)
	ctx, span := c.telemetry.startCall(ctx, method, target)

	resp, err := Execute(ctx, c.executor(ctx, cl, span), func(attemptCtx context.Context) (*Response, error) {
		return c.attempt(attemptCtx, cl)
	})

	attempts := int(cl.attempts.Load())
	c.telemetry.endCall(span, resp, err, attempts)
	if err != nil {
		c.logFailure(cl, attempts, err)
	}
	return resp, err
}

// JSON performs the call and decodes a 2xx body into out. An empty body,
// a 204 or a nil out leaves out untouched.
func (c *client) JSON(ctx context.Context, method string, req *Request, out any) error {
	resp, err := c.Do(ctx, method, req)
	if err != nil {
		return err
	}
	return decodeJSONBody(resp, out)
}

// Blob performs the call and returns the 2xx body unmodified. Failed
// responses carry the best-effort message from BlobErrorMessage.
func (c *client) Blob(ctx context.Context, method string, req *Request) ([]byte, error) {
	resp, err := c.Do(ctx, method, req)
	if err != nil {
		if resp != nil && IsErrorType(err, HTTPError) {
			return nil, NewHTTPError(BlobErrorMessage(resp.StatusCode, resp.Body), resp.StatusCode, resp.Body)
		}
		return nil, err
	}
	return resp.Body, nil
}

func (c *client) executor(ctx context.Context, cl *call, span trace.Span) Executor {
	classifier := Classify
	if c.config.RetryOnTimeout {
		classifier = RetryTimeouts
	}

	return Executor{
		MaxRetries: c.config.MaxRetries,
		Schedule:   c.config.Schedule,
		Timeout:    cl.timeout,
		Classifier: classifier,
		Sleep:      c.config.Sleep,
		Observer: func(ev AttemptEvent) {
			c.telemetry.recordAttempt(ctx, span, cl.method, ev)
			if ev.State == StateFailedRetryable && !ev.Exhausted {
				c.logger.Warn().
					Str("method", cl.method).
					Str("request_id", cl.requestID).
					Int("attempt", ev.Attempt+1).
					Dur("backoff", ev.Delay).
					Err(ev.Err).
					Msg("Retrying REST client request")
			}
		},
	}
}

// attempt performs one transport round trip. It runs on the goroutine
// started by WithTimeout.
func (c *client) attempt(ctx context.Context, cl *call) (*Response, error) {
	attempt := int(cl.attempts.Add(1))

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, NewNetworkError("rate limiter wait failed", err)
		}
	}

	httpReq, err := c.buildRequest(ctx, cl.method, cl.target, cl.req, cl.requestID)
	if err != nil {
		return nil, err
	}
	c.logRequest(httpReq, cl.req.Body, cl.requestID)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// transport timeouts (dial, TLS, response headers) are network
		// failures; only the attempt deadline in WithTimeout is a TimeoutError
		return nil, NewNetworkError("request execution failed", err)
	}

	resp, err := c.buildResponse(ctx, cl, attempt, httpReq, httpResp)
	if err != nil {
		return nil, err
	}
	c.logResponse(resp, cl.requestID)

	if !IsSuccessStatus(resp.StatusCode) {
		message := StructuredErrorMessage(resp.Body, DefaultErrorMessage(resp.StatusCode))
		return resp, NewHTTPError(message, resp.StatusCode, resp.Body)
	}
	return resp, nil
}

// validateRequest validates the request before sending
func (c *client) validateRequest(req *Request) error {
	if req == nil {
		return NewValidationError("request cannot be nil", "request")
	}
	if req.URL == "" {
		return NewValidationError("URL cannot be empty", "url")
	}
	return nil
}

// resolveURL joins relative URLs onto the base URL
func (c *client) resolveURL(raw string) (string, error) {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") || c.config.BaseURL == "" {
		return raw, nil
	}

	base, err := url.Parse(c.config.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "", NewValidationError("invalid base URL", "base_url")
	}
	return strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(raw, "/"), nil
}

// requestID picks the id shared by every attempt of a call: an explicit
// header, then the context, then a generated one.
func (c *client) requestID(ctx context.Context, req *Request) string {
	header := c.traceIDHeader()
	for key, value := range req.Headers {
		if strings.EqualFold(key, header) && value != "" {
			return value
		}
	}
	if id, ok := scaffoldtrace.RequestIDFromContext(ctx); ok {
		return id
	}
	if c.config.NewTraceID != nil {
		return c.config.NewTraceID()
	}
	return scaffoldtrace.NewRequestID()
}

func (c *client) traceIDHeader() string {
	if c.config.TraceIDHeader != "" {
		return c.config.TraceIDHeader
	}
	return HeaderXRequestID
}

// applyHeaders applies headers to the HTTP request
func (c *client) applyHeaders(httpReq *nethttp.Request, req *Request, requestID string) {
	// Apply default headers first
	for key, value := range c.config.DefaultHeaders {
		httpReq.Header.Set(key, value)
	}

	// Apply request-specific headers (these override defaults)
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if httpReq.Header.Get(HeaderContentType) == "" {
		httpReq.Header.Set(HeaderContentType, ContentTypeJSON)
	}

	httpReq.Header.Set(c.traceIDHeader(), requestID)
	scaffoldtrace.Inject(httpReq.Context(), httpReq.Header)
}

// applyAuth applies authentication to the HTTP request
func (c *client) applyAuth(httpReq *nethttp.Request, req *Request) {
	// Request-specific auth takes precedence
	auth := req.Auth
	if auth == nil {
		auth = c.config.BasicAuth
	}

	if auth != nil {
		httpReq.SetBasicAuth(auth.Username, auth.Password)
	}
}

// buildRequest constructs an *http.Request, applies headers/auth, and runs request interceptors.
func (c *client) buildRequest(ctx context.Context, method, target string, req *Request, requestID string) (*nethttp.Request, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := nethttp.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, NewValidationError("failed to create HTTP request: "+err.Error(), "url")
	}

	c.applyHeaders(httpReq, req, requestID)
	c.applyAuth(httpReq, req)

	if err := c.runRequestInterceptors(ctx, httpReq); err != nil {
		return nil, NewInterceptorError("request interceptor failed", "request", err)
	}
	return httpReq, nil
}

// buildResponse runs response interceptors, reads body, and builds a Response.
func (c *client) buildResponse(ctx context.Context, cl *call, attempt int, httpReq *nethttp.Request, httpResp *nethttp.Response) (*Response, error) {
	defer httpResp.Body.Close()

	if err := c.runResponseInterceptors(ctx, httpReq, httpResp); err != nil {
		return nil, NewInterceptorError("response interceptor failed", "response", err)
	}

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, NewNetworkError("failed to read response body", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       respBody,
		Headers:    httpResp.Header,
		Stats: Stats{
			ElapsedTime: time.Since(cl.start),
			CallCount:   cl.callCount,
			Attempts:    attempt,
		},
	}, nil
}

// runRequestInterceptors executes all request interceptors
func (c *client) runRequestInterceptors(ctx context.Context, req *nethttp.Request) error {
	for _, interceptor := range c.requestInterceptors {
		if err := interceptor(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

// runResponseInterceptors executes all response interceptors
func (c *client) runResponseInterceptors(ctx context.Context, req *nethttp.Request, resp *nethttp.Response) error {
	for _, interceptor := range c.responseInterceptors {
		if err := interceptor(ctx, req, resp); err != nil {
			return err
		}
	}
	return nil
}
