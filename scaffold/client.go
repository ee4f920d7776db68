// Package scaffold is a typed client for the scaffold generation backend.
// Every call goes through the resilient httpclient: per-attempt timeouts,
// retries of 5xx and transport failures on the 1s/2s/4s schedule, and
// normalized error messages.
package scaffold

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/scaffoldkit/scaffold-client/config"
	"github.com/scaffoldkit/scaffold-client/httpclient"
	"github.com/scaffoldkit/scaffold-client/logger"
)

// Backend endpoint paths.
const (
	PathHealth   = "/health"
	PathTypes    = "/api/scaffold-types"
	PathPreview  = "/api/preview"
	PathGenerate = "/api/generate"
)

// Default per-operation timeouts.
const (
	DefaultPreviewTimeout  = 60 * time.Second
	DefaultGenerateTimeout = 120 * time.Second
)

// Options configures a Client. MaxRetries is used as given, so a zero value
// disables retries; start from DefaultOptions for the standard policy.
type Options struct {
	BaseURL string
	// Timeout applies to calls without an operation specific override.
	Timeout         time.Duration
	PreviewTimeout  time.Duration
	GenerateTimeout time.Duration
	MaxRetries      int
	Schedule        []time.Duration
	RetryTimeouts   bool
	RateLimit       float64
	RateBurst       int
	LogPayloads     bool
}

// DefaultOptions returns the default policy for a backend at baseURL:
// 30s attempts, 3 retries on the 1s/2s/4s schedule, 60s previews and 120s
// generation.
func DefaultOptions(baseURL string) Options {
	return Options{
		BaseURL:         baseURL,
		Timeout:         httpclient.DefaultTimeout,
		PreviewTimeout:  DefaultPreviewTimeout,
		GenerateTimeout: DefaultGenerateTimeout,
		MaxRetries:      httpclient.DefaultMaxRetries,
		Schedule:        append([]time.Duration(nil), httpclient.DefaultSchedule...),
	}
}

// OptionsFromConfig maps the backend section of the configuration.
func OptionsFromConfig(cfg *config.BackendConfig) Options {
	opts := Options{
		BaseURL:         cfg.BaseURL,
		Timeout:         cfg.Timeout,
		PreviewTimeout:  cfg.Timeouts.Preview,
		GenerateTimeout: cfg.Timeouts.Generate,
		MaxRetries:      cfg.Retry.Max,
		Schedule:        cfg.Retry.Schedule,
		RetryTimeouts:   cfg.RetryTimeouts,
		LogPayloads:     cfg.LogPayloads,
	}
	if cfg.RateLimit.Enabled() {
		opts.RateLimit = cfg.RateLimit.RPS
		opts.RateBurst = cfg.RateLimit.Burst
	}
	return opts
}

func (o *Options) applyDefaults() {
	if o.Timeout <= 0 {
		o.Timeout = httpclient.DefaultTimeout
	}
	if o.PreviewTimeout <= 0 {
		o.PreviewTimeout = DefaultPreviewTimeout
	}
	if o.GenerateTimeout <= 0 {
		o.GenerateTimeout = DefaultGenerateTimeout
	}
}

// Client calls the generation backend.
type Client struct {
	http      httpclient.Client
	opts      Options
	validator *Validator
	log       logger.Logger
}

// New builds a Client on a fresh httpclient configured from opts. Extra
// configuration (tracer provider, interceptors, sleeper) can be applied
// through configure before the http client is built.
func New(log logger.Logger, opts Options, configure ...func(*httpclient.Builder)) *Client {
	if log == nil {
		log = logger.Nop()
	}
	opts.applyDefaults()

	b := httpclient.NewBuilder(log).
		WithBaseURL(opts.BaseURL).
		WithTimeout(opts.Timeout).
		WithRetries(opts.MaxRetries, opts.Schedule...).
		WithRetryOnTimeout(opts.RetryTimeouts).
		WithPayloadLogging(opts.LogPayloads, 0)
	if opts.RateLimit > 0 {
		b.WithRateLimit(rate.Limit(opts.RateLimit), opts.RateBurst)
	}
	for _, fn := range configure {
		fn(b)
	}
	return NewWithHTTPClient(b.Build(), log, opts)
}

// NewWithHTTPClient wraps an existing httpclient.Client. Its base URL and
// retry policy are used unchanged; opts only supplies operation timeouts.
func NewWithHTTPClient(hc httpclient.Client, log logger.Logger, opts Options) *Client {
	if log == nil {
		log = logger.Nop()
	}
	opts.applyDefaults()
	return &Client{
		http:      hc,
		opts:      opts,
		validator: NewValidator(),
		log:       log,
	}
}

// Generate renders a full mesh. The body is returned exactly as sent by
// the backend.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*Mesh, error) {
	httpReq, err := c.scaffoldRequest(PathGenerate, &req, c.opts.GenerateTimeout)
	if err != nil {
		return nil, err
	}

	data, err := c.http.Blob(ctx, nethttp.MethodPost, httpReq)
	if err != nil {
		return nil, err
	}

	c.log.Debug().
		Str("type", req.Type).
		Str("format", req.Format).
		Int("size", len(data)).
		Msg("Scaffold mesh generated")

	return &Mesh{
		Type:        req.Type,
		Format:      req.Format,
		ContentType: contentTypeFor(req.Format),
		Data:        data,
	}, nil
}

// Preview renders a lightweight mesh for display.
func (c *Client) Preview(ctx context.Context, req GenerateRequest) (*Preview, error) {
	httpReq, err := c.scaffoldRequest(PathPreview, &req, c.opts.PreviewTimeout)
	if err != nil {
		return nil, err
	}

	var preview Preview
	if err := c.http.JSON(ctx, nethttp.MethodPost, httpReq, &preview); err != nil {
		return nil, err
	}
	if preview.Type == "" {
		preview.Type = req.Type
	}
	return &preview, nil
}

// Types lists the scaffold types the backend can generate.
func (c *Client) Types(ctx context.Context) ([]TypeInfo, error) {
	return httpclient.DecodeJSON[[]TypeInfo](ctx, c.http, nethttp.MethodGet, &httpclient.Request{URL: PathTypes})
}

// Health queries the backend health endpoint.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	health, err := httpclient.DecodeJSON[Health](ctx, c.http, nethttp.MethodGet, &httpclient.Request{URL: PathHealth})
	if err != nil {
		return nil, err
	}
	return &health, nil
}

func (c *Client) scaffoldRequest(path string, req *GenerateRequest, timeout time.Duration) (*httpclient.Request, error) {
	if req.Format == "" {
		req.Format = FormatSTL
	}
	if err := c.validator.Validate(req); err != nil {
		return nil, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, httpclient.NewValidationError("failed to encode request: "+err.Error(), "params")
	}
	return &httpclient.Request{
		URL:     path,
		Body:    body,
		Timeout: timeout,
	}, nil
}

func contentTypeFor(format string) string {
	switch format {
	case FormatOBJ:
		return "model/obj"
	case Format3MF:
		return "model/3mf"
	default:
		return "model/stl"
	}
}
