package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-blogfront/internal/logging"
	"github.com/goliatone/go-blogfront/pkg/interfaces"
)

const (
	configInvalidCode       = "API_CLIENT_CONFIG_INVALID"
	defaultMaxResponseBytes = 10 << 20
)

// Config holds the settings for talking to the backend API.
type Config struct {
	// BaseURL is the absolute API root, e.g. https://api.example.com/api.
	BaseURL string
	// Timeout bounds a whole call when the default HTTP client is used. Zero
	// leaves failure detection to the transport.
	Timeout time.Duration
	// Headers are added to every request before per-call headers.
	Headers map[string]string
}

// Validate checks that the configuration can produce requests.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required, validation.By(absoluteHTTPURL)),
		validation.Field(&c.Timeout, validation.By(func(value any) error {
			if d, _ := value.(time.Duration); d < 0 {
				return validation.NewError("blog.api.timeout_negative", "timeout must not be negative")
			}
			return nil
		})),
	)
}

func absoluteHTTPURL(value any) error {
	raw, _ := value.(string)
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return validation.NewError("blog.api.base_url_invalid", "must be an absolute http(s) URL")
	}
	return nil
}

// HTTPDoer is the transport used by the client; *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client performs calls against the backend API. Every failure comes back as
// an *ErrorResponse, after being logged and handed to the ErrorReporter.
type Client struct {
	baseURL     *url.URL
	headers     map[string]string
	http        HTTPDoer
	credentials Credentials
	reporter    ErrorReporter
	logger      interfaces.Logger
	newID       RequestIDGenerator
	now         func() time.Time
	maxBytes    int64
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the transport.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.http = doer
		}
	}
}

// WithLogger attaches the logger used for request diagnostics.
func WithLogger(logger interfaces.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithReporter wires the hook that receives classified failures.
func WithReporter(reporter ErrorReporter) Option {
	return func(c *Client) {
		if reporter != nil {
			c.reporter = reporter
		}
	}
}

// WithCredentials sets the token stores consulted for the bearer credential.
func WithCredentials(credentials Credentials) Option {
	return func(c *Client) {
		c.credentials = credentials
	}
}

// WithRequestIDGenerator overrides the correlation id format.
func WithRequestIDGenerator(gen RequestIDGenerator) Option {
	return func(c *Client) {
		if gen != nil {
			c.newID = gen
		}
	}
}

// WithClock overrides time.Now, used for request ids and error timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithMaxResponseBytes caps how much of a response body is read.
func WithMaxResponseBytes(limit int64) Option {
	return func(c *Client) {
		if limit > 0 {
			c.maxBytes = limit
		}
	}
}

// New validates cfg and builds a Client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "api client config invalid").
			WithTextCode(configInvalidCode)
	}
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("apiclient: parse base url: %w", err)
	}

	headers := make(map[string]string, len(cfg.Headers))
	for key, value := range cfg.Headers {
		headers[http.CanonicalHeaderKey(key)] = value
	}

	client := &Client{
		baseURL:  base,
		headers:  headers,
		http:     &http.Client{Timeout: cfg.Timeout},
		reporter: NoOpReporter(),
		logger:   logging.NoOp(),
		newID:    NewRequestID,
		now:      time.Now,
		maxBytes: defaultMaxResponseBytes,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Credentials exposes the token stores so auth flows can write to them.
func (c *Client) Credentials() Credentials {
	return c.credentials
}

// Do performs req and returns the unwrapped payload: the data member of a
// standard envelope, or the raw JSON body otherwise. An empty body yields nil.
func (c *Client) Do(ctx context.Context, req Request) (json.RawMessage, error) {
	var payload json.RawMessage
	err := c.do(ctx, req, func(raw json.RawMessage) error {
		payload = raw
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path})
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch issues a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}

// Fetch performs req and decodes the unwrapped payload into T. A payload
// that does not decode is reported like any other failure.
func Fetch[T any](ctx context.Context, c *Client, req Request) (T, error) {
	var out T
	err := c.do(ctx, req, func(raw json.RawMessage) error {
		if len(raw) == 0 {
			return nil
		}
		return json.Unmarshal(raw, &out)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Decode unmarshals a payload returned by Do into T. An empty payload
// yields the zero value.
func Decode[T any](raw json.RawMessage) (T, error) {
	var out T
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		var zero T
		return zero, fmt.Errorf("api client: decode payload: %w", err)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, req Request, decode func(json.RawMessage) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	started := c.now()
	rc := &RequestContext{
		Path:      req.Path,
		Method:    req.method(),
		RequestID: c.newID(started),
		StartedAt: started,
	}
	ctx = withRequestContext(ctx, rc)
	ctx = logging.ContextWithRequestID(ctx, rc.RequestID)
	logger := logging.WithRequestContext(c.logger, rc.Method, rc.Path, rc.RequestID)

	target, err := c.resolve(req.Path)
	if err != nil {
		return c.fail(ctx, logger, rc, NetworkError(req.Path, err, c.now()))
	}

	var body io.Reader
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return c.fail(ctx, logger, rc, NetworkError(req.Path, fmt.Errorf("encode body: %w", err), c.now()))
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, rc.Method, target, body)
	if err != nil {
		return c.fail(ctx, logger, rc, NetworkError(req.Path, err, c.now()))
	}
	c.applyHeaders(ctx, httpReq, req, rc.RequestID)

	logger.Debug("api.request.start")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return c.fail(ctx, logger, rc, NetworkError(req.Path, err, c.now()))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	rc.Status = resp.StatusCode
	if err != nil {
		return c.fail(ctx, logger, rc, NetworkError(req.Path, fmt.Errorf("read body: %w", err), c.now()))
	}
	if int64(len(raw)) > c.maxBytes {
		return c.fail(ctx, logger, rc, unknownError(resp.StatusCode, req.Path, "Response body too large", nil, c.now()))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.fail(ctx, logger, rc, Classify(resp.StatusCode, raw, req.Path, c.now()))
	}

	var payload json.RawMessage
	if len(bytes.TrimSpace(raw)) > 0 {
		if !json.Valid(raw) {
			return c.fail(ctx, logger, rc, unknownError(resp.StatusCode, req.Path, "Invalid response body", nil, c.now()))
		}
		payload = UnwrapEnvelope(raw)
	}
	if err := decode(payload); err != nil {
		return c.fail(ctx, logger, rc, unknownError(resp.StatusCode, req.Path, "Unexpected response shape", err, c.now()))
	}

	logger.Debug("api.request.complete", "status", rc.Status, "duration", c.now().Sub(started))
	return nil
}

func (c *Client) resolve(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	ref, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse endpoint %q: %w", path, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	base := *c.baseURL
	joined := strings.TrimRight(base.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	base.Path = joined
	base.RawPath = ""
	base.RawQuery = ref.RawQuery
	base.Fragment = ""
	return base.String(), nil
}

func (c *Client) applyHeaders(ctx context.Context, httpReq *http.Request, req Request, requestID string) {
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for key, value := range c.headers {
		httpReq.Header.Set(key, value)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	httpReq.Header.Set(HeaderRequestID, requestID)
	if httpReq.Header.Get("Authorization") == "" {
		if token, ok := c.credentials.Token(ctx); ok {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}
}

// fail logs the classified error and hands it to the reporter. Calls
// abandoned by their caller are logged but not reported.
func (c *Client) fail(ctx context.Context, logger interfaces.Logger, rc *RequestContext, classified *ErrorResponse) error {
	failure := classified.withRequest(rc.Method, rc.RequestID)
	if rc.Status == 0 {
		rc.Status = failure.Status
	}

	args := []any{
		"status", failure.Status,
		"kind", string(failure.Kind),
		"message", failure.Message,
	}
	if cause := failure.Unwrap(); cause != nil {
		args = append(args, "error", cause)
	}

	if errors.Is(failure, context.Canceled) {
		logger.Debug("api.request.cancelled", args...)
		return failure
	}
	logger.Error("api.request.failed", args...)
	c.reporter.ReportError(ctx, failure)
	return failure
}
