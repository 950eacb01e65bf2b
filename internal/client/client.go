package client

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// Controller endpoints.
const (
	PathStatic  = "/data/static.xml"
	PathDynamic = "/data/dynamic.xml"
	PathCyclic  = "/data/cyclic.xml"
	PathChanges = "/data/changes.xml"

	contentTypeXML = "application/xml"
)

// DefaultTimeout bounds every request unless WithTimeout overrides it.
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of a failed response is kept in a TransportError.
const maxErrorBody = 512

// Logger defines the logging interface used by the client.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Client talks to an Alpha 2 controller (or the mock) over its XML
// protocol.
//
// Each call is a single request: no retries, no backoff. The boolean and
// zero-value methods log failures and never return them; the methods
// returning error hand the *TransportError to the caller.
//
// Thread Safety: safe for concurrent use.
type Client struct {
	http    *resty.Client
	baseURL string
	logger  Logger

	mu       sync.Mutex
	deviceID string // cached after the first successful lookup
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.SetTimeout(d)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDeviceID presets the device ID so temperature updates skip the
// static view lookup.
func WithDeviceID(id string) Option {
	return func(c *Client) {
		c.deviceID = id
	}
}

// New creates a client for the controller at baseURL. A bare host:port
// is treated as http.
//
// Parameters:
//   - baseURL: e.g. "http://192.168.1.50" or "localhost:5000"
//   - opts: Optional settings
//
// Returns:
//   - *Client: Ready to use; no request is made until the first call
func New(baseURL string, opts ...Option) *Client {
	base := NormalizeBaseURL(baseURL)
	c := &Client{
		http: resty.New().
			SetBaseURL(base).
			SetTimeout(DefaultTimeout).
			SetRetryCount(0).
			SetHeader("Accept", contentTypeXML),
		baseURL: base,
		logger:  noopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NormalizeBaseURL adds the http scheme to a bare host and trims trailing
// slashes.
func NormalizeBaseURL(raw string) string {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	return raw
}

// BaseURL returns the normalised controller URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// fetch GETs one view document.
func (c *Client) fetch(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(path)
	if err != nil {
		return nil, &TransportError{Method: http.MethodGet, URL: c.baseURL + path, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, statusError(http.MethodGet, c.baseURL+path, resp)
	}
	return resp.Body(), nil
}

// Submit POSTs a command document to changes.xml.
//
// Returns:
//   - error: nil on 200, otherwise a *TransportError
func (c *Client) Submit(ctx context.Context, body []byte) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentTypeXML).
		SetBody(body).
		Post(PathChanges)
	if err != nil {
		return &TransportError{Method: http.MethodPost, URL: c.baseURL + PathChanges, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return statusError(http.MethodPost, c.baseURL+PathChanges, resp)
	}
	return nil
}

func statusError(method, url string, resp *resty.Response) *TransportError {
	body := strings.TrimSpace(resp.String())
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &TransportError{Method: method, URL: url, StatusCode: resp.StatusCode(), Body: body}
}

// FetchStatic returns the raw static view.
func (c *Client) FetchStatic(ctx context.Context) ([]byte, error) {
	return c.fetch(ctx, PathStatic)
}

// FetchDynamic returns the raw dynamic view.
func (c *Client) FetchDynamic(ctx context.Context) ([]byte, error) {
	return c.fetch(ctx, PathDynamic)
}

// FetchCyclic returns the raw cyclic view. The controller stamps its
// clock on every cyclic read.
func (c *Client) FetchCyclic(ctx context.Context) ([]byte, error) {
	return c.fetch(ctx, PathCyclic)
}
