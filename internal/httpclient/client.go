package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/deskhost/internal/shared"
	"github.com/hashicorp/go-retryablehttp"
)

// HTTPRequest describes a request sent on behalf of the frontend.
type HTTPRequest struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
	Body    *string           `json:"body,omitempty"`
}

// HTTPResponse is what the frontend receives back.
type HTTPResponse struct {
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
}

var allowedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
	http.MethodPatch:  true,
}

// ShouldHaveBody reports whether a response to method with status carries a body.
func ShouldHaveBody(method string, status int) bool {
	if strings.EqualFold(method, http.MethodHead) {
		return false
	}
	switch {
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	case status >= 100 && status < 200:
		return false
	}
	return true
}

// Client sends [HTTPRequest]s.
type Client struct {
	rc     *retryablehttp.Client
	logger *log.Logger
}

// ClientOpts configures a [Client].
type ClientOpts struct {
	Logger   *log.Logger
	Timeout  time.Duration
	RetryMax int
	// RetryWaitMin and RetryWaitMax bound the backoff between attempts. Zero keeps the library defaults.
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// Transport replaces the pooled default transport, mostly for tests.
	Transport http.RoundTripper
}

// NewClient creates a new [Client].
func NewClient(opts ClientOpts) *Client {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	logger := opts.Logger.With("component", "httpclient")

	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.RetryMax
	rc.Logger = leveledLogger{logger}
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.HTTPClient.Timeout = opts.Timeout
	if opts.RetryWaitMin > 0 {
		rc.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		rc.RetryWaitMax = opts.RetryWaitMax
	}
	if opts.Transport != nil {
		rc.HTTPClient.Transport = opts.Transport
	}

	return &Client{rc: rc, logger: logger}
}

// Do sends req and reads the whole response.
//
// Non-2xx statuses are not errors; they are returned like any other response.
func (c *Client) Do(ctx context.Context, req HTTPRequest) (*HTTPResponse, error) {
	method := strings.ToUpper(req.Method)
	if !allowedMethods[method] {
		return nil, fmt.Errorf("%w: %s", shared.ErrUnsupportedMethod, method)
	}

	var body any
	if req.Body != nil {
		body = []byte(*req.Body)
	}

	r, err := retryablehttp.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		proxyRequestsTotal.WithLabelValues(method, "error").Inc()
		return nil, fmt.Errorf("%w: %v", shared.ErrRequestFailed, err)
	}
	for k, v := range req.Headers {
		r.Header.Set(k, v)
	}

	started := time.Now()
	resp, err := c.rc.Do(r)
	if err != nil {
		proxyRequestsTotal.WithLabelValues(method, "error").Inc()
		return nil, fmt.Errorf("%w: %v", shared.ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	proxyRequestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()
	c.logger.Debug("proxied request", "method", method, "url", req.URL, "status", resp.StatusCode, "duration", time.Since(started))

	out := &HTTPResponse{
		Status:  resp.StatusCode,
		Headers: flattenHeaders(resp.Header),
	}

	if !ShouldHaveBody(method, resp.StatusCode) {
		return out, nil
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrReadBody, err)
	}
	out.Body = buf.String()
	return out, nil
}

// flattenHeaders lowercases names and joins repeated values with ", ".
func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[strings.ToLower(k)] = strings.Join(v, ", ")
	}
	return out
}

// leveledLogger adapts a charm logger to [retryablehttp.LeveledLogger].
type leveledLogger struct{ l *log.Logger }

func (l leveledLogger) Error(msg string, kv ...any) { l.l.Error(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...any)  { l.l.Debug(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...any) { l.l.Debug(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...any)  { l.l.Warn(msg, kv...) }
