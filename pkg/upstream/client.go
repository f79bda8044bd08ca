package upstream

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

	pkgerrors "github.com/angelmondragon/orderdesk-backend/pkg/errors"
	"github.com/angelmondragon/orderdesk-backend/pkg/logger"
	"github.com/angelmondragon/orderdesk-backend/pkg/metrics"
	"github.com/hashicorp/go-retryablehttp"
)

const (
	defaultTimeout         = 15 * time.Second
	defaultRetryMax        = 3
	defaultRetryWaitMin    = 200 * time.Millisecond
	defaultRetryWaitMax    = 2 * time.Second
	errorBodyReadLimit     = 64 * 1024
	responseBodyReadLimit  = 8 * 1024 * 1024
	authorizationHeaderKey = "Authorization"
)

var errBaseURLRequired = errors.New("upstream base url is required")

// Client talks to the ERP REST API. Reads are retried on connection errors
// and 5xx responses; writes and tax submissions are sent once.
type Client struct {
	baseURL  string
	token    string
	reads    *retryablehttp.Client
	writes   *retryablehttp.Client
	metrics  *metrics.Metrics
	logg     *logger.Logger
	timeout  time.Duration
	retryMax int
	waitMin  time.Duration
	waitMax  time.Duration
	base     *http.Client
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.base = client
		}
	}
}

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithTimeout overrides the per-attempt timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithRetry overrides the retry policy for reads.
func WithRetry(max int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		if max >= 0 {
			c.retryMax = max
		}
		if waitMin > 0 {
			c.waitMin = waitMin
		}
		if waitMax > 0 {
			c.waitMax = waitMax
		}
	}
}

// WithMetrics records call durations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger routes retry diagnostics to logg.
func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		c.logg = logg
	}
}

// NewClient builds the ERP client for baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	c := &Client{
		baseURL:  trimmed,
		timeout:  defaultTimeout,
		retryMax: defaultRetryMax,
		waitMin:  defaultRetryWaitMin,
		waitMax:  defaultRetryWaitMax,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.base == nil {
		c.base = &http.Client{Timeout: c.timeout}
	}

	c.reads = c.newRetryable(c.retryMax)
	c.writes = c.newRetryable(0)
	return c, nil
}

func (c *Client) newRetryable(retryMax int) *retryablehttp.Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = c.base
	rc.RetryMax = retryMax
	rc.RetryWaitMin = c.waitMin
	rc.RetryWaitMax = c.waitMax
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if c.logg != nil {
		rc.Logger = retryLogger{logg: c.logg}
	} else {
		rc.Logger = nil
	}
	return rc
}

type call struct {
	endpoint string
	method   string
	path     string
	query    url.Values
	body     any
	fbr      bool
}

func (c *Client) do(ctx context.Context, cl call, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "upstream client not configured")
	}

	target := c.baseURL + "/" + strings.TrimLeft(cl.path, "/")
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	var payload []byte
	if cl.body != nil {
		var err error
		payload, err = json.Marshal(cl.body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal "+cl.endpoint+" request")
		}
	}

	var reqBody any
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, cl.method, target, reqBody)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build "+cl.endpoint+" request")
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(authorizationHeaderKey, "Bearer "+c.token)
	}

	client := c.reads
	if cl.method != http.MethodGet {
		client = c.writes
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream(cl.endpoint, 0, time.Since(start))
		wrapped := pkgerrors.Wrap(pkgerrors.CodeDependency, err, cl.endpoint+" request failed")
		if cl.fbr {
			wrapped = wrapped.WithDetails(map[string]any{"step": StepConnection})
		}
		return wrapped
	}
	defer func() { _ = resp.Body.Close() }()
	c.metrics.ObserveUpstream(cl.endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return statusError(cl, resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read "+cl.endpoint+" response")
	}
	if err := decodeData(raw, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+cl.endpoint+" response")
	}
	return nil
}

// decodeData accepts both {"data": ...} envelopes and bare documents.
func decodeData(raw []byte, out any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}
	if trimmed[0] == '{' {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err == nil && len(envelope.Data) > 0 && string(envelope.Data) != "null" {
			return json.Unmarshal(envelope.Data, out)
		}
	}
	return json.Unmarshal(trimmed, out)
}

type errorBody struct {
	Message    string          `json:"message"`
	Error      json.RawMessage `json:"error"`
	Step       string          `json:"step"`
	ItemErrors []ItemError     `json:"itemErrors"`
}

func (b errorBody) text() string {
	if b.Message != "" {
		return b.Message
	}
	if len(b.Error) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(b.Error, &s); err == nil {
		return s
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(b.Error, &nested); err == nil {
		return nested.Message
	}
	return ""
}

func statusError(cl call, status int, raw []byte) error {
	var body errorBody
	_ = json.Unmarshal(raw, &body)

	msg := strings.TrimSpace(body.text())
	if msg == "" {
		msg = fmt.Sprintf("%s returned status %d", cl.endpoint, status)
	}

	// The tax-submission service tags its failures with the step that failed.
	if body.Step != "" || (cl.fbr && status < 500) {
		step := body.Step
		if step == "" {
			step = StepValidation
		}
		code := pkgerrors.CodeFBRValidation
		if step == StepConnection {
			code = pkgerrors.CodeDependency
		}
		details := map[string]any{"step": step}
		if len(body.ItemErrors) > 0 {
			details["items"] = body.ItemErrors
		}
		return pkgerrors.New(code, msg).WithDetails(details)
	}

	cause := fmt.Errorf("status %d: %s", status, strings.TrimSpace(string(raw)))
	return pkgerrors.Wrap(pkgerrors.CodeForStatus(status), cause, msg)
}

type retryLogger struct {
	logg *logger.Logger
}

func (l retryLogger) fields(keysAndValues []interface{}) context.Context {
	fields := make(map[string]any, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return l.logg.WithFields(context.Background(), fields)
}

func (l retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logg.Error(l.fields(keysAndValues), "upstream."+msg, nil)
}

func (l retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logg.Debug(l.fields(keysAndValues), "upstream."+msg)
}

func (l retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logg.Debug(l.fields(keysAndValues), "upstream."+msg)
}

func (l retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logg.Warn(l.fields(keysAndValues), "upstream."+msg)
}
