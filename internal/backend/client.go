// Package backend is the HTTP client for the karasu backend service.
//
// Every call carries its own deadline. Failures come back as structured
// errors: ErrBackend for connectivity and non-2xx statuses, ErrDecode for
// bodies that do not have the expected shape, ErrAction when the backend
// answered but reported success=false. Callers turn these into "no data"
// and keep whatever state they had.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rileyhilliard/karasu/internal/errors"
	"github.com/rileyhilliard/karasu/internal/logger"
)

// DefaultURL is the backend base URL used when none is configured.
const DefaultURL = "http://localhost:5000"

// DefaultTimeout is the per-request deadline used when none is configured.
const DefaultTimeout = 5 * time.Second

// maxBody caps how much of a response is read.
const maxBody = 4 << 20

// Client talks to the backend over HTTP.
type Client struct {
	baseURL   string
	timeout   time.Duration
	http      *http.Client
	log       logger.Logger
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a client for baseURL. A zero timeout uses DefaultTimeout.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		timeout:   timeout,
		http:      &http.Client{},
		log:       logger.Noop(),
		userAgent: "karasu",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health probes GET /api/health.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &out); err != nil {
		return nil, err
	}
	if err := validate.Struct(&out); err != nil {
		return nil, decodeError("/api/health", err)
	}
	return &out, nil
}

// Metrics fetches GET /api/system/metrics.
func (c *Client) Metrics(ctx context.Context) (*MetricsResponse, error) {
	var w metricsWire
	if err := c.do(ctx, http.MethodGet, "/api/system/metrics", nil, &w); err != nil {
		return nil, err
	}
	if err := validate.Struct(&w); err != nil {
		return nil, decodeError("/api/system/metrics", err)
	}
	return w.response(), nil
}

// Processes fetches up to limit processes, hinting the backend to rank them
// by sortBy. The backend's ordering is not relied upon.
func (c *Client) Processes(ctx context.Context, limit int, sortBy string) ([]ProcessInfo, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("sort_by", sortBy)
	path := "/api/system/processes?" + q.Encode()

	var w processesWire
	if err := c.do(ctx, http.MethodGet, path, nil, &w); err != nil {
		return nil, err
	}
	if err := validate.Struct(&w); err != nil {
		return nil, decodeError("/api/system/processes", err)
	}
	return w.items(), nil
}

// Command sends a natural-language or system command.
func (c *Client) Command(ctx context.Context, text string) (*CommandResponse, error) {
	var w commandWire
	body := map[string]string{"command": text}
	if err := c.do(ctx, http.MethodPost, "/api/command", body, &w); err != nil {
		return nil, err
	}
	if err := validate.Struct(&w); err != nil {
		return nil, decodeError("/api/command", err)
	}

	resp := &CommandResponse{Success: *w.Success, Response: w.Response, Error: w.Error}
	if !resp.Success {
		return resp, errors.New(errors.ErrAction,
			"Command failed: "+fallback(w.Error, w.Response, "no details"), "")
	}
	return resp, nil
}

// Chat sends one chat turn. context is passed through to the backend as-is
// and may be nil.
func (c *Client) Chat(ctx context.Context, message string, chatContext any) (*ChatResponse, error) {
	body := map[string]any{"message": message, "context": chatContext}
	if chatContext == nil {
		body["context"] = map[string]any{}
	}

	var raw map[string]any
	if err := c.do(ctx, http.MethodPost, "/api/ai/chat", body, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errors.New(errors.ErrDecode, "Empty chat response", "")
	}
	return &ChatResponse{Raw: raw}, nil
}

// Action posts {action, params} to /api/system/actions. A reply with
// success=false is returned together with an ErrAction error.
func (c *Client) Action(ctx context.Context, action string, params map[string]any) (*ActionResponse, error) {
	if params == nil {
		params = map[string]any{}
	}

	var w actionWire
	if err := c.do(ctx, http.MethodPost, "/api/system/actions", ActionRequest{Action: action, Params: params}, &w); err != nil {
		return nil, err
	}
	if err := validate.Struct(&w); err != nil {
		return nil, decodeError("/api/system/actions", err)
	}

	resp := &ActionResponse{Success: *w.Success, Action: w.Action, Result: w.Result, Error: w.Error}
	if !resp.Success {
		return resp, errors.New(errors.ErrAction,
			fmt.Sprintf("%s failed: %s", action, fallback(resp.Message(), "no details")), "")
	}
	return resp, nil
}

// KillProcess asks the backend to terminate pid.
func (c *Client) KillProcess(ctx context.Context, pid int) (*ActionResponse, error) {
	return c.Action(ctx, ActionKillProcess, map[string]any{"pid": pid})
}

// CleanRAM asks the backend to release cached memory.
func (c *Client) CleanRAM(ctx context.Context) (*ActionResponse, error) {
	return c.Action(ctx, ActionCleanRAM, nil)
}

// SystemInfo runs the get_system_info action and decodes its result.
func (c *Client) SystemInfo(ctx context.Context) (*SystemInfo, error) {
	resp, err := c.Action(ctx, ActionGetSystemInfo, nil)
	if err != nil {
		return nil, err
	}
	info := systemInfoFromResult(resp.Result)
	return &info, nil
}

// do performs one request with the client deadline and decodes a 2xx JSON
// body into out.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrBackend, "Cannot encode request for "+path, "")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrBackend, "Invalid backend request", "Check backend.url")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("%s %s failed after %s: %v", method, path, time.Since(start), err)
		return errors.WrapWithCode(err, errors.ErrBackend,
			fmt.Sprintf("%s %s failed", method, path),
			"Is the backend running at "+c.baseURL+"?")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrBackend, "Cannot read response from "+path, "")
	}
	c.log.Debug("%s %s -> %d in %s", method, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(method, path, resp.StatusCode, data)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return decodeError(path, err)
	}
	return nil
}

func statusError(method, path string, status int, data []byte) error {
	msg := fmt.Sprintf("%s %s returned %d %s", method, path, status, http.StatusText(status))

	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		return errors.WrapWithCode(fmt.Errorf("%s", body.Error), errors.ErrBackend, msg, "")
	}
	return errors.New(errors.ErrBackend, msg, "")
}

func decodeError(path string, err error) error {
	return errors.WrapWithCode(err, errors.ErrDecode,
		"Unexpected response from "+path,
		"Check that the backend version matches this client")
}

func fallback(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
