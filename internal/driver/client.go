// -- internal/driver/client.go --

// Package driver is a client for a WinAppDriver-compatible Windows
// accessibility automation server speaking the JSON wire protocol. It owns
// everything wire-shaped: the status envelope, element handles, key code
// points and the XML page source. Nothing above this package sees HTTP.
package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultURL is where WinAppDriver listens out of the box.
const DefaultURL = "http://127.0.0.1:4723"

const (
	defaultTimeout = 30 * time.Second
	defaultRate    = 20.0
)

// Options tune a Client. Zero values select the defaults.
type Options struct {
	// Timeout bounds each HTTP round trip.
	Timeout time.Duration
	// RequestsPerSecond paces requests to the automation server. The
	// server funnels every call through the UI thread of the target
	// window, so hammering it causes flaky reads rather than speed.
	RequestsPerSecond float64
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
	// Logger receives request-level debug logging.
	Logger *zap.Logger
}

// Client issues wire-protocol commands against one automation server.
type Client struct {
	baseURL string
	httpc   *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient returns a Client for the server at baseURL.
func NewClient(baseURL string, opts Options) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRate
	}
	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   httpc,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  logger,
	}
}

// wireResponse is the JSON wire protocol envelope every endpoint answers
// with.
type wireResponse struct {
	SessionID string          `json:"sessionId"`
	Status    int             `json:"status"`
	Value     json.RawMessage `json:"value"`
}

// decode unmarshals the response value into target.
func (r *wireResponse) decode(target any) error {
	if len(r.Value) == 0 {
		return errors.New("driver: response carried no value")
	}
	return json.Unmarshal(r.Value, target)
}

// command performs one request and unwraps the status envelope. A non-zero
// status becomes a StatusError.
func (c *Client) command(ctx context.Context, method, path string, body any) (*wireResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("driver: encode request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return nil, fmt.Errorf("driver: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("driver: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("driver: read response: %w", err)
	}

	c.logger.Debug("Driver command completed.",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("http_status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	var wire wireResponse
	if len(data) > 0 {
		if err := json.Unmarshal(data, &wire); err != nil {
			return nil, fmt.Errorf("driver: malformed response (http %d): %w", resp.StatusCode, err)
		}
	}

	if wire.Status != statusSuccess {
		return nil, &StatusError{Status: wire.Status, Message: extractMessage(wire.Value)}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("driver: http %d on %s %s", resp.StatusCode, method, path)
	}
	return &wire, nil
}

// extractMessage pulls the human-readable message out of an error value.
func extractMessage(raw json.RawMessage) string {
	var v struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &v); err == nil && v.Message != "" {
		return v.Message
	}
	return strings.TrimSpace(string(raw))
}

// Status reports the server's status document, useful as a reachability
// probe before creating sessions.
func (c *Client) Status(ctx context.Context) (json.RawMessage, error) {
	wire, err := c.command(ctx, http.MethodGet, "/status", nil)
	if err != nil {
		return nil, err
	}
	return wire.Value, nil
}

// Capabilities describe what a new session should attach to: either an
// application to launch or an existing top-level window.
type Capabilities struct {
	// App is an executable path to launch, or "Root" for a desktop-wide
	// session.
	App string
	// TopLevelWindow is the decimal native handle of a window to attach
	// to.
	TopLevelWindow string
	// NewCommandTimeout is how many idle seconds the server keeps the
	// session alive.
	NewCommandTimeout int
	// WaitForAppLaunch is how many seconds the server waits after starting
	// App before the session is usable.
	WaitForAppLaunch int
}

// AttachCapabilities builds capabilities that bind a session to an already
// running window by its native handle. The server rejects sessions naming
// both an app and a window, so only the handle goes on the wire.
func AttachCapabilities(handle string, commandTimeout int) Capabilities {
	return Capabilities{
		TopLevelWindow:    handle,
		NewCommandTimeout: commandTimeout,
	}
}

// LaunchCapabilities builds capabilities that launch an executable and bind
// the session to its main window.
func LaunchCapabilities(appPath string, commandTimeout, waitForLaunch int) Capabilities {
	return Capabilities{
		App:               appPath,
		NewCommandTimeout: commandTimeout,
		WaitForAppLaunch:  waitForLaunch,
	}
}

// RootCapabilities builds capabilities for a desktop-wide session, used for
// window enumeration rather than automation.
func RootCapabilities(commandTimeout int) Capabilities {
	return Capabilities{App: "Root", NewCommandTimeout: commandTimeout}
}

func (c Capabilities) wire() map[string]any {
	caps := map[string]any{
		"platformName": "Windows",
		"deviceName":   "WindowsPC",
	}
	if c.App != "" {
		caps["app"] = c.App
	}
	if c.TopLevelWindow != "" {
		caps["appTopLevelWindow"] = c.TopLevelWindow
	}
	if c.NewCommandTimeout > 0 {
		caps["newCommandTimeout"] = c.NewCommandTimeout
	}
	if c.WaitForAppLaunch > 0 {
		caps["ms:waitForAppLaunch"] = c.WaitForAppLaunch
	}
	return caps
}

// NewSession creates a session on the server.
func (c *Client) NewSession(ctx context.Context, caps Capabilities) (*Session, error) {
	body := map[string]any{"desiredCapabilities": caps.wire()}
	wire, err := c.command(ctx, http.MethodPost, "/session", body)
	if err != nil {
		return nil, fmt.Errorf("driver: create session: %w", err)
	}

	id := wire.SessionID
	if id == "" {
		// Some servers tuck the id inside the value object instead.
		var v struct {
			SessionID string `json:"sessionId"`
		}
		if err := wire.decode(&v); err == nil {
			id = v.SessionID
		}
	}
	if id == "" {
		return nil, errors.New("driver: session response carried no session id")
	}

	c.logger.Info("Driver session created.", zap.String("session_id", id))
	return &Session{
		client: c,
		id:     id,
		logger: c.logger.With(zap.String("session_id", id)),
	}, nil
}
