// Package appium is the driver session: a W3C WebDriver client for an
// Appium server that implements page.Driver.
package appium

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/quokka-io/mobile-harness/pkg/core"
	"github.com/quokka-io/mobile-harness/pkg/logger"
)

// W3C WebDriver element identifier key (standard constant)
const w3cElementKey = "element-6066-11e4-a52e-4f735466cecf"

// DefaultServerURL is where Appium listens unless configured otherwise.
const DefaultServerURL = "http://localhost:4723"

// Client handles HTTP communication with Appium server.
type Client struct {
	serverURL string
	sessionID string
	client    *http.Client
	platform  string // ios, android
	appID     string
	logger    *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithLogger sets the client's logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a new Appium client.
func NewClient(serverURL string, opts ...Option) *Client {
	c := &Client{
		serverURL: strings.TrimSuffix(serverURL, "/"),
		client: &http.Client{
			Timeout: 5 * time.Minute, // session creation installs the instrumentation
		},
		logger: logger.Named("appium"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect creates a new session with the given capabilities.
func (c *Client) Connect(ctx context.Context, caps Capabilities) error {
	if err := caps.Validate(); err != nil {
		return err
	}

	body := map[string]interface{}{
		"capabilities": map[string]interface{}{
			"alwaysMatch": caps.W3C(),
		},
	}
	resp, err := c.post(ctx, "/session", body)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	value, ok := resp["value"].(map[string]interface{})
	if !ok {
		return core.ErrConnection.WithMessage("invalid session response")
	}
	c.sessionID, _ = value["sessionId"].(string)
	if c.sessionID == "" {
		return core.ErrConnection.WithMessage("no session ID in response")
	}

	c.platform = strings.ToLower(caps.PlatformName)
	if returned, ok := value["capabilities"].(map[string]interface{}); ok {
		if platform, ok := returned["platformName"].(string); ok {
			c.platform = strings.ToLower(platform)
		}
	}
	c.appID = caps.AppID()

	// locating must not block server-side, waits are polled client-side
	if err := c.SetImplicitWait(ctx, 0); err != nil {
		c.logger.Warn("could not disable implicit wait", zap.Error(err))
	}

	c.logger.Info("session created",
		zap.String("session", c.sessionID),
		zap.String("platform", c.platform),
		zap.String("app", c.appID))
	return nil
}

// Disconnect closes the session.
func (c *Client) Disconnect(ctx context.Context) error {
	if c.sessionID == "" {
		return nil
	}
	_, err := c.delete(ctx, c.sessionPath())
	c.logger.Info("session deleted", zap.String("session", c.sessionID), zap.Error(err))
	c.sessionID = ""
	return err
}

// Close disconnects with a fresh context so teardown still runs after
// the caller's context was cancelled.
func (c *Client) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	return c.Disconnect(ctx)
}

// SessionID returns the current session ID, empty when disconnected.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Platform returns the platform (ios/android).
func (c *Client) Platform() string {
	return c.platform
}

// AppID returns the application named by the session capabilities.
func (c *Client) AppID() string {
	return c.appID
}

// Element Operations

// FindElement locates a single element without waiting.
func (c *Client) FindElement(ctx context.Context, loc core.Locator) (core.Element, error) {
	body := map[string]interface{}{
		"using": string(loc.Strategy),
		"value": loc.Expression,
	}

	resp, err := c.post(ctx, c.sessionPath()+"/element", body)
	if err != nil {
		return core.Element{}, err
	}

	elemValue, ok := resp["value"].(map[string]interface{})
	if !ok {
		return core.Element{}, core.ErrConnection.WithMessage("invalid element response")
	}
	id := extractElementID(elemValue)
	if id == "" {
		return core.Element{}, core.ErrConnection.WithMessage("no element ID in response")
	}
	return core.Element{ID: id, Locator: loc}, nil
}

// ElementRect returns an element's position and size.
func (c *Client) ElementRect(ctx context.Context, el core.Element) (core.Rect, error) {
	resp, err := c.get(ctx, c.elementPath(el.ID)+"/rect")
	if err != nil {
		return core.Rect{}, err
	}
	value, ok := resp["value"].(map[string]interface{})
	if !ok {
		return core.Rect{}, core.ErrConnection.WithMessage("invalid rect response")
	}

	x, _ := value["x"].(float64)
	y, _ := value["y"].(float64)
	w, _ := value["width"].(float64)
	h, _ := value["height"].(float64)
	return core.Rect{X: x, Y: y, Width: w, Height: h}, nil
}

// ElementAttribute returns an element's attribute value. A missing
// attribute reads as the empty string.
func (c *Client) ElementAttribute(ctx context.Context, el core.Element, name string) (string, error) {
	resp, err := c.get(ctx, c.elementPath(el.ID)+"/attribute/"+url.PathEscape(name))
	if err != nil {
		return "", err
	}
	value, _ := resp["value"].(string)
	return value, nil
}

// ClickElement clicks an element using WebDriver standard endpoint.
func (c *Client) ClickElement(ctx context.Context, el core.Element) error {
	_, err := c.post(ctx, c.elementPath(el.ID)+"/click", map[string]interface{}{})
	return err
}

// SendKeys types text into an element.
func (c *Client) SendKeys(ctx context.Context, el core.Element, text string) error {
	_, err := c.post(ctx, c.elementPath(el.ID)+"/value", map[string]interface{}{
		"text": text,
	})
	return err
}

// ClearElement clears an element's text.
func (c *Client) ClearElement(ctx context.Context, el core.Element) error {
	_, err := c.post(ctx, c.elementPath(el.ID)+"/clear", map[string]interface{}{})
	return err
}

// WindowSize returns the current window dimensions.
func (c *Client) WindowSize(ctx context.Context) (core.Size, error) {
	resp, err := c.get(ctx, c.sessionPath()+"/window/rect")
	if err != nil {
		return core.Size{}, err
	}
	value, ok := resp["value"].(map[string]interface{})
	if !ok {
		return core.Size{}, core.ErrConnection.WithMessage("invalid window rect response")
	}
	w, _ := value["width"].(float64)
	h, _ := value["height"].(float64)
	return core.Size{Width: w, Height: h}, nil
}

// Navigation

// HideKeyboard hides the on-screen keyboard.
func (c *Client) HideKeyboard(ctx context.Context) error {
	_, err := c.post(ctx, c.sessionPath()+"/appium/device/hide_keyboard", map[string]interface{}{})
	return err
}

// Back navigates back.
func (c *Client) Back(ctx context.Context) error {
	_, err := c.post(ctx, c.sessionPath()+"/back", map[string]interface{}{})
	return err
}

// App Management

func (c *Client) appBody(appID string) map[string]interface{} {
	if c.platform == "ios" {
		return map[string]interface{}{"bundleId": appID}
	}
	return map[string]interface{}{"appId": appID}
}

// ActivateApp launches appID or brings it to the foreground.
func (c *Client) ActivateApp(ctx context.Context, appID string) error {
	_, err := c.post(ctx, c.sessionPath()+"/appium/device/activate_app", c.appBody(appID))
	return err
}

// TerminateApp terminates an app.
func (c *Client) TerminateApp(ctx context.Context, appID string) error {
	_, err := c.post(ctx, c.sessionPath()+"/appium/device/terminate_app", c.appBody(appID))
	return err
}

// Screen Operations

// Screenshot returns a screenshot as PNG bytes.
func (c *Client) Screenshot(ctx context.Context) ([]byte, error) {
	resp, err := c.get(ctx, c.sessionPath()+"/screenshot")
	if err != nil {
		return nil, err
	}
	encoded, ok := resp["value"].(string)
	if !ok {
		return nil, core.ErrConnection.WithMessage("invalid screenshot response")
	}
	return base64.StdEncoding.DecodeString(encoded)
}

// Source returns the page source XML.
func (c *Client) Source(ctx context.Context) (string, error) {
	resp, err := c.get(ctx, c.sessionPath()+"/source")
	if err != nil {
		return "", err
	}
	source, _ := resp["value"].(string)
	return source, nil
}

// Timeouts

// SetImplicitWait sets the implicit wait timeout.
func (c *Client) SetImplicitWait(ctx context.Context, timeout time.Duration) error {
	_, err := c.post(ctx, c.sessionPath()+"/timeouts", map[string]interface{}{
		"implicit": timeout.Milliseconds(),
	})
	return err
}

// HTTP Helpers

func (c *Client) sessionPath() string {
	return "/session/" + c.sessionID
}

func (c *Client) elementPath(elementID string) string {
	return c.sessionPath() + "/element/" + url.PathEscape(elementID)
}

func (c *Client) get(ctx context.Context, path string) (map[string]interface{}, error) {
	return c.request(ctx, http.MethodGet, path, nil)
}

func (c *Client) post(ctx context.Context, path string, body interface{}) (map[string]interface{}, error) {
	return c.request(ctx, http.MethodPost, path, body)
}

func (c *Client) delete(ctx context.Context, path string) (map[string]interface{}, error) {
	return c.request(ctx, http.MethodDelete, path, nil)
}

func (c *Client) request(ctx context.Context, method, path string, body interface{}) (map[string]interface{}, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, bodyReader)
	if err != nil {
		return nil, core.ErrInvalidConfig.WithMessagef("bad request %s %s", method, path).WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, core.ErrConnection.WithMessagef("%s %s failed", method, path).WithCause(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.ErrConnection.WithMessage("failed to read response").WithCause(err)
	}
	c.logger.Debug("webdriver request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	result := map[string]interface{}{}
	if len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, &result); err != nil {
			return nil, core.ErrConnection.
				WithMessagef("failed to parse response (HTTP %d)", resp.StatusCode).
				WithCause(err)
		}
	}

	// Check for WebDriver error
	if errValue, ok := result["value"].(map[string]interface{}); ok {
		if errType, ok := errValue["error"].(string); ok {
			errMsg, _ := errValue["message"].(string)
			return result, mapW3CError(errType, errMsg)
		}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return result, core.ErrConnection.WithMessagef("%s %s: HTTP %d", method, path, resp.StatusCode)
	}

	return result, nil
}

func extractElementID(value map[string]interface{}) string {
	// W3C format
	if id, ok := value[w3cElementKey].(string); ok {
		return id
	}
	// Legacy format
	if id, ok := value["ELEMENT"].(string); ok {
		return id
	}
	return ""
}
