// Package appium implements core.Connection against an Appium server via the
// W3C WebDriver protocol.
package appium

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/devicelab-dev/appium-vision/pkg/core"
)

// Client handles HTTP communication with an Appium server.
type Client struct {
	serverURL string
	sessionID string
	client    *http.Client
	screenW   int
	screenH   int
}

var _ core.Connection = (*Client)(nil)

// NewClient creates a new Appium client.
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: strings.TrimSuffix(serverURL, "/"),
		client: &http.Client{
			Timeout: 5 * time.Minute, // Long timeout for screenshot/recording pulls
		},
	}
}

// Connect creates a new session with the given capabilities.
func (c *Client) Connect(capabilities map[string]interface{}) error {
	body := map[string]interface{}{
		"capabilities": map[string]interface{}{
			"alwaysMatch": capabilities,
		},
	}

	resp, err := c.post("/session", body)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	value, ok := resp["value"].(map[string]interface{})
	if !ok {
		return fmt.Errorf("invalid session response")
	}

	c.sessionID, _ = value["sessionId"].(string)
	if c.sessionID == "" {
		return fmt.Errorf("no session ID in response")
	}

	// Cache screen size for gesture geometry
	c.fetchScreenSize()

	return nil
}

// Close ends the session. Safe to call on an already-closed client.
func (c *Client) Close() error {
	if c.sessionID == "" {
		return nil
	}
	_, err := c.delete(c.sessionPath())
	c.sessionID = ""
	return err
}

// SessionID returns the current session ID.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Live probes the session. Any transport or WebDriver error counts as dead,
// which tells the session manager to recreate rather than surface an error.
func (c *Client) Live() bool {
	if c.sessionID == "" {
		return false
	}
	_, err := c.get(c.sessionPath())
	return err == nil
}

// WindowSize returns the screen dimensions, fetching them if not yet cached.
func (c *Client) WindowSize() (int, int, error) {
	if c.screenW == 0 || c.screenH == 0 {
		c.fetchScreenSize()
	}
	if c.screenW == 0 || c.screenH == 0 {
		return 0, 0, fmt.Errorf("screen size unavailable")
	}
	return c.screenW, c.screenH, nil
}

func (c *Client) fetchScreenSize() {
	resp, err := c.get(c.sessionPath() + "/window/rect")
	if err != nil {
		return
	}
	if value, ok := resp["value"].(map[string]interface{}); ok {
		if w, ok := value["width"].(float64); ok {
			c.screenW = int(w)
		}
		if h, ok := value["height"].(float64); ok {
			c.screenH = int(h)
		}
	}
}

// Screen Operations

// Screenshot returns a screenshot as PNG bytes.
func (c *Client) Screenshot() ([]byte, error) {
	resp, err := c.get(c.sessionPath() + "/screenshot")
	if err != nil {
		return nil, err
	}
	encoded, ok := resp["value"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid screenshot response")
	}
	return base64.StdEncoding.DecodeString(encoded)
}

// Source returns the page source XML.
func (c *Client) Source() (string, error) {
	resp, err := c.get(c.sessionPath() + "/source")
	if err != nil {
		return "", err
	}
	source, _ := resp["value"].(string)
	return source, nil
}

// Touch/Gesture Operations (W3C Actions)

func (c *Client) performTouchAction(actions []map[string]interface{}) error {
	payload := []map[string]interface{}{
		{
			"type":       "pointer",
			"id":         "finger1",
			"parameters": map[string]interface{}{"pointerType": "touch"},
			"actions":    actions,
		},
	}
	_, err := c.post(c.sessionPath()+"/actions", map[string]interface{}{"actions": payload})
	return err
}

// Tap performs a tap at coordinates using W3C touch actions.
func (c *Client) Tap(x, y int) error {
	return c.performTouchAction([]map[string]interface{}{
		{"type": "pointerMove", "duration": 0, "x": x, "y": y, "origin": "viewport"},
		{"type": "pointerDown", "button": 0},
		{"type": "pause", "duration": 50},
		{"type": "pointerUp", "button": 0},
	})
}

// Swipe performs a continuous pointer drag.
func (c *Client) Swipe(startX, startY, endX, endY, durationMs int) error {
	return c.performTouchAction([]map[string]interface{}{
		{"type": "pointerMove", "duration": 0, "x": startX, "y": startY},
		{"type": "pointerDown", "button": 0},
		{"type": "pointerMove", "duration": durationMs, "x": endX, "y": endY},
		{"type": "pointerUp", "button": 0},
	})
}

// Device Operations

// PressKey presses a key by Android keycode.
func (c *Client) PressKey(keycode int) error {
	_, err := c.post(c.sessionPath()+"/appium/device/press_keycode", map[string]interface{}{
		"keycode": keycode,
	})
	return err
}

// Shell executes a device shell command via mobile: shell. The timeout is
// forwarded to the server; the shell gateway additionally bounds the call on
// the client side.
func (c *Client) Shell(command string, args []string, timeout time.Duration) (string, error) {
	result, err := c.ExecuteMobile("shell", map[string]interface{}{
		"command": command,
		"args":    args,
		"timeout": timeout.Milliseconds(),
	})
	if err != nil {
		return "", err
	}

	// The server returns either a bare string or {stdout, stderr, exitCode}
	// depending on includeStderr.
	switch v := result.(type) {
	case string:
		return strings.TrimSpace(v), nil
	case map[string]interface{}:
		stdout, _ := v["stdout"].(string)
		return strings.TrimSpace(stdout), nil
	default:
		return "", nil
	}
}

// Screen Recording

// StartRecording begins an on-device media projection recording. The file is
// written under /sdcard/Movies on the device.
func (c *Client) StartRecording(filename string) error {
	_, err := c.ExecuteMobile("startMediaProjectionRecording", map[string]interface{}{
		"filename": filename,
	})
	return err
}

// StopRecording stops the active media projection recording.
func (c *Client) StopRecording() error {
	_, err := c.ExecuteMobile("stopMediaProjectionRecording", map[string]interface{}{})
	return err
}

// PullFile retrieves a file from the device.
func (c *Client) PullFile(remotePath string) ([]byte, error) {
	resp, err := c.post(c.sessionPath()+"/appium/device/pull_file", map[string]interface{}{
		"path": remotePath,
	})
	if err != nil {
		return nil, err
	}
	encoded, ok := resp["value"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid pull_file response")
	}
	return base64.StdEncoding.DecodeString(encoded)
}

// ExecuteMobile executes a mobile: command.
func (c *Client) ExecuteMobile(command string, args map[string]interface{}) (interface{}, error) {
	resp, err := c.post(c.sessionPath()+"/execute/sync", map[string]interface{}{
		"script": "mobile: " + command,
		"args":   []interface{}{args},
	})
	if err != nil {
		return nil, err
	}
	return resp["value"], nil
}

// HTTP Helpers

func (c *Client) sessionPath() string {
	return "/session/" + c.sessionID
}

func (c *Client) get(path string) (map[string]interface{}, error) {
	return c.request("GET", path, nil)
}

func (c *Client) post(path string, body interface{}) (map[string]interface{}, error) {
	return c.request("POST", path, body)
}

func (c *Client) delete(path string) (map[string]interface{}, error) {
	return c.request("DELETE", path, nil)
}

func (c *Client) request(method, path string, body interface{}) (map[string]interface{}, error) {
	url := c.serverURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	// Check for WebDriver error
	if errValue, ok := result["value"].(map[string]interface{}); ok {
		if errMsg, ok := errValue["message"].(string); ok {
			if errType, ok := errValue["error"].(string); ok {
				return result, fmt.Errorf("%s: %s", errType, errMsg)
			}
		}
	}

	return result, nil
}
