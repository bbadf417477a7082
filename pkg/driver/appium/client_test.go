package appium

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// newTestClient starts a fake Appium server and connects a client to it.
// Session creation and window/rect are handled here; everything else is
// delegated to handler.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == "POST" && r.URL.Path == "/session":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"value": map[string]interface{}{
					"sessionId":    "test-session",
					"capabilities": map[string]interface{}{"platformName": "Android"},
				},
			})
		case r.URL.Path == "/session/test-session/window/rect":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"value": map[string]interface{}{"width": 1080.0, "height": 1920.0},
			})
		default:
			if handler != nil {
				handler(w, r)
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"value": nil})
		}
	}))

	client := NewClient(server.URL)
	if err := client.Connect(map[string]interface{}{"platformName": "Android"}); err != nil {
		server.Close()
		t.Fatalf("connect failed: %v", err)
	}
	return client, server
}

func TestConnect(t *testing.T) {
	client, server := newTestClient(t, nil)
	defer server.Close()

	if client.SessionID() != "test-session" {
		t.Errorf("expected session ID test-session, got %s", client.SessionID())
	}

	w, h, err := client.WindowSize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w != 1080 || h != 1920 {
		t.Errorf("expected 1080x1920, got %dx%d", w, h)
	}
}

func TestConnect_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"value": map[string]interface{}{
				"error":   "session not created",
				"message": "no devices connected",
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.Connect(map[string]interface{}{"platformName": "Android"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "no devices connected") {
		t.Errorf("expected server message in error, got %v", err)
	}
}

func TestLive(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "GET" && r.URL.Path == "/session/test-session" {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"value": map[string]interface{}{"platformName": "Android"},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"value": nil})
	})
	defer server.Close()

	if !client.Live() {
		t.Error("expected session to be live")
	}

	server.Close()
	if client.Live() {
		t.Error("expected dead session after server shutdown")
	}
}

func TestLive_NoSession(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	if client.Live() {
		t.Error("expected not live without a session")
	}
}

func TestScreenshot(t *testing.T) {
	png := []byte{0x89, 0x50, 0x4E, 0x47}
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/screenshot") {
			t.Errorf("expected screenshot path, got %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"value": base64.StdEncoding.EncodeToString(png),
		})
	})
	defer server.Close()

	data, err := client.Screenshot()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != string(png) {
		t.Errorf("unexpected screenshot bytes: %v", data)
	}
}

func TestSource(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"value": `<hierarchy rotation="0"/>`,
		})
	})
	defer server.Close()

	source, err := client.Source()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(source, "hierarchy") {
		t.Errorf("unexpected source: %s", source)
	}
}

func TestTap_SendsPointerActions(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/actions") {
			t.Errorf("expected actions path, got %s", r.URL.Path)
		}
		var body struct {
			Actions []struct {
				Type    string                   `json:"type"`
				Actions []map[string]interface{} `json:"actions"`
			} `json:"actions"`
		}
		json.NewDecoder(r.Body).Decode(&body)

		if len(body.Actions) != 1 || body.Actions[0].Type != "pointer" {
			t.Fatalf("expected one pointer action sequence, got %+v", body.Actions)
		}
		seq := body.Actions[0].Actions
		if len(seq) != 4 {
			t.Fatalf("expected 4 pointer actions, got %d", len(seq))
		}
		if seq[0]["x"].(float64) != 100 || seq[0]["y"].(float64) != 200 {
			t.Errorf("unexpected move target: %+v", seq[0])
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"value": nil})
	})
	defer server.Close()

	if err := client.Tap(100, 200); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSwipe_SendsDrag(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Actions []struct {
				Actions []map[string]interface{} `json:"actions"`
			} `json:"actions"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		seq := body.Actions[0].Actions

		move := seq[2]
		if move["type"] != "pointerMove" || move["duration"].(float64) != 300 {
			t.Errorf("expected timed pointerMove, got %+v", move)
		}
		if move["x"].(float64) != 300 || move["y"].(float64) != 960 {
			t.Errorf("unexpected drag end: %+v", move)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"value": nil})
	})
	defer server.Close()

	if err := client.Swipe(800, 960, 300, 960, 300); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestShell_MapResult(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if body["script"] != "mobile: shell" {
			t.Errorf("expected mobile: shell script, got %v", body["script"])
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"value": map[string]interface{}{"stdout": "enabled\n", "exitCode": 0},
		})
	})
	defer server.Close()

	out, err := client.Shell("settings", []string{"get", "global", "bluetooth_on"}, 5*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "enabled" {
		t.Errorf("expected trimmed stdout, got %q", out)
	}
}

func TestShell_StringResult(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"value": "Pixel 8\n"})
	})
	defer server.Close()

	out, err := client.Shell("getprop", []string{"ro.product.model"}, 5*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Pixel 8" {
		t.Errorf("expected Pixel 8, got %q", out)
	}
}

func TestPressKey(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/appium/device/press_keycode") {
			t.Errorf("expected press_keycode path, got %s", r.URL.Path)
		}
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if body["keycode"].(float64) != 4 {
			t.Errorf("expected keycode 4, got %v", body["keycode"])
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"value": nil})
	})
	defer server.Close()

	if err := client.PressKey(4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRecordingCommands(t *testing.T) {
	var scripts []string
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if s, ok := body["script"].(string); ok {
			scripts = append(scripts, s)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"value": nil})
	})
	defer server.Close()

	if err := client.StartRecording("run.mp4"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := client.StopRecording(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(scripts) != 2 ||
		scripts[0] != "mobile: startMediaProjectionRecording" ||
		scripts[1] != "mobile: stopMediaProjectionRecording" {
		t.Errorf("unexpected scripts: %v", scripts)
	}
}

func TestPullFile(t *testing.T) {
	video := []byte("not-really-mp4")
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/appium/device/pull_file") {
			t.Errorf("expected pull_file path, got %s", r.URL.Path)
		}
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if body["path"] != "/sdcard/Movies/run.mp4" {
			t.Errorf("unexpected path: %v", body["path"])
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"value": base64.StdEncoding.EncodeToString(video),
		})
	})
	defer server.Close()

	data, err := client.PullFile("/sdcard/Movies/run.mp4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != string(video) {
		t.Errorf("unexpected file contents: %q", data)
	}
}

func TestClose_Idempotent(t *testing.T) {
	client, server := newTestClient(t, nil)
	defer server.Close()

	if err := client.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.SessionID() != "" {
		t.Error("expected cleared session ID")
	}
	// Second close must be a no-op even with the server gone.
	server.Close()
	if err := client.Close(); err != nil {
		t.Errorf("expected no error on double close, got %v", err)
	}
}
