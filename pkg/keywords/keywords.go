// Package keywords is the top-level keyword surface of the library.
// Each keyword takes a logical device name, obtains the active session
// for it and performs one verification, gesture, shell or recording
// operation against the device.
package keywords

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/devicelab-dev/appium-vision/pkg/assets"
	"github.com/devicelab-dev/appium-vision/pkg/config"
	"github.com/devicelab-dev/appium-vision/pkg/core"
	"github.com/devicelab-dev/appium-vision/pkg/gesture"
	"github.com/devicelab-dev/appium-vision/pkg/locator"
	"github.com/devicelab-dev/appium-vision/pkg/logger"
	"github.com/devicelab-dev/appium-vision/pkg/recording"
	"github.com/devicelab-dev/appium-vision/pkg/report"
	"github.com/devicelab-dev/appium-vision/pkg/session"
	"github.com/devicelab-dev/appium-vision/pkg/shell"
	"github.com/devicelab-dev/appium-vision/pkg/vision"
)

// Match thresholds for the image keywords. Verification demands a
// tighter match than clicking, where the tap target tolerates a
// slightly weaker correlation.
const (
	VerifyImageThreshold = 0.9
	ClickImageThreshold  = 0.8
)

// Options configures a Library. Zero values fall back to the defaults
// documented on each field.
type Options struct {
	// ConfigPath is the device configuration file. Defaults to
	// config.DefaultPath().
	ConfigPath string
	// AssetsDir holds coordinate datasets and reference images.
	// Defaults to "assets".
	AssetsDir string
	// Dial opens device connections. Defaults to session.DialAppium.
	Dial session.DialFunc
	// OCR recognizes on-screen text. Defaults to the tesseract binary,
	// resolved lazily on first OCR keyword.
	OCR locator.Recognizer
	// Matcher performs template matching for the image keywords.
	// Defaults to vision.TemplateMatcher.
	Matcher locator.Matcher
	// Sink receives report attachments. Nil disables AttachVideo.
	Sink report.Sink
}

// Library wires all engines together behind the keyword surface.
type Library struct {
	registry *config.Registry
	sessions *session.Manager
	recorder *recording.Controller
	assets   *assets.Store
	matcher  locator.Matcher
	sink     report.Sink

	ocrOnce sync.Once
	ocr     locator.Recognizer
	ocrErr  error
}

// New builds a Library from the given options.
func New(opts Options) *Library {
	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = config.DefaultPath()
	}
	assetsDir := opts.AssetsDir
	if assetsDir == "" {
		assetsDir = "assets"
	}
	matcher := opts.Matcher
	if matcher == nil {
		matcher = vision.TemplateMatcher{}
	}

	registry := config.NewRegistry(configPath)

	return &Library{
		registry: registry,
		sessions: session.NewManager(registry, opts.Dial),
		recorder: recording.NewController(),
		assets:   assets.NewStore(assetsDir),
		ocr:      opts.OCR,
		matcher:  matcher,
		sink:     opts.Sink,
	}
}

func (l *Library) conn(device string) (core.Connection, error) {
	s, err := l.sessions.GetOrCreate(device)
	if err != nil {
		return nil, err
	}
	return s.Conn, nil
}

// tag stamps an engine error with the logical device name and the keyword
// that was running, unless a lower layer already attributed it.
func tag(err error, device, operation string) error {
	var ae *core.AutomationError
	if errors.As(err, &ae) {
		if _, ok := ae.Details["device"]; !ok {
			return ae.WithDevice(device, operation)
		}
	}
	return err
}

// recognizer resolves the OCR engine once, on first use, so a missing
// tesseract binary only fails the keywords that need it.
func (l *Library) recognizer() (locator.Recognizer, error) {
	l.ocrOnce.Do(func() {
		if l.ocr != nil {
			return
		}
		l.ocr, l.ocrErr = vision.NewTesseract()
	})
	return l.ocr, l.ocrErr
}

// VerifyText asserts that an element with exactly the given text is
// present in the device's UI hierarchy.
func (l *Library) VerifyText(device, text string) error {
	conn, err := l.conn(device)
	if err != nil {
		return err
	}

	res, err := locator.ExactText(text).Locate(conn)
	if err != nil {
		return tag(err, device, "verify_text")
	}
	if !res.Found {
		return fmt.Errorf("text %q not found on device %s", text, device)
	}
	logger.Info("verified text %q on %s at (%d,%d)", text, device, res.Point.X, res.Point.Y)
	return nil
}

// TapByText taps the element carrying the given text. The UI hierarchy
// is checked first; when the text is rendered rather than exposed as an
// element attribute, OCR on a screenshot serves as the fallback.
func (l *Library) TapByText(device, text string) error {
	conn, err := l.conn(device)
	if err != nil {
		return err
	}

	res, err := locator.ExactText(text).Locate(conn)
	if err != nil {
		return tag(err, device, "tap_by_text")
	}
	if !res.Found {
		ocr, err := l.recognizer()
		if err != nil {
			return err
		}
		res, err = locator.TextOCR(text, ocr).Locate(conn)
		if err != nil {
			return tag(err, device, "tap_by_text")
		}
	}
	if !res.Found {
		return fmt.Errorf("text %q not found on device %s", text, device)
	}

	return tag(gesture.Tap(conn, res.Point), device, "tap_by_text")
}

// TapByCoordinates taps the named coordinate from a coordinate dataset.
func (l *Library) TapByCoordinates(device, dataset, key string) error {
	conn, err := l.conn(device)
	if err != nil {
		return err
	}

	p, err := l.assets.Coordinate(dataset, key)
	if err != nil {
		return tag(err, device, "tap_by_coordinates")
	}
	return tag(gesture.Tap(conn, p), device, "tap_by_coordinates")
}

// VerifyImage asserts that the named reference image appears on the
// device screen with high confidence.
func (l *Library) VerifyImage(device, imageName string) error {
	conn, err := l.conn(device)
	if err != nil {
		return err
	}

	ref, err := l.assets.Image(imageName)
	if err != nil {
		return tag(err, device, "verify_image")
	}

	res, err := locator.ImageTemplate(ref, l.matcher, VerifyImageThreshold).Locate(conn)
	if err != nil {
		return tag(err, device, "verify_image")
	}
	if !res.Found {
		return fmt.Errorf("image %q not found on device %s (confidence %.2f)", imageName, device, res.Confidence)
	}
	logger.Info("verified image %q on %s with confidence %.2f", imageName, device, res.Confidence)
	return nil
}

// ClickByImage locates the named reference image on the device screen
// and taps the center of the best match.
func (l *Library) ClickByImage(device, imageName string) error {
	conn, err := l.conn(device)
	if err != nil {
		return err
	}

	ref, err := l.assets.Image(imageName)
	if err != nil {
		return tag(err, device, "click_by_image")
	}

	res, err := locator.ImageTemplate(ref, l.matcher, ClickImageThreshold).Locate(conn)
	if err != nil {
		return tag(err, device, "click_by_image")
	}
	if !res.Found {
		return fmt.Errorf("image %q not found on device %s (confidence %.2f)", imageName, device, res.Confidence)
	}

	return tag(gesture.Tap(conn, res.Point), device, "click_by_image")
}

// RunCommand executes a shell command on the device. A zero timeout
// uses shell.DefaultTimeout.
func (l *Library) RunCommand(device, command string, timeout time.Duration) (string, error) {
	conn, err := l.conn(device)
	if err != nil {
		return "", err
	}
	out, err := shell.Run(conn, command, timeout)
	return out, tag(err, device, "run_command")
}

// PressKey sends an Android keycode to the device.
func (l *Library) PressKey(device string, keycode int) error {
	conn, err := l.conn(device)
	if err != nil {
		return err
	}
	return tag(shell.PressKey(conn, keycode), device, "press_key")
}

// SwipeLeftRight swipes horizontally across the given percentage of the
// usable screen width.
func (l *Library) SwipeLeftRight(device string, direction gesture.Direction, percent float64) error {
	conn, err := l.conn(device)
	if err != nil {
		return err
	}
	return tag(gesture.Swipe(conn, direction, percent), device, "swipe")
}

// ScrollTopBottom scrolls vertically across the given percentage of the
// usable screen height.
func (l *Library) ScrollTopBottom(device string, direction gesture.Direction, percent float64) error {
	conn, err := l.conn(device)
	if err != nil {
		return err
	}
	return tag(gesture.Scroll(conn, direction, percent), device, "scroll")
}

// StartScreenRecording starts an on-device screen recording for the
// given test name.
func (l *Library) StartScreenRecording(device, testName string) error {
	conn, err := l.conn(device)
	if err != nil {
		return err
	}
	_, err = l.recorder.Start(conn, device, testName)
	return err
}

// StopScreenRecording stops the active recording. A missing or already
// stopped recording is not an error, so teardown hooks can call it
// unconditionally. When nothing is recording no session is acquired,
// so teardown on an idle device never dials a new connection.
func (l *Library) StopScreenRecording(device string) error {
	if l.recorder.StateOf(device) != recording.Recording {
		return nil
	}
	conn, err := l.conn(device)
	if err != nil {
		return err
	}
	return l.recorder.Stop(conn, device)
}

// RetrieveRecording pulls the stopped recording to localPath. The state
// is checked before a session is acquired, so an illegal retrieve does
// not dial a new connection just to be rejected.
func (l *Library) RetrieveRecording(device, localPath string) error {
	if state := l.recorder.StateOf(device); state != recording.Stopped {
		return core.ErrInvalidRecordingState.
			WithDevice(device, "retrieve_recording").
			WithMessage(fmt.Sprintf("retrieve requires a stopped recording, state is %s", state))
	}
	conn, err := l.conn(device)
	if err != nil {
		return err
	}
	return l.recorder.Retrieve(conn, device, localPath)
}

// AttachVideo embeds a retrieved recording into the test report.
func (l *Library) AttachVideo(localPath, title string) error {
	if l.sink == nil {
		return fmt.Errorf("no report sink configured")
	}
	return l.sink.Attach(core.NewVideoAttachment(localPath, title, report.DefaultVideoWidth))
}

// SaveScreenshot captures the device screen into a local PNG file.
func (l *Library) SaveScreenshot(device, localPath string) error {
	conn, err := l.conn(device)
	if err != nil {
		return err
	}

	png, err := conn.Screenshot()
	if err != nil {
		return core.ErrCapture.WithDevice(device, "screenshot").WithCause(err)
	}
	return os.WriteFile(localPath, png, 0644)
}

// RecordingState reports the recording state for a device, for
// diagnostics and tests.
func (l *Library) RecordingState(device string) recording.State {
	return l.recorder.StateOf(device)
}

// StopAllSessions closes every active device session.
func (l *Library) StopAllSessions() {
	l.sessions.StopAll()
}

// StopSession closes the session for one device. Idempotent.
func (l *Library) StopSession(device string) error {
	return l.sessions.Stop(device)
}

// Devices lists the configured logical device names, for the CLI.
func (l *Library) Devices() ([]string, error) {
	return l.registry.Names()
}
