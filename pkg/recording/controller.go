// Package recording governs on-device screen capture through an explicit
// state machine: Idle -> Recording -> Stopped -> Retrieved.
package recording

import (
	"fmt"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/devicelab-dev/appium-vision/pkg/core"
	"github.com/devicelab-dev/appium-vision/pkg/logger"
)

// remoteDir is where the on-device media projection recorder writes files.
const remoteDir = "/sdcard/Movies"

// State of a recording session.
type State int

// Recording states
const (
	Idle State = iota
	Recording
	Stopped
	Retrieved
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Stopped:
		return "stopped"
	case Retrieved:
		return "retrieved"
	default:
		return "unknown"
	}
}

// Session tracks one screen recording for a device.
type Session struct {
	Device     string
	TestName   string
	State      State
	RemotePath string
	LocalPath  string
	StartedAt  time.Time
}

// Controller owns at most one recording session per logical device and
// rejects illegal transitions instead of overwriting state, since a replaced
// session would orphan the remote file.
type Controller struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewController creates a recording controller.
func NewController() *Controller {
	return &Controller{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Start begins a recording for the device and returns the remote file path.
// Fails if a recording is already active, or if a finished recording has not
// been retrieved yet.
func (c *Controller) Start(conn core.Connection, device, testName string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.sessions[device]; ok && s.State != Retrieved {
		if s.State == Recording {
			return "", core.ErrRecordingAlreadyActive.WithDevice(device, "start_recording")
		}
		return "", core.ErrInvalidRecordingState.
			WithDevice(device, "start_recording").
			WithMessage(fmt.Sprintf("previous recording is %s, retrieve it first", s.State))
	}

	timestamp := c.now().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s_%s.mp4", device, timestamp, sanitize(testName))

	if err := conn.StartRecording(filename); err != nil {
		return "", err
	}

	remotePath := path.Join(remoteDir, filename)
	c.sessions[device] = &Session{
		Device:     device,
		TestName:   testName,
		State:      Recording,
		RemotePath: remotePath,
		StartedAt:  c.now(),
	}
	logger.Info("started recording for %s at %s", device, remotePath)
	return remotePath, nil
}

// Stop ends the active recording. Calling it when nothing is recording is a
// no-op, so best-effort cleanup in teardown paths never fails.
func (c *Controller) Stop(conn core.Connection, device string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[device]
	if !ok || s.State != Recording {
		return nil
	}

	if err := conn.StopRecording(); err != nil {
		return err
	}
	s.State = Stopped
	logger.Info("stopped recording for %s", device)
	return nil
}

// Retrieve pulls the recorded file to localPath. Valid only from Stopped.
func (c *Controller) Retrieve(conn core.Connection, device, localPath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[device]
	if !ok || s.State != Stopped {
		state := Idle
		if ok {
			state = s.State
		}
		return core.ErrInvalidRecordingState.
			WithDevice(device, "retrieve_recording").
			WithMessage(fmt.Sprintf("retrieve requires a stopped recording, state is %s", state))
	}

	data, err := conn.PullFile(s.RemotePath)
	if err != nil {
		return err
	}
	if err := os.WriteFile(localPath, data, 0644); err != nil {
		return err
	}

	s.State = Retrieved
	s.LocalPath = localPath
	logger.Info("retrieved recording for %s to %s", device, localPath)
	return nil
}

// StateOf returns the recording state for a device, Idle when untracked.
func (c *Controller) StateOf(device string) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.sessions[device]; ok {
		return s.State
	}
	return Idle
}

// sanitize makes a test name safe for use in a device file path.
func sanitize(name string) string {
	name = strings.TrimSpace(name)
	replacer := strings.NewReplacer(" ", "_", "/", "_", ":", "_")
	return replacer.Replace(name)
}
