package core

import (
	"time"
)

// Connection is the capability set consumed from the remote automation server.
// All calls are blocking; there is no background scheduling. The library treats
// this purely as an interface, so any conforming implementation (Appium client,
// test fake) is substitutable.
type Connection interface {
	// Live is a lightweight liveness probe. A false result means the session
	// should be recreated, not that the device is gone.
	Live() bool

	// Source returns the current UI hierarchy snapshot as XML.
	Source() (string, error)

	// Screenshot captures the current screen as PNG bytes.
	Screenshot() ([]byte, error)

	// WindowSize returns the screen dimensions in pixels.
	WindowSize() (width, height int, err error)

	// Tap performs a single pointer-down/up at absolute coordinates.
	Tap(x, y int) error

	// Swipe performs a continuous pointer drag.
	Swipe(startX, startY, endX, endY, durationMs int) error

	// PressKey presses a hardware/system key by Android keycode.
	PressKey(keycode int) error

	// Shell executes a device shell command. The timeout is forwarded to the
	// remote side; client-side enforcement lives in the shell gateway.
	Shell(command string, args []string, timeout time.Duration) (string, error)

	// StartRecording begins an on-device screen capture to the given filename.
	StartRecording(filename string) error

	// StopRecording stops the active on-device screen capture.
	StopRecording() error

	// PullFile retrieves a file from the device.
	PullFile(remotePath string) ([]byte, error)

	// Close terminates the remote session.
	Close() error
}
