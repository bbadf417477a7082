// Package mock provides a scriptable core.Connection for testing without a
// real device.
package mock

import (
	"fmt"
	"time"

	"github.com/devicelab-dev/appium-vision/pkg/core"
)

// Swipe records one drag issued through the connection.
type Swipe struct {
	StartX, StartY int
	EndX, EndY     int
	DurationMs     int
}

// Conn is a fake core.Connection. Zero value is a healthy connection with a
// 1080x1920 screen and empty responses; script failures via the Err fields.
type Conn struct {
	// Scripted state
	Dead          bool
	SourceXML     string
	SourceErr     error
	PNG           []byte
	ScreenshotErr error
	Width, Height int
	ShellOut      string
	ShellErr      error
	ShellDelay    time.Duration
	Files         map[string][]byte
	TapErr        error
	SwipeErr      error
	RecordErr     error

	// Recorded interactions
	Taps       []core.Point
	Swipes     []Swipe
	Keys       []int
	Recordings []string
	Stops      int
	Pulls      []string
	Closes     int
}

var _ core.Connection = (*Conn)(nil)

// Live implements core.Connection.
func (c *Conn) Live() bool { return !c.Dead }

// Source implements core.Connection.
func (c *Conn) Source() (string, error) {
	if c.SourceErr != nil {
		return "", c.SourceErr
	}
	return c.SourceXML, nil
}

// Screenshot implements core.Connection.
func (c *Conn) Screenshot() ([]byte, error) {
	if c.ScreenshotErr != nil {
		return nil, c.ScreenshotErr
	}
	return c.PNG, nil
}

// WindowSize implements core.Connection.
func (c *Conn) WindowSize() (int, int, error) {
	if c.Width == 0 && c.Height == 0 {
		return 1080, 1920, nil
	}
	return c.Width, c.Height, nil
}

// Tap implements core.Connection.
func (c *Conn) Tap(x, y int) error {
	if c.TapErr != nil {
		return c.TapErr
	}
	c.Taps = append(c.Taps, core.Point{X: x, Y: y})
	return nil
}

// Swipe implements core.Connection.
func (c *Conn) Swipe(startX, startY, endX, endY, durationMs int) error {
	if c.SwipeErr != nil {
		return c.SwipeErr
	}
	c.Swipes = append(c.Swipes, Swipe{startX, startY, endX, endY, durationMs})
	return nil
}

// PressKey implements core.Connection.
func (c *Conn) PressKey(keycode int) error {
	c.Keys = append(c.Keys, keycode)
	return nil
}

// Shell implements core.Connection.
func (c *Conn) Shell(command string, args []string, timeout time.Duration) (string, error) {
	if c.ShellDelay > 0 {
		time.Sleep(c.ShellDelay)
	}
	if c.ShellErr != nil {
		return "", c.ShellErr
	}
	return c.ShellOut, nil
}

// StartRecording implements core.Connection.
func (c *Conn) StartRecording(filename string) error {
	if c.RecordErr != nil {
		return c.RecordErr
	}
	c.Recordings = append(c.Recordings, filename)
	return nil
}

// StopRecording implements core.Connection.
func (c *Conn) StopRecording() error {
	if c.RecordErr != nil {
		return c.RecordErr
	}
	c.Stops++
	return nil
}

// PullFile implements core.Connection.
func (c *Conn) PullFile(remotePath string) ([]byte, error) {
	c.Pulls = append(c.Pulls, remotePath)
	data, ok := c.Files[remotePath]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", remotePath)
	}
	return data, nil
}

// Close implements core.Connection.
func (c *Conn) Close() error {
	c.Closes++
	return nil
}
