// Package gesture converts abstract tap/swipe/scroll intents into concrete
// pointer-action sequences with resolution-independent geometry.
package gesture

import (
	"github.com/devicelab-dev/appium-vision/pkg/core"
)

// SafeMarginPercent is the edge-exclusion band, as a percentage of each
// screen axis. Gestures never start or end inside this band, so they cannot
// trigger the system's edge gestures (back navigation, notification shade).
const SafeMarginPercent = 5.0

// defaultDurationMs matches the drag duration used for coordinate swipes.
const defaultDurationMs = 300

// Direction of a swipe or scroll gesture.
type Direction string

// Gesture directions
const (
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
)

// Tap performs a single pointer-down/up at an absolute coordinate.
func Tap(conn core.Connection, p core.Point) error {
	return conn.Tap(p.X, p.Y)
}

// TapOn taps the center of a located region.
func TapOn(conn core.Connection, b core.Bounds) error {
	return Tap(conn, b.Center())
}

// Swipe performs a horizontal drag covering percent of the usable screen
// width, centered on mid-screen, holding y fixed at vertical mid-screen.
// Percent outside 0-100 fails before any pointer action is issued; it is
// never clamped, since clamping would silently change test intent.
func Swipe(conn core.Connection, direction Direction, percent float64) error {
	if err := validatePercent(percent); err != nil {
		return err
	}
	if direction != DirectionLeft && direction != DirectionRight {
		return invalidDirection(direction)
	}

	w, h, err := conn.WindowSize()
	if err != nil {
		return err
	}

	from, to := axisPath(w, percent)
	if direction == DirectionRight {
		from, to = to, from
	}
	y := h / 2
	return conn.Swipe(from, y, to, y, defaultDurationMs)
}

// Scroll is the vertical counterpart of Swipe, holding x fixed at horizontal
// mid-screen. DirectionDown drags upward (content scrolls down).
func Scroll(conn core.Connection, direction Direction, percent float64) error {
	if err := validatePercent(percent); err != nil {
		return err
	}
	if direction != DirectionUp && direction != DirectionDown {
		return invalidDirection(direction)
	}

	w, h, err := conn.WindowSize()
	if err != nil {
		return err
	}

	from, to := axisPath(h, percent)
	if direction == DirectionUp {
		from, to = to, from
	}
	x := w / 2
	return conn.Swipe(x, from, x, to, defaultDurationMs)
}

// axisPath computes the start and end coordinates of a drag along one axis:
// percent of the usable span (axis length minus the safe margin on each
// side), centered on the axis midpoint, moving toward the origin.
func axisPath(axis int, percent float64) (start, end int) {
	margin := float64(axis) * SafeMarginPercent / 100
	usable := float64(axis) - 2*margin
	dist := usable * percent / 100
	mid := float64(axis) / 2
	return int(mid + dist/2), int(mid - dist/2)
}

func validatePercent(percent float64) error {
	if percent < 0 || percent > 100 {
		return core.ErrInvalidGestureParameter.WithDetails(map[string]interface{}{
			"percent": percent,
		})
	}
	return nil
}

func invalidDirection(direction Direction) error {
	return core.ErrInvalidGestureParameter.WithDetails(map[string]interface{}{
		"direction": string(direction),
	})
}
