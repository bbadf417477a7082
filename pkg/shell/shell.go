// Package shell issues device shell commands through the active session.
package shell

import (
	"fmt"
	"strings"
	"time"

	"github.com/devicelab-dev/appium-vision/pkg/core"
)

// DefaultTimeout bounds shell commands when the caller does not specify one.
const DefaultTimeout = 5 * time.Second

// Run executes a shell command line on the device and returns its output.
//
// The timeout is enforced client-side: if the remote call does not return in
// time, Run fails with a timeout error, but the remote side may still be
// executing the command. This is a best-effort bound, not a guarantee of
// remote cancellation.
func Run(conn core.Connection, command string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	parts := strings.Fields(command)
	if len(parts) == 0 {
		return "", fmt.Errorf("empty shell command")
	}

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)

	go func() {
		out, err := conn.Shell(parts[0], parts[1:], timeout)
		done <- result{out, err}
	}()

	select {
	case r := <-done:
		return r.out, r.err
	case <-time.After(timeout):
		return "", core.ErrCommandTimeout.WithDetails(map[string]interface{}{
			"command":    command,
			"timeout_ms": timeout.Milliseconds(),
		})
	}
}

// PressKey presses an Android hardware/system key by keycode.
func PressKey(conn core.Connection, keycode int) error {
	return conn.PressKey(keycode)
}
