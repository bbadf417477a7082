// Package device locates host-side tooling and lists the Android
// devices visible to ADB.
package device

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Entry describes one device reported by `adb devices`.
type Entry struct {
	Serial string
	State  string
}

// FindADB locates the adb binary via PATH, falling back to the
// platform-tools directory under ANDROID_HOME.
func FindADB() (string, error) {
	if path, err := exec.LookPath("adb"); err == nil {
		return path, nil
	}

	if home := os.Getenv("ANDROID_HOME"); home != "" {
		candidate := filepath.Join(home, "platform-tools", "adb")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("adb not found in PATH or ANDROID_HOME; ensure Android SDK platform-tools is installed")
}

// ListDevices runs `adb devices` and returns every attached device,
// including ones in non-ready states such as offline or unauthorized.
func ListDevices() ([]Entry, error) {
	adbPath, err := FindADB()
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(adbPath, "devices")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("adb devices: %w: %s", err, stderr.String())
	}

	return parseDevices(stdout.String()), nil
}

// parseDevices extracts device entries from `adb devices` output.
func parseDevices(out string) []Entry {
	var entries []Entry
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "List of") || strings.HasPrefix(line, "*") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		entries = append(entries, Entry{Serial: parts[0], State: parts[1]})
	}
	return entries
}
