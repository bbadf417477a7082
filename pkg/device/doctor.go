package device

import (
	"github.com/devicelab-dev/appium-vision/pkg/vision"
)

// Check reports whether one host-side tool is available.
type Check struct {
	Name   string
	Path   string
	OK     bool
	Detail string
}

// Doctor probes for the external tools the library shells out to.
// A failed check does not block keywords that never touch the tool,
// so each result is reported rather than returned as an error.
func Doctor() []Check {
	var checks []Check

	adbCheck := Check{Name: "adb"}
	if path, err := FindADB(); err == nil {
		adbCheck.OK = true
		adbCheck.Path = path
	} else {
		adbCheck.Detail = err.Error()
	}
	checks = append(checks, adbCheck)

	tessCheck := Check{Name: "tesseract"}
	if path, err := vision.FindTesseract(); err == nil {
		tessCheck.OK = true
		tessCheck.Path = path
	} else {
		tessCheck.Detail = err.Error()
	}
	checks = append(checks, tessCheck)

	return checks
}
