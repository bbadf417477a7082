package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/appium-vision/pkg/device"
)

var doctorCommand = &cli.Command{
	Name:  "doctor",
	Usage: "Check that the required host tools are installed",
	Description: `Probes for the external tools the library shells out to (adb,
tesseract) and reports where each one was found.

Examples:
  appium-vision doctor`,
	Action: runDoctor,
}

func runDoctor(c *cli.Context) error {
	checks := device.Doctor()

	failed := 0
	for _, check := range checks {
		if check.OK {
			fmt.Printf("  ok    %-10s %s\n", check.Name, check.Path)
		} else {
			fmt.Printf("  MISS  %-10s %s\n", check.Name, check.Detail)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(checks))
	}
	fmt.Println("\nAll checks passed.")
	return nil
}
