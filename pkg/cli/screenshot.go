package cli

import (
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v2"
)

var screenshotCommand = &cli.Command{
	Name:  "screenshot",
	Usage: "Capture a device screenshot to a local PNG",
	Description: `Opens (or reuses) a session for the named device and saves its
current screen.

Examples:
  appium-vision screenshot --device pixel
  appium-vision screenshot --device pixel --file login.png`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "device",
			Aliases:  []string{"d"},
			Usage:    "Logical device name from the configuration file",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "file",
			Usage: "Output file name (default <device>.png in the output dir)",
		},
	},
	Action: runScreenshot,
}

func runScreenshot(c *cli.Context) error {
	outputDir, err := resolveOutputDir(c.String("output"))
	if err != nil {
		return err
	}

	deviceName := c.String("device")
	file := c.String("file")
	if file == "" {
		file = deviceName + ".png"
	}
	localPath := filepath.Join(outputDir, file)

	lib := newLibrary(c, outputDir)
	defer lib.StopAllSessions()

	if err := lib.SaveScreenshot(deviceName, localPath); err != nil {
		return err
	}

	fmt.Printf("Saved screenshot of %s to %s\n", deviceName, localPath)
	return nil
}
