package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/appium-vision/pkg/config"
	"github.com/devicelab-dev/appium-vision/pkg/validator"
)

var validateCommand = &cli.Command{
	Name:  "validate",
	Usage: "Validate the device configuration and assets directory",
	Description: `Parses the configuration file and every coordinate dataset and
reference image, reporting all problems at once.

Examples:
  appium-vision validate
  appium-vision -c ci-devices.yaml --assets ./assets validate`,
	Action: runValidate,
}

func runValidate(c *cli.Context) error {
	configPath := c.String("config")
	if configPath == "" {
		configPath = config.DefaultPath()
	}

	result := validator.New(configPath, c.String("assets")).Validate()

	for _, err := range result.Errors {
		fmt.Printf("  %v\n", err)
	}
	if !result.IsValid() {
		return fmt.Errorf("validation failed with %d error(s)", len(result.Errors))
	}

	fmt.Printf("Configuration OK: %d device(s)\n", len(result.Devices))
	return nil
}
