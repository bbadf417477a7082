package cli

import (
	"fmt"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/appium-vision/pkg/device"
)

var devicesCommand = &cli.Command{
	Name:  "devices",
	Usage: "List configured devices and what ADB currently sees",
	Description: `Prints the logical device names from the configuration file,
then the serials reported by adb.

Examples:
  appium-vision devices
  appium-vision -c ci-devices.yaml devices`,
	Action: runDevices,
}

func runDevices(c *cli.Context) error {
	lib := newLibraryNoOutput(c)

	names, err := lib.Devices()
	if err != nil {
		return fmt.Errorf("read device configuration: %w", err)
	}
	sort.Strings(names)

	fmt.Println("Configured devices:")
	if len(names) == 0 {
		fmt.Println("  (none)")
	}
	for _, name := range names {
		fmt.Printf("  %s\n", name)
	}

	entries, err := device.ListDevices()
	if err != nil {
		fmt.Printf("\nadb unavailable: %v\n", err)
		return nil
	}

	fmt.Println("\nConnected via adb:")
	if len(entries) == 0 {
		fmt.Println("  (none)")
	}
	for _, e := range entries {
		fmt.Printf("  %s\t%s\n", e.Serial, e.State)
	}
	return nil
}
