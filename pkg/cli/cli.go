// Package cli provides the command-line interface for appium-vision.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/appium-vision/pkg/keywords"
	"github.com/devicelab-dev/appium-vision/pkg/logger"
	"github.com/devicelab-dev/appium-vision/pkg/report"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Device configuration file (devices.yaml)",
		EnvVars: []string{"APPIUM_VISION_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "assets",
		Usage:   "Directory holding coordinate datasets and reference images",
		Value:   "assets",
		EnvVars: []string{"APPIUM_VISION_ASSETS"},
	},
	&cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Output directory for screenshots, recordings and attachments",
		EnvVars: []string{"APPIUM_VISION_OUTPUT"},
	},
	&cli.StringFlag{
		Name:    "log-file",
		Usage:   "Log file path",
		Value:   logger.DefaultPath,
		EnvVars: []string{"APPIUM_VISION_LOG"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Mirror log output to stderr",
		EnvVars: []string{"APPIUM_VISION_VERBOSE"},
	},
}

// Execute runs the CLI.
func Execute() {
	// Populate the environment from a local .env before flag resolution
	// so EnvVars defaults pick it up. A missing file is fine.
	_ = godotenv.Load()

	app := &cli.App{
		Name:    "appium-vision",
		Usage:   "Keyword-driven UI automation for Android devices over Appium",
		Version: Version,
		Description: `appium-vision drives configured devices through an Appium server:
text and image verification, gestures, shell commands and screen recordings.

Examples:
  appium-vision doctor
  appium-vision devices
  appium-vision screenshot --device pixel`,
		Flags: GlobalFlags,
		Before: func(c *cli.Context) error {
			if err := logger.Init(c.String("log-file")); err != nil {
				return err
			}
			logger.EnableConsole(c.Bool("verbose"))
			return nil
		},
		After: func(c *cli.Context) error {
			logger.Close()
			return nil
		},
		Commands: []*cli.Command{
			doctorCommand,
			devicesCommand,
			validateCommand,
			screenshotCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newLibrary builds the keyword library from the global flags.
func newLibrary(c *cli.Context, outputDir string) *keywords.Library {
	return keywords.New(keywords.Options{
		ConfigPath: c.String("config"),
		AssetsDir:  c.String("assets"),
		Sink:       report.NewHTMLSink(outputDir),
	})
}

// newLibraryNoOutput builds the library for commands that produce no
// report artifacts.
func newLibraryNoOutput(c *cli.Context) *keywords.Library {
	return keywords.New(keywords.Options{
		ConfigPath: c.String("config"),
		AssetsDir:  c.String("assets"),
	})
}

// resolveOutputDir picks the run's output directory. Without an explicit
// --output a timestamped folder under reports/ keeps runs apart.
func resolveOutputDir(output string) (string, error) {
	if output == "" {
		output = filepath.Join("reports", time.Now().Format("20060102-150405"))
	}
	if err := os.MkdirAll(output, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	return output, nil
}
