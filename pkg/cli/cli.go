// Package cli provides the command-line interface for mobile-harness.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands. Flags override the config
// file and HARNESS_* environment variables.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Usage:   "Path to harness.yaml (default: ./harness.yaml if present)",
		EnvVars: []string{"HARNESS_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "appium-url",
		Usage:   "Appium server URL",
		EnvVars: []string{"APPIUM_URL"},
	},
	&cli.StringFlag{
		Name:    "platform",
		Aliases: []string{"p"},
		Usage:   "Platform name capability (Android, iOS)",
	},
	&cli.StringFlag{
		Name:    "device",
		Aliases: []string{"udid"},
		Usage:   "Device UDID capability",
	},
	&cli.StringFlag{
		Name:  "artifacts-dir",
		Usage: "Directory for screenshots and reports",
	},
	&cli.BoolFlag{
		Name:  "verbose",
		Usage: "Enable debug logging",
	},
	&cli.StringFlag{
		Name:  "log-file",
		Usage: "Write logs to this file instead of stderr",
	},
	&cli.BoolFlag{
		Name:  "trace",
		Usage: "Print operation spans to stdout",
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// NewApp builds the CLI application.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "mobile-harness",
		Usage:   "Drive mobile apps through an Appium session",
		Version: Version,
		Description: `mobile-harness runs YAML flows against a mobile app over an Appium
(W3C WebDriver) session, and exposes the gesture and wait primitives
as one-shot commands.

Examples:
  mobile-harness run flows/login.yaml
  mobile-harness run flows/ -e USERNAME=test --include-tags smoke
  mobile-harness --device emulator-5554 scroll down --amount 0.4
  mobile-harness scroll-to --xpath '//*[@text="Opslaan"]' --max-scrolls 5`,
		Flags: GlobalFlags,
		Commands: []*cli.Command{
			runCommand,
			windowCommand,
			tapCommand,
			swipeCommand,
			scrollCommand,
			scrollToCommand,
		},
	}
}

// Execute runs the CLI.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
