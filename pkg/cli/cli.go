// Package cli provides the command-line interface for touch-replay.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/touch-replay/pkg/config"
	"github.com/devicelab-dev/touch-replay/pkg/logger"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "device",
		Aliases: []string{"s"},
		Usage:   "ADB serial or ip:port of the target device",
		EnvVars: []string{"TOUCH_REPLAY_DEVICE", "ANDROID_SERIAL"},
	},
	&cli.StringFlag{
		Name:    "config",
		Usage:   "Workspace config file (default: replay.yaml in the current directory)",
		EnvVars: []string{"TOUCH_REPLAY_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "log-file",
		Usage:   "Log file path (default: ~/.touch-replay/logs/touch-replay.log)",
		EnvVars: []string{"TOUCH_REPLAY_LOG_FILE"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging",
		EnvVars: []string{"TOUCH_REPLAY_VERBOSE"},
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// Commands lists every subcommand.
var Commands = []*cli.Command{
	replayCommand,
	parseCommand,
	recordCommand,
	dumpUICommand,
	captureCommand,
	resolveCommand,
	devicesCommand,
	reportCommand,
}

// NewApp builds the CLI application.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "touch-replay",
		Usage:   "Record and replay Android touch interactions over ADB",
		Version: Version,
		Description: `touch-replay records raw touch input from an Android device, collapses it
into tap and swipe gestures, and replays coordinate or element-based logs
with their recorded timing.

Examples:
  touch-replay record -o touch.json
  touch-replay replay touch.json --speed 2
  touch-replay dump-ui --stage login -o /work/ui-dumps/login.json
  touch-replay replay steps.json --ui-source /work/ui-dumps --verify both
  touch-replay report out/report.json`,
		Flags:    GlobalFlags,
		Commands: Commands,
		Before:   setupLogging,
		After: func(*cli.Context) error {
			logger.Close()
			return nil
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := NewApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging(c *cli.Context) error {
	if c.Bool("no-ansi") {
		colorsEnabled = false
	}

	logPath := c.String("log-file")
	if logPath == "" {
		logPath = config.DefaultLogPath()
	}
	if err := logger.Init(logPath); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.SetVerbose(c.Bool("verbose"))
	logger.Info("=== touch-replay %s started: %v ===", Version, os.Args[1:])
	return nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("Received signal %v, stopping...", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}
