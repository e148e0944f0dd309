package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/touch-replay/pkg/config"
	"github.com/devicelab-dev/touch-replay/pkg/core"
	"github.com/devicelab-dev/touch-replay/pkg/device"
	"github.com/devicelab-dev/touch-replay/pkg/gesture"
	"github.com/devicelab-dev/touch-replay/pkg/logger"
	"github.com/devicelab-dev/touch-replay/pkg/replay"
	"github.com/devicelab-dev/touch-replay/pkg/report"
	"github.com/devicelab-dev/touch-replay/pkg/touchlog"
)

// Device is the subset of device.AndroidDevice used by the commands.
type Device interface {
	replay.Dispatcher
	device.Capturer
	Serial() string
	CommandLine(args ...string) string
	DumpUIStream() (string, error)
	StreamEvents(ctx context.Context, inputDevice string, fn func(line string)) error
	GetInfo() device.Info
}

// openDevice connects to a device. Tests replace it with a fake.
var openDevice = func(serial string) (Device, error) {
	d, err := device.New(serial)
	if err != nil {
		return nil, err
	}
	return d, nil
}

var replayCommand = &cli.Command{
	Name:      "replay",
	Usage:     "Replay a touch or element log on the device",
	ArgsUsage: "<log.json|log.csv>",
	Description: `Replay a recorded log with its original timing.

Touch logs (timestamp, x, y, action) are collapsed into taps and swipes.
Element logs (resource_id or text) are resolved against a UI snapshot
before anything is sent to the device.

Examples:
  touch-replay replay touch.json
  touch-replay replay touch.csv --speed 2
  touch-replay replay steps.json --ui-source /work/ui-dumps/login.json
  touch-replay replay touch.json --fixed-delay 0.5 --verify screenshot
  touch-replay replay touch.json --dry-run`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "ui-source",
			Usage: "UI snapshot file, or directory to take the newest .json from",
			Value: config.DefaultUISource,
		},
		&cli.Float64Flag{
			Name:  "speed",
			Usage: "Playback speed multiplier (2 = twice as fast)",
			Value: config.DefaultSpeed,
		},
		&cli.Float64Flag{
			Name:  "fixed-delay",
			Usage: "Wait this many seconds before every step instead of the recorded gaps",
		},
		&cli.StringFlag{
			Name:  "verify",
			Usage: "Capture after each step: none, ui, screenshot, both",
			Value: string(device.VerifyNone),
		},
		&cli.StringFlag{
			Name:  "verify-dir",
			Usage: "Directory for verification captures",
			Value: config.DefaultVerifyDir,
		},
		&cli.StringFlag{
			Name:  "report",
			Usage: "Write a JSON run report to this path",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Print the planned commands without touching a device",
		},
	},
	Action: runReplay,
}

// ReplayOptions is everything a replay run needs.
type ReplayOptions struct {
	LogPath string
	Config  *config.Config
	DryRun  bool
	Out     io.Writer
}

func runReplay(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("replay requires exactly one log file")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return replayFailed(c, err)
	}

	ctx, stop := signalContext(context.Background())
	defer stop()

	opts := &ReplayOptions{
		LogPath: c.Args().First(),
		Config:  cfg,
		DryRun:  c.Bool("dry-run"),
		Out:     c.App.Writer,
	}
	if _, err := executeReplay(ctx, opts); err != nil {
		return replayFailed(c, err)
	}
	return nil
}

func replayFailed(c *cli.Context, err error) error {
	logger.LogError("cli").Err(err).Msg("replay failed")
	fmt.Fprintf(c.App.ErrWriter, "%sReplay failed:%s %v\n", color(colorRed), color(colorReset), err)
	return cli.Exit("", 1)
}

// loadConfig reads the workspace config and applies explicitly set flags
// on top. Flags win over the file, the file wins over defaults.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFromDir(".")
	}
	if err != nil {
		return nil, err
	}

	if c.IsSet("device") {
		cfg.Device = c.String("device")
	}
	if c.IsSet("ui-source") {
		cfg.UISource = c.String("ui-source")
	}
	if c.IsSet("speed") {
		cfg.Speed = c.Float64("speed")
	}
	if c.IsSet("fixed-delay") {
		v := c.Float64("fixed-delay")
		cfg.FixedDelay = &v
	}
	if c.IsSet("verify") {
		cfg.Verify = c.String("verify")
	}
	if c.IsSet("verify-dir") {
		cfg.VerifyDir = c.String("verify-dir")
	}
	if c.IsSet("report") {
		cfg.Report = c.String("report")
	}

	// A log file from replay.yaml replaces the default one opened in Before.
	if cfg.LogFile != "" && !c.IsSet("log-file") {
		if err := logger.Init(cfg.LogFile); err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// executeReplay loads, plans and replays one log. The result is nil when the
// run failed before any step was scheduled.
func executeReplay(ctx context.Context, opts *ReplayOptions) (*core.RunResult, error) {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	cfg := opts.Config
	timing := cfg.Timing()
	mode := cfg.VerifyMode()
	runID := report.NewRunID()

	logger.LogInfo("cli").Str("run", runID).Str("log", opts.LogPath).
		Float64("speed", timing.Speed).Bool("dryRun", opts.DryRun).Msg("replay started")

	l, err := touchlog.Load(opts.LogPath)
	if err != nil {
		return nil, err
	}
	prepared, err := replay.Plan(l, cfg.UISource)
	if err != nil {
		return nil, err
	}

	meta := report.Meta{
		RunID:  runID,
		DryRun: opts.DryRun,
		Log: report.LogInfo{
			Path:     opts.LogPath,
			Kind:     prepared.Kind.String(),
			Snapshot: prepared.SnapshotPath,
		},
		Speed:     timing.Speed,
		Fixed:     timing.FixedDelay,
		Verify:    string(mode),
		VerifyDir: cfg.VerifyDir,
	}

	if len(prepared.Gestures) == 0 {
		fmt.Fprintln(out, "No replayable steps found in the log.")
		result := &core.RunResult{Status: core.StatusPassed, StartTime: time.Now()}
		return result, writeReport(cfg.Report, result, meta)
	}

	fmt.Fprintf(out, "%sReplaying %d step(s)%s from %s (%s log)\n",
		color(colorBold), len(prepared.Gestures), color(colorReset), opts.LogPath, prepared.Kind)
	if prepared.SnapshotPath != "" {
		fmt.Fprintf(out, "  Using UI snapshot %s\n", prepared.SnapshotPath)
	}

	if opts.DryRun {
		result := planOnly(out, prepared.Gestures, timing)
		return result, writeReport(cfg.Report, result, meta)
	}

	dev, err := openDevice(cfg.Device)
	if err != nil {
		return nil, err
	}
	info := dev.GetInfo()
	meta.Device = report.Device{
		Serial:     dev.Serial(),
		Model:      info.Model,
		Brand:      info.Brand,
		SDK:        info.SDK,
		IsEmulator: info.IsEmulator,
	}
	fmt.Fprintf(out, "  Device: %s\n\n", describeDevice(dev.Serial(), info))

	sched := replay.NewScheduler(dev, timing)
	if mode.Enabled() {
		sched.Verifier = &device.Verifier{Device: dev, Mode: mode, Dir: cfg.VerifyDir}
	}
	sched.OnStep = func(step int, g gesture.Gesture, delay time.Duration) {
		if delay > 0 {
			fmt.Fprintf(out, "%sWaiting %.3fs before step %d (%s)...%s\n",
				color(colorGray), delay.Seconds(), step, g.Label, color(colorReset))
		}
	}
	sched.OnDispatch = func(step int, g gesture.Gesture, command string) {
		fmt.Fprintf(out, "%s→%s %s: %s\n", color(colorCyan), color(colorReset), g.Label, dev.CommandLine("shell", command))
	}

	result, runErr := sched.Run(ctx, prepared.Gestures)
	if result != nil {
		if err := writeReport(cfg.Report, result, meta); err != nil {
			logger.LogError("cli").Err(err).Str("report", cfg.Report).Msg("failed to write report")
			if runErr == nil {
				runErr = err
			}
		}
		printSummary(out, result)
	}
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			fmt.Fprintln(out, "Replay interrupted.")
		}
		return result, runErr
	}

	fmt.Fprintf(out, "%sReplay finished.%s\n", color(colorGreen), color(colorReset))
	return result, nil
}

// planOnly prints what a run would send and returns a result with every
// step skipped.
func planOnly(out io.Writer, gestures []gesture.Gesture, timing replay.Timing) *core.RunResult {
	result := &core.RunResult{Status: core.StatusPassed, StartTime: time.Now()}
	var prev *gesture.Gesture
	for i, g := range gestures {
		delay := timing.Delay(prev, g)
		command := replay.Describe(g, timing)
		fmt.Fprintf(out, "  %3d. +%.3fs %-12s adb shell %s\n", i+1, delay.Seconds(), g.Label, command)
		result.Steps = append(result.Steps, core.StepResult{
			Index:   i + 1,
			Label:   g.Label,
			Kind:    string(g.Kind),
			Command: command,
			Status:  core.StatusSkipped,
			Delay:   delay,
		})
		prev = &gestures[i]
	}
	return result
}

func writeReport(path string, result *core.RunResult, meta report.Meta) error {
	if path == "" {
		return nil
	}
	if err := report.Write(path, report.Build(result, meta)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	logger.LogInfo("cli").Str("report", path).Msg("report written")
	return nil
}

func printSummary(out io.Writer, result *core.RunResult) {
	statusColor := colorGreen
	if result.Status == core.StatusFailed {
		statusColor = colorRed
	}
	fmt.Fprintf(out, "\n%s%s%s: %d passed, %d failed, %d skipped in %s\n",
		color(statusColor), result.Status, color(colorReset),
		result.Passed(), result.Failed(), result.Skipped(),
		formatDuration(result.Duration.Milliseconds()))
}

func describeDevice(serial string, info device.Info) string {
	switch {
	case info.Model != "" && info.SDK != "":
		return fmt.Sprintf("%s (%s, SDK %s)", serial, info.Model, info.SDK)
	case info.Model != "":
		return fmt.Sprintf("%s (%s)", serial, info.Model)
	default:
		return serial
	}
}
