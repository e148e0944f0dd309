package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/touch-replay/pkg/device"
	"github.com/devicelab-dev/touch-replay/pkg/report"
)

var reportCommand = &cli.Command{
	Name:      "report",
	Usage:     "Show a report written by replay --report",
	ArgsUsage: "<report.json>",
	Description: `Print the outcome of an earlier replay: status, device, timing policy and
every step with its command, wait and verification files.

Examples:
  touch-replay report out/report.json
  touch-replay report out/report.json --failed
  touch-replay report out/report.json --json`,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output in JSON format",
		},
		&cli.BoolFlag{
			Name:  "failed",
			Usage: "List only failed steps",
		},
	},
	Action: runReport,
}

func runReport(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("report requires exactly one report file")
	}
	r, err := report.Read(c.Args().First())
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return writeJSON(c, r)
	}

	out := c.App.Writer
	title := "Run " + r.RunID
	if r.DryRun {
		title += " (dry run)"
	}
	fmt.Fprintf(out, "%s%s%s\n", color(colorBold), title, color(colorReset))
	fmt.Fprintf(out, "  Log:    %s (%s log)\n", r.Log.Path, r.Log.Kind)
	if r.Log.Snapshot != "" {
		fmt.Fprintf(out, "  UI:     %s\n", r.Log.Snapshot)
	}
	if r.Device.Serial != "" {
		info := device.Info{Model: r.Device.Model, SDK: r.Device.SDK}
		fmt.Fprintf(out, "  Device: %s\n", describeDevice(r.Device.Serial, info))
	}
	fmt.Fprintf(out, "  Timing: %s\n\n", describeTiming(r.Timing))

	for _, s := range r.Steps {
		if c.Bool("failed") && s.Status != report.StatusFailed {
			continue
		}
		fmt.Fprintf(out, "  %3d. %s%-7s%s %-12s +%s  %s\n",
			s.Index, color(statusColor(s.Status)), s.Status, color(colorReset),
			s.Label, formatDuration(s.DelayMs), s.Command)
		if s.Error != nil {
			fmt.Fprintf(out, "       %s%s%s\n", color(colorRed), *s.Error, color(colorReset))
		}
		for _, a := range s.Attachments {
			fmt.Fprintf(out, "       %s%s%s\n", color(colorGray), a.Path, color(colorReset))
		}
	}

	fmt.Fprintf(out, "\n%s%s%s: %d passed, %d failed, %d skipped in %s\n",
		color(statusColor(r.Status)), r.Status, color(colorReset),
		r.Summary.Passed, r.Summary.Failed, r.Summary.Skipped, formatDuration(r.Duration))
	if r.Error != nil {
		fmt.Fprintf(out, "%sError:%s %s\n", color(colorRed), color(colorReset), *r.Error)
	}
	return nil
}

func describeTiming(t report.Timing) string {
	s := fmt.Sprintf("speed %gx", t.Speed)
	if t.FixedDelayMs != nil {
		s = fmt.Sprintf("fixed %s between steps", formatDuration(*t.FixedDelayMs))
	}
	if t.Verify != "" && t.Verify != string(device.VerifyNone) {
		s += ", verify " + t.Verify
	}
	return s
}

func statusColor(s report.Status) string {
	switch s {
	case report.StatusPassed:
		return colorGreen
	case report.StatusFailed:
		return colorRed
	default:
		return colorYellow
	}
}
