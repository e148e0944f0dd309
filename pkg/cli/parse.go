package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/touch-replay/pkg/gesture"
	"github.com/devicelab-dev/touch-replay/pkg/logger"
	"github.com/devicelab-dev/touch-replay/pkg/touch"
	"github.com/devicelab-dev/touch-replay/pkg/touchlog"
)

var parseCommand = &cli.Command{
	Name:      "parse",
	Usage:     "Convert a raw getevent capture into a touch log",
	ArgsUsage: "<getevent.txt|->",
	Description: `Parse the output of "adb shell getevent -lt" into down/move/up samples.
Use "-" to read from stdin.

Examples:
  touch-replay parse events.txt -o touch.json
  adb shell getevent -lt | touch-replay parse - --format csv -o touch.csv
  touch-replay parse events.txt --input-device /dev/input/event2 --gestures`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "input-device",
			Usage: "Only parse events from this input device (e.g. /dev/input/event2)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write the touch log here instead of stdout",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "Output format: json or csv (default: from the output extension)",
		},
		&cli.BoolFlag{
			Name:  "gestures",
			Usage: "Print the collapsed gestures instead of the samples",
		},
	},
	Action: runParse,
}

func runParse(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("parse requires an input file or -")
	}
	input := c.Args().First()

	var r io.Reader = os.Stdin
	if input != "-" {
		f, err := os.Open(input) //#nosec G304 -- user-provided capture file
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", input, err)
		}
		defer f.Close()
		r = f
	}

	samples, err := touch.Parse(r, c.String("input-device"))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", input, err)
	}
	logger.LogInfo("cli").Str("input", input).Int("samples", len(samples)).Msg("parsed getevent capture")

	out := c.App.Writer
	if c.Bool("gestures") {
		return printGestures(out, gesture.Collapse(samples))
	}

	output := c.String("output")
	if output == "" {
		return writeSamplesTo(out, samples, c.String("format"))
	}

	format, err := touchlog.FormatFor(output, c.String("format"))
	if err != nil {
		return err
	}
	if err := touchlog.WriteSamples(output, samples, format); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	fmt.Fprintf(out, "Wrote %d sample(s) to %s\n", len(samples), output)
	return nil
}

// writeSamplesTo prints samples to stdout. Only JSON is supported there.
func writeSamplesTo(out io.Writer, samples []touch.Sample, format string) error {
	if format != "" && format != string(touchlog.FormatJSON) {
		return fmt.Errorf("--format %s requires --output", format)
	}
	if samples == nil {
		samples = []touch.Sample{}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(samples)
}

func printGestures(out io.Writer, gestures []gesture.Gesture) error {
	if len(gestures) == 0 {
		fmt.Fprintln(out, "No gestures found.")
		return nil
	}
	for i, g := range gestures {
		fmt.Fprintf(out, "%3d. %s\n", i+1, g)
	}
	return nil
}
