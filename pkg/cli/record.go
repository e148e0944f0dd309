package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/touch-replay/pkg/logger"
	"github.com/devicelab-dev/touch-replay/pkg/touch"
	"github.com/devicelab-dev/touch-replay/pkg/touchlog"
)

var recordCommand = &cli.Command{
	Name:  "record",
	Usage: "Record touch input from the device until Ctrl+C",
	Description: `Stream "getevent -lt" from the device, convert it to touch samples and
write them as a touch log when recording stops.

Examples:
  touch-replay record -o touch.json
  touch-replay -s emulator-5554 record --input-device /dev/input/event1 -o touch.csv`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "input-device",
			Usage: "Only record events from this input device (e.g. /dev/input/event2)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Touch log path (.json or .csv)",
			Value:   "touch.json",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "Output format: json or csv (default: from the output extension)",
		},
	},
	Action: runRecord,
}

func runRecord(c *cli.Context) error {
	output := c.String("output")
	format, err := touchlog.FormatFor(output, c.String("format"))
	if err != nil {
		return err
	}

	dev, err := openDevice(c.String("device"))
	if err != nil {
		return err
	}

	ctx, stop := signalContext(context.Background())
	defer stop()

	out := c.App.Writer
	fmt.Fprintf(out, "Recording touches on %s. Press Ctrl+C to stop.\n", dev.Serial())

	samples, err := recordSamples(ctx, dev, c.String("input-device"), out)
	if err != nil {
		return fmt.Errorf("recording failed: %w", err)
	}

	if err := touchlog.WriteSamples(output, samples, format); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	fmt.Fprintf(out, "\nSaved %d sample(s) to %s\n", len(samples), output)
	return nil
}

// recordSamples collects samples until the event stream ends or ctx is
// cancelled. Each completed touch is reported on out.
func recordSamples(ctx context.Context, dev Device, inputDevice string, out io.Writer) ([]touch.Sample, error) {
	p := touch.NewParser(inputDevice)
	samples := make([]touch.Sample, 0)
	touches := 0

	err := dev.StreamEvents(ctx, inputDevice, func(line string) {
		s, ok := p.Feed(line)
		if !ok {
			return
		}
		samples = append(samples, s)
		if s.Action == touch.ActionUp {
			touches++
			fmt.Fprintf(out, "%s  touch %d ended at (%d,%d)%s\n", color(colorGray), touches, s.X, s.Y, color(colorReset))
		}
	})
	logger.LogInfo("cli").Int("samples", len(samples)).Int("touches", touches).Msg("recording stopped")
	return samples, err
}
