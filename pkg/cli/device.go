package cli

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/touch-replay/pkg/device"
)

var devicesCommand = &cli.Command{
	Name:  "devices",
	Usage: "List attached Android devices",
	Description: `List the devices adb can see and their state. With --info the selected
device is opened and its model and SDK level are printed.

Examples:
  touch-replay devices
  touch-replay devices --json
  touch-replay -s emulator-5554 devices --info`,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output in JSON format",
		},
		&cli.BoolFlag{
			Name:  "info",
			Usage: "Show properties of the selected device",
		},
	},
	Action: runDevices,
}

// listDevices returns attached devices. Tests replace it with a fake.
var listDevices = device.ListDevices

func runDevices(c *cli.Context) error {
	out := c.App.Writer

	if c.Bool("info") {
		dev, err := openDevice(c.String("device"))
		if err != nil {
			return err
		}
		info := dev.GetInfo()
		if info.Serial == "" {
			info.Serial = dev.Serial()
		}
		if c.Bool("json") {
			return writeJSON(c, info)
		}
		fmt.Fprintf(out, "Serial:   %s\n", info.Serial)
		fmt.Fprintf(out, "Model:    %s\n", info.Model)
		fmt.Fprintf(out, "Brand:    %s\n", info.Brand)
		fmt.Fprintf(out, "SDK:      %s\n", info.SDK)
		fmt.Fprintf(out, "Emulator: %t\n", info.IsEmulator)
		return nil
	}

	entries, err := listDevices()
	if err != nil {
		return err
	}
	if c.Bool("json") {
		if entries == nil {
			entries = []device.Entry{}
		}
		return writeJSON(c, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No devices attached.")
		return nil
	}
	for _, e := range entries {
		state := e.State
		if e.State == "device" {
			state = color(colorGreen) + state + color(colorReset)
		} else {
			state = color(colorYellow) + state + color(colorReset)
		}
		fmt.Fprintf(out, "%-24s %s\n", e.Serial, state)
	}
	return nil
}

func writeJSON(c *cli.Context, v interface{}) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
