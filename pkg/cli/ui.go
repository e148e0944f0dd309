package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/touch-replay/pkg/config"
	"github.com/devicelab-dev/touch-replay/pkg/device"
	"github.com/devicelab-dev/touch-replay/pkg/logger"
	"github.com/devicelab-dev/touch-replay/pkg/uiindex"
)

// captureLayout names capture files; it sorts chronologically.
const captureLayout = "20060102-150405"

var dumpUICommand = &cli.Command{
	Name:  "dump-ui",
	Usage: "Capture the UI hierarchy and save it as an indexed snapshot",
	Description: `Dump the current screen with uiautomator, flatten it into nodes and build
the resource-id and text lookup used by element replay.

Examples:
  touch-replay dump-ui
  touch-replay dump-ui --stage login -o /work/ui-dumps/login.json --keep-xml
  touch-replay dump-ui --from-xml window_dump.xml -o snapshot.json`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "stage",
			Usage: "Stage tag stored in the snapshot (login, checkout, ...)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Snapshot path (default: <ui-dumps>/<timestamp>[-<stage>].json)",
		},
		&cli.BoolFlag{
			Name:  "keep-xml",
			Usage: "Keep the raw XML next to the snapshot",
		},
		&cli.StringFlag{
			Name:  "from-xml",
			Usage: "Index an existing XML dump instead of capturing from a device",
		},
	},
	Action: runDumpUI,
}

var captureCommand = &cli.Command{
	Name:  "capture",
	Usage: "Save the raw UI hierarchy XML and a screenshot",
	Description: `Write <timestamp>-<stage>.xml and <timestamp>-<stage>.png for the current
screen. With --index the XML is also indexed into a snapshot.

Examples:
  touch-replay capture --stage checkout
  touch-replay capture -o /work/ui-dumps --stage login --index`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "output-dir",
			Aliases: []string{"o"},
			Usage:   "Directory for the capture files",
			Value:   config.DefaultUISource,
		},
		&cli.StringFlag{
			Name:    "stage",
			Aliases: []string{"g"},
			Usage:   "Stage name used in the file names",
			Value:   "stage",
		},
		&cli.StringFlag{
			Name:    "timestamp",
			Aliases: []string{"t"},
			Usage:   "Timestamp used in the file names (default: now)",
		},
		&cli.BoolFlag{
			Name:  "index",
			Usage: "Also write <timestamp>-<stage>.json as a UI snapshot",
		},
	},
	Action: runCapture,
}

var resolveCommand = &cli.Command{
	Name:      "resolve",
	Usage:     "Print the tap point of an element in a UI snapshot",
	ArgsUsage: "[snapshot.json|dir]",
	Description: `Look up an element the way element replay does: resource-id first, then
text. Prints "x y" of the element center.

Examples:
  touch-replay resolve /work/ui-dumps/login.json --id com.app:id/login
  touch-replay resolve --text "Sign in"`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "id",
			Usage: "Resource id of the element",
		},
		&cli.StringFlag{
			Name:  "text",
			Usage: "Visible text of the element",
		},
	},
	Action: runResolve,
}

func runDumpUI(c *cli.Context) error {
	stage := c.String("stage")
	now := time.Now()

	output := c.String("output")
	if output == "" {
		output = filepath.Join(config.DefaultUISource, captureBase(now, stage)+".json")
	}

	if xmlPath := c.String("from-xml"); xmlPath != "" {
		s, err := indexXML(xmlPath, output, uiindex.Options{Stage: stage, SourceXML: xmlPath, CapturedAt: now})
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Saved %d node(s) to %s\n", len(s.Nodes), output)
		return nil
	}

	dev, err := openDevice(c.String("device"))
	if err != nil {
		return err
	}

	xmlPath := strings.TrimSuffix(output, filepath.Ext(output)) + ".xml"
	sourceXML := xmlPath
	if !c.Bool("keep-xml") {
		tmpDir, err := os.MkdirTemp("", "touch-replay-dump-*")
		if err != nil {
			return err
		}
		defer os.RemoveAll(tmpDir)
		xmlPath = filepath.Join(tmpDir, "window_dump.xml")
		sourceXML = device.RemoteDumpPath
	}

	if err := dev.DumpUI(xmlPath); err != nil {
		return fmt.Errorf("failed to dump UI: %w", err)
	}
	s, err := indexXML(xmlPath, output, uiindex.Options{Stage: stage, SourceXML: sourceXML, CapturedAt: now})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Saved %d node(s) to %s\n", len(s.Nodes), output)
	return nil
}

func runCapture(c *cli.Context) error {
	dir := c.String("output-dir")
	stage := c.String("stage")
	ts := c.String("timestamp")
	now := time.Now()
	if ts == "" {
		ts = now.Format(captureLayout)
	}
	base := filepath.Join(dir, ts+"-"+stage)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	dev, err := openDevice(c.String("device"))
	if err != nil {
		return err
	}

	xml, err := dev.DumpUIStream()
	if err != nil {
		return fmt.Errorf("failed to dump UI: %w", err)
	}
	if err := os.WriteFile(base+".xml", []byte(xml), 0o644); err != nil {
		return err
	}
	if err := dev.Screenshot(base + ".png"); err != nil {
		return fmt.Errorf("failed to take screenshot: %w", err)
	}

	out := c.App.Writer
	fmt.Fprintf(out, "Saved %s.xml\nSaved %s.png\n", base, base)

	if c.Bool("index") {
		s, err := indexXML(base+".xml", base+".json", uiindex.Options{Stage: stage, SourceXML: base + ".xml", CapturedAt: now})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Saved %s.json (%d node(s))\n", base, len(s.Nodes))
	}
	return nil
}

func runResolve(c *cli.Context) error {
	id, text := c.String("id"), c.String("text")
	if id == "" && text == "" {
		return fmt.Errorf("one of --id or --text is required")
	}

	source := config.DefaultUISource
	if c.NArg() > 0 {
		source = c.Args().First()
	}
	path, err := uiindex.ResolveSource(source)
	if err != nil {
		return err
	}
	if path == "" {
		return fmt.Errorf("no UI snapshot found at %s", source)
	}

	s, err := uiindex.Load(path)
	if err != nil {
		return err
	}
	p, err := s.Resolve(id, text)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%d %d\n", p.X, p.Y)
	return nil
}

// indexXML parses an XML dump and saves it as a snapshot at output.
func indexXML(xmlPath, output string, opts uiindex.Options) (*uiindex.Snapshot, error) {
	f, err := os.Open(xmlPath) //#nosec G304 -- dump written by us or given by the user
	if err != nil {
		return nil, err
	}
	defer f.Close()

	nodes, err := uiindex.FromXML(f)
	if err != nil {
		return nil, err
	}
	s := uiindex.Build(nodes, opts)
	if err := s.Save(output); err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}
	logger.LogInfo("cli").Str("xml", xmlPath).Str("snapshot", output).Int("nodes", len(nodes)).Msg("UI snapshot saved")
	return s, nil
}

func captureBase(t time.Time, stage string) string {
	if stage == "" {
		return t.Format(captureLayout)
	}
	return t.Format(captureLayout) + "-" + stage
}
