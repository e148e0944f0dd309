package touchlog

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/devicelab-dev/touch-replay/pkg/touch"
)

// WriteSamples writes a touch log, creating the parent directory.
func WriteSamples(path string, samples []touch.Sample, format Format) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if samples == nil {
		samples = []touch.Sample{}
	}

	if format != FormatCSV {
		data, err := json.MarshalIndent(samples, "", "  ")
		if err != nil {
			return err
		}
		return os.WriteFile(path, append(data, '\n'), 0o644)
	}

	f, err := os.Create(path) //#nosec G304 -- user-provided output path
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	_ = w.Write([]string{"timestamp", "x", "y", "action"})
	for _, s := range samples {
		_ = w.Write([]string{
			strconv.FormatFloat(s.Timestamp, 'f', -1, 64),
			strconv.Itoa(s.X),
			strconv.Itoa(s.Y),
			string(s.Action),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
