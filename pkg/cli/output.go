package cli

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
)

// ANSI escape sequences for progress output.
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// colorsEnabled is false under NO_COLOR, --no-ansi, or when stdout is not a terminal.
var colorsEnabled = detectColors(os.Stdout.Fd())

func detectColors(fd uintptr) bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func color(c string) string {
	if !colorsEnabled {
		return ""
	}
	return c
}

// formatDuration renders milliseconds as 850ms, 2.5s or 1m 5s.
func formatDuration(ms int64) string {
	switch {
	case ms < 1000:
		return fmt.Sprintf("%dms", ms)
	case ms < 60000:
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	default:
		return fmt.Sprintf("%dm %ds", ms/60000, (ms%60000)/1000)
	}
}
