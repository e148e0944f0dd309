// Package logger provides the process-wide file logger for touch-replay.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	globalLogger = zerolog.Nop()
	logFile      *os.File
	verbose      bool
	mu           sync.Mutex
)

// Init initializes the global logger with the specified log file path.
// The parent directory is created if needed.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	// Close previous log file if exists
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	logFile = f
	rebuildLocked()
	return nil
}

// SetVerbose enables debug level and mirrors log lines to stderr.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()

	verbose = v
	rebuildLocked()
}

// rebuildLocked recreates the zerolog instance from the current outputs.
func rebuildLocked() {
	var writers []io.Writer
	if logFile != nil {
		writers = append(writers, logFile)
	}
	if verbose {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "15:04:05.000",
		})
	}
	if len(writers) == 0 {
		globalLogger = zerolog.Nop()
		return
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	globalLogger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// Close closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	rebuildLocked()
}

// Info logs an info message.
func Info(format string, v ...interface{}) {
	current().Info().Msgf(format, v...)
}

// Debug logs a debug message.
func Debug(format string, v ...interface{}) {
	current().Debug().Msgf(format, v...)
}

// Error logs an error message.
func Error(format string, v ...interface{}) {
	current().Error().Msgf(format, v...)
}

// Warn logs a warning message.
func Warn(format string, v ...interface{}) {
	current().Warn().Msgf(format, v...)
}

// LogDebug starts a structured debug event tagged with module.
func LogDebug(module string) *zerolog.Event {
	return current().Debug().Str("module", module)
}

// LogInfo starts a structured info event tagged with module.
func LogInfo(module string) *zerolog.Event {
	return current().Info().Str("module", module)
}

// LogWarn starts a structured warning event tagged with module.
func LogWarn(module string) *zerolog.Event {
	return current().Warn().Str("module", module)
}

// LogError starts a structured error event tagged with module.
func LogError(module string) *zerolog.Event {
	return current().Error().Str("module", module)
}

// GetWriter returns the underlying writer for use by subprocesses.
func GetWriter() io.Writer {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		return logFile
	}
	return io.Discard
}

func current() *zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()

	l := globalLogger
	return &l
}
