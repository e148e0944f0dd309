// Package config handles the optional workspace configuration for touch-replay.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/touch-replay/pkg/core"
	"github.com/devicelab-dev/touch-replay/pkg/device"
	"github.com/devicelab-dev/touch-replay/pkg/replay"
)

// Defaults applied when neither the config file nor a flag sets a value.
const (
	DefaultUISource  = "/work/ui-dumps"
	DefaultVerifyDir = "/work/replay-verification"
	DefaultSpeed     = 1.0
)

// EnvHome overrides the directory holding touch-replay's own logs.
const EnvHome = "TOUCH_REPLAY_HOME"

// DefaultLogPath is where the log file goes when neither --log-file nor
// logFile is set: $TOUCH_REPLAY_HOME/logs, else ~/.touch-replay/logs, else
// the system temp directory.
func DefaultLogPath() string {
	return filepath.Join(stateDir(), "logs", "touch-replay.log")
}

func stateDir() string {
	if env := os.Getenv(EnvHome); env != "" {
		return env
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".touch-replay")
	}
	return filepath.Join(os.TempDir(), "touch-replay")
}

// Config represents the workspace configuration (replay.yaml).
type Config struct {
	// Inputs
	UISource string `yaml:"uiSource"` // Snapshot file or directory

	// Device settings
	Device string `yaml:"device"` // adb serial or ip:port

	// Timing
	Speed      float64  `yaml:"speed"`      // Gap and swipe divisor
	FixedDelay *float64 `yaml:"fixedDelay"` // Seconds; overrides recorded gaps

	// Verification
	Verify    string `yaml:"verify"`    // none, ui, screenshot, both
	VerifyDir string `yaml:"verifyDir"` // Where captures are written

	// Outputs
	Report  string `yaml:"report"`  // JSON run report path
	LogFile string `yaml:"logFile"` // Log file path
}

// Defaults returns the configuration used when no file is present.
func Defaults() *Config {
	return &Config{
		UISource:  DefaultUISource,
		Speed:     DefaultSpeed,
		Verify:    string(device.VerifyNone),
		VerifyDir: DefaultVerifyDir,
	}
}

// Load loads configuration from a file. Unset fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, core.ErrInvalidConfig.
			WithMessage(fmt.Sprintf("invalid config file %s", path)).
			WithCause(err)
	}

	return cfg, nil
}

// LoadFromDir looks for replay.yaml or replay.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range []string{"replay.yaml", "replay.yml"} {
		configPath := filepath.Join(dir, name)
		if _, err := os.Stat(configPath); err == nil {
			return Load(configPath)
		}
	}

	// No config file found
	return Defaults(), nil
}

// Validate checks speed and verify mode.
func (c *Config) Validate() error {
	if _, err := device.ParseVerifyMode(c.Verify); err != nil {
		return err
	}
	return c.Timing().Validate()
}

// Timing converts the timing fields to a replay policy.
func (c *Config) Timing() replay.Timing {
	t := replay.Timing{Speed: c.Speed}
	if c.FixedDelay != nil {
		d := time.Duration(*c.FixedDelay * float64(time.Second))
		if d < 0 {
			d = 0
		}
		t.FixedDelay = &d
	}
	return t
}

// VerifyMode returns the parsed verification mode, none when invalid.
func (c *Config) VerifyMode() device.VerifyMode {
	m, err := device.ParseVerifyMode(c.Verify)
	if err != nil {
		return device.VerifyNone
	}
	return m
}
