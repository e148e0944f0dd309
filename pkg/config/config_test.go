package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/devicelab-dev/touch-replay/pkg/core"
	"github.com/devicelab-dev/touch-replay/pkg/device"
)

func TestLoad_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "replay.yaml")

	content := `
uiSource: ./dumps
device: emulator-5554
speed: 2
fixedDelay: 0.25
verify: both
verifyDir: ./verify
report: ./out/report.json
logFile: ./out/replay.log
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.UISource != "./dumps" {
		t.Errorf("expected uiSource ./dumps, got %s", cfg.UISource)
	}
	if cfg.Device != "emulator-5554" {
		t.Errorf("expected device emulator-5554, got %s", cfg.Device)
	}
	if cfg.Speed != 2 {
		t.Errorf("expected speed 2, got %v", cfg.Speed)
	}
	if cfg.FixedDelay == nil || *cfg.FixedDelay != 0.25 {
		t.Errorf("expected fixedDelay 0.25, got %v", cfg.FixedDelay)
	}
	if cfg.VerifyMode() != device.VerifyBoth || cfg.VerifyDir != "./verify" {
		t.Errorf("expected verify both in ./verify, got %s in %s", cfg.Verify, cfg.VerifyDir)
	}
	if cfg.Report != "./out/report.json" || cfg.LogFile != "./out/replay.log" {
		t.Errorf("unexpected outputs: %s, %s", cfg.Report, cfg.LogFile)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestLoad_PartialConfigKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "replay.yaml")
	if err := os.WriteFile(configPath, []byte("device: abc\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Speed != DefaultSpeed || cfg.UISource != DefaultUISource || cfg.VerifyDir != DefaultVerifyDir {
		t.Errorf("defaults lost: %+v", cfg)
	}
	if cfg.FixedDelay != nil {
		t.Errorf("fixedDelay should be unset, got %v", *cfg.FixedDelay)
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/replay.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "replay.yaml")
	if err := os.WriteFile(configPath, []byte("speed: [fast\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(configPath)
	if !errors.Is(err, core.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadFromDir(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "replay.yaml"), []byte("device: from-yaml\n"), 0644); err != nil {
			t.Fatal(err)
		}
		cfg, err := LoadFromDir(dir)
		if err != nil || cfg.Device != "from-yaml" {
			t.Errorf("got %+v, %v", cfg, err)
		}
	})

	t.Run("yml", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "replay.yml"), []byte("device: from-yml\n"), 0644); err != nil {
			t.Fatal(err)
		}
		cfg, err := LoadFromDir(dir)
		if err != nil || cfg.Device != "from-yml" {
			t.Errorf("got %+v, %v", cfg, err)
		}
	})

	t.Run("none", func(t *testing.T) {
		cfg, err := LoadFromDir(t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if *cfg != *Defaults() {
			t.Errorf("expected defaults, got %+v", cfg)
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero speed", func(c *Config) { c.Speed = 0 }, true},
		{"negative speed", func(c *Config) { c.Speed = -1 }, true},
		{"unknown verify", func(c *Config) { c.Verify = "video" }, true},
		{"negative fixed delay", func(c *Config) { d := -1.0; c.FixedDelay = &d }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, core.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestTiming(t *testing.T) {
	cfg := Defaults()
	if timing := cfg.Timing(); timing.Speed != 1 || timing.FixedDelay != nil {
		t.Errorf("default timing = %+v", timing)
	}

	fixed := 0.2
	cfg.FixedDelay = &fixed
	if timing := cfg.Timing(); timing.FixedDelay == nil || *timing.FixedDelay != 200*time.Millisecond {
		t.Errorf("fixed timing = %+v", timing)
	}

	negative := -3.0
	cfg.FixedDelay = &negative
	if timing := cfg.Timing(); *timing.FixedDelay != 0 {
		t.Errorf("negative fixed delay should floor at zero, got %v", *timing.FixedDelay)
	}
}

func TestDefaultLogPath(t *testing.T) {
	home := t.TempDir()

	tests := []struct {
		name     string
		override string
		want     string
	}{
		{"env override", "/opt/touch-replay", filepath.Join("/opt/touch-replay", "logs", "touch-replay.log")},
		{"user home", "", filepath.Join(home, ".touch-replay", "logs", "touch-replay.log")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvHome, tt.override)
			t.Setenv("HOME", home)
			t.Setenv("USERPROFILE", home)

			if got := DefaultLogPath(); got != tt.want {
				t.Errorf("DefaultLogPath() = %q, want %q", got, tt.want)
			}
		})
	}
}
