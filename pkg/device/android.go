// Package device drives an Android device through the adb binary.
//
// Every operation is one discrete adb invocation run in its own process
// group, so a terminal interrupt stops the replay between gestures and never
// cuts a tap or swipe short.
package device

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/devicelab-dev/touch-replay/pkg/core"
	"github.com/devicelab-dev/touch-replay/pkg/logger"
)

// Remote scratch files on the device.
const (
	RemoteDumpPath       = "/sdcard/window_dump.xml"
	RemoteScreenshotPath = "/sdcard/replay_screen.png"
)

// RunFunc runs a host command to completion and returns its output streams.
type RunFunc func(name string, args ...string) (stdout, stderr string, err error)

// CommandFunc builds a long-running host command bound to ctx.
type CommandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// AndroidDevice is an adb-addressable device.
type AndroidDevice struct {
	serial  string
	adbPath string
	run     RunFunc
	command CommandFunc
}

// Info contains basic device properties.
type Info struct {
	Serial     string `json:"serial"`
	Model      string `json:"model,omitempty"`
	SDK        string `json:"sdk,omitempty"`
	Brand      string `json:"brand,omitempty"`
	IsEmulator bool   `json:"isEmulator"`
}

// New creates an AndroidDevice for the given serial.
// If serial is empty, the first connected device is used.
func New(serial string) (*AndroidDevice, error) {
	adbPath, err := findADB()
	if err != nil {
		return nil, core.ErrDeviceNotFound.WithMessage("adb not available").WithCause(err)
	}

	d := NewWithRunner(serial, adbPath, execRun)

	if serial == "" {
		serial, err = d.detectSerial()
		if err != nil {
			return nil, core.ErrDeviceNotFound.WithMessage("no device specified and auto-detect failed").WithCause(err)
		}
		d.serial = serial
	}

	if err := d.waitForDevice(5 * time.Second); err != nil {
		return nil, core.ErrDeviceNotFound.WithCause(err).
			WithDetails(map[string]interface{}{"serial": serial})
	}

	logger.LogInfo("device").Str("serial", d.serial).Str("adb", adbPath).Msg("device connected")
	return d, nil
}

// NewWithRunner creates a device that runs adb through run without checking
// connectivity.
func NewWithRunner(serial, adbPath string, run RunFunc) *AndroidDevice {
	if adbPath == "" {
		adbPath = "adb"
	}
	return &AndroidDevice{
		serial:  serial,
		adbPath: adbPath,
		run:     run,
		command: exec.CommandContext,
	}
}

// hostCommand builds a one-shot adb invocation outside the caller's process
// group. Interrupts cancel the run between commands; the command itself
// finishes.
func hostCommand(name string, args ...string) *exec.Cmd {
	cmd := exec.Command(name, args...) //#nosec G204 -- adb arguments are built internally
	detachProcessGroup(cmd)
	return cmd
}

func execRun(name string, args ...string) (string, string, error) {
	cmd := hostCommand(name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// Serial returns the device serial number.
func (d *AndroidDevice) Serial() string {
	return d.serial
}

// CommandLine renders the adb invocation for args, as printed in progress output.
func (d *AndroidDevice) CommandLine(args ...string) string {
	return strings.Join(append([]string{"adb"}, d.args(args)...), " ")
}

func (d *AndroidDevice) args(args []string) []string {
	out := make([]string, 0, len(args)+2)
	if d.serial != "" {
		out = append(out, "-s", d.serial)
	}
	return append(out, args...)
}

// adb executes an ADB command.
func (d *AndroidDevice) adb(args ...string) (string, error) {
	stdout, stderr, err := d.run(d.adbPath, d.args(args)...)
	if err != nil {
		errMsg := strings.TrimSpace(stderr)
		if errMsg == "" {
			errMsg = strings.TrimSpace(stdout)
		}
		if errMsg == "" {
			errMsg = "adb command failed"
		}
		logger.LogDebug("device").Strs("args", args).Str("stderr", errMsg).Msg("adb command failed")
		return "", fmt.Errorf("adb %s: %w: %s", strings.Join(args, " "), err, errMsg)
	}
	return stdout, nil
}

// Shell executes a shell command on the device.
func (d *AndroidDevice) Shell(cmd string) (string, error) {
	return d.adb("shell", cmd)
}

// Tap sends a point tap.
func (d *AndroidDevice) Tap(x, y int) error {
	_, err := d.adb("shell", "input", "tap", strconv.Itoa(x), strconv.Itoa(y))
	return err
}

// Swipe sends a straight-line swipe lasting duration (at least 1ms).
func (d *AndroidDevice) Swipe(x1, y1, x2, y2 int, duration time.Duration) error {
	ms := duration.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	_, err := d.adb("shell", "input", "swipe",
		strconv.Itoa(x1), strconv.Itoa(y1), strconv.Itoa(x2), strconv.Itoa(y2),
		strconv.FormatInt(ms, 10))
	return err
}

// Pull copies a device file to local, creating the local directory.
func (d *AndroidDevice) Pull(remote, local string) error {
	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	_, err := d.adb("pull", remote, local)
	return err
}

// DumpUI writes the current uiautomator hierarchy XML to local.
func (d *AndroidDevice) DumpUI(local string) error {
	if _, err := d.adb("shell", "uiautomator", "dump", RemoteDumpPath); err != nil {
		return err
	}
	return d.Pull(RemoteDumpPath, local)
}

// DumpUIStream returns the hierarchy XML streamed over exec-out, without a
// device-side scratch file.
func (d *AndroidDevice) DumpUIStream() (string, error) {
	out, err := d.adb("exec-out", "uiautomator", "dump", "/dev/tty")
	if err != nil {
		return "", err
	}
	// uiautomator appends a status line after the document
	if end := strings.LastIndex(out, ">"); end >= 0 {
		out = out[:end+1]
	}
	if !strings.Contains(out, "<hierarchy") {
		return "", fmt.Errorf("uiautomator dump returned no hierarchy")
	}
	return out, nil
}

// Screenshot writes a PNG screenshot to local.
func (d *AndroidDevice) Screenshot(local string) error {
	if _, err := d.adb("shell", "screencap", "-p", RemoteScreenshotPath); err != nil {
		return err
	}
	return d.Pull(RemoteScreenshotPath, local)
}

// EventsArgs returns the adb arguments streaming raw input events.
func (d *AndroidDevice) EventsArgs(inputDevice string) []string {
	args := []string{"shell", "getevent", "-lt"}
	if inputDevice != "" {
		args = append(args, inputDevice)
	}
	return args
}

// StreamEvents runs getevent and calls fn for every output line until ctx is
// cancelled or the stream ends. Cancellation is not an error.
func (d *AndroidDevice) StreamEvents(ctx context.Context, inputDevice string, fn func(line string)) error {
	cmd := d.command(ctx, d.adbPath, d.args(d.EventsArgs(inputDevice))...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start getevent: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fn(scanner.Text())
	}
	scanErr := scanner.Err()

	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		return nil
	}
	if scanErr != nil && !errors.Is(scanErr, os.ErrClosed) {
		return fmt.Errorf("reading getevent output: %w", scanErr)
	}
	if waitErr != nil {
		return fmt.Errorf("getevent: %w: %s", waitErr, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// GetInfo returns device properties. Missing properties are left empty.
func (d *AndroidDevice) GetInfo() Info {
	info := Info{Serial: d.serial}

	if model, err := d.Shell("getprop ro.product.model"); err == nil {
		info.Model = strings.TrimSpace(model)
	}
	if sdk, err := d.Shell("getprop ro.build.version.sdk"); err == nil {
		info.SDK = strings.TrimSpace(sdk)
	}
	if brand, err := d.Shell("getprop ro.product.brand"); err == nil {
		info.Brand = strings.TrimSpace(brand)
	}

	qemu, _ := d.Shell("getprop ro.kernel.qemu")
	info.IsEmulator = strings.TrimSpace(qemu) == "1"

	return info
}

func (d *AndroidDevice) detectSerial() (string, error) {
	entries, err := listDevices(d.run, d.adbPath)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.State == "device" {
			return e.Serial, nil
		}
	}
	return "", buildNoDevicesError(entries)
}

// waitForDevice polls get-state until the device reports "device".
func (d *AndroidDevice) waitForDevice(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if d.isConnected() {
			return nil
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("timeout waiting for device %s", d.serial)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func (d *AndroidDevice) isConnected() bool {
	out, err := d.adb("get-state")
	if err != nil {
		return false
	}
	return strings.TrimSpace(out) == "device"
}

// findADB locates the ADB binary: PATH first, then the Android SDK.
func findADB() (string, error) {
	if path, err := exec.LookPath("adb"); err == nil {
		return path, nil
	}

	for _, env := range []string{"ANDROID_HOME", "ANDROID_SDK_ROOT"} {
		if sdk := os.Getenv(env); sdk != "" {
			path := filepath.Join(sdk, "platform-tools", "adb")
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}
	return "", fmt.Errorf("adb not found in PATH; ensure Android platform tools are installed")
}
