//go:build !windows

package device

import (
	"os/exec"
	"syscall"
)

// detachProcessGroup moves cmd into its own process group so a terminal
// Ctrl+C reaches only touch-replay, never an adb call already in flight.
func detachProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}
