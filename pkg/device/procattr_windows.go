//go:build windows

package device

import (
	"os/exec"
	"syscall"
)

// detachProcessGroup starts cmd in a new process group so console Ctrl+C
// events are not delivered to an adb call already in flight.
func detachProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.CreationFlags |= syscall.CREATE_NEW_PROCESS_GROUP
}
