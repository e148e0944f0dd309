//go:build !windows

package device

import "testing"

func TestHostCommand_OwnProcessGroup(t *testing.T) {
	cmd := hostCommand("adb", "-s", "emulator-5554", "shell", "input", "swipe", "1", "2", "3", "4", "500")

	if cmd.SysProcAttr == nil || !cmd.SysProcAttr.Setpgid {
		t.Fatalf("SysProcAttr = %+v, want Setpgid", cmd.SysProcAttr)
	}
	if got := cmd.Args[len(cmd.Args)-1]; got != "500" {
		t.Errorf("last arg = %q, want 500", got)
	}
}
