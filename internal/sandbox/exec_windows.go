//go:build windows

package sandbox

import "os/exec"

// setProcessGroup is a no-op on Windows; Setpgid is not available.
func setProcessGroup(cmd *exec.Cmd) {}

// killProcessGroup kills the direct child only.
func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
