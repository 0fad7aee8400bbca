// SPDX-License-Identifier: MIT

//go:build unix

package procgroup

import (
	"errors"
	"os/exec"
	"syscall"
)

func set(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// signalGroup signals -pid to reach the whole group. An already-gone group
// is not an error.
func signalGroup(pid int, sig syscall.Signal) error {
	if pid <= 0 {
		return nil
	}
	if err := syscall.Kill(-pid, sig); err != nil {
		if errors.Is(err, syscall.ESRCH) {
			return nil
		}
		// Group signalling can be restricted; fall back to the leader.
		if err2 := syscall.Kill(pid, sig); err2 != nil && !errors.Is(err2, syscall.ESRCH) {
			return err2
		}
	}
	return nil
}

func terminate(pid int) error {
	return signalGroup(pid, syscall.SIGTERM)
}

func kill(pid int) error {
	return signalGroup(pid, syscall.SIGKILL)
}
