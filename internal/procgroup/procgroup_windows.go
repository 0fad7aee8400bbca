// SPDX-License-Identifier: MIT

//go:build windows

package procgroup

import (
	"os"
	"os/exec"
)

func set(_ *exec.Cmd) {
	// No process groups on Windows; the leader kill below is best effort.
}

func killLeader(pid int) error {
	if pid <= 0 {
		return nil
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}
	return proc.Kill()
}

func terminate(pid int) error { return killLeader(pid) }

func kill(pid int) error { return killLeader(pid) }
