// SPDX-License-Identifier: MIT

// Package procgroup confines an external command and all of its children to
// one killable unit. ffmpeg spawns helpers on some inputs; signalling only
// the leader would leave them running after a timeout.
package procgroup

import (
	"os/exec"
)

// Set configures cmd to start in its own process group. Required for
// Terminate and Kill to reach the whole tree.
func Set(cmd *exec.Cmd) {
	set(cmd)
}

// Terminate asks the process group led by pid to exit (SIGTERM on unix).
func Terminate(pid int) error {
	return terminate(pid)
}

// Kill forcibly ends the process group led by pid.
func Kill(pid int) error {
	return kill(pid)
}
