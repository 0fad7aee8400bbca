// SPDX-License-Identifier: MIT

package merge

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/reelvault/reelvault/internal/procgroup"
)

// Runner executes one external transcoder invocation. The returned stderr is
// used for failure messages; tests inject fakes.
type Runner interface {
	Run(ctx context.Context, args []string) (stderr string, err error)
}

// killGrace is how long a cancelled transcoder gets to exit on SIGTERM
// before its whole process group is hard-killed.
const killGrace = 10 * time.Second

// ExecRunner runs the configured ffmpeg binary via exec. A non-zero Timeout
// bounds each invocation; the subprocess is killed on expiry.
type ExecRunner struct {
	Binary  string
	Timeout time.Duration
}

func (r ExecRunner) Run(ctx context.Context, args []string) (string, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	binary := r.Binary
	if binary == "" {
		binary = "ffmpeg"
	}

	full := make([]string, 0, len(args)+4)
	full = append(full, "-hide_banner", "-nostdin", "-loglevel", "error")
	full = append(full, args...)

	cmd := exec.CommandContext(ctx, binary, full...)
	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf

	// ffmpeg may fork helpers; on cancellation take down the whole group,
	// escalating to a hard kill if it ignores the polite signal.
	procgroup.Set(cmd)
	cmd.Cancel = func() error {
		pid := cmd.Process.Pid
		err := procgroup.Terminate(pid)
		time.AfterFunc(killGrace, func() {
			_ = procgroup.Kill(pid)
		})
		return err
	}
	cmd.WaitDelay = killGrace + 5*time.Second

	err := cmd.Run()
	stderr := stderrBuf.String()
	if err != nil {
		if ctx.Err() != nil {
			return stderr, fmt.Errorf("transcoder: %w", ctx.Err())
		}
		return stderr, fmt.Errorf("transcoder: %w", err)
	}
	return stderr, nil
}

// stderrTail keeps failure messages readable by trimming captured stderr to
// its last few lines.
func stderrTail(stderr string) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return ""
	}
	lines := strings.Split(stderr, "\n")
	const keep = 5
	if len(lines) > keep {
		lines = lines[len(lines)-keep:]
	}
	return strings.Join(lines, "\n")
}
