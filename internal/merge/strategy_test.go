// SPDX-License-Identifier: MIT

package merge

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingRunner captures the args of each invocation and snapshots the
// manifest contents while the file still exists.
type recordingRunner struct {
	args         [][]string
	manifestBody string
	err          error
	stderr       string
}

func (r *recordingRunner) Run(_ context.Context, args []string) (string, error) {
	r.args = append(r.args, args)
	if path := manifestArg(args); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			r.manifestBody = string(data)
		}
	}
	return r.stderr, r.err
}

func manifestArg(args []string) string {
	for i, a := range args {
		if a == "-i" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func TestFastCopy_ArgsAndManifest(t *testing.T) {
	runner := &recordingRunner{}
	s := FastCopy{Runner: runner}

	err := s.Run(context.Background(), []string{"/videos/a_2024-05-01.mp4", "/videos/b_2024-05-01.mp4"}, "/videos/2024-05-01.mp4")
	require.NoError(t, err)
	require.Len(t, runner.args, 1)

	args := runner.args[0]
	assert.Contains(t, args, "-y")
	assert.Contains(t, args, "concat")
	assert.Equal(t, "copy", args[len(args)-2])
	assert.Equal(t, "/videos/2024-05-01.mp4", args[len(args)-1])

	assert.Equal(t,
		"file '/videos/a_2024-05-01.mp4'\nfile '/videos/b_2024-05-01.mp4'\n",
		runner.manifestBody)
}

func TestReencode_FilterUsesTargetResolution(t *testing.T) {
	runner := &recordingRunner{}
	s := Reencode{Runner: runner, Width: 1280, Height: 720}

	err := s.Run(context.Background(), []string{"/videos/a.mp4"}, "/videos/out.mp4")
	require.NoError(t, err)
	require.Len(t, runner.args, 1)

	joined := strings.Join(runner.args[0], " ")
	assert.Contains(t, joined, "scale=1280:720:force_original_aspect_ratio=decrease")
	assert.Contains(t, joined, "pad=1280:720:(ow-iw)/2:(oh-ih)/2:black")
	assert.Contains(t, joined, "libx264")
	assert.Contains(t, joined, "ultrafast")
	assert.Contains(t, joined, "128k")
}

func TestStrategies_ManifestRemovedOnSuccessAndFailure(t *testing.T) {
	for _, failing := range []bool{false, true} {
		runner := &recordingRunner{}
		if failing {
			runner.err = errors.New("exit status 1")
			runner.stderr = "Impossible to open input"
		}
		s := FastCopy{Runner: runner}

		err := s.Run(context.Background(), []string{"/videos/a.mp4"}, "/videos/out.mp4")
		if failing {
			require.Error(t, err)
			assert.Contains(t, err.Error(), "Impossible to open input")
		} else {
			require.NoError(t, err)
		}

		manifest := manifestArg(runner.args[0])
		require.NotEmpty(t, manifest)
		// Captured during the run, gone afterwards.
		assert.NotEmpty(t, runner.manifestBody)
		_, statErr := os.Stat(manifest)
		assert.True(t, os.IsNotExist(statErr), "manifest %s should be removed", manifest)
	}
}

func TestManifest_EscapesSingleQuotes(t *testing.T) {
	path, cleanup, err := writeConcatManifest([]string{"/videos/it's a clip_2024-05-01.mp4"})
	require.NoError(t, err)
	defer cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `it'\''s a clip`)
}

func TestExecRunner_ExitCodes(t *testing.T) {
	ok := ExecRunner{Binary: "true"}
	_, err := ok.Run(context.Background(), nil)
	assert.NoError(t, err)

	bad := ExecRunner{Binary: "false"}
	_, err = bad.Run(context.Background(), nil)
	assert.Error(t, err)
}

func TestStderrTail(t *testing.T) {
	assert.Equal(t, "", stderrTail("  \n"))
	assert.Equal(t, "b\nc", stderrTail("b\nc"))

	long := "1\n2\n3\n4\n5\n6\n7"
	assert.Equal(t, "3\n4\n5\n6\n7", stderrTail(long))
}
