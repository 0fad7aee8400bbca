// SPDX-License-Identifier: MIT

package merge

import (
	"context"
	"fmt"

	"github.com/reelvault/reelvault/internal/metrics"
)

// Reencode concatenates inputs while normalizing every frame to the target
// resolution: scale to fit preserving aspect ratio, then pad to the exact
// frame with centered black fill. Video goes through libx264 at the fastest
// preset (size traded for speed), audio through aac at a fixed bitrate.
type Reencode struct {
	Runner Runner
	Width  int
	Height int
}

func (Reencode) Name() string { return string(MethodReencode) }

func (s Reencode) Run(ctx context.Context, inputs []string, outputPath string) error {
	manifest, cleanup, err := writeConcatManifest(inputs)
	if err != nil {
		return err
	}
	defer cleanup()

	w, h := s.Width, s.Height
	if w == 0 || h == 0 {
		w, h = 1920, 1080
	}
	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:black",
		w, h, w, h)

	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", manifest,
		"-vf", filter,
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-crf", "23",
		"-c:a", "aac",
		"-b:a", "128k",
		outputPath,
	}
	stderr, err := s.Runner.Run(ctx, args)
	if err != nil {
		metrics.IncTranscoder(s.Name(), "failure")
		if tail := stderrTail(stderr); tail != "" {
			return fmt.Errorf("reencode merge: %w: %s", err, tail)
		}
		return fmt.Errorf("reencode merge: %w", err)
	}
	metrics.IncTranscoder(s.Name(), "success")
	return nil
}
