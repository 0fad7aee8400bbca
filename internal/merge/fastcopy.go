// SPDX-License-Identifier: MIT

package merge

import (
	"context"
	"fmt"

	"github.com/reelvault/reelvault/internal/metrics"
)

// Strategy merges ordered inputs into outputPath. Implementations own their
// concat manifest and remove it before returning, success or failure.
type Strategy interface {
	Name() string
	Run(ctx context.Context, inputs []string, outputPath string) error
}

// FastCopy concatenates inputs with a pure stream copy. It is an order of
// magnitude faster than re-encoding but requires homogeneous codec,
// resolution and frame rate across inputs; heterogeneous inputs make the
// transcoder exit non-zero.
type FastCopy struct {
	Runner Runner
}

func (FastCopy) Name() string { return string(MethodFastCopy) }

func (s FastCopy) Run(ctx context.Context, inputs []string, outputPath string) error {
	manifest, cleanup, err := writeConcatManifest(inputs)
	if err != nil {
		return err
	}
	defer cleanup()

	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", manifest,
		"-c", "copy",
		outputPath,
	}
	stderr, err := s.Runner.Run(ctx, args)
	if err != nil {
		metrics.IncTranscoder(s.Name(), "failure")
		if tail := stderrTail(stderr); tail != "" {
			return fmt.Errorf("fast merge: %w: %s", err, tail)
		}
		return fmt.Errorf("fast merge: %w", err)
	}
	metrics.IncTranscoder(s.Name(), "success")
	return nil
}
