// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "0 18 * * *", cfg.MergeSchedule)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 1920, cfg.TargetWidth)
	assert.Equal(t, 1080, cfg.TargetHeight)
	assert.Contains(t, cfg.VideoExts, "mp4")
	assert.Contains(t, cfg.VideoExts, "webm")
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"listenAddr: \":9000\"\nworkers: 4\nmergeSchedule: \"30 6 * * *\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "30 6 * * *", cfg.MergeSchedule)
	// Untouched keys keep defaults.
	assert.Equal(t, "ffmpeg", cfg.FFmpegPath)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: 4\n"), 0o644))

	t.Setenv("RV_WORKERS", "8")
	t.Setenv("RV_FFMPEG_TIMEOUT", "90m")
	t.Setenv("RV_VIDEO_EXTS", "mp4, mkv")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 90*time.Minute, cfg.FFmpegTimeout)
	assert.Equal(t, []string{"mp4", "mkv"}, cfg.VideoExts)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
}

func TestValidate_Rejections(t *testing.T) {
	cases := map[string]func(*Config){
		"empty source root":  func(c *Config) { c.SourceRoot = "" },
		"empty upload root":  func(c *Config) { c.UploadRoot = " " },
		"zero workers":       func(c *Config) { c.Workers = 0 },
		"odd resolution":     func(c *Config) { c.TargetWidth = 1919 },
		"tiny resolution":    func(c *Config) { c.TargetHeight = 1 },
		"no extensions":      func(c *Config) { c.VideoExts = nil },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseHelpers_InvalidFallsBack(t *testing.T) {
	t.Setenv("RV_TEST_INT", "not-a-number")
	t.Setenv("RV_TEST_BOOL", "perhaps")
	t.Setenv("RV_TEST_DUR", "eleven")

	assert.Equal(t, 7, ParseInt("RV_TEST_INT", 7))
	assert.Equal(t, true, ParseBool("RV_TEST_BOOL", true))
	assert.Equal(t, time.Minute, ParseDuration("RV_TEST_DUR", time.Minute))
}
