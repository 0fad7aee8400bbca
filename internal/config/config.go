// SPDX-License-Identifier: MIT

// Package config loads daemon configuration with precedence ENV > file > defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full daemon configuration.
type Config struct {
	// HTTP
	ListenAddr      string        `yaml:"listenAddr"`
	MetricsAddr     string        `yaml:"metricsAddr"` // empty disables the metrics listener
	AllowedOrigins  []string      `yaml:"allowedOrigins"`
	RateLimitRPM    int           `yaml:"rateLimitRPM"`
	MergeLimitRPM   int           `yaml:"mergeLimitRPM"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`

	// Managed trees
	SourceRoot string `yaml:"sourceRoot"` // recordings tree, merge inputs and outputs
	UploadRoot string `yaml:"uploadRoot"` // second managed tree for arbitrary uploads
	WatchRoots bool   `yaml:"watchRoots"` // keep file gauges current via fsnotify

	// Merge pipeline
	FFmpegPath    string        `yaml:"ffmpegPath"`
	FFmpegTimeout time.Duration `yaml:"ffmpegTimeout"` // 0 disables the per-invocation timeout
	MergeSchedule string        `yaml:"mergeSchedule"` // 5-field cron spec for the daily run
	Workers       int           `yaml:"workers"`       // merge worker pool size
	VideoExts     []string      `yaml:"videoExts"`
	TargetWidth   int           `yaml:"targetWidth"`
	TargetHeight  int           `yaml:"targetHeight"`

	// Observability
	LogLevel string `yaml:"logLevel"`
}

// Default returns the built-in defaults. The 18:00 daily schedule and the
// pool size of 2 match the behavior the service replaced.
func Default() Config {
	return Config{
		ListenAddr:      ":8080",
		MetricsAddr:     ":9090",
		RateLimitRPM:    600,
		MergeLimitRPM:   10,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    10 * time.Minute,
		ShutdownTimeout: 30 * time.Second,
		SourceRoot:      "recordings",
		UploadRoot:      "uploads",
		WatchRoots:      true,
		FFmpegPath:      "ffmpeg",
		FFmpegTimeout:   2 * time.Hour,
		MergeSchedule:   "0 18 * * *",
		Workers:         2,
		VideoExts:       []string{"mp4", "avi", "mov", "mkv", "flv", "wmv", "webm"},
		TargetWidth:     1920,
		TargetHeight:    1080,
		LogLevel:        "info",
	}
}

// Load builds the effective configuration: defaults, overlaid by the YAML file
// at path (if non-empty and present), overlaid by RV_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied config path
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.ListenAddr = ParseString("RV_LISTEN", cfg.ListenAddr)
	cfg.MetricsAddr = ParseString("RV_METRICS_ADDR", cfg.MetricsAddr)
	cfg.SourceRoot = ParseString("RV_SOURCE_ROOT", cfg.SourceRoot)
	cfg.UploadRoot = ParseString("RV_UPLOAD_ROOT", cfg.UploadRoot)
	cfg.WatchRoots = ParseBool("RV_WATCH_ROOTS", cfg.WatchRoots)
	cfg.FFmpegPath = ParseString("RV_FFMPEG", cfg.FFmpegPath)
	cfg.FFmpegTimeout = ParseDuration("RV_FFMPEG_TIMEOUT", cfg.FFmpegTimeout)
	cfg.MergeSchedule = ParseString("RV_MERGE_SCHEDULE", cfg.MergeSchedule)
	cfg.Workers = ParseInt("RV_WORKERS", cfg.Workers)
	cfg.TargetWidth = ParseInt("RV_TARGET_WIDTH", cfg.TargetWidth)
	cfg.TargetHeight = ParseInt("RV_TARGET_HEIGHT", cfg.TargetHeight)
	cfg.RateLimitRPM = ParseInt("RV_RATE_LIMIT_RPM", cfg.RateLimitRPM)
	cfg.MergeLimitRPM = ParseInt("RV_MERGE_LIMIT_RPM", cfg.MergeLimitRPM)
	cfg.LogLevel = ParseString("RV_LOG_LEVEL", cfg.LogLevel)

	if v := ParseString("RV_VIDEO_EXTS", ""); v != "" {
		cfg.VideoExts = splitCSV(v)
	}
	if v := ParseString("RV_ALLOWED_ORIGINS", ""); v != "" {
		cfg.AllowedOrigins = splitCSV(v)
	}
}

// Validate rejects configurations the daemon cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.SourceRoot) == "" {
		return fmt.Errorf("source root must not be empty")
	}
	if strings.TrimSpace(c.UploadRoot) == "" {
		return fmt.Errorf("upload root must not be empty")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.TargetWidth < 2 || c.TargetHeight < 2 {
		return fmt.Errorf("target resolution %dx%d is invalid", c.TargetWidth, c.TargetHeight)
	}
	// Encoders require even dimensions for yuv420p output.
	if c.TargetWidth%2 != 0 || c.TargetHeight%2 != 0 {
		return fmt.Errorf("target resolution %dx%d must use even dimensions", c.TargetWidth, c.TargetHeight)
	}
	if len(c.VideoExts) == 0 {
		return fmt.Errorf("video extension allow-list must not be empty")
	}
	return nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
