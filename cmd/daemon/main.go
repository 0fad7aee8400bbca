// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reelvault/reelvault/internal/api"
	"github.com/reelvault/reelvault/internal/config"
	"github.com/reelvault/reelvault/internal/daemon"
	"github.com/reelvault/reelvault/internal/log"
	"github.com/reelvault/reelvault/internal/merge"
	"github.com/reelvault/reelvault/internal/sched"
	"github.com/reelvault/reelvault/internal/store"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("reelvault %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// The logger is configured exactly once; fall back to defaults so
		// the load failure still comes out structured.
		log.Configure(log.Config{Level: "info", Service: "reelvault", Version: version})
		logger := log.WithComponent("main")
		logger.Fatal().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", *configPath).
			Msg("failed to load configuration")
	}

	log.Configure(log.Config{Level: cfg.LogLevel, Service: "reelvault", Version: version})
	logger := log.WithComponent("main")

	files, err := store.New("files", cfg.SourceRoot)
	if err != nil {
		logger.Fatal().Err(err).Str("event", "store.init_failed").Msg("source root unusable")
	}
	uploads, err := store.New("uploads", cfg.UploadRoot)
	if err != nil {
		logger.Fatal().Err(err).Str("event", "store.init_failed").Msg("upload root unusable")
	}

	schedule, err := sched.Parse(cfg.MergeSchedule)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "sched.parse_failed").
			Str("spec", cfg.MergeSchedule).
			Msg("invalid merge schedule")
	}

	runner := merge.ExecRunner{Binary: cfg.FFmpegPath, Timeout: cfg.FFmpegTimeout}
	merger := merge.New(files, merge.Options{
		VideoExts: cfg.VideoExts,
		Fast:      merge.FastCopy{Runner: runner},
		Fallback: merge.Reencode{
			Runner: runner,
			Width:  cfg.TargetWidth,
			Height: cfg.TargetHeight,
		},
	})

	scheduler := sched.New(merger, schedule, cfg.Workers)
	scheduler.Start(ctx)

	server := api.New(cfg, files, uploads, scheduler)

	mgr, err := daemon.NewManager(cfg, daemon.Deps{
		APIHandler:     server.Handler(),
		MetricsHandler: promhttp.Handler(),
	})
	if err != nil {
		logger.Fatal().Err(err).Str("event", "daemon.init_failed").Msg("failed to build daemon")
	}

	mgr.RegisterShutdownHook("scheduler", func(context.Context) error {
		scheduler.Stop()
		return nil
	})

	if cfg.WatchRoots {
		for _, st := range []*store.Store{files, uploads} {
			w, err := store.NewWatcher(st)
			if err != nil {
				logger.Warn().
					Err(err).
					Str("event", "watcher.init_failed").
					Str("root", st.Root()).
					Msg("file gauge watcher disabled")
				continue
			}
			go w.Run(ctx)
			mgr.RegisterShutdownHook("watcher:"+st.Name(), func(context.Context) error {
				return w.Close()
			})
		}
	}

	logger.Info().
		Str("event", "daemon.boot").
		Str("version", version).
		Str("source_root", files.Root()).
		Str("upload_root", uploads.Root()).
		Str("schedule", cfg.MergeSchedule).
		Int("workers", cfg.Workers).
		Msg("reelvault starting")

	if err := mgr.Start(ctx); err != nil {
		logger.Error().Err(err).Str("event", "daemon.exit").Msg("daemon exited with error")
		os.Exit(1)
	}
}
