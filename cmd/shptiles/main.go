package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/openmaps/shptiles/internal/cache"
	"github.com/openmaps/shptiles/internal/cache/filestore"
	"github.com/openmaps/shptiles/internal/cache/memstore"
	"github.com/openmaps/shptiles/internal/cache/redistore"
	"github.com/openmaps/shptiles/internal/cache/tiered"
	"github.com/openmaps/shptiles/internal/core/config"
	"github.com/openmaps/shptiles/internal/core/model"
	"github.com/openmaps/shptiles/internal/core/observability"
	"github.com/openmaps/shptiles/internal/core/server"
	"github.com/openmaps/shptiles/internal/invalidation/kafkaconsumer"
	"github.com/openmaps/shptiles/internal/invalidation/watcher"
	"github.com/openmaps/shptiles/internal/logger"
	"github.com/openmaps/shptiles/internal/registry"
	"github.com/openmaps/shptiles/internal/tileservice"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	addrFlag := flag.String("addr", "", "listen address override")
	registryFlag := flag.String("registry", "", "layer registry path override")
	flag.Parse()

	cfg := config.FromEnv()
	if *addrFlag != "" {
		cfg.Addr = strings.TrimSpace(*addrFlag)
	}
	if *registryFlag != "" {
		cfg.RegistryPath = strings.TrimSpace(*registryFlag)
	}

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		Component: "shptiles",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	observability.ExposeBuildInfo(Version)
	appLog.Info("starting shptiles",
		"addr", cfg.Addr,
		"version", Version,
		"registry", cfg.RegistryPath,
		"cache_dir", cfg.CacheDir,
		"memory_backend", cfg.MemoryBackend)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg, err := registry.Open(ctx, cfg.RegistryPath)
	if err != nil {
		appLog.Error("opening layer registry", "err", err)
		return 1
	}
	defer func() { _ = reg.Close() }()

	var mem cache.MemoryStore
	switch cfg.MemoryBackend {
	case "redis":
		rs, err := redistore.New(ctx, cfg.RedisAddr)
		if err != nil {
			appLog.Error("connecting to redis", "addr", cfg.RedisAddr, "err", err)
			return 1
		}
		defer func() { _ = rs.Close() }()
		mem = rs
	default:
		mem = memstore.New(cfg.MemoryMaxEntries)
	}

	files, err := filestore.New(cfg.CacheDir, appLog)
	if err != nil {
		appLog.Error("initializing file cache", "dir", cfg.CacheDir, "err", err)
		return 1
	}

	tc := tiered.New(mem, files, appLog)
	svc := tileservice.New(reg, tc, cfg.ExtractWorkers, appLog)

	if cfg.WatcherEnabled {
		w, err := watcher.New(watcher.Config{Debounce: cfg.WatcherDebounce}, svc, appLog)
		if err != nil {
			appLog.Error("initializing shapefile watcher", "err", err)
			return 1
		}
		defer func() { _ = w.Stop() }()

		layers, err := reg.List(ctx)
		if err != nil {
			appLog.Error("listing layers for watcher", "err", err)
			return 1
		}
		for _, l := range layers {
			if l.Kind != model.KindVector || l.ShapefileDir == "" {
				continue
			}
			if err := w.Watch(l.ID, l.ShapefileDir); err != nil {
				appLog.Warn("cannot watch layer directory",
					"layer", l.ID, "dir", l.ShapefileDir, "err", err)
			}
		}
		w.Start(ctx)
	}

	if cfg.Invalidation.Enabled {
		consumer := kafkaconsumer.New(
			kafkaconsumer.Default(cfg.Invalidation.Brokers, cfg.Invalidation.Topic, cfg.Invalidation.GroupID),
			svc, appLog)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				appLog.Error("kafka consumer stopped", "err", err)
			}
		}()
	}

	if err := server.Run(ctx, cfg, appLog, svc, reg); err != nil {
		appLog.Error("http server failed", "err", err)
		return 1
	}
	appLog.Info("shutdown complete")
	return 0
}
