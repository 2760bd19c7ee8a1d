package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	ridecache "github.com/eugener/ridecache/internal"
	"github.com/eugener/ridecache/internal/app"
	"github.com/eugener/ridecache/internal/cache"
	"github.com/eugener/ridecache/internal/config"
	"github.com/eugener/ridecache/internal/server"
	"github.com/eugener/ridecache/internal/storage/sqlite"
	"github.com/eugener/ridecache/internal/telemetry"
	"github.com/eugener/ridecache/internal/worker"
)

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	slog.Info("starting ridecache", "version", version, "addr", cfg.Server.Addr,
		"cache_backend", cfg.Cache.Backend)

	// Open database
	store, err := sqlite.New(cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()

	// Cache store
	kv, closeKV, err := newCacheStore(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer closeKV()

	// Telemetry
	var metrics *telemetry.Metrics
	var metricsHandler http.Handler
	if cfg.Telemetry.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		metrics = telemetry.NewMetrics(reg)
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}
	if cfg.Telemetry.Tracing.Enabled {
		shutdown, err := telemetry.SetupTracing(ctx, cfg.Telemetry.Tracing.Endpoint, cfg.Telemetry.Tracing.SampleRate)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Warn("tracing shutdown failed", "error", err)
			}
		}()
	}

	// Event audit trail
	var recorder *worker.EventRecorder
	if cfg.Events.Enabled {
		var gauge prometheus.Gauge
		if metrics != nil {
			gauge = metrics.EventQueueLength
		}
		recorder = worker.NewEventRecorder(store, gauge)
	}

	// Cache-aside core
	opts := app.Options{TTL: cfg.Cache.TTL, Metrics: metrics}
	if recorder != nil {
		opts.Events = recorder
	}
	svc := app.New(store, kv, opts)

	// Warm-up on boot, before traffic arrives.
	if len(cfg.Cache.WarmOnStart) > 0 {
		kinds := make([]ridecache.Kind, 0, len(cfg.Cache.WarmOnStart))
		for _, raw := range cfg.Cache.WarmOnStart {
			kind, err := ridecache.ParseKind(raw)
			if err != nil {
				return fmt.Errorf("warm_on_start: %w", err)
			}
			kinds = append(kinds, kind)
		}
		n, err := svc.Warm(ctx, kinds, 0)
		if err != nil {
			slog.Warn("cache warm-up incomplete", "warmed", n, "error", err)
		} else {
			slog.Info("cache warmed", "entries", n, "kinds", kinds)
		}
	}

	// Background workers
	workerCtx, stopWorkers := context.WithCancel(ctx)
	workersDone := make(chan struct{})
	if recorder != nil {
		runner := worker.NewRunner(recorder)
		go func() {
			defer close(workersDone)
			if err := runner.Run(workerCtx); err != nil {
				slog.Error("worker runner failed", "error", err)
			}
		}()
	} else {
		close(workersDone)
	}

	// HTTP server
	handler := server.New(server.Deps{
		Cache:          svc,
		Store:          store,
		ReadyCheck:     readyCheck(store, kv),
		Metrics:        metrics,
		MetricsHandler: metricsHandler,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	slog.Info("ridecache ready", "addr", cfg.Server.Addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig)
	case err := <-errCh:
		stopWorkers()
		<-workersDone
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		stopWorkers()
		<-workersDone
		return err
	}

	// Stop workers after the server so in-flight requests still record events.
	stopWorkers()
	<-workersDone

	slog.Info("ridecache stopped")
	return nil
}

// newCacheStore builds the configured cache backend. The returned close
// function is a no-op for the in-memory backend.
func newCacheStore(ctx context.Context, cfg config.CacheConfig) (cache.Store, func(), error) {
	switch cfg.Backend {
	case "redis":
		r, err := cache.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return r, func() {
			if err := r.Close(); err != nil {
				slog.Warn("redis close failed", "error", err)
			}
		}, nil
	default:
		m, err := cache.NewMemory(cfg.MaxSize, cfg.TTL)
		if err != nil {
			return nil, nil, fmt.Errorf("create memory cache: %w", err)
		}
		return m, func() {}, nil
	}
}

// readyCheck reports ready when the database responds; the cache store is
// optional by contract, so its failures degrade rather than fail readiness.
func readyCheck(store *sqlite.Store, kv cache.Store) server.ReadyChecker {
	return func(ctx context.Context) error {
		if err := store.Ping(ctx); err != nil {
			return err
		}
		if err := kv.Ping(ctx); err != nil {
			slog.Warn("cache store unreachable, serving degraded", "error", err)
		}
		return nil
	}
}
