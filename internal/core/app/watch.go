package app

import (
	"cirgen/internal/core/config"
	"cirgen/internal/core/errors"
	"cirgen/internal/core/watcher"
	"cirgen/internal/engine/header"
	"cirgen/internal/shared/observability"
	"cirgen/internal/shared/util"
	"context"
	"log/slog"
	"os"
	"time"
)

// limiterIdle is how long a module's rebuild limiter survives without
// rebuilds.
const limiterIdle = 10 * time.Minute

// Watch builds every input once, then rebuilds changed headers until ctx is
// cancelled. Rebuilds of one module are throttled by the watch rate limit.
func (a *App) Watch(ctx context.Context, paths []string) error {
	s := a.current()
	if len(paths) == 0 {
		paths = s.cfg.Input.Paths
	}
	if len(paths) == 0 {
		return errors.New(errors.CodeValidationError, "watch needs at least one input path")
	}

	summary, err := a.BuildAll(ctx, paths)
	if err != nil {
		return err
	}
	for _, f := range summary.Failures {
		a.notify(BuildResult{Path: f.Path, Module: a.moduleName(f.Path)}, f.Err)
	}
	for _, r := range summary.Results {
		a.notify(r, nil)
	}

	if addr := s.cfg.Observability.MetricsAddr; addr != "" {
		srv := NewMetricsServer(addr, a)
		if err := srv.Start(ctx); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Stop(shutdownCtx); err != nil {
				slog.Warn("metrics server shutdown failed", "error", err)
			}
		}()
	}

	batches := make(chan []string, 16)
	w, err := watcher.NewWatcher(s.cfg.Watch.Debounce, s.cfg.Input.Extensions, s.cfg.Input.ExcludeFiles, func(changed []string) {
		select {
		case batches <- changed:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "create header watcher")
	}
	defer w.Close()
	if err := w.Watch(paths); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "watch inputs")
	}

	if a.cfgPath != "" {
		cw := config.NewWatcher(a.cfgPath, func(cfg *config.Config) {
			if err := a.Reconfigure(cfg); err != nil {
				slog.Warn("config reload rejected", "path", a.cfgPath, "error", err)
				return
			}
			w.SetDebounce(cfg.Watch.Debounce)
		})
		if err := cw.Start(ctx); err != nil {
			slog.Warn("config hot reload disabled", "path", a.cfgPath, "error", err)
		} else {
			defer cw.Stop()
		}
	}

	limiters := util.NewLimiterRegistry(s.cfg.Watch.RebuildsPerSecond, s.cfg.Watch.Burst, limiterIdle)
	slog.Info("watching headers", "paths", paths)
	for {
		select {
		case <-ctx.Done():
			return nil
		case changed := <-batches:
			if err := a.rebuild(ctx, limiters, changed); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}

func (a *App) rebuild(ctx context.Context, limiters *util.LimiterRegistry, changed []string) error {
	for _, path := range changed {
		if !header.IsSupportedPath(path) {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			slog.Info("header removed", "path", path)
			continue
		}

		lim := limiters.Get(a.moduleName(path))
		if !lim.Allow(1) {
			observability.WatcherThrottledTotal.Inc()
			if err := lim.Wait(ctx, 1); err != nil {
				return err
			}
		}

		res, err := a.BuildFile(ctx, path)
		if err != nil {
			slog.Error("rebuild failed", "path", path, "error", err)
		}
		a.notify(res, err)
	}
	return nil
}

func (a *App) notify(res BuildResult, err error) {
	if a.onBuild != nil {
		a.onBuild(res, err)
	}
}
