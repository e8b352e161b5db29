package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"mstore/internal/cache"
	"mstore/internal/cli"
	"mstore/internal/core"
	apphttp "mstore/internal/http"
	applog "mstore/internal/log"
	"mstore/internal/report"
	"mstore/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid timezone", "error", err)
		os.Exit(1)
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	be, err := cli.OpenBackend(startCtx, logger, cfg)
	if err != nil {
		startCancel()
		logger.Error("Failed to initialize backend", "error", err, applog.FieldBackend, cfg.Backend)
		os.Exit(1)
	}

	dashboardCache := cache.NewLRUCache[[]report.DashboardRow](8, cfg.CacheTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(dashboardCache)
	cacheManager.StartCleanup(time.Minute)

	opts := []services.Option{
		services.WithDashboardCache(dashboardCache),
		services.WithLogger(logger),
		services.WithLocation(loc),
		services.WithTodayOnly(cfg.TodayOnly),
	}
	if be.Publisher != nil {
		opts = append(opts, services.WithPublisher(be.Publisher))
	}
	svc := services.NewLedgerService(be.Store, opts...)
	if err := svc.Load(startCtx); err != nil {
		logger.Warn("Failed to load ledgers, starting empty", "error", err)
	}
	startCancel()

	srv := apphttp.NewServer(apphttp.Config{
		Addr:              ":" + cfg.Port,
		RequestsPerMinute: cfg.RateLimitPerMinute,
		Ready: func(ctx context.Context) error {
			_, _, err := be.Store.Get(ctx, core.Purchase.StorageKey())
			return err
		},
	}, svc, logger)

	ctx, done := cli.GracefulShutdown(context.Background(), logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cacheManager.Stop()
		if err := be.Cleanup(); err != nil {
			logger.Error("Failed to close backend", "error", err)
		}
	})

	go func() {
		logger.Info("Starting mstore server",
			"port", cfg.Port,
			applog.FieldBackend, cfg.Backend,
			"today_only", cfg.TodayOnly)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err, "port", cfg.Port)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
