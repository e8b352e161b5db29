package main

import (
	"context"
	"errors"
	"os"
	"time"

	"mstore/internal/amqp"
	"mstore/internal/cli"
	applog "mstore/internal/log"
	"mstore/internal/services"
	"mstore/internal/sheets/google"
	"mstore/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	if !cfg.MirrorEnabled() {
		logger.Error("GOOGLE_SPREADSHEET_ID is required for the mirror worker")
		os.Exit(1)
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid timezone", "error", err)
		os.Exit(1)
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()

	// The worker consumes notifications itself; the backend only supplies the store.
	storeCfg := *cfg
	storeCfg.AMQPURL = ""
	be, err := cli.OpenBackend(startCtx, logger, &storeCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, applog.FieldBackend, cfg.Backend)
		os.Exit(1)
	}

	sheetsClient, err := google.New(startCtx, cfg.GoogleSpreadsheetID, cli.SheetsCredentials(cfg))
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		_ = be.Cleanup()
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", applog.FieldSpreadsheet, cfg.GoogleSpreadsheetID)

	mirror := worker.NewMirrorWorker(be.Store, sheetsClient, loc, logger)
	scheduler := services.NewMirrorScheduler(mirror, services.MirrorSchedulerConfig{Interval: cfg.MirrorInterval}, logger)

	var consumer *amqp.Client
	if cfg.AMQPURL != "" {
		consumer, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, relying on periodic mirroring", "error", err)
			consumer = nil
		}
	}

	ctx, done := cli.GracefulShutdown(context.Background(), logger, 30*time.Second, func(ctx context.Context) {
		if err := scheduler.Stop(ctx); err != nil {
			logger.Warn("Mirror scheduler did not stop cleanly", "error", err)
		}
		if consumer != nil {
			_ = consumer.Close()
		}
		if err := be.Cleanup(); err != nil {
			logger.Error("Failed to close backend", "error", err)
		}
	})

	if err := scheduler.Start(ctx); err != nil {
		logger.Error("Failed to start mirror scheduler", "error", err)
		os.Exit(1)
	}

	if consumer != nil {
		go func() {
			if err := consumer.Consume(ctx, mirror.HandleLedgerChanged); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", "error", err)
			}
		}()
	} else {
		logger.Info("AMQP disabled, mirroring on interval only", "interval", cfg.MirrorInterval)
	}

	logger.Info("Started mstore-worker", "interval", cfg.MirrorInterval, "amqp_enabled", consumer != nil)
	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
