package main

import (
	"context"
	"errors"
	"os"
	"time"

	"retireplan/internal/amqp"
	"retireplan/internal/cli"
	applog "retireplan/internal/log"
	"retireplan/internal/services"
	"retireplan/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting retireplan-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.DataBackend == "memory" {
		logger.Warn("Memory backend is private to this process, the export only reflects the plan seed")
	}

	ctx := context.Background()
	res := cli.OpenBackend(ctx, logger, cfg)
	progress := services.NewProgressService(res.Backend, res.Backend, cfg.Projection())

	sheet, err := cli.OpenSheets(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize spreadsheet client", applog.FieldError, err)
		os.Exit(1)
	}

	exporter := worker.NewExportWorker(progress, sheet, worker.Config{Interval: cfg.ExportInterval})

	runCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		logger.Info("Shutting down worker...")
		if err := exporter.Stop(ctx); err != nil {
			logger.Error("Export worker stop error", applog.FieldError, err)
		}
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", applog.FieldError, err)
			}
		}
	})

	if err := exporter.Start(runCtx); err != nil {
		logger.Error("Failed to start export worker", applog.FieldError, err)
		os.Exit(1)
	}

	// The backend's publisher doubles as the consumer of the same queue.
	if client, ok := res.Publisher.(*amqp.Client); ok {
		go func() {
			if err := client.ConsumeSummarySync(runCtx, exporter.HandleSyncMessage); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", applog.FieldError, err)
			}
		}()
	} else {
		logger.Info("AMQP not configured, exporting on the interval only", "interval", cfg.ExportInterval)
	}

	cli.WaitForShutdown(runCtx, done)
	stats := exporter.Stats()
	logger.Info("Worker stopped",
		"exports", stats.Exports,
		"failures", stats.Failures)
}
