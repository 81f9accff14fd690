package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"retireplan/internal/auth"
	"retireplan/internal/cli"
	apphttp "retireplan/internal/http"
	applog "retireplan/internal/log"
	"retireplan/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	res := cli.OpenBackend(ctx, logger, cfg)
	store := res.Backend

	sessions := auth.NewManager(store, cfg.SessionSecret, cfg.SessionTTL)
	if cfg.AdminPassword == "" {
		logger.Warn("ADMIN_PASSWORD not set, the admin account is not created", "username", cfg.AdminUsername)
	} else {
		created, err := sessions.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
		if err != nil {
			logger.Error("Failed to ensure admin account", applog.FieldError, err)
			os.Exit(1)
		}
		if created {
			logger.Info("Admin account created", "username", cfg.AdminUsername)
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Plans:        services.NewPlanService(store, res.Publisher, applog.NewStructuredLogger(logger.WithComponent(applog.ComponentPlan))),
		Transactions: services.NewTransactionService(store, res.Publisher, applog.NewStructuredLogger(logger.WithComponent(applog.ComponentTransaction))),
		Progress:     services.NewProgressService(store, store, cfg.Projection()),
		Users:        services.NewUserService(store, sessions, cfg.AdminUsername),
		Sessions:     sessions,
		Store:        store,
		Logger:       logger.WithComponent(applog.ComponentHTTP),
	})

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", applog.FieldError, err)
			}
		}
	})

	logger.Info("Starting retireplan server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"floor_year", cfg.FloorYear,
		"sync", res.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
