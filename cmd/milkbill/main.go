package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"milkbill/internal/billing"
	"milkbill/internal/cli"
	apphttp "milkbill/internal/http"
	"milkbill/internal/log"
	"milkbill/internal/metrics"
)

func main() {
	cfg, logger := cli.Init()

	res, err := cli.OpenBackend(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize bill store", log.FieldError, err, "backend", cfg.StoreBackend)
		os.Exit(1)
	}

	m := metrics.New()
	svc := billing.NewService(res.Store, res.Publisher, m)
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warn("Failed to close event publisher", log.FieldError, err)
		}
	}()

	srv := apphttp.NewServer(":"+cfg.Port, svc, m, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	})

	logger.Info("Starting milkbill server",
		"port", cfg.Port,
		"backend", cfg.StoreBackend,
		"events", res.Publisher != nil)

	err = cli.Run(context.Background(), logger,
		func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
		srv.Shutdown,
	)
	if err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
