// Command billstore serves an in-memory bill store over the JSON API the
// web app expects, for local development and demos.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"milkbill/internal/cli"
	"milkbill/internal/log"
	"milkbill/internal/store/memory"
	"milkbill/internal/storeapi"
)

func main() {
	cfg, logger := cli.Init()
	logger = logger.WithComponent(log.ComponentStore)

	s, err := memory.NewFromFile(cfg.StoreSeedFile)
	if err != nil {
		logger.Error("Failed to load seed file", log.FieldError, err, "path", cfg.StoreSeedFile)
		os.Exit(1)
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              ":" + cfg.StorePort,
		Handler:           storeapi.NewRouter(s),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Starting bill store",
		"port", cfg.StorePort,
		"path", storeapi.BasePath,
		"seeded", s.Len())

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
		logger.Error("Bill store error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Bill store stopped")
}
