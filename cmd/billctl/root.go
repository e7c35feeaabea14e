package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"milkbill/internal/billing"
	"milkbill/internal/cli"
	"milkbill/internal/config"
	"milkbill/internal/log"
)

var (
	cfgFile string

	cfg    *config.Config
	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "billctl",
	Short: "Record and look up milk bills from the terminal",
	Long: `billctl talks to the same bill store as the milkbill web app.
It lists, searches, adds and deletes bills, and can follow bill events
published on AMQP.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./"+config.DefaultFile+")")
}

// setup loads the shared configuration. Logs go to stderr so the tables on
// stdout stay clean.
func setup(cmd *cobra.Command, args []string) error {
	cli.LoadEnvFile()
	if cfgFile != "" {
		if err := os.Setenv("MILKBILL_CONFIG", cfgFile); err != nil {
			return fmt.Errorf("setting config path: %w", err)
		}
	}

	var err error
	cfg, err = cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger = log.Setup(os.Stderr, cfg.LogFormat, cfg.LogLevel).WithComponent(log.ComponentCLI)
	return nil
}

// openService connects to the configured store. The returned func
// releases it.
func openService(ctx context.Context) (*billing.Service, func(), error) {
	res, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	svc := billing.NewService(res.Store, res.Publisher, nil)
	return svc, func() {
		if err := svc.Close(); err != nil {
			logger.Warn("Failed to close event publisher", log.FieldError, err)
		}
	}, nil
}
