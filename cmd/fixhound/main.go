// Package main is the entry point for the fixhound CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fixhound/fixhound"
	"github.com/fixhound/fixhound/internal/config"
	"github.com/fixhound/fixhound/internal/log"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixhound",
		Short: "Fixhound issue search server",
		Long:  `Fixhound tracks software issues per application and searches them by meaning, blending embedding similarity with severity and application filters.`,
	}

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(backfillCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

// loadConfig loads configuration from a .env file and environment variables.
func loadConfig(envFile string) (config.AppConfig, error) {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger from config.
func newLogger(cfg config.AppConfig) *slog.Logger {
	return log.New(log.Format(cfg.LogFormat()), cfg.LogLevel())
}

// newClient builds a fixhound client from resolved configuration.
func newClient(cfg config.AppConfig, logger *slog.Logger) (*fixhound.Client, error) {
	return fixhound.New(
		fixhound.WithDatabaseURL(cfg.DBURL()),
		fixhound.WithEmbeddingConfig(cfg.Embedding()),
		fixhound.WithSearchLimit(cfg.SearchLimit()),
		fixhound.WithSearchTimeout(cfg.SearchTimeout()),
		fixhound.WithBackfill(cfg.BackfillBatchSize(), cfg.BackfillWorkers()),
		fixhound.WithEmbedRate(cfg.EmbedRate()),
		fixhound.WithLogger(logger),
	)
}
