package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func backfillCmd() *cobra.Command {
	var (
		envFile   string
		batchSize int
		workers   int
	)

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Attach embeddings to issues that lack one",
		Long: `Attach embeddings to every stored issue that has none, oldest first.

Safe to run while the server is up and safe to run concurrently: each
embedding write claims its row, so racing processes never overwrite each
other. Issues whose embedding call fails stay in the backlog for the next
run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackfill(envFile, batchSize, workers)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Issues claimed per pass (default: BACKFILL_BATCH_SIZE)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent embedding calls (default: BACKFILL_WORKERS)")

	return cmd
}

func runBackfill(envFile string, batchSize, workers int) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	if batchSize > 0 {
		cfg = cfg.WithBackfillBatchSize(batchSize)
	}
	if workers > 0 {
		cfg = cfg.WithBackfillWorkers(workers)
	}

	logger := newLogger(cfg)

	client, err := newClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close client", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, err := client.Issues.Backfill(ctx)
	logger.Info("backfill finished",
		"embedded", stats.Embedded,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
	)
	if err != nil {
		return fmt.Errorf("backfill: %w", err)
	}
	return nil
}
