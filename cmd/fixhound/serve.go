package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fixhound/fixhound/infrastructure/api"
)

func serveCmd() *cobra.Command {
	var (
		envFile string
		host    string
		port    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                   Server host to bind to (default: 0.0.0.0)
  PORT                   Server port to listen on (default: 8080)
  DATABASE_URL           Database URL (default: sqlite:///fixhound.db)
  LOG_LEVEL              Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT             Log format: pretty, json (default: pretty)

  EMBEDDING_BASE_URL     Embedding provider base URL (default: OpenAI)
  EMBEDDING_MODEL        Model identifier (default: text-embedding-3-small)
  EMBEDDING_API_KEY      Provider API key (falls back to OPENAI_API_KEY)
  EMBEDDING_DIMENSION    Pinned vector dimension (default: 1536)
  EMBEDDING_TIMEOUT      Per-call timeout in seconds (default: 30)
  EMBEDDING_MAX_RETRIES  Retry budget for ingest-side calls (default: 0)

  SEARCH_LIMIT           Default search result limit (default: 20)
  SEARCH_TIMEOUT         Search request budget in seconds (default: 15)
  BACKFILL_BATCH_SIZE    Issues claimed per backfill pass (default: 50)
  BACKFILL_WORKERS       Concurrent backfill embedding calls (default: 4)
  EMBED_RATE             Provider calls per second during ingest (default: 10)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(envFile, host, port)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8080)")

	return cmd
}

func runServe(envFile, host string, port int) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}

	// Flags take precedence over env vars.
	if host != "" {
		cfg = cfg.WithHost(host)
	}
	if port != 0 {
		cfg = cfg.WithPort(port)
	}

	logger := newLogger(cfg)
	logger.Info("starting fixhound",
		"version", version,
		"db_url", cfg.DBURL(),
		"embedding_model", cfg.Embedding().Model(),
		"embedding_dimension", cfg.Embedding().Dimension(),
	)

	client, err := newClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close client", slog.Any("error", err))
		}
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Host(), cfg.Port())
	apiServer := api.NewAPIServer(client, addr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	}()

	if err := apiServer.ListenAndServe(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
