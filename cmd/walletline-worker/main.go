package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"walletline/internal/amqp"
	"walletline/internal/client"
	"walletline/internal/config"
	applog "walletline/internal/log"
	gsheet "walletline/internal/sheets/google"
	"walletline/internal/storage"
	"walletline/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting walletline-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("GOOGLE_SPREADSHEET_ID is required for the export worker")
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize snapshot store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	sheetsClient, err := gsheet.NewFromEnv(context.Background())
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	upstream := client.New(client.Config{
		BaseURL:     cfg.UpstreamURL,
		Token:       cfg.UpstreamToken,
		Timeout:     cfg.HTTPTimeout,
		PerPage:     cfg.PerPage,
		Concurrency: cfg.FetchConcurrency,
	})

	exportWorker := worker.NewExportWorker(
		upstream,
		upstream,
		repo,
		sheetsClient,
		cfg.DefaultLocale,
		applog.New(applog.Config{Component: applog.ComponentWorker}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := amqpClient.ConsumeExports(ctx, exportWorker.HandleExport); err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", "error", err)
			}
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down worker...")
	cancel()

	// Give the in-flight message a moment to finish before exiting.
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}
