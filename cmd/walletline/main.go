package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"walletline/internal/amqp"
	"walletline/internal/client"
	"walletline/internal/config"
	apphttp "walletline/internal/http"
	applog "walletline/internal/log"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	upstream := client.New(client.Config{
		BaseURL:     cfg.UpstreamURL,
		Token:       cfg.UpstreamToken,
		Timeout:     cfg.HTTPTimeout,
		PerPage:     cfg.PerPage,
		Concurrency: cfg.FetchConcurrency,
	})

	// Export publishing is optional; the API serves timelines without it.
	var publisher apphttp.ExportPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, export endpoint disabled", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, upstream, apphttp.Options{
		CacheSize:     cfg.CacheSize,
		CacheTTL:      cfg.CacheTTL,
		DefaultLocale: cfg.DefaultLocale,
		Publisher:     publisher,
		Logger:        applog.New(applog.Config{Component: applog.ComponentHTTP}),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting walletline server", "port", cfg.Port, "upstream", cfg.UpstreamURL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
