package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"capify/internal/amqp"
	"capify/internal/config"
	apphttp "capify/internal/http"
	"capify/internal/service"
	"capify/internal/storage"
	"capify/internal/upstream"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting capify gateway")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	var tokens upstream.TokenStore
	if cfg.UpstreamTokenFile != "" {
		tokens = &upstream.FileTokenStore{Path: cfg.UpstreamTokenFile}
	} else {
		tokens = upstream.StaticToken(cfg.UpstreamToken)
	}
	api := upstream.NewClient(cfg.UpstreamBaseURL, tokens, cfg.UpstreamTimeout)

	mirror, err := storage.NewMirror(cfg.MirrorDBPath)
	if err != nil {
		logger.Error("Failed to initialize mirror database", "error", err, "path", cfg.MirrorDBPath)
		os.Exit(1)
	}
	defer mirror.Close()

	// AMQP is optional; without it the gateway just skips event publishing
	var events service.Events
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		events = amqpClient
		logger.Info("AMQP events enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	controller := service.NewController(api, mirror, events)

	srv := apphttp.NewServer(":"+cfg.Port, controller, apphttp.Options{
		CacheSize: cfg.CacheSize,
		CacheTTL:  cfg.CacheTTL,
	})
	controller.OnChange = srv.InvalidateCache

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := controller.Start(startCtx); err != nil {
		logger.Error("Initial data load failed", "error", err)
		startCancel()
		os.Exit(1)
	}
	startCancel()

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

	logger.Info("Starting capify server", "port", cfg.Port, "upstream", cfg.UpstreamBaseURL)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
