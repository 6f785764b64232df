package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"capify/internal/amqp"
	"capify/internal/config"
	"capify/internal/core"
	"capify/internal/export"
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

	logger.Info("Starting capify-worker")

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

	// Report export is optional
	var reporter *export.Reporter
	if cfg.ReportSpreadsheetID != "" {
		reporter, err = export.NewReporter(context.Background(), cfg.ReportSpreadsheetID, cfg.ReportSheetName)
		if err != nil {
			logger.Error("Failed to initialize report exporter", "error", err)
			os.Exit(1)
		}
		logger.Info("Report export enabled", "spreadsheet_id", cfg.ReportSpreadsheetID)
	} else {
		logger.Info("Report export disabled - no REPORT_SPREADSHEET_ID provided")
	}

	controller := service.NewController(api, mirror, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	startCtx, startCancel := context.WithTimeout(ctx, 30*time.Second)
	if err := controller.Start(startCtx); err != nil {
		logger.Error("Initial data load failed", "error", err)
		// Keep running; the periodic refresh may recover once the
		// upstream comes back.
	}
	startCancel()

	// Consume alert and refresh events if AMQP is configured
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		go func() {
			err := amqpClient.Consume(ctx,
				func(msg *amqp.RefreshMessage) error {
					logger.Info("Data refreshed upstream",
						"expenses", msg.ExpenseCount,
						"budgets", msg.BudgetCount)
					return controller.Refresh(ctx)
				},
				func(msg *amqp.BudgetAlertMessage) error {
					logger.Warn("Budget alert",
						"category", msg.Category,
						"percentage", msg.Percentage,
						"message", msg.Message)
					return nil
				})
			if err != nil && err != context.Canceled {
				logger.Error("Message consumption failed", "error", err)
				cancel()
			}
		}()
	} else {
		logger.Info("Skipping AMQP consumption - no AMQP_URL provided")
	}

	// Periodic refresh and report export
	ticker := time.NewTicker(cfg.RefreshInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := controller.Refresh(ctx); err != nil {
					logger.Error("Periodic refresh failed", "error", err)
					continue
				}
				if reporter != nil {
					snap := controller.Analytics(core.DefaultFilter())
					if err := reporter.AppendMonthlyReport(ctx, snap); err != nil {
						logger.Error("Report export failed", "error", err)
					}
				}
			}
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

	cancel()
	logger.Info("Worker shutdown complete")
}
