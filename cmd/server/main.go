// Package main implements the entry point for the candidate API server,
// which manages users and candidates and queues verification e-mails and
// reports for the worker.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phrazzld/candidate-api/internal/config"
	"github.com/phrazzld/candidate-api/internal/platform/logger"
	"github.com/phrazzld/candidate-api/internal/platform/monitoring"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("server exited with error: %v", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	reporter, err := monitoring.Init(cfg.Monitoring)
	if err != nil {
		return fmt.Errorf("failed to initialize monitoring: %w", err)
	}
	defer reporter.Flush(2 * time.Second)
	l.Info("monitoring configured", "enabled", reporter.Enabled(), "environment", cfg.Monitoring.Environment)

	app, err := newApplication(ctx, cfg, l, reporter)
	if err != nil {
		reporter.CaptureError(ctx, err)
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.cleanup()

	return app.Run(ctx)
}

// loadAppConfig loads the application configuration from environment variables or config file.
func loadAppConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"debug_routes", cfg.Server.EnableDebugRoutes)

	return cfg, nil
}
