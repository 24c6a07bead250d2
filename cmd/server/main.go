// Package main runs the scry-tutor HTTP server, which answers study questions through
// the rate limited, circuit broken and cached LLM answer pipeline.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/phrazzld/scry-tutor/internal/config"
	"github.com/phrazzld/scry-tutor/internal/platform/logger"
	"github.com/phrazzld/scry-tutor/internal/telemetry"
)

func main() {
	migrateOnly := flag.Bool("migrate", false, "apply durable cache migrations and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *migrateOnly); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

// run loads configuration, builds the application and serves until ctx is canceled.
func run(ctx context.Context, migrateOnly bool) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"provider", cfg.LLM.Provider,
		"database_driver", cfg.Database.Driver)

	durable, err := openDurableTier(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	if migrateOnly {
		if durable != nil {
			durable.close(log)
		}
		log.Info("migrations applied, exiting")
		return nil
	}

	shutdownTracer, err := telemetry.InitTracer(cfg.Telemetry, log)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	app, err := newApplication(ctx, cfg, log, durable)
	if err != nil {
		if durable != nil {
			durable.close(log)
		}
		_ = shutdownTracer(context.Background())
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	app.shutdownTracer = shutdownTracer

	return app.Run(ctx)
}
