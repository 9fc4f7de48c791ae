// Command process-pending releases registrations received outside business
// hours. It runs one batch and exits, for use from cron or a scheduler.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tramite/internal/app"
	"tramite/internal/platform/config"
	"tramite/internal/platform/logger"
	"tramite/pkg/requestcontext"
)

const runTimeout = 2 * time.Minute

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	deps, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize dependencies", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	n, err := deps.Pending.RunOnce(requestcontext.WithTime(ctx, time.Now()))
	if err != nil {
		log.Error("pending release failed", "error", err)
		deps.Close()
		os.Exit(1)
	}
	log.Info("pending release finished", "released", n)
}
