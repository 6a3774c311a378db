package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/app"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/config"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("application init failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	if err := application.Run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		application.Close()
		os.Exit(1)
	}
}
