package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tm-robinson/wallabag-tools/internal/app"
	"github.com/tm-robinson/wallabag-tools/internal/config"
	"github.com/tm-robinson/wallabag-tools/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "janitord start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("janitord starting", "config", cfg.Redacted())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	janitor, err := app.NewJanitor(ctx, cfg, app.Options{}, log)
	if err != nil {
		logger.ErrorObj("failed to initialize janitor", "error", err)
		return err
	}

	daemon, err := app.NewDaemon(janitor, cfg.Schedule, log)
	if err != nil {
		janitor.Close()
		logger.ErrorObj("failed to initialize daemon", "error", err)
		return err
	}

	if err := daemon.Run(ctx); err != nil {
		return fmt.Errorf("janitord run: %w", err)
	}

	return nil
}
