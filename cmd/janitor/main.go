package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tm-robinson/wallabag-tools/internal/app"
	"github.com/tm-robinson/wallabag-tools/internal/config"
	"github.com/tm-robinson/wallabag-tools/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "janitor failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	jobsFlag := flag.String("jobs", "", "comma-separated jobs to run instead of the configured list")
	dryRun := flag.Bool("dry-run", false, "report what would change without writing anything")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("janitor starting", "config", cfg.Redacted())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := app.Options{DryRun: *dryRun}
	if picked := splitJobs(*jobsFlag); len(picked) > 0 {
		opts.Jobs = picked
	}

	janitor, err := app.NewJanitor(ctx, cfg, opts, log)
	if err != nil {
		logger.ErrorObj("failed to initialize janitor", "error", err)
		return err
	}
	defer janitor.Close()

	if err := janitor.RunOnce(ctx); err != nil {
		return fmt.Errorf("janitor run: %w", err)
	}

	return nil
}

func splitJobs(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
