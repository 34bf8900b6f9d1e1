package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iscraper-project/iscraper-go/internal/app"
	"github.com/iscraper-project/iscraper-go/internal/config"
	"github.com/iscraper-project/iscraper-go/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "jobwatch start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	log.InfoObj("jobwatch starting", "config", map[string]any{
		"app_env":         cfg.Env,
		"base_url":        cfg.BaseURL,
		"watches_file":    cfg.WatchesFile,
		"publishers_file": cfg.PublishersFile,
		"poll_interval":   cfg.PollInterval.String(),
		"storage_type":    cfg.StorageType,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jw, err := app.NewJobWatch(ctx, cfg, log)
	if err != nil {
		log.ErrorObj("failed to initialize jobwatch", "error", err)
		return err
	}

	if err := jw.Run(ctx); err != nil {
		return fmt.Errorf("jobwatch run: %w", err)
	}

	return nil
}
