// Package main runs the quote view in a terminal. A quote is loaded on start;
// "r" (or enter) loads another and "q" quits.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jsamuelsen/quote-viewmodel/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quote-viewmodel/internal/adapters/view"
	"github.com/jsamuelsen/quote-viewmodel/internal/app"
	"github.com/jsamuelsen/quote-viewmodel/internal/platform/config"
	"github.com/jsamuelsen/quote-viewmodel/internal/platform/logging"
)

// Version is injected via ldflags.
var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// stdout belongs to the view; logs go to stderr or the rolling file.
	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name + "-cli",
		Version: Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	logging.SetDefault(logger)

	source, err := acl.NewSource(cfg.Services.Quote, cfg.Client, cfg.App.Name+"-cli/"+Version, logger)
	if err != nil {
		return fmt.Errorf("creating quote source: %w", err)
	}

	vm := app.NewQuoteViewModel(app.QuoteViewModelConfig{
		Fetcher: source,
		Logger:  logger,
	})

	return view.NewController(vm, os.Stdout).Run(logging.WithContext(ctx, logger), os.Stdin)
}
