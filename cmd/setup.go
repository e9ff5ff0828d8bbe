package cmd

import (
	"context"
	"fmt"

	"github.com/docsage/docsage/internal/app"
	"github.com/docsage/docsage/internal/config"
	"github.com/docsage/docsage/internal/log"
)

// setupApp loads configuration, builds the logger, and wires the application.
// Callers own the returned App and must Close it.
func setupApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := log.New(log.Config{
		Level: log.ParseLevel(cfg.LogLevel),
		JSON:  cfg.LogJSON,
	})

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing application: %w", err)
	}
	return a, nil
}
