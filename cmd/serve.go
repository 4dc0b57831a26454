package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/koopa0/finsight/internal/api"
	"github.com/koopa0/finsight/internal/app"
	"github.com/koopa0/finsight/internal/config"
)

// runServe initializes and starts the HTTP API server.
func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()
	logger.Info("starting HTTP API server", "version", Version)

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	apiServer, err := api.NewServer(api.ServerConfig{
		Logger:      logger,
		Agent:       a.Agent,
		Dashboard:   a.Dashboard,
		Registry:    a.Registry,
		CORSOrigins: cfg.Server.CORSOrigins,
		TrustProxy:  cfg.Server.TrustProxy,
		RateRPS:     cfg.Server.RateRPS,
		RateBurst:   cfg.Server.RateBurst,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	logger.Info("HTTP server ready",
		"addr", cfg.Addr(),
		"api", "/api/*",
		"health", "/health, /ready",
	)

	return serveHTTP(ctx, newHTTPServer(cfg.Addr(), apiServer.Handler()), logger, "API server")
}
