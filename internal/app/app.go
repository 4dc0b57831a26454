// Package app wires the application together.
//
// Setup builds every component in dependency order: tracing, the Gemini
// client, the relay client, the session registry, the agent, and the
// dashboard service. The resulting App owns their lifecycles; Close
// releases them in reverse order.
package app

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/koopa0/finsight/internal/agent"
	"github.com/koopa0/finsight/internal/config"
	"github.com/koopa0/finsight/internal/dashboard"
	"github.com/koopa0/finsight/internal/log"
	"github.com/koopa0/finsight/internal/observability"
	"github.com/koopa0/finsight/internal/relay"
	"github.com/koopa0/finsight/internal/session"
)

// otelShutdownTimeout bounds the trace flush during Close.
const otelShutdownTimeout = 5 * time.Second

// App holds the assembled application components.
type App struct {
	Config *config.Config
	Logger log.Logger

	Registry  *session.Registry
	Relay     *relay.Client
	Agent     *agent.Agent
	Dashboard *dashboard.Service

	otelShutdown func(context.Context) error
}

// Setup initializes all application components.
// On failure it cleans up whatever was already started before returning.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}

	a := &App{Config: cfg, Logger: logger}

	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	shutdown, err := observability.Setup(ctx, observability.Config{
		Endpoint:    cfg.Otel.Endpoint,
		ServiceName: cfg.Otel.ServiceName,
		Environment: cfg.Otel.Environment,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("setting up tracing: %w", err)
	}
	a.otelShutdown = shutdown

	generator, err := provideGenerator(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	a.Relay, err = relay.New(relay.Config{
		BaseURL: cfg.Relay.BaseURL,
		Timeout: cfg.RelayTimeout(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating relay client: %w", err)
	}

	a.Registry = session.NewRegistry(cfg.Sessions.Capacity, cfg.SessionTTL(), logger)

	a.Agent, err = agent.New(agent.Config{
		Generator:   generator,
		Tools:       a.Relay,
		Logger:      logger,
		Model:       cfg.Gemini.Model,
		Temperature: cfg.Gemini.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("creating agent: %w", err)
	}

	a.Dashboard, err = dashboard.New(a.Relay, logger)
	if err != nil {
		return nil, fmt.Errorf("creating dashboard service: %w", err)
	}

	logger.Info("application initialized",
		"model", cfg.Gemini.Model,
		"relay", cfg.Relay.BaseURL,
		"session_capacity", cfg.Sessions.Capacity)

	return a, nil
}

// provideGenerator creates the Gemini API client and returns its model
// surface, which is what the agent consumes.
func provideGenerator(ctx context.Context, cfg *config.Config) (*genai.Models, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return client.Models, nil
}

// Close releases application resources.
func (a *App) Close() error {
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), otelShutdownTimeout)
		defer cancel()
		if err := a.otelShutdown(ctx); err != nil {
			return fmt.Errorf("shutting down tracing: %w", err)
		}
	}

	return nil
}
