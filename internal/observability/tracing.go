// Package observability provides OpenTelemetry tracing setup.
//
// Traces are exported over OTLP HTTP to a local collector or agent.
// Tracing is opt-in: with no endpoint configured, Setup installs
// nothing and the tracers used across the codebase stay no-ops. An
// unreachable collector never fails startup either; the exporter
// buffers and retries on its own.
//
// Configuration (config.yaml or environment):
//
//	otel:
//	  endpoint: "localhost:4318"   # empty disables tracing
//	  service_name: "finsight"
//	  environment: "dev"
package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/koopa0/finsight/internal/log"
)

// Config for OTLP trace export.
type Config struct {
	// Endpoint is the collector OTLP HTTP endpoint, host:port.
	// Empty disables tracing.
	Endpoint string
	// ServiceName tags exported spans, shown in the tracing backend.
	ServiceName string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
}

// Setup installs the global tracer provider and returns a shutdown
// function that flushes pending spans. With an empty endpoint, tracing
// stays disabled and the shutdown function is a no-op.
func Setup(ctx context.Context, cfg Config, logger log.Logger) (func(context.Context) error, error) {
	if cfg.Endpoint == "" {
		logger.Debug("tracing disabled, no endpoint configured")
		return func(context.Context) error { return nil }, nil
	}

	// Collectors run next to the process, so plain HTTP is fine.
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		logger.Warn("failed to create trace exporter, tracing disabled", "error", err)
		return func(context.Context) error { return nil }, nil
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter)),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("deployment.environment", cfg.Environment),
		)),
	)
	otel.SetTracerProvider(provider)

	logger.Debug("tracing enabled",
		"endpoint", cfg.Endpoint,
		"service", cfg.ServiceName,
		"environment", cfg.Environment,
	)

	return provider.Shutdown, nil
}
