package tracing

import (
	"context"
	"fmt"

	"github.com/yegors/wxdash/internal/config"
	"github.com/yegors/wxdash/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// ShutdownFunc flushes pending spans and releases the exporter
type ShutdownFunc func(ctx context.Context) error

// Setup installs the global tracer provider. When tracing is disabled the
// default no-op provider stays in place and the returned func does nothing.
func Setup(cfg config.TracingConfig, log *logger.Logger) (ShutdownFunc, error) {
	log = log.Named("tracing")

	if !cfg.Enabled {
		log.Debug("Tracing disabled")
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := zipkin.New(cfg.ZipkinEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create zipkin exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.ServiceName),
		)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	log.Info("Tracing enabled",
		logger.String("service_name", cfg.ServiceName),
		logger.String("zipkin_endpoint", cfg.ZipkinEndpoint))

	return tp.Shutdown, nil
}
