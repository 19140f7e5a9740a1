package tracing

import (
	"context"
	"testing"

	"github.com/yegors/wxdash/internal/config"
	"github.com/yegors/wxdash/pkg/logger"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestSetupDisabled(t *testing.T) {
	before := otel.GetTracerProvider()

	shutdown, err := Setup(config.TracingConfig{Enabled: false}, logger.NewNop())
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
	if otel.GetTracerProvider() != before {
		t.Error("disabled tracing should not replace the global provider")
	}
}

func TestSetupEnabled(t *testing.T) {
	shutdown, err := Setup(config.TracingConfig{
		Enabled:        true,
		ServiceName:    "wxdash-test",
		ZipkinEndpoint: "http://127.0.0.1:9411/api/v2/spans",
	}, logger.NewNop())
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
		t.Errorf("global provider is %T, want *sdktrace.TracerProvider", otel.GetTracerProvider())
	}

	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestSetupBadEndpoint(t *testing.T) {
	_, err := Setup(config.TracingConfig{
		Enabled:        true,
		ServiceName:    "wxdash-test",
		ZipkinEndpoint: "://not a url",
	}, logger.NewNop())
	if err == nil {
		t.Error("expected an error for an invalid collector URL")
	}
}
