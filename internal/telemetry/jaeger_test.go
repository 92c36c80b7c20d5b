package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestInitJaeger_DisabledWithoutEndpoint(t *testing.T) {
	before := otel.GetTracerProvider()
	shutdown, err := InitJaeger("canvas-test", "")
	if err != nil {
		t.Fatalf("InitJaeger: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
	if otel.GetTracerProvider() != before {
		t.Error("provider replaced although tracing is disabled")
	}
}

func TestInitJaeger_InstallsProvider(t *testing.T) {
	before := otel.GetTracerProvider()
	defer otel.SetTracerProvider(before)

	shutdown, err := InitJaeger("canvas-test", "http://127.0.0.1:1/api/traces")
	if err != nil {
		t.Fatalf("InitJaeger: %v", err)
	}
	if otel.GetTracerProvider() == before {
		t.Error("provider not installed")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}
