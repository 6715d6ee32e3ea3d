package otelx

import (
	"context"
	"testing"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://collector:4317")
	t.Setenv("OTEL_SAMPLING_RATIO", "2")

	cfg := ConfigFromEnv("booking-service")
	if !cfg.Enabled {
		t.Fatal("expected tracing enabled")
	}
	if cfg.OTLPEndpoint != "collector:4317" {
		t.Fatalf("expected scheme to be stripped, got %q", cfg.OTLPEndpoint)
	}
	if cfg.SampleRatio != 1 {
		t.Fatalf("out of range ratio should fall back to 1, got %v", cfg.SampleRatio)
	}
}

func TestConfigFromEnvDisabledByDefault(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "")
	if ConfigFromEnv("booking-service").Enabled {
		t.Fatal("expected tracing disabled")
	}
}

func TestConfigFromEnvTLSAndResource(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "https://otel.example.com:4317")
	t.Setenv("SERVICE_VERSION", "1.4.2")
	t.Setenv("DEPLOYMENT_ENV", "staging")

	cfg := ConfigFromEnv("booking-service")
	if cfg.Insecure || cfg.OTLPEndpoint != "otel.example.com:4317" {
		t.Fatalf("expected a TLS endpoint, got %+v", cfg)
	}

	got := map[string]string{}
	for _, kv := range resourceAttributes(cfg) {
		got[string(kv.Key)] = kv.Value.AsString()
	}
	if got["service.name"] != "booking-service" || got["service.version"] != "1.4.2" || got["deployment.environment"] != "staging" {
		t.Fatalf("unexpected resource attributes %v", got)
	}

	if n := len(resourceAttributes(Config{ServiceName: "booking-service"})); n != 1 {
		t.Fatalf("expected only service.name without version or env, got %d attributes", n)
	}
}

func TestSetupDisabledIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{ServiceName: "booking-service"})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
