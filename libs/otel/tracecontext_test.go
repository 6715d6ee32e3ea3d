package otelx

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestTraceContextCaptureAndAttach(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	state, _ := trace.ParseTraceState("shop=berlin")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled, TraceState: state,
	})

	tc := CaptureTraceContext(trace.ContextWithSpanContext(context.Background(), sc))
	if tc.Traceparent != "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01" {
		t.Fatalf("unexpected traceparent %q", tc.Traceparent)
	}
	if tc.Tracestate != "shop=berlin" {
		t.Fatalf("unexpected tracestate %q", tc.Tracestate)
	}

	restored := trace.SpanContextFromContext(tc.Attach(context.Background()))
	if restored.TraceID() != traceID || restored.SpanID() != spanID || !restored.IsRemote() {
		t.Fatalf("unexpected restored span context %+v", restored)
	}
	if restored.TraceState().Get("shop") != "berlin" {
		t.Fatal("expected tracestate to survive")
	}
}

func TestTraceContextWithoutSpan(t *testing.T) {
	tc := CaptureTraceContext(context.Background())
	if !tc.IsZero() {
		t.Fatalf("expected zero trace context, got %+v", tc)
	}
	ctx := context.Background()
	if tc.Attach(ctx) != ctx {
		t.Fatal("zero trace context must leave the parent untouched")
	}
}
