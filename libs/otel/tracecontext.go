package otelx

import (
	"context"

	"go.opentelemetry.io/otel/propagation"
)

// TraceContext is a span's W3C trace context held as plain strings, so it can sit in a
// database row until a background worker picks the work up.
type TraceContext struct {
	Traceparent string
	Tracestate  string
}

var w3c = propagation.TraceContext{}

// CaptureTraceContext returns the W3C trace context of the span in ctx, if any.
func CaptureTraceContext(ctx context.Context) TraceContext {
	carrier := propagation.MapCarrier{}
	w3c.Inject(ctx, carrier)
	return TraceContext{Traceparent: carrier.Get("traceparent"), Tracestate: carrier.Get("tracestate")}
}

func (tc TraceContext) IsZero() bool { return tc.Traceparent == "" }

// Attach returns parent carrying tc as its remote span context.
func (tc TraceContext) Attach(parent context.Context) context.Context {
	if tc.IsZero() {
		return parent
	}
	carrier := propagation.MapCarrier{"traceparent": tc.Traceparent}
	if tc.Tracestate != "" {
		carrier["tracestate"] = tc.Tracestate
	}
	return w3c.Extract(parent, carrier)
}
