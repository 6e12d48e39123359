//go:build otel

package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelTracer forwards generator spans to the global OpenTelemetry tracer
// provider. Every span is internal; a generator never crosses a process
// boundary.
type OTelTracer struct {
	tracer trace.Tracer
}

// NewOTelTracer creates a tracer named after the instrumenting service.
func NewOTelTracer(serviceName string) *OTelTracer {
	if serviceName == "" {
		serviceName = "libottery"
	}
	return &OTelTracer{tracer: otel.Tracer(serviceName)}
}

// StartSpan starts an OpenTelemetry span.
func (t *OTelTracer) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, SpanEnder) {
	cfg := newSpanConfig(opts)
	ctx, span := t.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(otelAttributes(cfg.attrs)...))

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// OTelEnabled reports whether OpenTelemetry support is built in.
func OTelEnabled() bool {
	return true
}

func otelAttributes(a SpanAttributes) []attribute.KeyValue {
	var kv []attribute.KeyValue
	if a.Implementation != "" {
		kv = append(kv, attribute.String("ottery.implementation", a.Implementation))
	}
	if a.Reason != "" {
		kv = append(kv, attribute.String("ottery.reseed.reason", a.Reason))
	}
	if a.EntropyFlags != "" {
		kv = append(kv, attribute.String("entropy.flags", a.EntropyFlags))
	}
	if a.EntropyBytes > 0 {
		kv = append(kv, attribute.Int("entropy.bytes", a.EntropyBytes))
	}
	return kv
}
