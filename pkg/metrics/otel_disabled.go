//go:build !otel

package metrics

import "context"

// OTelTracer stands in for the OpenTelemetry adapter in builds without the
// otel tag. It records nothing.
type OTelTracer struct{}

// NewOTelTracer returns the stand-in tracer.
func NewOTelTracer(string) *OTelTracer {
	return &OTelTracer{}
}

// StartSpan returns ctx unchanged.
func (*OTelTracer) StartSpan(ctx context.Context, _ string, _ ...SpanOption) (context.Context, SpanEnder) {
	return ctx, func(error) {}
}

// OTelEnabled reports whether OpenTelemetry support is built in.
func OTelEnabled() bool {
	return false
}
