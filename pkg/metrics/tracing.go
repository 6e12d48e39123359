package metrics

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Tracer starts spans around generator operations. Implementations exist
// for no-op, in-memory and OpenTelemetry backends.
type Tracer interface {
	// StartSpan returns a context carrying the new span and a function that
	// ends it.
	StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, SpanEnder)
}

// SpanEnder ends a span. A non-nil error marks the span failed.
type SpanEnder func(err error)

// SpanOption configures a span.
type SpanOption func(*spanConfig)

type spanConfig struct {
	attrs SpanAttributes
}

// WithAttributes attaches generator attributes to a span.
func WithAttributes(attrs SpanAttributes) SpanOption {
	return func(c *spanConfig) {
		c.attrs = attrs
	}
}

func newSpanConfig(opts []SpanOption) spanConfig {
	var cfg spanConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Span names for libottery operations.
const (
	SpanInit     = "ottery.init"
	SpanReseed   = "ottery.reseed"
	SpanGather   = "ottery.entropy.gather"
	SpanSelfTest = "ottery.selftest"
)

// SpanAttributes are the attributes generator spans carry. Zero fields are
// omitted.
type SpanAttributes struct {
	Implementation string
	Reason         string
	EntropyFlags   string
	EntropyBytes   int
}

// ToMap converts the attributes to their exported keys.
func (a SpanAttributes) ToMap() map[string]interface{} {
	m := make(map[string]interface{}, 4)
	if a.Implementation != "" {
		m["ottery.implementation"] = a.Implementation
	}
	if a.Reason != "" {
		m["ottery.reseed.reason"] = a.Reason
	}
	if a.EntropyFlags != "" {
		m["entropy.flags"] = a.EntropyFlags
	}
	if a.EntropyBytes > 0 {
		m["entropy.bytes"] = a.EntropyBytes
	}
	return m
}

// NoOpTracer discards every span.
type NoOpTracer struct{}

// StartSpan returns ctx unchanged.
func (NoOpTracer) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, SpanEnder) {
	return ctx, func(error) {}
}

// SimpleTracer keeps finished spans in memory. It backs the "simple"
// tracing mode of otterygen and the tests.
type SimpleTracer struct {
	mu     sync.Mutex
	spans  []RecordedSpan
	nextID atomic.Uint64
}

// RecordedSpan is a finished span.
type RecordedSpan struct {
	Name       string
	ID         string
	ParentID   string
	Start      time.Time
	Duration   time.Duration
	Attributes map[string]interface{}
	Err        error
}

// NewSimpleTracer creates an empty SimpleTracer.
func NewSimpleTracer() *SimpleTracer {
	return &SimpleTracer{}
}

// StartSpan starts a span whose parent is the span carried by ctx, if any.
func (t *SimpleTracer) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, SpanEnder) {
	cfg := newSpanConfig(opts)
	span := RecordedSpan{
		Name:       name,
		ID:         strconv.FormatUint(t.nextID.Add(1), 16),
		Start:      time.Now(),
		Attributes: cfg.attrs.ToMap(),
	}
	if parent, ok := ctx.Value(spanIDKey{}).(string); ok {
		span.ParentID = parent
	}

	var once sync.Once
	return context.WithValue(ctx, spanIDKey{}, span.ID), func(err error) {
		once.Do(func() {
			span.Duration = time.Since(span.Start)
			span.Err = err
			t.mu.Lock()
			t.spans = append(t.spans, span)
			t.mu.Unlock()
		})
	}
}

// Spans returns a copy of the finished spans in the order they ended.
func (t *SimpleTracer) Spans() []RecordedSpan {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]RecordedSpan(nil), t.spans...)
}

// Reset drops the recorded spans.
func (t *SimpleTracer) Reset() {
	t.mu.Lock()
	t.spans = nil
	t.mu.Unlock()
}

type spanIDKey struct{}

// --- Global Tracer ---

type tracerHolder struct{ Tracer }

var globalTracer atomic.Pointer[tracerHolder]

func init() {
	globalTracer.Store(&tracerHolder{NoOpTracer{}})
}

// SetTracer sets the global tracer. A nil tracer restores the no-op one.
func SetTracer(t Tracer) {
	if t == nil {
		t = NoOpTracer{}
	}
	globalTracer.Store(&tracerHolder{t})
}

// GetTracer returns the global tracer.
func GetTracer() Tracer {
	return globalTracer.Load().Tracer
}

// StartSpan starts a span using the global tracer.
func StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, SpanEnder) {
	return GetTracer().StartSpan(ctx, name, opts...)
}
