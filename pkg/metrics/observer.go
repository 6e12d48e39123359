package metrics

import (
	"context"
	"time"
)

// Observer provides observability hooks for generator states.
// A state reports its lifecycle through an Observer, which records metrics,
// traces and log lines in one place.
type Observer struct {
	collector *Collector
	tracer    Tracer
	logger    *Logger
	prf       string
}

// ObserverConfig configures an observer.
type ObserverConfig struct {
	Collector *Collector
	Tracer    Tracer
	Logger    *Logger
	PRF       string // implementation name, attached to logs and spans
}

// NewObserver creates a new observer. Nil fields fall back to the package
// globals.
func NewObserver(cfg ObserverConfig) *Observer {
	if cfg.Collector == nil {
		cfg.Collector = Global()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = GetTracer()
	}
	if cfg.Logger == nil {
		cfg.Logger = GetLogger()
	}

	logger := cfg.Logger.Named("ottery")
	if cfg.PRF != "" {
		logger = logger.With(Fields{"prf": cfg.PRF})
	}

	return &Observer{
		collector: cfg.Collector,
		tracer:    cfg.Tracer,
		logger:    logger,
		prf:       cfg.PRF,
	}
}

// OnInit returns a context and completion function for state initialization.
func (o *Observer) OnInit(ctx context.Context) (context.Context, func(error)) {
	ctx, endSpan := o.tracer.StartSpan(ctx, SpanInit,
		WithAttributes(SpanAttributes{Implementation: o.prf}))

	return ctx, func(err error) {
		if err != nil {
			o.logger.Error("state initialization failed", Fields{"error": err.Error()})
		} else {
			o.collector.StateInitialized()
			o.logger.Debug("state initialized")
		}
		endSpan(err)
	}
}

// OnReseed returns a context and completion function for a reseed.
// reason is one of the ReseedReason values.
func (o *Observer) OnReseed(ctx context.Context, reason ReseedReason) (context.Context, func(error)) {
	start := time.Now()
	ctx, endSpan := o.tracer.StartSpan(ctx, SpanReseed,
		WithAttributes(SpanAttributes{Implementation: o.prf, Reason: string(reason)}))

	if reason == ReseedFork {
		o.collector.RecordForkReseed()
		o.logger.Info("process identity changed, reseeding")
	}

	return ctx, func(err error) {
		duration := time.Since(start)
		if err != nil {
			o.logger.Error("reseed failed", Fields{
				"reason": string(reason),
				"error":  err.Error(),
			})
		} else {
			o.collector.RecordReseed(duration)
			o.logger.Debug("reseeded", Fields{
				"reason":   string(reason),
				"duration": duration.String(),
			})
		}
		endSpan(err)
	}
}

// OnGather returns a context and completion function for an entropy gather.
// The completion function takes the bytes gathered and the source flags.
func (o *Observer) OnGather(ctx context.Context) (context.Context, func(n int, flags string, err error)) {
	start := time.Now()
	ctx, endSpan := o.tracer.StartSpan(ctx, SpanGather)

	return ctx, func(n int, flags string, err error) {
		o.collector.RecordGatherLatency(time.Since(start))
		if err != nil {
			o.collector.RecordEntropyFailure()
			o.logger.Error("entropy gather failed", Fields{"error": err.Error()})
		} else {
			o.logger.Debug("entropy gathered", Fields{
				"bytes": n,
				"flags": flags,
			})
		}
		endSpan(err)
	}
}

// OnStir records an explicit stir.
func (o *Observer) OnStir() {
	o.collector.RecordStir()
	o.logger.Debug("stirred")
}

// OnSeedAdded records caller-supplied seed material.
func (o *Observer) OnSeedAdded(n int) {
	o.collector.RecordSeedAdded()
	o.logger.Debug("seed added", Fields{"bytes": n})
}

// OnCounterWrap records the block counter running out.
func (o *Observer) OnCounterWrap() {
	o.collector.RecordCounterWrap()
	o.logger.Warn("block counter wrapped, forcing reseed")
}

// OnBlock records one PRF block generated.
func (o *Observer) OnBlock() {
	o.collector.RecordBlockGenerated()
}

// OnServe records n bytes handed to a caller.
func (o *Observer) OnServe(n int) {
	o.collector.RecordBytesServed(uint64(n))
}

// OnWipe records a state being wiped.
func (o *Observer) OnWipe() {
	o.collector.StateWiped()
	o.logger.Debug("state wiped")
}

// OnFatal records a fatal error being reported.
func (o *Observer) OnFatal(code string, err error) {
	o.collector.RecordFatalError()
	fields := Fields{"code": code}
	if err != nil {
		fields["error"] = err.Error()
	}
	o.logger.Error("fatal error", fields)
}

// Logger returns the observer's logger for custom logging.
func (o *Observer) Logger() *Logger {
	return o.logger
}

// Collector returns the observer's collector.
func (o *Observer) Collector() *Collector {
	return o.collector
}

// --- Reseed Reasons ---

// ReseedReason says why a state reseeded.
type ReseedReason string

const (
	ReseedInit        ReseedReason = "init"
	ReseedFork        ReseedReason = "fork"
	ReseedExplicit    ReseedReason = "explicit"
	ReseedCounterWrap ReseedReason = "counter_wrap"
	ReseedAddSeed     ReseedReason = "add_seed"
)
