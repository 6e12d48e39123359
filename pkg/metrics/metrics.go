package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector aggregates metrics from generator states.
type Collector struct {
	// Lifecycle metrics
	statesInitialized atomic.Uint64
	statesWiped       atomic.Uint64

	// Seeding metrics
	reseeds       atomic.Uint64
	forkReseeds   atomic.Uint64
	stirs         atomic.Uint64
	seedsAdded    atomic.Uint64
	counterWraps  atomic.Uint64
	reseedLatency *Histogram
	gatherLatency *Histogram

	// Output metrics
	blocksGenerated atomic.Uint64
	bytesServed     atomic.Uint64

	// Error metrics
	entropyFailures atomic.Uint64
	fatalErrors     atomic.Uint64

	// Creation time for uptime tracking
	createdAt time.Time

	// Labels for this collector instance
	labels Labels
}

// Labels represents key-value pairs for metric labeling.
type Labels map[string]string

// NewCollector creates a new metrics collector.
func NewCollector(labels Labels) *Collector {
	if labels == nil {
		labels = make(Labels)
	}

	return &Collector{
		reseedLatency: NewHistogram(LatencyBuckets),
		gatherLatency: NewHistogram(LatencyBuckets),
		createdAt:     time.Now(),
		labels:        labels,
	}
}

// LatencyBuckets are the upper bounds, in microseconds, for reseed and
// gather timings. A getrandom reseed usually lands in the first few.
var LatencyBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 5000}

// --- Lifecycle Metrics ---

// StateInitialized records a successful state initialization.
func (c *Collector) StateInitialized() {
	c.statesInitialized.Add(1)
}

// StateWiped records a state being wiped.
func (c *Collector) StateWiped() {
	c.statesWiped.Add(1)
}

// --- Seeding Metrics ---

// RecordReseed records a completed reseed from the entropy sources.
func (c *Collector) RecordReseed(d time.Duration) {
	c.reseeds.Add(1)
	c.reseedLatency.ObserveDuration(d)
}

// RecordForkReseed records a reseed forced by a process identity change.
func (c *Collector) RecordForkReseed() {
	c.forkReseeds.Add(1)
}

// RecordStir records an explicit stir.
func (c *Collector) RecordStir() {
	c.stirs.Add(1)
}

// RecordSeedAdded records caller-supplied seed material being mixed in.
func (c *Collector) RecordSeedAdded() {
	c.seedsAdded.Add(1)
}

// RecordCounterWrap records a block counter exhausting its range.
func (c *Collector) RecordCounterWrap() {
	c.counterWraps.Add(1)
}

// RecordGatherLatency records how long an entropy gather took.
func (c *Collector) RecordGatherLatency(d time.Duration) {
	c.gatherLatency.ObserveDuration(d)
}

// --- Output Metrics ---

// RecordBlockGenerated increments the PRF block counter.
func (c *Collector) RecordBlockGenerated() {
	c.blocksGenerated.Add(1)
}

// RecordBytesServed adds to the bytes served counter.
func (c *Collector) RecordBytesServed(n uint64) {
	c.bytesServed.Add(n)
}

// --- Error Metrics ---

// RecordEntropyFailure increments the entropy failure counter.
func (c *Collector) RecordEntropyFailure() {
	c.entropyFailures.Add(1)
}

// RecordFatalError increments the fatal error counter.
func (c *Collector) RecordFatalError() {
	c.fatalErrors.Add(1)
}

// --- Snapshot ---

// Snapshot returns a point-in-time snapshot of all metrics.
type Snapshot struct {
	// Timestamp of the snapshot
	Timestamp time.Time

	// Uptime since collector creation
	Uptime time.Duration

	// Lifecycle metrics
	StatesInitialized uint64
	StatesWiped       uint64

	// Seeding metrics
	Reseeds      uint64
	ForkReseeds  uint64
	Stirs        uint64
	SeedsAdded   uint64
	CounterWraps uint64

	// Output metrics
	BlocksGenerated uint64
	BytesServed     uint64

	// Error metrics
	EntropyFailures uint64
	FatalErrors     uint64

	// Histogram summaries
	ReseedLatency HistogramSummary
	GatherLatency HistogramSummary

	// Labels
	Labels Labels
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		Timestamp:         time.Now(),
		Uptime:            time.Since(c.createdAt),
		StatesInitialized: c.statesInitialized.Load(),
		StatesWiped:       c.statesWiped.Load(),
		Reseeds:           c.reseeds.Load(),
		ForkReseeds:       c.forkReseeds.Load(),
		Stirs:             c.stirs.Load(),
		SeedsAdded:        c.seedsAdded.Load(),
		CounterWraps:      c.counterWraps.Load(),
		BlocksGenerated:   c.blocksGenerated.Load(),
		BytesServed:       c.bytesServed.Load(),
		EntropyFailures:   c.entropyFailures.Load(),
		FatalErrors:       c.fatalErrors.Load(),
		ReseedLatency:     c.reseedLatency.Summary(),
		GatherLatency:     c.gatherLatency.Summary(),
		Labels:            c.labels,
	}
}

// Reset clears all metrics (useful for testing).
func (c *Collector) Reset() {
	c.statesInitialized.Store(0)
	c.statesWiped.Store(0)
	c.reseeds.Store(0)
	c.forkReseeds.Store(0)
	c.stirs.Store(0)
	c.seedsAdded.Store(0)
	c.counterWraps.Store(0)
	c.blocksGenerated.Store(0)
	c.bytesServed.Store(0)
	c.entropyFailures.Store(0)
	c.fatalErrors.Store(0)
	c.reseedLatency.Reset()
	c.gatherLatency.Reset()
	c.createdAt = time.Now()
}

// --- Global Collector ---

var (
	globalCollector     *Collector
	globalCollectorOnce sync.Once
)

// Global returns the global metrics collector.
// Creates one with default settings if not already initialized.
func Global() *Collector {
	globalCollectorOnce.Do(func() {
		if globalCollector == nil {
			globalCollector = NewCollector(Labels{"instance": "default"})
		}
	})
	return globalCollector
}

// SetGlobal sets the global metrics collector.
// Should be called during initialization before any metrics are recorded.
func SetGlobal(c *Collector) {
	globalCollector = c
}
