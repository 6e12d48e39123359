package metrics

import (
	"math"
	"slices"
	"sort"
	"sync/atomic"
	"time"
)

// Histogram counts durations into fixed buckets measured in microseconds.
// Observations never take a lock, so a reseed on the hot path does not
// contend with an exporter taking a snapshot.
type Histogram struct {
	bounds []float64       // ascending upper bounds, inclusive
	counts []atomic.Uint64 // one per bound plus the +Inf bucket

	count     atomic.Uint64
	sumMicros atomic.Uint64
	minMicros atomic.Uint64
	maxMicros atomic.Uint64
}

// NewHistogram creates a histogram with the given upper bounds in
// microseconds. The bounds are copied and sorted.
func NewHistogram(bounds []float64) *Histogram {
	b := slices.Clone(bounds)
	slices.Sort(b)

	h := &Histogram{
		bounds: b,
		counts: make([]atomic.Uint64, len(b)+1),
	}
	h.minMicros.Store(math.MaxUint64)
	return h
}

// ObserveDuration records one timing. Negative durations count as zero.
func (h *Histogram) ObserveDuration(d time.Duration) {
	us := uint64(max(d.Microseconds(), 0))

	h.counts[sort.SearchFloat64s(h.bounds, float64(us))].Add(1)
	h.count.Add(1)
	h.sumMicros.Add(us)

	for {
		cur := h.minMicros.Load()
		if us >= cur || h.minMicros.CompareAndSwap(cur, us) {
			break
		}
	}
	for {
		cur := h.maxMicros.Load()
		if us <= cur || h.maxMicros.CompareAndSwap(cur, us) {
			break
		}
	}
}

// HistogramSummary is a point-in-time view of a histogram. All values are
// in microseconds.
type HistogramSummary struct {
	Count   uint64        `json:"count"`
	Sum     float64       `json:"sum"`
	Min     float64       `json:"min"`
	Max     float64       `json:"max"`
	Mean    float64       `json:"mean"`
	P50     float64       `json:"p50"`
	P99     float64       `json:"p99"`
	Buckets []BucketCount `json:"buckets"`
}

// BucketCount is one cumulative bucket.
type BucketCount struct {
	UpperBound float64 `json:"le"`
	Count      uint64  `json:"count"`
}

// Summary returns cumulative bucket counts and basic statistics. Buckets
// are always present, even before the first observation, so exporters
// emit a stable series.
func (h *Histogram) Summary() HistogramSummary {
	raw := make([]uint64, len(h.counts))
	for i := range h.counts {
		raw[i] = h.counts[i].Load()
	}

	s := HistogramSummary{
		Count:   h.count.Load(),
		Sum:     float64(h.sumMicros.Load()),
		Buckets: make([]BucketCount, len(raw)),
	}

	var cumulative uint64
	for i, c := range raw {
		cumulative += c
		bound := math.Inf(1)
		if i < len(h.bounds) {
			bound = h.bounds[i]
		}
		s.Buckets[i] = BucketCount{UpperBound: bound, Count: cumulative}
	}

	if s.Count == 0 {
		return s
	}
	s.Min = float64(h.minMicros.Load())
	s.Max = float64(h.maxMicros.Load())
	s.Mean = s.Sum / float64(s.Count)
	s.P50 = h.quantile(raw, 0.5, s.Max)
	s.P99 = h.quantile(raw, 0.99, s.Max)
	return s
}

// quantile estimates q from raw bucket counts by interpolating inside the
// bucket that holds the rank. Ranks in the +Inf bucket report the maximum.
func (h *Histogram) quantile(raw []uint64, q, maxSeen float64) float64 {
	var total uint64
	for _, c := range raw {
		total += c
	}
	if total == 0 {
		return 0
	}

	rank := q * float64(total)
	var seen uint64
	for i, c := range raw {
		if c == 0 || float64(seen+c) < rank {
			seen += c
			continue
		}
		if i >= len(h.bounds) {
			return maxSeen
		}
		lower := 0.0
		if i > 0 {
			lower = h.bounds[i-1]
		}
		frac := (rank - float64(seen)) / float64(c)
		return lower + frac*(h.bounds[i]-lower)
	}
	return maxSeen
}

// Reset clears every bucket. Observations racing with Reset may survive it.
func (h *Histogram) Reset() {
	for i := range h.counts {
		h.counts[i].Store(0)
	}
	h.count.Store(0)
	h.sumMicros.Store(0)
	h.minMicros.Store(math.MaxUint64)
	h.maxMicros.Store(0)
}

// Count returns the number of observations.
func (h *Histogram) Count() uint64 {
	return h.count.Load()
}
