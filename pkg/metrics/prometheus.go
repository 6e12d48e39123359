package metrics

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

// PrometheusExporter renders a Collector in the Prometheus text exposition
// format.
type PrometheusExporter struct {
	collector *Collector
	namespace string
}

// NewPrometheusExporter creates an exporter whose metric names are prefixed
// with namespace and an underscore.
func NewPrometheusExporter(c *Collector, namespace string) *PrometheusExporter {
	return &PrometheusExporter{collector: c, namespace: namespace}
}

// Handler serves the current metrics.
func (e *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_ = e.WriteMetrics(w)
	})
}

// WriteMetrics writes one snapshot of the collector to w.
func (e *PrometheusExporter) WriteMetrics(w io.Writer) error {
	snap := e.collector.Snapshot()
	pw := &promWriter{
		w:      bufio.NewWriter(w),
		prefix: e.namespace + "_",
		labels: promLabels(snap.Labels),
	}

	pw.counter("states_initialized_total", "Generator states initialized.", snap.StatesInitialized)
	pw.counter("states_wiped_total", "Generator states wiped.", snap.StatesWiped)
	pw.counter("reseeds_total", "Reseeds from the entropy sources.", snap.Reseeds)
	pw.counter("fork_reseeds_total", "Reseeds forced by a process identity change.", snap.ForkReseeds)
	pw.counter("stirs_total", "Explicit stirs.", snap.Stirs)
	pw.counter("seeds_added_total", "Caller-supplied seeds mixed in.", snap.SeedsAdded)
	pw.counter("counter_wraps_total", "Block counter wraps.", snap.CounterWraps)
	pw.counter("blocks_generated_total", "PRF blocks generated.", snap.BlocksGenerated)
	pw.counter("bytes_served_total", "Random bytes handed to callers.", snap.BytesServed)
	pw.counter("entropy_failures_total", "Failed entropy gathers.", snap.EntropyFailures)
	pw.counter("fatal_errors_total", "Fatal errors reported.", snap.FatalErrors)

	pw.header("uptime_seconds", "Seconds since the collector was created.", "gauge")
	pw.sample("uptime_seconds", "", snap.Uptime.Seconds())

	pw.histogram("reseed_duration_microseconds", "Reseed duration in microseconds.", snap.ReseedLatency)
	pw.histogram("gather_duration_microseconds", "Entropy gather duration in microseconds.", snap.GatherLatency)

	if pw.err != nil {
		return pw.err
	}
	return pw.w.Flush()
}

// promWriter writes exposition lines and keeps the first write error.
type promWriter struct {
	w      *bufio.Writer
	prefix string
	labels string // rendered collector labels, without braces
	err    error
}

func (p *promWriter) printf(format string, args ...interface{}) {
	if p.err == nil {
		_, p.err = fmt.Fprintf(p.w, format, args...)
	}
}

func (p *promWriter) header(name, help, typ string) {
	p.printf("# HELP %s%s %s\n", p.prefix, name, help)
	p.printf("# TYPE %s%s %s\n", p.prefix, name, typ)
}

// sample writes one line; extra is an additional rendered label pair.
func (p *promWriter) sample(name, extra string, v float64) {
	labels := p.labels
	if extra != "" {
		if labels != "" {
			labels += ","
		}
		labels += extra
	}
	if labels != "" {
		p.printf("%s%s{%s} %s\n", p.prefix, name, labels, promFloat(v))
	} else {
		p.printf("%s%s %s\n", p.prefix, name, promFloat(v))
	}
}

func (p *promWriter) counter(name, help string, v uint64) {
	p.header(name, help, "counter")
	p.sample(name, "", float64(v))
}

func (p *promWriter) histogram(name, help string, h HistogramSummary) {
	p.header(name, help, "histogram")
	for _, b := range h.Buckets {
		p.sample(name+"_bucket", `le="`+promFloat(b.UpperBound)+`"`, float64(b.Count))
	}
	p.sample(name+"_sum", "", h.Sum)
	p.sample(name+"_count", "", float64(h.Count))
}

func promFloat(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// promLabels renders labels sorted by name, with values escaped.
func promLabels(labels Labels) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k + `="` + labelEscaper.Replace(labels[k]) + `"`)
	}
	return b.String()
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
