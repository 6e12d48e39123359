// Package metrics provides observability primitives for libottery generator
// states.
//
// # Overview
//
// The metrics package offers:
//   - Metrics collection (counters, histograms) for seeding and output
//   - Prometheus-compatible metrics export
//   - Distributed tracing support (OpenTelemetry-compatible interface)
//   - Structured logging with levels
//   - Health check endpoints
//
// A generator state reports through an Observer, which fans every event out
// to a Collector, a Tracer and a Logger.
//
// # Quick Start
//
//	import "github.com/sanyaade-iot/libottery/pkg/metrics"
//
//	server := metrics.NewServer(metrics.ServerConfig{EnablePrometheus: true})
//	go server.ListenAndServe(":9090")
//	defer server.Shutdown(context.Background())
//
// # Metrics Collection
//
//	collector := metrics.NewCollector(metrics.Labels{
//		"instance": "node-1",
//	})
//
//	// Seeding metrics
//	collector.RecordReseed(d)
//	collector.RecordForkReseed()
//	collector.RecordGatherLatency(d)
//
//	// Output metrics
//	collector.RecordBlockGenerated()
//	collector.RecordBytesServed(n)
//
//	// Get snapshot
//	snap := collector.Snapshot()
//
// Pass the collector to a state with ottery.WithCollector.
//
// # Prometheus Export
//
//	exporter := metrics.NewPrometheusExporter(collector, "libottery")
//	http.Handle("/metrics", exporter.Handler())
//
// # Tracing
//
//	tracer := metrics.NewSimpleTracer()
//	metrics.SetTracer(tracer)
//
//	// OpenTelemetry adapter using the global provider.
//	// Without -tags otel this is a no-op.
//	metrics.SetTracer(metrics.NewOTelTracer("libottery"))
//
// Reseeds produce an ottery.reseed span with a child ottery.entropy.gather
// span; the reason attribute says whether the reseed followed a fork, a
// counter wrap or an explicit request.
//
// # Structured Logging
//
//	logger := metrics.NewLogger(
//		metrics.WithLevel(metrics.LevelInfo),
//		metrics.WithFormat(metrics.FormatJSON),
//	)
//
// The global logger writes warnings and errors to stderr. Byte slices and
// arrays passed as fields are logged as their length only.
//
// # Health Checks
//
//	health := metrics.NewHealthCheck(collector, version.String())
//	state.RegisterHealthChecks(health, "generator")
//
// The status is degraded while more than MaxEntropyFailureRate of gathers
// fail, and unhealthy once a registered check fails or any fatal error has
// been reported.
//
//	http.Handle("/health", health.Handler())
//	http.Handle("/healthz", health.LivenessHandler())
//	http.Handle("/readyz", health.ReadinessHandler())
//
// # Observability Server
//
//	server := metrics.NewServer(metrics.ServerConfig{
//		Collector:        collector,
//		Version:          version.String(),
//		EnablePrometheus: true,
//		EnableHealth:     true,
//	})
//	go server.ListenAndServe(":9090")
//
// This provides:
//   - /metrics - Prometheus metrics
//   - /health  - Detailed health status
//   - /healthz - Kubernetes liveness probe
//   - /readyz  - Kubernetes readiness probe
package metrics
