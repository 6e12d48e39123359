package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sanyaade-iot/libottery/pkg/metrics"
)

func setupObservability(logLevel, logFormat, tracing string) (*metrics.Collector, *metrics.Logger, error) {
	level, err := metrics.ParseLevel(logLevel)
	if err != nil {
		return nil, nil, err
	}

	format, err := metrics.ParseFormat(logFormat)
	if err != nil {
		return nil, nil, err
	}

	logger := metrics.NewLogger(
		metrics.WithOutput(os.Stderr),
		metrics.WithLevel(level),
		metrics.WithFormat(format),
		metrics.WithFields(metrics.Fields{"app": "otterygen"}),
	)
	metrics.SetLogger(logger)

	switch strings.ToLower(tracing) {
	case "none":
		metrics.SetTracer(metrics.NoOpTracer{})
	case "simple":
		metrics.SetTracer(metrics.NewSimpleTracer())
	case "otel":
		if !metrics.OTelEnabled() {
			return nil, nil, fmt.Errorf("otel tracing not enabled (build with -tags otel)")
		}
		metrics.SetTracer(metrics.NewOTelTracer("otterygen"))
	default:
		return nil, nil, fmt.Errorf("invalid tracing mode: %s (use none, simple, or otel)", tracing)
	}

	collector := metrics.NewCollector(metrics.Labels{
		"service": "otterygen",
	})
	metrics.SetGlobal(collector)

	return collector, logger, nil
}
