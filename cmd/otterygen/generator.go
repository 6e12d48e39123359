package main

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sanyaade-iot/libottery/pkg/entropy"
	"github.com/sanyaade-iot/libottery/pkg/metrics"
	"github.com/sanyaade-iot/libottery/pkg/ottery"
)

var sourceNames = map[string]entropy.Flag{
	"randomdev":      entropy.SrcRandomDev,
	"getrandom":      entropy.SrcGetrandom,
	"rdrand":         entropy.SrcRDRAND,
	"egd":            entropy.SrcEGD,
	"cryptgenrandom": entropy.SrcCryptGenRandom,
}

func parseSources(list string) (entropy.Flag, error) {
	var flags entropy.Flag
	for _, name := range strings.Split(list, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		f, ok := sourceNames[name]
		if !ok {
			return 0, fmt.Errorf("unknown entropy source: %s", name)
		}
		flags |= f
	}
	return flags, nil
}

// options turns the generator flags into state options.
func (gf generatorFlags) options(collector *metrics.Collector, logger *metrics.Logger) ([]ottery.Option, error) {
	disabled, err := parseSources(*gf.disable)
	if err != nil {
		return nil, err
	}

	opts := []ottery.Option{
		ottery.WithPRF(*gf.prf),
		ottery.WithDisabledSources(disabled),
		ottery.WithCollector(collector),
		ottery.WithLogger(logger),
	}
	if *gf.urandom != "" {
		opts = append(opts, ottery.WithURandomPath(*gf.urandom))
	}
	if *gf.egdAddr != "" {
		opts = append(opts, ottery.WithEGD(*gf.egdNet, *gf.egdAddr))
	}
	return opts, nil
}

// newState builds a state from the generator flags. Fatal errors end the
// process with a message instead of a panic.
func newState(gf generatorFlags) (*ottery.State, *metrics.Collector) {
	collector, logger, err := setupObservability(*gf.logLevel, *gf.logFormat, *gf.tracing)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	opts, err := gf.options(collector, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	// The handler runs after the state's lock is released, so it may wipe.
	var st *ottery.State
	opts = append(opts, ottery.WithFatalHandler(func(code ottery.ErrorCode) {
		fmt.Fprintf(os.Stderr, "Error: generator failure: %s\n", code)
		exitWiped(st, 2)
	}))

	st, err = ottery.New(opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to seed generator: %v\n", err)
		os.Exit(1)
	}
	return st, collector
}

// exit is replaced in tests.
var exit = os.Exit

// exitWiped erases st before ending the process; deferred calls do not run
// on os.Exit.
func exitWiped(st *ottery.State, code int) {
	if st != nil {
		st.Wipe()
	}
	exit(code)
}

func runBytes(count int64, format string, gf generatorFlags) {
	if count < 0 {
		fmt.Fprintf(os.Stderr, "Invalid count: %d\n", count)
		os.Exit(1)
	}

	st, _ := newState(gf)
	defer st.Wipe()

	var (
		w     io.Writer = os.Stdout
		flush func() error
	)
	format = strings.ToLower(format)
	switch format {
	case "raw":
	case "hex":
		w = hex.NewEncoder(os.Stdout)
	case "base64":
		enc := base64.NewEncoder(base64.StdEncoding, os.Stdout)
		w, flush = enc, enc.Close
	default:
		fmt.Fprintf(os.Stderr, "Invalid format: %s (use raw, hex or base64)\n", format)
		exitWiped(st, 1)
	}

	if _, err := io.CopyN(w, st, count); err != nil {
		fmt.Fprintf(os.Stderr, "Write error: %v\n", err)
		exitWiped(st, 1)
	}
	if flush != nil {
		_ = flush()
	}
	if format != "raw" {
		fmt.Println()
	}
}
