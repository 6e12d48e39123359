package ottery

import (
	"fmt"

	qerrors "github.com/sanyaade-iot/libottery/internal/errors"
	"github.com/sanyaade-iot/libottery/pkg/cpucap"
	"github.com/sanyaade-iot/libottery/pkg/entropy"
	"github.com/sanyaade-iot/libottery/pkg/metrics"
	"github.com/sanyaade-iot/libottery/pkg/prf"
)

// Config holds the configuration of a generator state.
type Config struct {
	// PRF names the algorithm ("CHACHA8") or implementation
	// ("CHACHA20-NOSIMD") to run. The named implementation must be usable
	// on this CPU.
	// Default: prf.DefaultName, best implementation for the CPU
	PRF string

	// ManualPRF, when set, is used as given. Capability checks and the
	// self test are skipped, so tests can force a backend.
	ManualPRF prf.PRF

	// Entropy configures the entropy sources: random device override, EGD
	// socket and disabled sources.
	Entropy entropy.Config

	// Gatherer supplies seed material.
	// Default: entropy.Default
	Gatherer entropy.Gatherer

	// FatalHandler receives unrecoverable failures of this state.
	// Default: the process-wide handler (see SetFatalHandler)
	FatalHandler FatalHandler

	// Logger, Collector and Tracer receive the state's observability
	// events. Nil values fall back to the metrics package globals.
	Logger    *metrics.Logger
	Collector *metrics.Collector
	Tracer    metrics.Tracer

	// getpid reports the current process identity. Tests replace it to
	// simulate a fork.
	getpid func() int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		PRF:      prf.DefaultName,
		Gatherer: entropy.Default,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if !c.ManualPRF.IsZero() {
		if err := c.ManualPRF.Validate(); err != nil {
			return err
		}
	} else if c.PRF != "" {
		if _, err := prf.Lookup(c.PRF); err != nil {
			return err
		}
	}
	if err := c.Entropy.Validate(); err != nil {
		return err
	}
	if c.Entropy.DisabledSources&^entropy.AllSources != 0 {
		return fmt.Errorf("%w: disabled sources %#x outside the source mask",
			qerrors.ErrInvalidConfig, uint32(c.Entropy.DisabledSources))
	}
	return nil
}

// applyDefaults fills in zero values with defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.PRF == "" {
		c.PRF = defaults.PRF
	}
	if c.Gatherer == nil {
		c.Gatherer = defaults.Gatherer
	}
	if c.getpid == nil {
		c.getpid = processID
	}
}

// selectPRF resolves the configured PRF against the CPU capabilities.
func (c *Config) selectPRF(caps cpucap.Cap) (prf.PRF, error) {
	if !c.ManualPRF.IsZero() {
		return c.ManualPRF, nil
	}
	return prf.SelectByName(c.PRF, caps)
}

// Option configures a state built with New.
type Option func(*Config)

// WithPRF selects an algorithm or implementation by name.
func WithPRF(name string) Option {
	return func(c *Config) {
		c.PRF = name
	}
}

// WithManualPRF forces p, bypassing capability checks.
func WithManualPRF(p prf.PRF) Option {
	return func(c *Config) {
		c.ManualPRF = p
	}
}

// WithURandomPath reads seed material from path instead of /dev/urandom.
func WithURandomPath(path string) Option {
	return func(c *Config) {
		c.Entropy.URandomPath = path
	}
}

// WithDisabledSources skips every entropy source having any of flags.
func WithDisabledSources(flags entropy.Flag) Option {
	return func(c *Config) {
		c.Entropy.DisabledSources |= flags
	}
}

// WithEGD adds an EGD-style entropy daemon at addr on network.
func WithEGD(network, addr string) Option {
	return func(c *Config) {
		c.Entropy.EGDNetwork = network
		c.Entropy.EGDAddr = addr
	}
}

// WithGatherer replaces the entropy aggregator.
func WithGatherer(g entropy.Gatherer) Option {
	return func(c *Config) {
		c.Gatherer = g
	}
}

// WithFatalHandler sets the state's fatal handler.
func WithFatalHandler(h FatalHandler) Option {
	return func(c *Config) {
		c.FatalHandler = h
	}
}

// WithLogger sets the state's logger.
func WithLogger(l *metrics.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithCollector sets the state's metrics collector.
func WithCollector(col *metrics.Collector) Option {
	return func(c *Config) {
		c.Collector = col
	}
}

// WithTracer sets the state's tracer.
func WithTracer(t metrics.Tracer) Option {
	return func(c *Config) {
		c.Tracer = t
	}
}
