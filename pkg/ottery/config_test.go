package ottery

import (
	"errors"
	"testing"

	qerrors "github.com/sanyaade-iot/libottery/internal/errors"
	"github.com/sanyaade-iot/libottery/pkg/cpucap"
	"github.com/sanyaade-iot/libottery/pkg/entropy"
	"github.com/sanyaade-iot/libottery/pkg/metrics"
	"github.com/sanyaade-iot/libottery/pkg/prf"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.PRF != prf.DefaultName {
		t.Errorf("PRF = %q, want %q", cfg.PRF, prf.DefaultName)
	}
	if cfg.Gatherer == nil {
		t.Error("default Gatherer is nil")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	broken := smallChaCha(nil)
	broken.StateBytes = broken.OutputLen + 1

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{"default", func(c *Config) {}, nil},
		{"algorithm name", func(c *Config) { c.PRF = "CHACHA12" }, nil},
		{"implementation name", func(c *Config) { c.PRF = "CHACHA8-NOSIMD" }, nil},
		{"unknown PRF", func(c *Config) { c.PRF = "RC4" }, qerrors.ErrUnknownPRF},
		{"manual PRF", func(c *Config) { c.ManualPRF = smallChaCha(nil) }, nil},
		{"broken manual PRF", func(c *Config) { c.ManualPRF = broken }, qerrors.ErrInvalidPRF},
		{"disabled source", func(c *Config) { c.Entropy.DisabledSources = entropy.SrcRDRAND }, nil},
		{"disabled non-source", func(c *Config) { c.Entropy.DisabledSources = entropy.FlagStrong }, qerrors.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSelectPRFPortableWithoutCaps(t *testing.T) {
	cfg := DefaultConfig()
	p, err := cfg.selectPRF(0)
	if err != nil {
		t.Fatalf("selectPRF: %v", err)
	}
	if p.RequiredCPUCap != 0 {
		t.Errorf("selected %s requiring %v on a CPU with no capabilities", p.Impl, p.RequiredCPUCap)
	}
	if p.Name != prf.DefaultName {
		t.Errorf("Name = %q, want %q", p.Name, prf.DefaultName)
	}

	cfg.ManualPRF = smallChaCha(nil)
	if p, _ := cfg.selectPRF(cpucap.All); p.Impl != "CHACHA20-SMALL" {
		t.Errorf("manual PRF not honoured, got %s", p.Impl)
	}
}

func TestNewWithOptions(t *testing.T) {
	g := newFakeGatherer(seqPattern(32, 73))
	fatal := &fatalRecorder{}
	collector := metrics.NewCollector(nil)

	s, err := New(
		WithManualPRF(smallChaCha(nil)),
		WithGatherer(g),
		WithFatalHandler(fatal.handle),
		WithLogger(metrics.NullLogger()),
		WithCollector(collector),
		WithTracer(metrics.NoOpTracer{}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Wipe()

	if s.Implementation().Impl != "CHACHA20-SMALL" {
		t.Errorf("Implementation = %s", s.Implementation().Impl)
	}
	if g.callCount() != 1 {
		t.Errorf("gather calls = %d, want 1", g.callCount())
	}
	if collector.Snapshot().StatesInitialized != 1 {
		t.Error("collector option not applied")
	}
}

func TestNewByName(t *testing.T) {
	g := newFakeGatherer(seqPattern(64, 79))

	s, err := New(WithPRF("CHACHA8"), WithGatherer(g), WithLogger(metrics.NullLogger()),
		WithCollector(metrics.NewCollector(nil)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Wipe()

	impl := s.Implementation()
	if impl.Name != "CHACHA8" {
		t.Errorf("Name = %q, want CHACHA8", impl.Name)
	}
	if !prf.Usable(impl, cpucap.Probe()) {
		t.Errorf("selected %s is not usable on this CPU", impl.Impl)
	}
}

func TestNewUnknownPRF(t *testing.T) {
	_, err := New(WithPRF("NOPE"), WithGatherer(newFakeGatherer(seqPattern(32, 0))))
	if !errors.Is(err, qerrors.ErrUnknownPRF) {
		t.Errorf("error = %v, want ErrUnknownPRF", err)
	}
}

func TestEntropyOptions(t *testing.T) {
	cfg := DefaultConfig()
	for _, opt := range []Option{
		WithURandomPath("/tmp/not-urandom"),
		WithDisabledSources(entropy.SrcRDRAND),
		WithDisabledSources(entropy.SrcEGD),
		WithEGD("unix", "/var/run/egd-pool"),
	} {
		opt(&cfg)
	}

	if cfg.Entropy.URandomPath != "/tmp/not-urandom" {
		t.Errorf("URandomPath = %q", cfg.Entropy.URandomPath)
	}
	if cfg.Entropy.DisabledSources != entropy.SrcRDRAND|entropy.SrcEGD {
		t.Errorf("DisabledSources = %v", cfg.Entropy.DisabledSources)
	}
	if cfg.Entropy.EGDNetwork != "unix" || cfg.Entropy.EGDAddr != "/var/run/egd-pool" {
		t.Errorf("EGD = %s %s", cfg.Entropy.EGDNetwork, cfg.Entropy.EGDAddr)
	}
}
