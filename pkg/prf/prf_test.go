package prf

import (
	"errors"
	"testing"

	"github.com/sanyaade-iot/libottery/internal/constants"
	qerrors "github.com/sanyaade-iot/libottery/internal/errors"
	"github.com/sanyaade-iot/libottery/pkg/cpucap"
)

func TestRegisteredDescriptorsValid(t *testing.T) {
	for _, p := range All() {
		if err := p.Validate(); err != nil {
			t.Errorf("%s: %v", p, err)
		}
	}
}

func TestValidate(t *testing.T) {
	good := ChaCha20Portable

	tests := []struct {
		name   string
		mutate func(p *PRF)
	}{
		{"nil setup", func(p *PRF) { p.Setup = nil }},
		{"nil generate", func(p *PRF) { p.Generate = nil }},
		{"zero state bytes", func(p *PRF) { p.StateBytes = 0 }},
		{"state bytes over max", func(p *PRF) { p.StateBytes = constants.MaxStateBytes + 1; p.StateLen = constants.MaxStateLen }},
		{"state bytes over state len", func(p *PRF) { p.StateLen = p.StateBytes - 1 }},
		{"state len over max", func(p *PRF) { p.StateLen = constants.MaxStateLen + 1 }},
		{"state bytes over output len", func(p *PRF) { p.OutputLen = p.StateBytes - 1 }},
		{"output len over max", func(p *PRF) { p.OutputLen = constants.MaxOutputLen + 1 }},
	}

	if err := good.Validate(); err != nil {
		t.Fatalf("baseline descriptor invalid: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := good
			tt.mutate(&p)
			err := p.Validate()
			if !errors.Is(err, qerrors.ErrInvalidPRF) {
				t.Errorf("Validate() = %v, want ErrInvalidPRF", err)
			}
		})
	}
}

func TestIsZero(t *testing.T) {
	if !(PRF{}).IsZero() {
		t.Error("zero PRF should report IsZero")
	}
	if ChaCha8Portable.IsZero() {
		t.Error("ChaCha8Portable should not report IsZero")
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		name     string
		wantImpl string
	}{
		{"CHACHA20", "CHACHA20-NOSIMD"},
		{"chacha12", "CHACHA12-NOSIMD"},
		{"CHACHA8-NOSIMD", "CHACHA8-NOSIMD"},
		{"blake3", "BLAKE3-KEYED"},
		{"SHAKE256-CIRCL", "SHAKE256-CIRCL"},
	}

	for _, tt := range tests {
		p, err := Lookup(tt.name)
		if err != nil {
			t.Errorf("Lookup(%q) error: %v", tt.name, err)
			continue
		}
		if p.Impl != tt.wantImpl {
			t.Errorf("Lookup(%q) = %s, want %s", tt.name, p.Impl, tt.wantImpl)
		}
	}

	if _, err := Lookup("RC4"); !errors.Is(err, qerrors.ErrUnknownPRF) {
		t.Errorf("Lookup(RC4) = %v, want ErrUnknownPRF", err)
	}
}

func TestSelectWithoutCapabilities(t *testing.T) {
	p := Select(0)
	if p.Impl != ChaCha20Portable.Impl {
		t.Errorf("Select(0) = %s, want portable ChaCha20", p.Impl)
	}
	if p.RequiredCPUCap != 0 {
		t.Errorf("Select(0) returned descriptor requiring %v", p.RequiredCPUCap)
	}
}

func TestSelectPrefersAccelerated(t *testing.T) {
	p := Select(cpucap.All)
	if len(Accelerated()) == 0 {
		if p.Impl != ChaCha20Portable.Impl {
			t.Errorf("Select(All) = %s without accelerated backends", p.Impl)
		}
		return
	}
	if p.RequiredCPUCap == 0 {
		t.Errorf("Select(All) = %s, want an accelerated variant", p.Impl)
	}
	if p.Name != DefaultName {
		t.Errorf("Select(All).Name = %s, want %s", p.Name, DefaultName)
	}
}

func TestSelectCapabilityGating(t *testing.T) {
	// Masking out every bit any accelerated descriptor needs must yield
	// the portable implementation.
	var needed cpucap.Cap
	for _, p := range Accelerated() {
		needed |= p.RequiredCPUCap
	}
	caps := cpucap.All &^ needed
	p := Select(caps)
	if p.Impl != ChaCha20Portable.Impl {
		t.Errorf("Select(%v) = %s, want portable", caps, p.Impl)
	}
}

func TestSelectByName(t *testing.T) {
	p, err := SelectByName("CHACHA8", cpucap.All)
	if err != nil || p.Impl != "CHACHA8-NOSIMD" {
		t.Errorf("SelectByName(CHACHA8) = %s, %v", p.Impl, err)
	}

	p, err = SelectByName("CHACHA20-NOSIMD", 0)
	if err != nil || p.Impl != "CHACHA20-NOSIMD" {
		t.Errorf("SelectByName(CHACHA20-NOSIMD) = %s, %v", p.Impl, err)
	}

	if _, err := SelectByName("NOPE", cpucap.All); !errors.Is(err, qerrors.ErrUnknownPRF) {
		t.Errorf("SelectByName(NOPE) = %v, want ErrUnknownPRF", err)
	}

	for _, acc := range Accelerated() {
		_, err := SelectByName(acc.Impl, 0)
		if !errors.Is(err, qerrors.ErrCapabilityMismatch) {
			t.Errorf("SelectByName(%s, 0) = %v, want ErrCapabilityMismatch", acc.Impl, err)
		}
		got, err := SelectByName(acc.Impl, acc.RequiredCPUCap)
		if err != nil || got.Impl != acc.Impl {
			t.Errorf("SelectByName(%s) = %s, %v", acc.Impl, got.Impl, err)
		}
	}
}

func TestUsable(t *testing.T) {
	if !Usable(ChaCha20Portable, 0) {
		t.Error("portable ChaCha20 must be usable without capabilities")
	}
	for _, p := range Accelerated() {
		if Usable(p, 0) {
			t.Errorf("%s usable without capabilities", p.Impl)
		}
	}
}
