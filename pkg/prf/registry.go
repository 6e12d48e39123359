package prf

import (
	"fmt"
	"strings"

	qerrors "github.com/sanyaade-iot/libottery/internal/errors"
	"github.com/sanyaade-iot/libottery/pkg/cpucap"
)

// DefaultName is the algorithm chosen when the caller expresses no
// preference.
const DefaultName = "CHACHA20"

// Portable returns the descriptors that need no CPU capability, in
// preference order.
func Portable() []PRF {
	return []PRF{ChaCha20Portable, ChaCha12Portable, ChaCha8Portable, BLAKE3, SHAKE256}
}

// Accelerated returns the compiled-in capability-gated descriptors.
func Accelerated() []PRF {
	return accelerated()
}

// All returns every compiled-in descriptor, accelerated variants first.
func All() []PRF {
	return append(Accelerated(), Portable()...)
}

// Lookup finds a descriptor by implementation name, or by algorithm name in
// which case the portable implementation is returned. No capability checks
// are made.
func Lookup(name string) (PRF, error) {
	for _, p := range All() {
		if strings.EqualFold(p.Impl, name) {
			return p, nil
		}
	}
	for _, p := range Portable() {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return PRF{}, fmt.Errorf("%w: %q", qerrors.ErrUnknownPRF, name)
}

// Select returns the preferred descriptor for the default algorithm given
// the available capabilities: an accelerated variant whose requirements are
// met, else the portable implementation.
func Select(caps cpucap.Cap) PRF {
	p, err := SelectByName(DefaultName, caps)
	if err != nil {
		return ChaCha20Portable
	}
	return p
}

// SelectByName picks an implementation of the named algorithm or the named
// implementation itself. An algorithm name prefers accelerated variants
// whose requirements are met by caps. An implementation name whose
// requirements are not met fails with ErrCapabilityMismatch.
func SelectByName(name string, caps cpucap.Cap) (PRF, error) {
	for _, p := range All() {
		if !strings.EqualFold(p.Impl, name) {
			continue
		}
		if !caps.Has(p.RequiredCPUCap) {
			return PRF{}, fmt.Errorf("%w: %s needs %v, have %v",
				qerrors.ErrCapabilityMismatch, p.Impl, p.RequiredCPUCap, caps)
		}
		return p, nil
	}

	var found bool
	for _, p := range All() {
		if !strings.EqualFold(p.Name, name) {
			continue
		}
		found = true
		if caps.Has(p.RequiredCPUCap) {
			return p, nil
		}
	}
	if found {
		return PRF{}, fmt.Errorf("%w: no %s implementation usable with %v",
			qerrors.ErrCapabilityMismatch, name, caps)
	}
	return PRF{}, fmt.Errorf("%w: %q", qerrors.ErrUnknownPRF, name)
}
