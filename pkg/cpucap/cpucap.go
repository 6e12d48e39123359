// Package cpucap reports which CPU-accelerated code paths the generator may
// use.
//
// Detection runs once per process. Capabilities can be administratively
// disabled with Disable, for testing or to distrust a flawed instruction
// (for example a broken hardware RNG). Disabling is monotonic: there is no
// way to re-enable a capability within the same process.
package cpucap

import (
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// Cap is a bitmask of CPU capabilities.
type Cap uint32

// Capability bits.
const (
	// SIMD is generic vector support (SSE2 on x86, ASIMD on arm64)
	SIMD Cap = 1 << 0
	// SSSE3 is the x86 supplemental SSE3 extension
	SSSE3 Cap = 1 << 1
	// AES is hardware AES support
	AES Cap = 1 << 2
	// RAND is a hardware RNG instruction (RDRAND)
	RAND Cap = 1 << 3

	// All covers every capability bit this package knows about
	All = SIMD | SSSE3 | AES | RAND
)

// Has reports whether every bit in mask is present in c.
func (c Cap) Has(mask Cap) bool {
	return c&mask == mask
}

// String returns a human-readable list of capability names.
func (c Cap) String() string {
	if c == 0 {
		return "none"
	}
	var parts []string
	names := []struct {
		bit  Cap
		name string
	}{
		{SIMD, "simd"},
		{SSSE3, "ssse3"},
		{AES, "aes"},
		{RAND, "rand"},
	}
	for _, n := range names {
		if c&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	if c&^All != 0 {
		parts = append(parts, "unknown")
	}
	return strings.Join(parts, ",")
}

var (
	detected   Cap
	detectOnce sync.Once
	disabled   atomic.Uint32
)

// Probe returns the capabilities of the executing CPU, minus any that have
// been disabled.
func Probe() Cap {
	detectOnce.Do(func() {
		detected = detect()
	})
	return detected &^ Cap(disabled.Load())
}

// Disable prevents Probe from ever reporting any bit in mask again.
func Disable(mask Cap) {
	disabled.Or(uint32(mask))
}

// Disabled returns the administratively disabled mask.
func Disabled() Cap {
	return Cap(disabled.Load())
}

func detect() Cap {
	var c Cap
	switch runtime.GOARCH {
	case "amd64", "386":
		if cpu.X86.HasSSE2 {
			c |= SIMD
		}
		if cpu.X86.HasSSSE3 {
			c |= SSSE3
		}
		if cpu.X86.HasAES {
			c |= AES
		}
		if cpu.X86.HasRDRAND {
			c |= RAND
		}
	case "arm64":
		if cpu.ARM64.HasASIMD {
			c |= SIMD
		}
		if cpu.ARM64.HasAES {
			c |= AES
		}
	}
	return c
}
