// Package prf describes the pseudorandom functions the generator can run.
//
// Every backend is a plain PRF record: size metadata plus Setup and Generate
// functions. The generator never inspects a backend's state; it only hands
// the same opaque byte slice back to the functions of the descriptor that
// initialised it. Because a descriptor is a value, a generator can swap its
// whole backend under its lock by copying one struct.
//
// Broadly, every PRF maps a StateBytes-byte key and a 32-bit block index to
// an OutputLen-byte block:
//
//	Setup(state, key)         // key is StateBytes random bytes
//	Generate(state, out, idx) // out receives OutputLen bytes
//
// Generate must be a pure function of (state, idx). Calling it twice with the
// same idx yields the same block; different idx values never share
// keystream.
package prf

import (
	"fmt"

	"github.com/sanyaade-iot/libottery/internal/constants"
	qerrors "github.com/sanyaade-iot/libottery/internal/errors"
	"github.com/sanyaade-iot/libottery/pkg/cpucap"
)

// PRF describes one pseudorandom function implementation.
type PRF struct {
	// Name is the algorithm name, e.g. "CHACHA20"
	Name string
	// Impl names this implementation, e.g. "CHACHA20-NOSIMD"
	Impl string
	// Flavor names the implementation family, e.g. "portable"
	Flavor string

	// StateLen is the size of the opaque state (keys, expanded subkeys,
	// padding). At most constants.MaxStateLen.
	StateLen int
	// StateBytes is the number of random bytes Setup consumes. At most
	// StateLen, constants.MaxStateBytes and OutputLen.
	StateBytes int
	// OutputLen is the number of bytes one Generate call produces. At most
	// constants.MaxOutputLen.
	OutputLen int

	// RequiredCPUCap lists the CPU capabilities this implementation needs.
	RequiredCPUCap cpucap.Cap

	// Setup initialises state (StateLen bytes) from key (StateBytes bytes).
	Setup func(state, key []byte)
	// Generate writes OutputLen bytes for block index idx into out.
	Generate func(state, out []byte, idx uint32)
}

// Validate checks the descriptor against the size bounds.
func (p PRF) Validate() error {
	switch {
	case p.Setup == nil || p.Generate == nil:
		return fmt.Errorf("%w: %s: missing setup or generate", qerrors.ErrInvalidPRF, p.Impl)
	case p.StateBytes <= 0:
		return fmt.Errorf("%w: %s: state_bytes must be positive", qerrors.ErrInvalidPRF, p.Impl)
	case p.StateBytes > constants.MaxStateBytes:
		return fmt.Errorf("%w: %s: state_bytes %d exceeds %d", qerrors.ErrInvalidPRF, p.Impl, p.StateBytes, constants.MaxStateBytes)
	case p.StateBytes > p.StateLen:
		return fmt.Errorf("%w: %s: state_bytes %d exceeds state_len %d", qerrors.ErrInvalidPRF, p.Impl, p.StateBytes, p.StateLen)
	case p.StateLen > constants.MaxStateLen:
		return fmt.Errorf("%w: %s: state_len %d exceeds %d", qerrors.ErrInvalidPRF, p.Impl, p.StateLen, constants.MaxStateLen)
	case p.StateBytes > p.OutputLen:
		return fmt.Errorf("%w: %s: state_bytes %d exceeds output_len %d", qerrors.ErrInvalidPRF, p.Impl, p.StateBytes, p.OutputLen)
	case p.OutputLen > constants.MaxOutputLen:
		return fmt.Errorf("%w: %s: output_len %d exceeds %d", qerrors.ErrInvalidPRF, p.Impl, p.OutputLen, constants.MaxOutputLen)
	}
	return nil
}

// IsZero reports whether p is the zero descriptor.
func (p PRF) IsZero() bool {
	return p.Setup == nil && p.Generate == nil && p.Impl == ""
}

// String returns "name/impl/flavor".
func (p PRF) String() string {
	return p.Name + "/" + p.Impl + "/" + p.Flavor
}
