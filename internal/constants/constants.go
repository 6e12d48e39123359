// Package constants defines size bounds, sentinels and defaults shared by the
// libottery generator, its PRF backends and its entropy sources.
package constants

// PRF size bounds. Every registered PRF descriptor must fit inside these so
// that a generator state can hold any backend without reallocation.
const (
	// MaxStateBytes is the largest number of fresh entropy bytes a PRF may
	// consume to key itself.
	MaxStateBytes = 64

	// MaxStateLen is the largest opaque backend state (keys, expanded
	// subkeys, padding) a PRF may use.
	MaxStateLen = 256

	// MaxOutputLen is the largest block a single PRF generate call may
	// produce.
	MaxOutputLen = 1024
)

// Generator state sentinels
const (
	// StateMagic marks a generator state as seeded and live. Any other value
	// means zeroed, uninitialized or wiped.
	StateMagic uint32 = 0x11b07734
)

// ChaCha parameters
const (
	// ChaChaKeySize is the size of a ChaCha key in bytes
	ChaChaKeySize = 32

	// ChaChaNonceSize is the per-state nonce carried in the seed material.
	// The remaining 4 bytes of the 96-bit nonce hold the block index.
	ChaChaNonceSize = 8

	// ChaChaBlockSize is the size of one ChaCha keystream block
	ChaChaBlockSize = 64

	// ChaChaBlocksPerCall is how many keystream blocks one generate call
	// produces.
	ChaChaBlocksPerCall = 16

	// ChaChaStateBytes is the seed material consumed by a ChaCha PRF
	ChaChaStateBytes = ChaChaKeySize + ChaChaNonceSize

	// ChaChaOutputLen is the output of one ChaCha PRF generate call
	ChaChaOutputLen = ChaChaBlockSize * ChaChaBlocksPerCall
)

// XOF-based PRF parameters
const (
	// XOFKeySize is the key size used by the BLAKE3 and SHAKE256 PRFs
	XOFKeySize = 32

	// XOFOutputLen is the output of one XOF PRF generate call
	XOFOutputLen = 1024
)

// Entropy source defaults
const (
	// DefaultURandomPath is the random device read when no override is set
	DefaultURandomPath = "/dev/urandom"

	// EGDMaxRequest is the largest byte count a single EGD request may ask
	// for; the count travels in one byte.
	EGDMaxRequest = 255

	// EGDTimeoutSeconds bounds one EGD round trip
	EGDTimeoutSeconds = 10

	// RDRANDGranularity is the read size of the CPU RNG instruction
	RDRANDGranularity = 8

	// RDRANDRetries is how many times an underflowing RDRAND is retried
	RDRANDRetries = 10
)
