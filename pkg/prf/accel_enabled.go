//go:build !ottery_nosimd
// +build !ottery_nosimd

// This file is compiled when the "ottery_nosimd" build tag is NOT specified.
// It registers the ChaCha20 backend built on golang.org/x/crypto/chacha20,
// which carries vector assembly on arm64, ppc64le and s390x.
package prf

import (
	"golang.org/x/crypto/chacha20"

	"github.com/sanyaade-iot/libottery/internal/constants"
	"github.com/sanyaade-iot/libottery/internal/memclear"
	"github.com/sanyaade-iot/libottery/pkg/cpucap"
)

// ChaCha20XCrypto produces the same blocks as ChaCha20Portable.
var ChaCha20XCrypto = PRF{
	Name:           "CHACHA20",
	Impl:           "CHACHA20-XCRYPTO",
	Flavor:         "simd",
	StateLen:       constants.ChaChaStateBytes,
	StateBytes:     constants.ChaChaStateBytes,
	OutputLen:      constants.ChaChaOutputLen,
	RequiredCPUCap: cpucap.SIMD,
	Setup: func(state, key []byte) {
		copy(state[:constants.ChaChaStateBytes], key[:constants.ChaChaStateBytes])
	},
	Generate: xcryptoGenerate,
}

// SIMDEnabled reports whether accelerated backends are compiled in.
func SIMDEnabled() bool { return true }

func accelerated() []PRF {
	return []PRF{ChaCha20XCrypto}
}

func xcryptoGenerate(state, out []byte, idx uint32) {
	var nonce [chacha20.NonceSize]byte
	nonce[0] = byte(idx)
	nonce[1] = byte(idx >> 8)
	nonce[2] = byte(idx >> 16)
	nonce[3] = byte(idx >> 24)
	copy(nonce[4:], state[constants.ChaChaKeySize:constants.ChaChaStateBytes])

	// never errors with correct key and nonce sizes
	c, _ := chacha20.NewUnauthenticatedCipher(state[:constants.ChaChaKeySize], nonce[:])

	// Zero the destination such that it is written with just the keystream.
	block := out[:constants.ChaChaOutputLen]
	memclear.Clear(block)
	c.XORKeyStream(block, block)
	memclear.Clear(nonce[:])
}
