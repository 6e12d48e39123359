// chacha.go implements the portable ChaCha PRFs.
//
// The key material is a 32-byte key followed by an 8-byte nonce. Block index
// idx selects the 96-bit RFC 8439 nonce LE32(idx) || nonce8, and one
// Generate call emits keystream blocks 0..15 under that nonce. Distinct idx
// values therefore never overlap, and the output is bit-for-bit what any
// RFC 8439 ChaCha20 implementation produces for the same key and nonce.
package prf

import (
	"encoding/binary"
	"math/bits"

	"github.com/sanyaade-iot/libottery/internal/constants"
	"github.com/sanyaade-iot/libottery/internal/memclear"
)

// Portable ChaCha descriptors.
var (
	ChaCha8Portable  = chachaPortable(8)
	ChaCha12Portable = chachaPortable(12)
	ChaCha20Portable = chachaPortable(20)
)

// "expand 32-byte k"
const (
	sigma0 = 0x61707865
	sigma1 = 0x3320646e
	sigma2 = 0x79622d32
	sigma3 = 0x6b206574
)

// chachaStateLen holds the 16-word input matrix with counter and index words
// left blank.
const chachaStateLen = 16 * 4

func chachaPortable(rounds int) PRF {
	name := chachaName(rounds)
	return PRF{
		Name:       name,
		Impl:       name + "-NOSIMD",
		Flavor:     "portable",
		StateLen:   chachaStateLen,
		StateBytes: constants.ChaChaStateBytes,
		OutputLen:  constants.ChaChaOutputLen,
		Setup:      chachaSetup,
		Generate: func(state, out []byte, idx uint32) {
			chachaGenerate(state, out, idx, rounds)
		},
	}
}

func chachaName(rounds int) string {
	switch rounds {
	case 8:
		return "CHACHA8"
	case 12:
		return "CHACHA12"
	default:
		return "CHACHA20"
	}
}

func chachaSetup(state, key []byte) {
	binary.LittleEndian.PutUint32(state[0:], sigma0)
	binary.LittleEndian.PutUint32(state[4:], sigma1)
	binary.LittleEndian.PutUint32(state[8:], sigma2)
	binary.LittleEndian.PutUint32(state[12:], sigma3)
	copy(state[16:48], key[:constants.ChaChaKeySize])
	// Word 12 is the block counter and word 13 the index; both are filled
	// per call.
	memclear.Clear(state[48:56])
	copy(state[56:64], key[constants.ChaChaKeySize:constants.ChaChaStateBytes])
}

func chachaGenerate(state, out []byte, idx uint32, rounds int) {
	var in, x [16]uint32
	for i := range in {
		in[i] = binary.LittleEndian.Uint32(state[4*i:])
	}
	in[13] = idx

	for blk := 0; blk < constants.ChaChaBlocksPerCall; blk++ {
		in[12] = uint32(blk)
		x = in
		for r := 0; r < rounds; r += 2 {
			// Column round
			x[0], x[4], x[8], x[12] = quarterRound(x[0], x[4], x[8], x[12])
			x[1], x[5], x[9], x[13] = quarterRound(x[1], x[5], x[9], x[13])
			x[2], x[6], x[10], x[14] = quarterRound(x[2], x[6], x[10], x[14])
			x[3], x[7], x[11], x[15] = quarterRound(x[3], x[7], x[11], x[15])
			// Diagonal round
			x[0], x[5], x[10], x[15] = quarterRound(x[0], x[5], x[10], x[15])
			x[1], x[6], x[11], x[12] = quarterRound(x[1], x[6], x[11], x[12])
			x[2], x[7], x[8], x[13] = quarterRound(x[2], x[7], x[8], x[13])
			x[3], x[4], x[9], x[14] = quarterRound(x[3], x[4], x[9], x[14])
		}
		o := out[blk*constants.ChaChaBlockSize:]
		for i := range x {
			binary.LittleEndian.PutUint32(o[4*i:], x[i]+in[i])
		}
	}

	memclear.ClearWords(in[:])
	memclear.ClearWords(x[:])
}

func quarterRound(a, b, c, d uint32) (uint32, uint32, uint32, uint32) {
	a += b
	d ^= a
	d = bits.RotateLeft32(d, 16)
	c += d
	b ^= c
	b = bits.RotateLeft32(b, 12)
	a += b
	d ^= a
	d = bits.RotateLeft32(d, 8)
	c += d
	b ^= c
	b = bits.RotateLeft32(b, 7)
	return a, b, c, d
}
