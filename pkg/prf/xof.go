// xof.go implements PRFs on top of extendable-output functions.
//
// Both derive block idx as XOF(key, LE32(idx)) truncated to OutputLen. They
// are never chosen by capability-driven selection and must be requested by
// name.
package prf

import (
	"encoding/binary"

	"github.com/cloudflare/circl/xof"
	"lukechampine.com/blake3"

	"github.com/sanyaade-iot/libottery/internal/constants"
)

// BLAKE3 uses the keyed BLAKE3 XOF.
var BLAKE3 = PRF{
	Name:       "BLAKE3",
	Impl:       "BLAKE3-KEYED",
	Flavor:     "xof",
	StateLen:   constants.XOFKeySize,
	StateBytes: constants.XOFKeySize,
	OutputLen:  constants.XOFOutputLen,
	Setup:      xofSetup,
	Generate: func(state, out []byte, idx uint32) {
		var ctr [4]byte
		binary.LittleEndian.PutUint32(ctr[:], idx)
		h := blake3.New(constants.XOFKeySize, state[:constants.XOFKeySize])
		h.Write(ctr[:])
		// OutputReader.Read never fails
		_, _ = h.XOF().Read(out[:constants.XOFOutputLen])
	},
}

// SHAKE256 absorbs key || LE32(idx) and squeezes one block.
var SHAKE256 = PRF{
	Name:       "SHAKE256",
	Impl:       "SHAKE256-CIRCL",
	Flavor:     "xof",
	StateLen:   constants.XOFKeySize,
	StateBytes: constants.XOFKeySize,
	OutputLen:  constants.XOFOutputLen,
	Setup:      xofSetup,
	Generate: func(state, out []byte, idx uint32) {
		var ctr [4]byte
		binary.LittleEndian.PutUint32(ctr[:], idx)
		x := xof.SHAKE256.New()
		_, _ = x.Write(state[:constants.XOFKeySize])
		_, _ = x.Write(ctr[:])
		_, _ = x.Read(out[:constants.XOFOutputLen])
	},
}

func xofSetup(state, key []byte) {
	copy(state[:constants.XOFKeySize], key[:constants.XOFKeySize])
}
