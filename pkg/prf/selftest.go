// selftest.go implements the PRF power-on self test.
//
// The self test checks every portable ChaCha against a known answer and
// every compiled accelerated backend against its portable counterpart. A
// backend that fails must not be used: a broken PRF would emit predictable
// or repeated output that no caller can detect.
package prf

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/sanyaade-iot/libottery/internal/constants"
	"github.com/sanyaade-iot/libottery/pkg/cpucap"
)

// Known answers for an all-zero key, all-zero nonce and block index 0: the
// first keystream block.
var (
	katChaCha8, _  = hex.DecodeString("3e00ef2f895f40d67f5bb8e81f09a5a12c840ec3ce9a7f3b181be188ef711a1e984ce172b9216f419f445367456d5619314a42a3da86b001387bfdb80e0cfe42")
	katChaCha12, _ = hex.DecodeString("9bf49a6a0755f953811fce125f2683d50429c3bb49e074147e0089a52eae155f0564f879d27ae3c02ce82834acfa8c793a629f2ca0de6919610be82f411326be")
	katChaCha20, _ = hex.DecodeString("76b8e0ada0f13d90405d6ae55386bd28bdd219b8a08ded1aa836efcc8b770dc7da41597c5157488d7724e03fb8d84a376a43b8f41518a11cc387b669b2ee6586")
)

// SelfTestResult contains the results of the PRF self test.
type SelfTestResult struct {
	Passed bool
	// Checked lists the implementations that were exercised.
	Checked []string
	Errors  []string
}

var (
	selfTestResult *SelfTestResult
	selfTestOnce   sync.Once
)

// RunSelfTest executes the self test once per process and returns the cached
// result.
func RunSelfTest() *SelfTestResult {
	selfTestOnce.Do(func() {
		selfTestResult = SelfTest()
	})
	return selfTestResult
}

// SelfTest executes the self test unconditionally.
func SelfTest() *SelfTestResult {
	res := &SelfTestResult{Passed: true}
	fail := func(format string, args ...interface{}) {
		res.Passed = false
		res.Errors = append(res.Errors, fmt.Sprintf(format, args...))
	}

	kats := []struct {
		p    PRF
		want []byte
	}{
		{ChaCha8Portable, katChaCha8},
		{ChaCha12Portable, katChaCha12},
		{ChaCha20Portable, katChaCha20},
	}
	for _, kat := range kats {
		res.Checked = append(res.Checked, kat.p.Impl)
		out := Block(kat.p, make([]byte, kat.p.StateBytes), 0)
		if !bytes.Equal(out[:len(kat.want)], kat.want) {
			fail("%s: known answer mismatch", kat.p.Impl)
		}
	}

	for _, p := range append(Accelerated(), BLAKE3, SHAKE256) {
		res.Checked = append(res.Checked, p.Impl)
		if err := p.Validate(); err != nil {
			fail("%v", err)
			continue
		}
		if err := checkDeterminism(p); err != nil {
			fail("%s: %v", p.Impl, err)
		}
	}

	for _, p := range Accelerated() {
		ref, err := Lookup(p.Name)
		if err != nil {
			fail("%s: no portable reference: %v", p.Impl, err)
			continue
		}
		if err := CompareImplementations(ref, p); err != nil {
			fail("%s: %v", p.Impl, err)
		}
	}

	return res
}

// Block keys p with key and returns block idx. It allocates and is meant for
// tests and tooling, not for the generator's hot path.
func Block(p PRF, key []byte, idx uint32) []byte {
	state := make([]byte, constants.MaxStateLen)
	out := make([]byte, p.OutputLen)
	p.Setup(state[:p.StateLen], key)
	p.Generate(state[:p.StateLen], out, idx)
	return out
}

// CompareImplementations checks that two implementations of the same
// algorithm agree on a sample of keys and block indices.
func CompareImplementations(ref, impl PRF) error {
	if ref.StateBytes != impl.StateBytes || ref.OutputLen != impl.OutputLen {
		return fmt.Errorf("size mismatch with %s", ref.Impl)
	}
	idxs := []uint32{0, 1, 2, 0x7fffffff, 0xfffffffe, 0xffffffff}
	for k := 0; k < 4; k++ {
		key := sampleKey(ref.StateBytes, byte(k))
		for _, idx := range idxs {
			if !bytes.Equal(Block(ref, key, idx), Block(impl, key, idx)) {
				return fmt.Errorf("output differs from %s at key %d idx %#x", ref.Impl, k, idx)
			}
		}
	}
	return nil
}

// Usable reports whether p may run on a CPU offering caps.
func Usable(p PRF, caps cpucap.Cap) bool {
	return caps.Has(p.RequiredCPUCap)
}

func checkDeterminism(p PRF) error {
	key := sampleKey(p.StateBytes, 0x5a)
	a := Block(p, key, 7)
	if !bytes.Equal(a, Block(p, key, 7)) {
		return fmt.Errorf("not deterministic")
	}
	if bytes.Equal(a, Block(p, key, 8)) {
		return fmt.Errorf("adjacent indices produce identical blocks")
	}
	return nil
}

func sampleKey(n int, seed byte) []byte {
	key := make([]byte, n)
	for i := range key {
		key[i] = seed + byte(i)*31
	}
	return key
}
