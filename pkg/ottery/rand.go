package ottery

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"

	qerrors "github.com/sanyaade-iot/libottery/internal/errors"
	"github.com/sanyaade-iot/libottery/internal/memclear"
)

// Read fills p with random bytes and returns len(p). It implements
// io.Reader.
//
// Read fails only through the fatal path: if the fatal handler returns, p
// is zeroed and the error is returned.
func (s *State) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	err := s.do(func() (ErrorCode, error) {
		return s.readLocked(p)
	})
	if err != nil {
		memclear.Clear(p)
		return 0, err
	}
	return len(p), nil
}

// RandBytes fills p with random bytes. Failures go to the fatal handler;
// if it returns, p is zeroed.
func (s *State) RandBytes(p []byte) {
	_, _ = s.Read(p)
}

// Uint32 returns a uniform random uint32, or 0 if the fatal handler
// returned.
func (s *State) Uint32() uint32 {
	var b [4]byte
	if _, err := s.Read(b[:]); err != nil {
		return 0
	}
	v := binary.LittleEndian.Uint32(b[:])
	memclear.Clear(b[:])
	return v
}

// Uint64 returns a uniform random uint64, or 0 if the fatal handler
// returned.
func (s *State) Uint64() uint64 {
	v, _ := s.uint64()
	return v
}

// Uint32N returns a uniform random uint32 in [0, n). n must be positive.
func (s *State) Uint32N(n uint32) uint32 {
	if n == 0 {
		s.invalidArgument("Uint32N", "n must be positive")
		return 0
	}
	return uint32(s.uint64n(uint64(n)))
}

// Uint64N returns a uniform random uint64 in [0, n). n must be positive.
func (s *State) Uint64N(n uint64) uint64 {
	if n == 0 {
		s.invalidArgument("Uint64N", "n must be positive")
		return 0
	}
	return s.uint64n(n)
}

// Range returns a uniform random uint32 in [0, top].
func (s *State) Range(top uint32) uint32 {
	if top == math.MaxUint32 {
		return s.Uint32()
	}
	return uint32(s.uint64n(uint64(top) + 1))
}

// Range64 returns a uniform random uint64 in [0, top].
func (s *State) Range64(top uint64) uint64 {
	if top == math.MaxUint64 {
		return s.Uint64()
	}
	return s.uint64n(top + 1)
}

// readLocked serves len(p) bytes, erasing each served region of the
// buffer as it goes.
func (s *State) readLocked(p []byte) (ErrorCode, error) {
	if code, err := s.prepareLocked(); err != nil {
		return code, err
	}

	outLen := s.prf.OutputLen
	n := 0
	for n < len(p) {
		if s.pos == outLen {
			if err := s.refillLocked(); err != nil {
				return ErrAccessStrongRNG, err
			}
		}
		c := copy(p[n:], s.buffer[s.pos:outLen])
		memclear.Clear(s.buffer[s.pos : s.pos+c])
		s.pos += c
		n += c
	}
	s.obs.OnServe(n)
	return ErrNone, nil
}

func (s *State) uint64() (uint64, bool) {
	var b [8]byte
	if _, err := s.Read(b[:]); err != nil {
		return 0, false
	}
	v := binary.LittleEndian.Uint64(b[:])
	memclear.Clear(b[:])
	return v, true
}

// uint64n returns a uniform value in [0, n) by multiply-and-reject
// (Lemire). n is positive.
func (s *State) uint64n(n uint64) uint64 {
	if n&(n-1) == 0 {
		v, _ := s.uint64()
		return v & (n - 1)
	}

	x, ok := s.uint64()
	if !ok {
		return 0
	}
	hi, lo := bits.Mul64(x, n)
	if lo < n {
		thresh := -n % n
		for lo < thresh {
			if x, ok = s.uint64(); !ok {
				return 0
			}
			hi, lo = bits.Mul64(x, n)
		}
	}
	return hi
}

func (s *State) invalidArgument(op, msg string) {
	_ = s.do(func() (ErrorCode, error) {
		return ErrInvalidArgument, qerrors.NewStateError(op,
			fmt.Errorf("%w: %s", qerrors.ErrInvalidArgument, msg))
	})
}
