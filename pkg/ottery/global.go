package ottery

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"

	qerrors "github.com/sanyaade-iot/libottery/internal/errors"
	"github.com/sanyaade-iot/libottery/internal/memclear"
	"github.com/sanyaade-iot/libottery/pkg/entropy"
	"github.com/sanyaade-iot/libottery/pkg/prf"
)

var (
	globalState  State
	globalMu     sync.RWMutex
	globalSeeded atomic.Bool
)

// Init (re)initialises the package-level state with cfg. Calling it is
// optional: the first use of a package-level function initialises the state
// with DefaultConfig.
func Init(cfg Config) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	globalSeeded.Store(false)
	if err := globalState.Init(cfg); err != nil {
		return err
	}
	globalSeeded.Store(true)
	return nil
}

// ensureGlobal initialises the package-level state on first use. A failure
// goes to the fatal handler with ErrFlagGlobalInit set.
func ensureGlobal() error {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalSeeded.Load() {
		return nil
	}

	if err := globalState.Init(DefaultConfig()); err != nil {
		code := ErrStateInit
		if errors.Is(err, qerrors.ErrEntropyUnavailable) {
			code = ErrInitStrongRNG
		}
		getFatalHandler()(code | ErrFlagGlobalInit)
		return err
	}
	globalSeeded.Store(true)
	return nil
}

// withGlobal runs fn against the seeded package-level state. fn runs under
// the read lock, so Init and Wipe wait for it.
func withGlobal(fn func(s *State) error) error {
	for {
		globalMu.RLock()
		if globalSeeded.Load() {
			defer globalMu.RUnlock()
			return fn(&globalState)
		}
		globalMu.RUnlock()

		if err := ensureGlobal(); err != nil {
			return err
		}
	}
}

// globalValue returns fn's result, or the zero value if the package-level
// state cannot be initialised.
func globalValue[T any](fn func(s *State) T) T {
	var v T
	_ = withGlobal(func(s *State) error {
		v = fn(s)
		return nil
	})
	return v
}

// Read fills p from the package-level state.
func Read(p []byte) (int, error) {
	var n int
	err := withGlobal(func(s *State) (err error) {
		n, err = s.Read(p)
		return err
	})
	if err != nil {
		memclear.Clear(p)
		return 0, err
	}
	return n, nil
}

// RandBytes fills p from the package-level state.
func RandBytes(p []byte) {
	_, _ = Read(p)
}

// Uint32 returns a uniform random uint32 from the package-level state.
func Uint32() uint32 {
	return globalValue((*State).Uint32)
}

// Uint64 returns a uniform random uint64 from the package-level state.
func Uint64() uint64 {
	return globalValue((*State).Uint64)
}

// Uint32N returns a uniform random uint32 in [0, n) from the package-level
// state.
func Uint32N(n uint32) uint32 {
	return globalValue(func(s *State) uint32 { return s.Uint32N(n) })
}

// Uint64N returns a uniform random uint64 in [0, n) from the package-level
// state.
func Uint64N(n uint64) uint64 {
	return globalValue(func(s *State) uint64 { return s.Uint64N(n) })
}

// Range returns a uniform random uint32 in [0, top] from the package-level
// state.
func Range(top uint32) uint32 {
	return globalValue(func(s *State) uint32 { return s.Range(top) })
}

// Range64 returns a uniform random uint64 in [0, top] from the
// package-level state.
func Range64(top uint64) uint64 {
	return globalValue(func(s *State) uint64 { return s.Range64(top) })
}

// Stir stirs the package-level state.
func Stir() error {
	return withGlobal((*State).Stir)
}

// AddSeed mixes seed into the package-level state.
func AddSeed(seed []byte) error {
	return withGlobal(func(s *State) error { return s.AddSeed(seed) })
}

// Implementation returns the PRF of the package-level state.
func Implementation() prf.PRF {
	return globalValue((*State).Implementation)
}

// EntropyFlags returns the entropy flags of the package-level state.
func EntropyFlags() entropy.Flag {
	return globalValue((*State).EntropyFlags)
}

// Wipe erases the package-level state. It waits for package-level calls in
// flight, and the next use initialises the state again. A fatal handler
// must not call it.
func Wipe() {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalSeeded.Store(false)
	globalState.Wipe()
}

type globalReader struct{}

func (globalReader) Read(p []byte) (int, error) {
	return Read(p)
}

// Reader returns an io.Reader backed by the package-level state.
func Reader() io.Reader {
	return globalReader{}
}
