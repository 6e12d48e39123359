// Package ottery implements a fast, fork-aware cryptographically secure
// random byte generator.
//
// A State keys a pseudorandom function from the platform entropy sources and
// serves bytes from the keystream it produces. Served bytes are erased from
// the state as they are handed out, so a later compromise of the state does
// not reveal earlier output. The state notices when the process identity
// changes (a fork) and reseeds before serving anything, so parent and child
// never share a stream.
//
// Most programs use the package-level functions, which share one lazily
// initialised State:
//
//	var key [32]byte
//	ottery.RandBytes(key[:])
//	n := ottery.Uint32N(6)
//
// Unrecoverable failures, such as every entropy source failing, are
// reported to a FatalHandler. The default handler panics.
package ottery

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sanyaade-iot/libottery/internal/constants"
	qerrors "github.com/sanyaade-iot/libottery/internal/errors"
	"github.com/sanyaade-iot/libottery/internal/memclear"
	"github.com/sanyaade-iot/libottery/pkg/cpucap"
	"github.com/sanyaade-iot/libottery/pkg/entropy"
	"github.com/sanyaade-iot/libottery/pkg/metrics"
	"github.com/sanyaade-iot/libottery/pkg/prf"
)

// State is one independent random stream. It is safe for concurrent use.
//
// The zero State must be initialised with Init before use. A State must not
// be copied after first use.
//
// Fork detection compares process ids. A fork that happens while another
// goroutine holds the state's lock leaves the lock held in the child; do not
// fork while a call into the State is in flight.
type State struct {
	mu sync.Mutex

	// buffer holds the unserved rest of the latest PRF block.
	buffer [constants.MaxOutputLen]byte
	// state is the PRF's opaque keyed state.
	state [constants.MaxStateLen]byte
	// prf is the active backend. Copied, never shared.
	prf prf.PRF

	// blockCounter is the index of the next block to generate.
	blockCounter uint32
	// counterWrapped is set once every index has been used for this key.
	counterWrapped bool
	// pos is the offset of the next unserved byte in buffer.
	// pos == prf.OutputLen means the buffer is exhausted.
	pos int
	// magic is constants.StateMagic while the state is seeded and 0 while
	// it is not. Any other value is corruption.
	magic uint32
	// pid is the process that performed the last full reseed.
	pid int

	// entropySrcFlags is the union of the flags of every source that fed
	// the current key.
	entropySrcFlags entropy.Flag
	// lastOSRNGFlags is the result of the latest gather.
	lastOSRNGFlags entropy.Flag
	osrngConfig    entropy.Config

	gatherer entropy.Gatherer
	getpid   func() int
	fatal    FatalHandler
	obs      *metrics.Observer
}

// New creates and seeds a State.
func New(opts ...Option) (*State, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &State{}
	if err := s.Init(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// Init configures s and seeds it from the entropy sources. Any previous
// contents are wiped first. On error s is left unusable.
func (s *State) Init(cfg Config) error {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return qerrors.NewStateError("init", err)
	}

	p, err := cfg.selectPRF(cpucap.Probe())
	if err != nil {
		return qerrors.NewStateError("init", err)
	}
	if cfg.ManualPRF.IsZero() {
		if res := prf.RunSelfTest(); !res.Passed {
			return qerrors.NewStateError("init", fmt.Errorf("%w: PRF self test failed: %s",
				qerrors.ErrStateCorrupt, strings.Join(res.Errors, "; ")))
		}
	}

	obs := metrics.NewObserver(metrics.ObserverConfig{
		Collector: cfg.Collector,
		Tracer:    cfg.Tracer,
		Logger:    cfg.Logger,
		PRF:       p.Impl,
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	s.wipeLocked()
	s.prf = p
	s.osrngConfig = cfg.Entropy
	s.gatherer = cfg.Gatherer
	s.getpid = cfg.getpid
	s.fatal = cfg.FatalHandler
	s.obs = obs

	ctx, done := obs.OnInit(context.Background())
	err = s.reseedLocked(ctx, metrics.ReseedInit)
	done(err)
	if err != nil {
		s.wipeLocked()
		return err
	}
	return nil
}

// Reseed replaces the key with fresh material from the entropy sources.
func (s *State) Reseed() error {
	return s.do(func() (ErrorCode, error) {
		if s.prf.IsZero() {
			return ErrStateInit, qerrors.NewStateError("reseed", qerrors.ErrStateNotInitialized)
		}
		code := ErrAccessStrongRNG
		switch s.magic {
		case constants.StateMagic:
		case 0:
			code = ErrInitStrongRNG
		default:
			return ErrInternal, qerrors.NewStateError("reseed",
				fmt.Errorf("%w: magic %#x", qerrors.ErrStateCorrupt, s.magic))
		}
		if err := s.reseedLocked(context.Background(), metrics.ReseedExplicit); err != nil {
			return code, err
		}
		return ErrNone, nil
	})
}

// Stir rekeys the PRF from its own next block. Afterwards the previous key,
// and so all output served before the call, cannot be reconstructed from
// the state.
func (s *State) Stir() error {
	return s.do(func() (ErrorCode, error) {
		if code, err := s.prepareLocked(); err != nil {
			return code, err
		}
		if err := s.unwrapLocked(); err != nil {
			return ErrAccessStrongRNG, err
		}
		s.rekeyLocked(nil)
		s.obs.OnStir()
		return ErrNone, nil
	})
}

// AddSeed mixes seed into the key. An empty seed mixes in fresh material
// from the entropy sources instead. The state stays seeded if gathering
// fresh material fails; the error is returned without calling the fatal
// handler.
func (s *State) AddSeed(seed []byte) error {
	return s.do(func() (ErrorCode, error) {
		if code, err := s.prepareLocked(); err != nil {
			return code, err
		}

		var flags entropy.Flag
		if len(seed) == 0 {
			buf := make([]byte, s.gatherer.BufSize(s.prf.StateBytes))
			defer memclear.Clear(buf)

			n, fl, err := s.gatherLocked(context.Background(), buf)
			if err != nil {
				return ErrNone, qerrors.NewStateError("add seed", err)
			}
			seed, flags = buf[:n], fl
		}

		total := len(seed)
		for len(seed) > 0 {
			if err := s.unwrapLocked(); err != nil {
				return ErrAccessStrongRNG, err
			}
			m := min(len(seed), s.prf.StateBytes)
			s.rekeyLocked(seed[:m])
			seed = seed[m:]
		}

		if flags != 0 {
			s.entropySrcFlags |= flags
			s.lastOSRNGFlags = flags
		}
		s.obs.OnSeedAdded(total)
		return ErrNone, nil
	})
}

// Wipe erases every key, buffer and setting of s. A wiped State must be
// initialised again before use.
func (s *State) Wipe() {
	s.mu.Lock()
	obs := s.obs
	s.wipeLocked()
	s.mu.Unlock()

	if obs != nil {
		obs.OnWipe()
	}
}

// Implementation returns the active PRF descriptor.
func (s *State) Implementation() prf.PRF {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prf
}

// EntropyFlags returns the union of the flags of every entropy source that
// contributed to the current key.
func (s *State) EntropyFlags() entropy.Flag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entropySrcFlags
}

// LastEntropyFlags returns the flags of the most recent gather.
func (s *State) LastEntropyFlags() entropy.Flag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastOSRNGFlags
}

// do runs fn under the lock. A failure with a code other than ErrNone is
// reported to the fatal handler after the lock is released.
func (s *State) do(fn func() (ErrorCode, error)) error {
	s.mu.Lock()
	code, err := fn()
	handler, obs := s.fatal, s.obs
	s.mu.Unlock()

	if err != nil && code != ErrNone {
		if obs != nil {
			obs.OnFatal(code.String(), err)
		}
		if handler == nil {
			handler = getFatalHandler()
		}
		handler(code)
	}
	return err
}

// prepareLocked makes s ready to serve: configured, seeded, and seeded by
// the current process.
func (s *State) prepareLocked() (ErrorCode, error) {
	if s.prf.IsZero() {
		return ErrStateInit, qerrors.NewStateError("prepare", qerrors.ErrStateNotInitialized)
	}
	if s.pos < 0 || s.pos > s.prf.OutputLen {
		return ErrInternal, qerrors.NewStateError("prepare",
			fmt.Errorf("%w: cursor %d outside [0, %d]", qerrors.ErrStateCorrupt, s.pos, s.prf.OutputLen))
	}

	switch s.magic {
	case constants.StateMagic:
	case 0:
		// Unseeded: a previous reseed failed and destroyed the key.
		if err := s.reseedLocked(context.Background(), metrics.ReseedInit); err != nil {
			return ErrInitStrongRNG, err
		}
		return ErrNone, nil
	default:
		return ErrInternal, qerrors.NewStateError("prepare",
			fmt.Errorf("%w: magic %#x", qerrors.ErrStateCorrupt, s.magic))
	}

	if s.pid != s.getpid() {
		if err := s.reseedLocked(context.Background(), metrics.ReseedFork); err != nil {
			return ErrAccessStrongRNG | ErrFlagPostForkReseed, err
		}
	}
	return ErrNone, nil
}

// reseedLocked performs a full reseed. On failure the key is destroyed and
// the state left unseeded.
func (s *State) reseedLocked(ctx context.Context, reason metrics.ReseedReason) error {
	ctx, done := s.obs.OnReseed(ctx, reason)
	err := s.fullReseedLocked(ctx)
	if err != nil {
		s.clearKeyLocked()
	}
	done(err)
	return err
}

func (s *State) fullReseedLocked(ctx context.Context) error {
	p := s.prf
	buf := make([]byte, s.gatherer.BufSize(p.StateBytes))
	defer memclear.Clear(buf)

	n, flags, err := s.gatherLocked(ctx, buf)
	if err != nil {
		return qerrors.NewStateError("reseed", err)
	}

	p.Setup(s.state[:p.StateLen], buf[:p.StateBytes])
	s.blockCounter = 0
	s.counterWrapped = false

	// Every source's bytes feed the key, not only the first StateBytes.
	for off := p.StateBytes; off < n; off += p.StateBytes {
		end := min(off+p.StateBytes, n)
		s.rekeyLocked(buf[off:end])
	}

	s.blockCounter = 0
	s.pos = p.OutputLen
	s.pid = s.getpid()
	s.entropySrcFlags = flags
	s.lastOSRNGFlags = flags
	s.magic = constants.StateMagic
	return nil
}

// gatherLocked fills buf from the entropy sources, requesting StateBytes
// from each.
func (s *State) gatherLocked(ctx context.Context, buf []byte) (int, entropy.Flag, error) {
	want := s.prf.StateBytes

	_, done := s.obs.OnGather(ctx)
	n, flags, err := s.gatherer.Gather(s.osrngConfig, 0, buf, want)
	if err == nil && (n < want || n > len(buf)) {
		err = fmt.Errorf("%w: gathered %d bytes into %d, need %d",
			qerrors.ErrEntropyUnavailable, n, len(buf), want)
	}
	done(n, flags.String(), err)
	if err != nil {
		return 0, 0, err
	}
	return n, flags, nil
}

// unwrapLocked reseeds if every block index of the current key is spent.
func (s *State) unwrapLocked() error {
	if !s.counterWrapped {
		return nil
	}
	s.obs.OnCounterWrap()
	return s.reseedLocked(context.Background(), metrics.ReseedCounterWrap)
}

// refillLocked generates the next block into buffer.
func (s *State) refillLocked() error {
	if err := s.unwrapLocked(); err != nil {
		return err
	}
	p := s.prf
	p.Generate(s.state[:p.StateLen], s.buffer[:p.OutputLen], s.blockCounter)
	s.obs.OnBlock()
	s.blockCounter++
	if s.blockCounter == 0 {
		s.counterWrapped = true
	}
	s.pos = 0
	return nil
}

// rekeyLocked replaces the key with the next keystream block XORed with
// extra, which is at most StateBytes long. The caller has ruled out a
// wrapped counter.
func (s *State) rekeyLocked(extra []byte) {
	p := s.prf
	block := s.buffer[:p.OutputLen]
	p.Generate(s.state[:p.StateLen], block, s.blockCounter)
	s.obs.OnBlock()
	for i, b := range extra {
		block[i] ^= b
	}
	p.Setup(s.state[:p.StateLen], block[:p.StateBytes])
	memclear.Clear(block)

	s.blockCounter = 0
	s.counterWrapped = false
	s.pos = p.OutputLen
}

// clearKeyLocked destroys the key material but keeps the configuration, so
// the next call can try to reseed.
func (s *State) clearKeyLocked() {
	memclear.ClearMultiple(s.buffer[:], s.state[:])
	s.blockCounter = 0
	s.counterWrapped = false
	s.pos = s.prf.OutputLen
	s.magic = 0
	s.pid = 0
	s.entropySrcFlags = 0
}

// wipeLocked destroys everything.
func (s *State) wipeLocked() {
	s.clearKeyLocked()
	s.prf = prf.PRF{}
	s.pos = 0
	s.lastOSRNGFlags = 0
	s.osrngConfig = entropy.Config{}
	s.gatherer = nil
	s.getpid = nil
	s.fatal = nil
	s.obs = nil
}
