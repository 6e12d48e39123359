package ottery

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	qerrors "github.com/sanyaade-iot/libottery/internal/errors"
	"github.com/sanyaade-iot/libottery/pkg/entropy"
	"github.com/sanyaade-iot/libottery/pkg/metrics"
	"github.com/sanyaade-iot/libottery/pkg/prf"
)

// fakeGatherer hands out a fixed pattern. The first chunk of every gather
// is the pattern XORed with the call number; further chunks (when chunks >
// 1) are additionally XORed with tweak.
type fakeGatherer struct {
	mu      sync.Mutex
	pattern []byte
	flags   entropy.Flag
	chunks  int
	tweak   byte
	fail    bool
	calls   int
}

func newFakeGatherer(pattern []byte) *fakeGatherer {
	return &fakeGatherer{
		pattern: pattern,
		flags:   entropy.FlagStrong | entropy.DomOS | entropy.SrcRandomDev,
		chunks:  1,
	}
}

func (g *fakeGatherer) BufSize(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return n * g.chunks
}

func (g *fakeGatherer) Gather(_ entropy.Config, _ entropy.Flag, buf []byte, n int) (int, entropy.Flag, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	call := g.calls
	g.calls++
	if g.fail {
		return 0, 0, fmt.Errorf("%w: test source offline", qerrors.ErrEntropyUnavailable)
	}
	total := n * g.chunks
	for i := 0; i < total; i++ {
		b := g.pattern[i%len(g.pattern)] ^ byte(call*0x3b)
		if i >= n {
			b ^= g.tweak
		}
		buf[i] = b
	}
	return total, g.flags, nil
}

func (g *fakeGatherer) setFail(v bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail = v
}

func (g *fakeGatherer) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// recorder notes every block index a PRF is asked for.
type recorder struct {
	mu   sync.Mutex
	idxs []uint32
}

func (r *recorder) add(idx uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.idxs = append(r.idxs, idx)
}

func (r *recorder) indices() []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uint32, len(r.idxs))
	copy(out, r.idxs)
	return out
}

// smallChaCha is portable ChaCha20 cut down to a 32-byte key (zero nonce)
// and 64-byte output, recording every Generate call.
func smallChaCha(rec *recorder) prf.PRF {
	base := prf.ChaCha20Portable
	return prf.PRF{
		Name:       "CHACHA20",
		Impl:       "CHACHA20-SMALL",
		Flavor:     "test",
		StateLen:   base.StateLen,
		StateBytes: 32,
		OutputLen:  64,
		Setup: func(state, key []byte) {
			var k [40]byte
			copy(k[:], key)
			base.Setup(state, k[:])
		},
		Generate: func(state, out []byte, idx uint32) {
			if rec != nil {
				rec.add(idx)
			}
			var block [1024]byte
			base.Generate(state, block[:], idx)
			copy(out, block[:64])
		},
	}
}

// smallChaChaBlock is what smallChaCha emits for key at idx.
func smallChaChaBlock(key []byte, idx uint32) []byte {
	var k [40]byte
	copy(k[:], key)
	return prf.Block(prf.ChaCha20Portable, k[:], idx)[:64]
}

type fakePID struct {
	v atomic.Int64
}

func newFakePID(v int) *fakePID {
	p := &fakePID{}
	p.v.Store(int64(v))
	return p
}

func (p *fakePID) get() int  { return int(p.v.Load()) }
func (p *fakePID) set(v int) { p.v.Store(int64(v)) }

// fatalRecorder is a fatal handler that returns.
type fatalRecorder struct {
	mu    sync.Mutex
	codes []ErrorCode
}

func (f *fatalRecorder) handle(code ErrorCode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes = append(f.codes, code)
}

func (f *fatalRecorder) got() []ErrorCode {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ErrorCode, len(f.codes))
	copy(out, f.codes)
	return out
}

type testEnv struct {
	state     *State
	gatherer  *fakeGatherer
	pid       *fakePID
	fatal     *fatalRecorder
	collector *metrics.Collector
	tracer    *metrics.SimpleTracer
}

func testConfig(env *testEnv, p prf.PRF) Config {
	return Config{
		ManualPRF:    p,
		Gatherer:     env.gatherer,
		FatalHandler: env.fatal.handle,
		Logger:       metrics.NullLogger(),
		Collector:    env.collector,
		Tracer:       env.tracer,
		getpid:       env.pid.get,
	}
}

func newTestEnv(t *testing.T, p prf.PRF, pattern []byte) *testEnv {
	t.Helper()
	env := &testEnv{
		gatherer:  newFakeGatherer(pattern),
		pid:       newFakePID(100),
		fatal:     &fatalRecorder{},
		collector: metrics.NewCollector(nil),
		tracer:    metrics.NewSimpleTracer(),
	}
	env.state = &State{}
	if err := env.state.Init(testConfig(env, p)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return env
}

func seqPattern(n int, start byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = start + byte(i)
	}
	return b
}
