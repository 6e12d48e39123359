package ottery

import (
	"bytes"
	"io"
	"sync"
	"testing"

	"github.com/sanyaade-iot/libottery/pkg/entropy"
	"github.com/sanyaade-iot/libottery/pkg/metrics"
)

func initTestGlobal(t *testing.T, key []byte) (*fakeGatherer, *fatalRecorder) {
	t.Helper()
	g := newFakeGatherer(key)
	fatal := &fatalRecorder{}
	err := Init(Config{
		ManualPRF:    smallChaCha(nil),
		Gatherer:     g,
		FatalHandler: fatal.handle,
		Logger:       metrics.NullLogger(),
		Collector:    metrics.NewCollector(nil),
		Tracer:       metrics.NoOpTracer{},
	})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(Wipe)
	return g, fatal
}

func TestGlobalInit(t *testing.T) {
	key := seqPattern(32, 83)
	_, fatal := initTestGlobal(t, key)

	out := make([]byte, 64)
	if _, err := Read(out); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if want := smallChaChaBlock(key, 0); !bytes.Equal(out, want) {
		t.Errorf("global output mismatch\n got %x\nwant %x", out, want)
	}

	if Implementation().Impl != "CHACHA20-SMALL" {
		t.Errorf("Implementation = %s", Implementation().Impl)
	}
	if EntropyFlags()&entropy.FlagStrong == 0 {
		t.Errorf("EntropyFlags = %v, want strong", EntropyFlags())
	}
	if len(fatal.got()) != 0 {
		t.Errorf("unexpected fatal errors: %v", fatal.got())
	}
}

func TestGlobalHelpers(t *testing.T) {
	initTestGlobal(t, seqPattern(32, 89))

	RandBytes(make([]byte, 17))
	_ = Uint32()
	_ = Uint64()
	if v := Uint32N(10); v >= 10 {
		t.Errorf("Uint32N(10) = %d", v)
	}
	if v := Uint64N(3); v >= 3 {
		t.Errorf("Uint64N(3) = %d", v)
	}
	if v := Range(4); v > 4 {
		t.Errorf("Range(4) = %d", v)
	}
	if v := Range64(9); v > 9 {
		t.Errorf("Range64(9) = %d", v)
	}
	if err := Stir(); err != nil {
		t.Errorf("Stir: %v", err)
	}
	if err := AddSeed([]byte("additional seed")); err != nil {
		t.Errorf("AddSeed: %v", err)
	}

	buf := make([]byte, 2048)
	if _, err := io.ReadFull(Reader(), buf); err != nil {
		t.Errorf("ReadFull(Reader()): %v", err)
	}
}

func TestGlobalLazyInit(t *testing.T) {
	Wipe()
	t.Cleanup(Wipe)

	out := make([]byte, 32)
	if _, err := Read(out); err != nil {
		t.Fatalf("Read with lazy init: %v", err)
	}
	if bytes.Equal(out, make([]byte, len(out))) {
		t.Error("lazily initialised state returned zeros")
	}
	if !globalSeeded.Load() {
		t.Error("global state not marked seeded")
	}
	if EntropyFlags()&entropy.FlagStrong == 0 {
		t.Errorf("EntropyFlags = %v, want a strong source", EntropyFlags())
	}
}

func TestGlobalWipeResets(t *testing.T) {
	initTestGlobal(t, seqPattern(32, 97))

	Wipe()
	if globalSeeded.Load() {
		t.Error("Wipe left the global state marked seeded")
	}
	if globalState.magic != 0 {
		t.Error("Wipe left the global state seeded")
	}
}

func TestGlobalWipeDuringCalls(t *testing.T) {
	fatal := &fatalRecorder{}
	SetFatalHandler(fatal.handle)
	t.Cleanup(func() { SetFatalHandler(nil) })
	initTestGlobal(t, seqPattern(32, 101))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf := make([]byte, 48)
			for {
				select {
				case <-stop:
					return
				default:
				}
				if _, err := Read(buf); err != nil {
					t.Errorf("Read: %v", err)
					return
				}
				_ = Uint64N(1000)
			}
		}()
	}

	for i := 0; i < 50; i++ {
		Wipe()
	}
	close(stop)
	wg.Wait()

	if codes := fatal.got(); len(codes) != 0 {
		t.Errorf("fatal codes during concurrent Wipe: %v", codes)
	}
}
