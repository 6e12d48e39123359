package entropy

import (
	"bytes"
	"errors"
	"testing"

	qerrors "github.com/sanyaade-iot/libottery/internal/errors"
)

// fixedSource returns a source that fills its output with b.
func fixedSource(name string, flags Flag, b byte) Source {
	return Source{
		Name:  name,
		Flags: flags,
		Read: func(_ Config, buf []byte, n int) (int, Flag, error) {
			for i := 0; i < n; i++ {
				buf[i] = b
			}
			return n, flags, nil
		},
	}
}

func failingSource(name string, flags Flag) Source {
	return Source{
		Name:  name,
		Flags: flags,
		Read: func(Config, []byte, int) (int, Flag, error) {
			return 0, 0, errors.New("unplugged")
		},
	}
}

func TestGatherConcatenates(t *testing.T) {
	a := NewAggregator(
		fixedSource("os", FlagStrong|DomOS|SrcRandomDev, 0xaa),
		fixedSource("cpu", FlagFast|DomCPU|SrcRDRAND, 0xbb),
	)
	buf := make([]byte, a.BufSize(16))
	n, flags, err := a.Gather(Config{}, 0, buf, 16)
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if n != 32 {
		t.Fatalf("n = %d, want 32", n)
	}
	want := append(bytes.Repeat([]byte{0xaa}, 16), bytes.Repeat([]byte{0xbb}, 16)...)
	if !bytes.Equal(buf[:n], want) {
		t.Errorf("buf = %x, want %x", buf[:n], want)
	}
	wantFlags := FlagStrong | FlagFast | DomOS | DomCPU | SrcRandomDev | SrcRDRAND
	if flags != wantFlags {
		t.Errorf("flags = %v, want %v", flags, wantFlags)
	}
}

func TestGatherRequireFlags(t *testing.T) {
	a := NewAggregator(
		fixedSource("os", FlagStrong|DomOS|SrcRandomDev, 0xaa),
		fixedSource("cpu", FlagFast|DomCPU|SrcRDRAND, 0xbb),
	)
	buf := make([]byte, a.BufSize(8))
	n, flags, err := a.Gather(Config{}, FlagStrong, buf, 8)
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if n != 8 || flags&SrcRDRAND != 0 {
		t.Errorf("n = %d flags = %v, want only the strong source", n, flags)
	}

	// Requiring a flag only a weak source has leaves no strong contributor.
	if _, _, err := a.Gather(Config{}, FlagFast, buf, 8); !errors.Is(err, qerrors.ErrEntropyUnavailable) {
		t.Errorf("Gather(FlagFast) = %v, want ErrEntropyUnavailable", err)
	}
}

func TestGatherDisabledSources(t *testing.T) {
	a := NewAggregator(
		fixedSource("dev", FlagStrong|DomOS|SrcRandomDev, 0x01),
		fixedSource("getrandom", FlagStrong|DomOS|SrcGetrandom, 0x02),
	)
	buf := make([]byte, a.BufSize(4))
	n, flags, err := a.Gather(Config{DisabledSources: SrcRandomDev}, 0, buf, 4)
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if n != 4 || flags&SrcGetrandom == 0 || flags&SrcRandomDev != 0 {
		t.Errorf("n = %d flags = %v, want getrandom only", n, flags)
	}
	if !bytes.Equal(buf[:4], []byte{2, 2, 2, 2}) {
		t.Errorf("buf = %x", buf[:4])
	}
}

func TestGatherOneStrongSourcePerDomain(t *testing.T) {
	a := NewAggregator(
		fixedSource("dev", FlagStrong|DomOS|SrcRandomDev, 0x01),
		fixedSource("getrandom", FlagStrong|DomOS|SrcGetrandom, 0x02),
		fixedSource("egd", FlagStrong|DomEGD|SrcEGD, 0x03),
	)
	buf := make([]byte, a.BufSize(4))
	n, flags, err := a.Gather(Config{}, 0, buf, 4)
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if n != 8 {
		t.Fatalf("n = %d, want 8", n)
	}
	if flags&SrcGetrandom != 0 {
		t.Error("second OS-domain source contributed")
	}
	if flags&SrcEGD == 0 {
		t.Error("EGD domain should contribute")
	}
}

func TestGatherFallsBackWithinDomain(t *testing.T) {
	a := NewAggregator(
		failingSource("dev", FlagStrong|DomOS|SrcRandomDev),
		fixedSource("getrandom", FlagStrong|DomOS|SrcGetrandom, 0x07),
	)
	buf := make([]byte, a.BufSize(4))
	n, flags, err := a.Gather(Config{}, 0, buf, 4)
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if n != 4 || flags&SrcGetrandom == 0 {
		t.Errorf("n = %d flags = %v", n, flags)
	}
	if !bytes.Equal(buf[:4], []byte{7, 7, 7, 7}) {
		t.Errorf("buf = %x", buf[:4])
	}
}

func TestGatherAllSourcesFail(t *testing.T) {
	a := NewAggregator(
		failingSource("dev", FlagStrong|DomOS|SrcRandomDev),
		failingSource("egd", FlagStrong|DomEGD|SrcEGD),
	)
	buf := make([]byte, a.BufSize(16))
	n, flags, err := a.Gather(Config{}, 0, buf, 16)
	if !errors.Is(err, qerrors.ErrEntropyUnavailable) {
		t.Fatalf("err = %v, want ErrEntropyUnavailable", err)
	}
	var eerr *qerrors.EntropyError
	if !errors.As(err, &eerr) {
		t.Error("expected per-source EntropyError in the chain")
	}
	if n != 0 || flags != 0 {
		t.Errorf("n = %d flags = %v on failure", n, flags)
	}
}

func TestGatherWeakOnlyFails(t *testing.T) {
	a := NewAggregator(fixedSource("cpu", FlagFast|DomCPU|SrcRDRAND, 0x11))
	buf := make([]byte, a.BufSize(8))
	_, _, err := a.Gather(Config{}, 0, buf, 8)
	if !errors.Is(err, qerrors.ErrEntropyUnavailable) {
		t.Fatalf("err = %v, want ErrEntropyUnavailable", err)
	}
	if !bytes.Equal(buf, make([]byte, len(buf))) {
		t.Error("weak bytes were left in the buffer after failure")
	}
}

func TestGatherShortRead(t *testing.T) {
	short := Source{
		Name:  "short",
		Flags: FlagStrong | DomOS | SrcRandomDev,
		Read: func(_ Config, buf []byte, n int) (int, Flag, error) {
			return n - 1, FlagStrong | DomOS | SrcRandomDev, nil
		},
	}
	a := NewAggregator(short)
	buf := make([]byte, a.BufSize(8))
	if _, _, err := a.Gather(Config{}, 0, buf, 8); !errors.Is(err, qerrors.ErrShortRead) {
		t.Errorf("err = %v, want ErrShortRead in chain", err)
	}
}

func TestGatherBufferTooSmall(t *testing.T) {
	a := NewAggregator(fixedSource("dev", FlagStrong|DomOS|SrcRandomDev, 1))
	buf := make([]byte, 4)
	if _, _, err := a.Gather(Config{}, 0, buf, 8); !errors.Is(err, qerrors.ErrBufferTooSmall) {
		t.Errorf("err = %v, want ErrBufferTooSmall", err)
	}
}

func TestGatherInvalidRequest(t *testing.T) {
	a := NewAggregator(fixedSource("dev", FlagStrong|DomOS|SrcRandomDev, 1))
	if _, _, err := a.Gather(Config{}, 0, make([]byte, 8), 0); !errors.Is(err, qerrors.ErrInvalidArgument) {
		t.Errorf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestGatherSkipsUnavailable(t *testing.T) {
	called := false
	unavailable := Source{
		Name:      "off",
		Flags:     FlagStrong | DomEGD | SrcEGD,
		Available: func(Config) bool { return false },
		Read: func(Config, []byte, int) (int, Flag, error) {
			called = true
			return 0, 0, nil
		},
	}
	a := NewAggregator(fixedSource("dev", FlagStrong|DomOS|SrcRandomDev, 1), unavailable)
	buf := make([]byte, a.BufSize(4))
	if _, _, err := a.Gather(Config{}, 0, buf, 4); err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if called {
		t.Error("unavailable source was read")
	}
}

func TestBufSize(t *testing.T) {
	a := NewAggregator(
		fixedSource("a", FlagStrong|DomOS, 0),
		Source{Name: "b", Granularity: 8},
		Source{Name: "c", Granularity: 1},
	)
	tests := []struct {
		n    int
		want int
	}{
		{1, 1 + 8 + 1},
		{8, 8 + 8 + 8},
		{40, 40 + 40 + 40},
		{41, 41 + 48 + 41},
	}
	for _, tt := range tests {
		if got := a.BufSize(tt.n); got != tt.want {
			t.Errorf("BufSize(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestFlagString(t *testing.T) {
	tests := []struct {
		f    Flag
		want string
	}{
		{0, "none"},
		{FlagStrong | DomOS | SrcRandomDev, "strong|os|randomdev"},
		{FlagFast | DomCPU | SrcRDRAND, "fast|cpu|rdrand"},
		{Flag(0x10000000), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.f.String(); got != tt.want {
			t.Errorf("Flag(%#x).String() = %q, want %q", uint32(tt.f), got, tt.want)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"zero", Config{}, false},
		{"unix egd", Config{EGDNetwork: "unix", EGDAddr: "/tmp/egd"}, false},
		{"tcp egd", Config{EGDNetwork: "tcp", EGDAddr: "127.0.0.1:708"}, false},
		{"bad network", Config{EGDNetwork: "udp", EGDAddr: "x"}, true},
		{"network without addr", Config{EGDNetwork: "tcp"}, true},
	}
	for _, tt := range tests {
		err := tt.cfg.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, qerrors.ErrInvalidConfig) {
			t.Errorf("%s: error %v is not ErrInvalidConfig", tt.name, err)
		}
	}
}

func TestDefaultAggregator(t *testing.T) {
	srcs := Default.Sources()
	if len(srcs) == 0 {
		t.Fatal("no default sources")
	}
	if srcs[0].Flags&FlagStrong == 0 || srcs[0].Flags&DomOS == 0 {
		t.Errorf("first default source %s should be a strong OS source", srcs[0].Name)
	}

	buf := make([]byte, Default.BufSize(40))
	n, flags, err := Default.Gather(Config{}, 0, buf, 40)
	if err != nil {
		t.Fatalf("Gather from platform sources: %v", err)
	}
	if n < 40 || flags&FlagStrong == 0 {
		t.Errorf("n = %d flags = %v", n, flags)
	}
}
