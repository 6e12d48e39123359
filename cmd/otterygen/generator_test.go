package main

import (
	"os"
	"testing"

	"github.com/sanyaade-iot/libottery/pkg/entropy"
	"github.com/sanyaade-iot/libottery/pkg/metrics"
	"github.com/sanyaade-iot/libottery/pkg/ottery"
)

func TestExitWipedErasesState(t *testing.T) {
	code := -1
	exit = func(c int) { code = c }
	t.Cleanup(func() { exit = os.Exit })

	st, err := ottery.New(ottery.WithLogger(metrics.NullLogger()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	st.RandBytes(make([]byte, 16))

	exitWiped(st, 2)
	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if !st.Implementation().IsZero() {
		t.Error("state still configured after exitWiped")
	}
	if st.EntropyFlags() != 0 {
		t.Errorf("EntropyFlags = %v after exitWiped, want 0", st.EntropyFlags())
	}
}

func TestExitWipedNilState(t *testing.T) {
	code := -1
	exit = func(c int) { code = c }
	t.Cleanup(func() { exit = os.Exit })

	exitWiped(nil, 1)
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}

func TestParseSources(t *testing.T) {
	tests := []struct {
		in      string
		want    entropy.Flag
		wantErr bool
	}{
		{"", 0, false},
		{"rdrand", entropy.SrcRDRAND, false},
		{"RDRAND, egd", entropy.SrcRDRAND | entropy.SrcEGD, false},
		{"randomdev,,getrandom", entropy.SrcRandomDev | entropy.SrcGetrandom, false},
		{"lavarand", 0, true},
	}
	for _, tt := range tests {
		got, err := parseSources(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseSources(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseSources(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
