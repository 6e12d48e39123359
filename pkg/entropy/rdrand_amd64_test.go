//go:build amd64

package entropy

import (
	"bytes"
	"testing"

	"github.com/sanyaade-iot/libottery/pkg/cpucap"
)

func TestRDRAND(t *testing.T) {
	if !cpucap.Probe().Has(cpucap.RAND) {
		t.Skip("RDRAND not available")
	}
	n := 13
	buf := make([]byte, RDRAND.span(n))
	got, flags, err := RDRAND.Read(Config{}, buf, n)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got < n || got > len(buf) {
		t.Errorf("got %d bytes for span %d", got, len(buf))
	}
	if flags&FlagStrong != 0 {
		t.Error("RDRAND must not claim to be strong")
	}
	if bytes.Equal(buf, make([]byte, len(buf))) {
		t.Error("RDRAND returned all zeros")
	}
}

func TestRDRANDSpan(t *testing.T) {
	if RDRAND.span(13) != 16 || RDRAND.span(16) != 16 {
		t.Errorf("span(13) = %d, span(16) = %d", RDRAND.span(13), RDRAND.span(16))
	}
}
