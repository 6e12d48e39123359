package entropy

import (
	"bytes"
	"fmt"

	qerrors "github.com/sanyaade-iot/libottery/internal/errors"
)

// checkSample rejects the output of a stuck generator. A sample fails when
// it consists of a single repeated byte, or when two consecutive words of
// size word are equal. Hardware RNGs have shipped that return all ones
// after a suspend; a sample of 16 bytes or more from a working source
// trips neither check in practice.
func checkSample(b []byte, word int) error {
	if len(b) < 2 {
		return nil
	}

	same := true
	for _, c := range b[1:] {
		if c != b[0] {
			same = false
			break
		}
	}
	if same {
		return fmt.Errorf("%w: %d bytes of %#02x", qerrors.ErrSourceStuck, len(b), b[0])
	}

	if word <= 0 {
		return nil
	}
	for off := word; off+word <= len(b); off += word {
		if bytes.Equal(b[off-word:off], b[off:off+word]) {
			return fmt.Errorf("%w: repeated word at offset %d", qerrors.ErrSourceStuck, off)
		}
	}
	return nil
}
