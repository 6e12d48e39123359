//go:build amd64

package entropy

import (
	"encoding/binary"

	"github.com/sanyaade-iot/libottery/internal/constants"
	qerrors "github.com/sanyaade-iot/libottery/internal/errors"
	"github.com/sanyaade-iot/libottery/pkg/cpucap"
)

// rdrand64 executes RDRAND. ok is false when the instruction underflowed.
// Implemented in rdrand_amd64.s.
func rdrand64() (val uint64, ok bool)

// RDRAND reads the CPU RNG instruction. It is fast but not trusted as a
// strong source on its own, so it only ever adds to an OS source.
var RDRAND = Source{
	Name:        "rdrand",
	Flags:       rdrandFlags,
	Granularity: constants.RDRANDGranularity,
	Available: func(Config) bool {
		return cpucap.Probe().Has(cpucap.RAND)
	},
	Read: readRDRAND,
}

const rdrandFlags = FlagFast | DomCPU | SrcRDRAND

func readRDRAND(_ Config, buf []byte, n int) (int, Flag, error) {
	if !cpucap.Probe().Has(cpucap.RAND) {
		return 0, 0, qerrors.ErrSourceUnsupported
	}
	written := 0
	for written < n {
		var (
			v  uint64
			ok bool
		)
		for retry := 0; retry < constants.RDRANDRetries && !ok; retry++ {
			v, ok = rdrand64()
		}
		if !ok {
			return written, 0, qerrors.ErrShortRead
		}
		binary.LittleEndian.PutUint64(buf[written:], v)
		written += constants.RDRANDGranularity
	}
	if err := checkSample(buf[:written], constants.RDRANDGranularity); err != nil {
		return 0, 0, err
	}
	return written, rdrandFlags, nil
}

func cpuSources() []Source {
	return []Source{RDRAND}
}
