package entropy

import (
	"errors"
	"fmt"

	qerrors "github.com/sanyaade-iot/libottery/internal/errors"
	"github.com/sanyaade-iot/libottery/internal/memclear"
)

// Gatherer is the contract between the generator and its entropy supply.
type Gatherer interface {
	// Gather reads at least n bytes from every qualifying source into buf
	// and returns the number of bytes written and the union of the flags
	// of the sources that contributed. On error the contents of buf are
	// not random.
	Gather(cfg Config, require Flag, buf []byte, n int) (int, Flag, error)

	// BufSize returns the buffer size needed to hold n bytes from every
	// source.
	BufSize(n int) int
}

// Aggregator combines an ordered list of sources.
type Aggregator struct {
	sources []Source
}

// NewAggregator creates an aggregator over sources, consulted in order.
func NewAggregator(sources ...Source) *Aggregator {
	s := make([]Source, len(sources))
	copy(s, sources)
	return &Aggregator{sources: s}
}

// Default aggregates the sources compiled in for this platform.
var Default = NewAggregator(defaultSources()...)

// Sources returns a copy of the aggregator's sources.
func (a *Aggregator) Sources() []Source {
	s := make([]Source, len(a.sources))
	copy(s, a.sources)
	return s
}

// BufSize returns the buffer capacity needed to hold n bytes from every
// source, accounting for each source's read granularity.
func (a *Aggregator) BufSize(n int) int {
	total := 0
	for _, s := range a.sources {
		total += s.span(n)
	}
	return total
}

// Gather implements Gatherer.
//
// Sources are skipped when they lack any flag in require, have any flag in
// cfg.DisabledSources, are unavailable under cfg, or belong to a domain that
// a strong source has already covered. The output is the concatenation of
// every contribution. Gather fails unless at least one strong source
// contributed.
func (a *Aggregator) Gather(cfg Config, require Flag, buf []byte, n int) (int, Flag, error) {
	if n <= 0 {
		return 0, 0, fmt.Errorf("%w: request of %d bytes", qerrors.ErrInvalidArgument, n)
	}

	var (
		written    int
		flagsOut   Flag
		strongDoms Flag
		errs       []error
	)

	for _, s := range a.sources {
		if s.Flags&require != require {
			continue
		}
		if s.Flags&cfg.DisabledSources != 0 {
			continue
		}
		if s.Flags&DomMask&strongDoms != 0 {
			continue
		}
		if !s.available(cfg) {
			continue
		}

		need := s.span(n)
		if len(buf)-written < need {
			memclear.Clear(buf[:written])
			return 0, 0, fmt.Errorf("%w: have %d, need %d more for %s",
				qerrors.ErrBufferTooSmall, len(buf)-written, need, s.Name)
		}

		dst := buf[written : written+need]
		got, fl, err := s.Read(cfg, dst, n)
		if err == nil && got < n {
			err = fmt.Errorf("%w: got %d of %d bytes", qerrors.ErrShortRead, got, n)
		}
		if err != nil {
			memclear.Clear(dst)
			errs = append(errs, qerrors.NewEntropyError(s.Name, err))
			continue
		}
		if got > need {
			got = need
		}

		written += got
		flagsOut |= fl
		if fl&FlagStrong != 0 {
			strongDoms |= fl & DomMask
		}
	}

	if written == 0 || flagsOut&FlagStrong == 0 {
		memclear.Clear(buf[:written])
		return 0, 0, errors.Join(append([]error{qerrors.ErrEntropyUnavailable}, errs...)...)
	}
	return written, flagsOut, nil
}
