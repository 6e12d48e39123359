package ottery

import (
	"fmt"

	"github.com/sanyaade-iot/libottery/internal/constants"
	qerrors "github.com/sanyaade-iot/libottery/internal/errors"
	"github.com/sanyaade-iot/libottery/pkg/entropy"
	"github.com/sanyaade-iot/libottery/pkg/metrics"
	"github.com/sanyaade-iot/libottery/pkg/prf"
)

// HealthCheck returns a check that fails while s is unseeded or seeded
// without a strong source, and when the PRF self test fails.
func (s *State) HealthCheck() metrics.CheckFunc {
	return func() error {
		s.mu.Lock()
		seeded := s.magic == constants.StateMagic
		flags := s.entropySrcFlags
		s.mu.Unlock()

		if !seeded {
			return fmt.Errorf("%w: state not seeded", qerrors.ErrStateNotInitialized)
		}
		if flags&entropy.FlagStrong == 0 {
			return fmt.Errorf("%w: no strong source in seed (%s)", qerrors.ErrEntropyUnavailable, flags)
		}
		if res := prf.RunSelfTest(); !res.Passed {
			return fmt.Errorf("%w: PRF self test failed", qerrors.ErrStateCorrupt)
		}
		return nil
	}
}

// RegisterHealthChecks adds the generator checks to h under name.
func (s *State) RegisterHealthChecks(h *metrics.HealthCheck, name string) {
	h.AddCheck(name, s.HealthCheck())
}
