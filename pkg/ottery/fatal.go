package ottery

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sanyaade-iot/libottery/pkg/metrics"
)

// ErrorCode identifies an unrecoverable generator failure. The low bits
// carry the kind; the ErrFlag bits say where it happened.
type ErrorCode int

// Error kinds.
const (
	// ErrNone means no error.
	ErrNone ErrorCode = 0
	// ErrInitStrongRNG means the entropy sources failed while seeding a
	// state for the first time.
	ErrInitStrongRNG ErrorCode = 1
	// ErrAccessStrongRNG means the entropy sources failed while reseeding an
	// already seeded state.
	ErrAccessStrongRNG ErrorCode = 2
	// ErrInvalidArgument means a caller passed an argument outside the
	// function's domain.
	ErrInvalidArgument ErrorCode = 3
	// ErrInternal means an internal invariant was violated.
	ErrInternal ErrorCode = 4
	// ErrStateInit means a state was used before Init or after Wipe.
	ErrStateInit ErrorCode = 5
)

// Error location flags, ORed into an ErrorCode.
const (
	// ErrFlagGlobalInit marks failures while lazily initialising the
	// package-level state.
	ErrFlagGlobalInit ErrorCode = 0x1000
	// ErrFlagPostForkReseed marks failures while reseeding after the process
	// identity changed.
	ErrFlagPostForkReseed ErrorCode = 0x2000

	errKindMask ErrorCode = 0x0fff
)

// Kind strips the location flags.
func (c ErrorCode) Kind() ErrorCode {
	return c & errKindMask
}

// String returns the name of the kind followed by any flags, e.g.
// "ACCESS_STRONG_RNG|POSTFORK_RESEED".
func (c ErrorCode) String() string {
	var name string
	switch c.Kind() {
	case ErrNone:
		name = "NONE"
	case ErrInitStrongRNG:
		name = "INIT_STRONG_RNG"
	case ErrAccessStrongRNG:
		name = "ACCESS_STRONG_RNG"
	case ErrInvalidArgument:
		name = "INVALID_ARGUMENT"
	case ErrInternal:
		name = "INTERNAL"
	case ErrStateInit:
		name = "STATE_INIT"
	default:
		name = fmt.Sprintf("UNKNOWN(%d)", int(c.Kind()))
	}
	parts := []string{name}
	if c&ErrFlagGlobalInit != 0 {
		parts = append(parts, "GLOBAL_INIT")
	}
	if c&ErrFlagPostForkReseed != 0 {
		parts = append(parts, "POSTFORK_RESEED")
	}
	return strings.Join(parts, "|")
}

// FatalHandler is called with the code of an unrecoverable failure. The
// embedding application decides what happens next. If the handler returns,
// the failing call hands back an error (or zero for the integer helpers)
// and never random-looking output.
type FatalHandler func(code ErrorCode)

// FatalError is the panic value of the default fatal handler.
type FatalError struct {
	Code ErrorCode
}

func (e *FatalError) Error() string {
	return "ottery: fatal error: " + e.Code.String()
}

// DefaultFatalHandler logs the code and panics with a *FatalError.
func DefaultFatalHandler(code ErrorCode) {
	metrics.GetLogger().Named("ottery").Error("unrecoverable generator failure", metrics.Fields{
		"code": code.String(),
	})
	panic(&FatalError{Code: code})
}

var (
	fatalHandler   FatalHandler = DefaultFatalHandler
	fatalHandlerMu sync.RWMutex
)

// SetFatalHandler replaces the process-wide fatal handler used by states
// that have none of their own. A nil handler restores the default.
func SetFatalHandler(h FatalHandler) {
	if h == nil {
		h = DefaultFatalHandler
	}
	fatalHandlerMu.Lock()
	defer fatalHandlerMu.Unlock()
	fatalHandler = h
}

func getFatalHandler() FatalHandler {
	fatalHandlerMu.RLock()
	defer fatalHandlerMu.RUnlock()
	return fatalHandler
}
