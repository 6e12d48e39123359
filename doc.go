// Package libottery provides a fast, fork-aware cryptographically secure
// random number generator.
//
// libottery keys a stream cipher (ChaCha20 by default) from the operating
// system's entropy sources and serves bytes from its keystream. It is much
// faster than reading the kernel RNG for every request, and it keeps the
// properties a userspace generator needs:
//
//   - Backtracking resistance: served bytes are erased from the buffer, and
//     Stir rekeys so that earlier output cannot be recomputed.
//   - Fork safety: a state notices when the process identity changes and
//     reseeds before serving anything.
//   - Fail closed: when no strong entropy source works, the fatal handler is
//     called and no output is produced.
//
// # Quick Start
//
//	import "github.com/sanyaade-iot/libottery/pkg/ottery"
//
//	var key [32]byte
//	ottery.RandBytes(key[:])
//
//	die := ottery.Uint32N(6) + 1
//
//	// A private state
//	st, err := ottery.New(ottery.WithPRF("CHACHA12"))
//	if err != nil {
//		return err
//	}
//	defer st.Wipe()
//	io.ReadFull(st, buf)
//
// # Package Structure
//
//   - pkg/ottery: Generator state, package-level functions, fatal handler
//   - pkg/prf: Pseudorandom function descriptors, registry and self tests
//   - pkg/entropy: Entropy sources and the aggregator that combines them
//   - pkg/cpucap: CPU capability probing and masking
//   - pkg/metrics: Metrics, tracing, logging and health checks
//   - internal/constants: Size limits and algorithm constants
//   - internal/errors: Sentinel errors and error types
//   - internal/memclear: Erasure of key material
//
// # Testing
//
//	go test ./...                                 # All tests
//	go test -fuzz=FuzzReadSizes ./test/fuzz/      # Fuzz tests
//	go test -bench=. ./test/benchmark             # Benchmarks
//	go test -tags ottery_nosimd ./...             # Portable backends only
//
// # References
//
//   - RFC 8439: ChaCha20 and Poly1305 for IETF Protocols
//   - D. J. Bernstein, "ChaCha, a variant of Salsa20"
//   - D. Lemire, "Fast Random Integer Generation in an Interval"
package libottery
