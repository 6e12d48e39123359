// Package memclear erases sensitive memory.
//
// Every exposure of key material, entropy or served keystream goes through
// Clear so there is a single place where the erase is guaranteed to happen.
// The function is kept out of line and the slice is kept alive past the
// stores, so the writes cannot be dropped even when the caller's buffer is
// about to go out of scope.
package memclear

import "runtime"

// Clear overwrites every byte of b with zero.
//
//go:noinline
func Clear(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

// ClearWords overwrites every word of w with zero.
//
//go:noinline
func ClearWords(w []uint32) {
	for i := range w {
		w[i] = 0
	}
	runtime.KeepAlive(w)
}

// ClearMultiple erases several byte slices.
func ClearMultiple(slices ...[]byte) {
	for _, s := range slices {
		Clear(s)
	}
}
