//go:build ottery_nosimd
// +build ottery_nosimd

// This file is compiled when the "ottery_nosimd" build tag is specified.
// Only the portable backends are available.
package prf

// SIMDEnabled reports whether accelerated backends are compiled in.
func SIMDEnabled() bool { return false }

func accelerated() []PRF { return nil }
