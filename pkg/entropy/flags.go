// Package entropy gathers seed material from the strong random sources the
// platform offers.
//
// Sources are slow compared to the generator. They are only consulted when a
// generator state is (re)seeded, never on the byte-serving hot path.
package entropy

import "strings"

// Flag describes an entropy source: strength and speed hints, the domain
// the source belongs to, and a bit identifying the source itself.
type Flag uint32

// Strength and speed hints.
const (
	// FlagStrong marks a source that probably provides strong entropy
	FlagStrong Flag = 0x000001
	// FlagFast marks a source that runs very quickly
	FlagFast Flag = 0x000002
)

// Entropy domains. At most one strong source per domain contributes to a
// single gather.
const (
	// DomOS is an RNG provided by the operating system
	DomOS Flag = 0x000100
	// DomCPU is an RNG provided by the CPU
	DomCPU Flag = 0x000200
	// DomEGD is an EGD-style entropy daemon
	DomEGD Flag = 0x000400

	// DomMask covers every domain bit
	DomMask Flag = 0x00ff00
)

// Source identities.
const (
	// SrcRandomDev is a unix-style /dev/urandom device
	SrcRandomDev Flag = 0x0010000
	// SrcCryptGenRandom is the Windows system RNG
	SrcCryptGenRandom Flag = 0x0020000
	// SrcRDRAND is the x86 RDRAND instruction
	SrcRDRAND Flag = 0x0040000
	// SrcEGD is an EGD socket
	SrcEGD Flag = 0x0080000
	// SrcGetrandom is the Linux getrandom(2) system call
	SrcGetrandom Flag = 0x0100000

	// AllSources covers every source identity bit
	AllSources Flag = 0x0fff0000
)

var flagNames = []struct {
	bit  Flag
	name string
}{
	{FlagStrong, "strong"},
	{FlagFast, "fast"},
	{DomOS, "os"},
	{DomCPU, "cpu"},
	{DomEGD, "egd-domain"},
	{SrcRandomDev, "randomdev"},
	{SrcCryptGenRandom, "cryptgenrandom"},
	{SrcRDRAND, "rdrand"},
	{SrcEGD, "egd"},
	{SrcGetrandom, "getrandom"},
}

// String returns a "|"-separated list of flag names.
func (f Flag) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	rest := f
	for _, n := range flagNames {
		if f&n.bit != 0 {
			parts = append(parts, n.name)
			rest &^= n.bit
		}
	}
	if rest != 0 {
		parts = append(parts, "unknown")
	}
	return strings.Join(parts, "|")
}
