//go:build linux

package entropy

import (
	"errors"

	"golang.org/x/sys/unix"

	qerrors "github.com/sanyaade-iot/libottery/internal/errors"
)

// Getrandom reads the kernel CSPRNG through getrandom(2). It shares the OS
// domain with RandomDev and only contributes when the device could not.
var Getrandom = Source{
	Name:  "getrandom",
	Flags: getrandomFlags,
	Read:  readGetrandom,
}

const getrandomFlags = FlagStrong | DomOS | SrcGetrandom

func readGetrandom(_ Config, buf []byte, n int) (int, Flag, error) {
	got := 0
	for got < n {
		m, err := unix.Getrandom(buf[got:n], 0)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if errors.Is(err, unix.ENOSYS) {
			return 0, 0, qerrors.ErrSourceUnsupported
		}
		if err != nil {
			return got, 0, err
		}
		if m == 0 {
			return got, 0, qerrors.ErrShortRead
		}
		got += m
	}
	return got, getrandomFlags, nil
}

func osSources() []Source {
	return []Source{RandomDev, Getrandom}
}
