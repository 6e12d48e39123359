//go:build !windows

package entropy

import (
	"io"
	"os"

	"github.com/sanyaade-iot/libottery/internal/constants"
	qerrors "github.com/sanyaade-iot/libottery/internal/errors"
)

// RandomDev reads a unix-style random device, /dev/urandom unless
// Config.URandomPath overrides it.
var RandomDev = Source{
	Name:  "randomdev",
	Flags: randomDevFlags,
	Read:  readRandomDev,
}

const randomDevFlags = FlagStrong | DomOS | SrcRandomDev

func readRandomDev(cfg Config, buf []byte, n int) (int, Flag, error) {
	path := cfg.URandomPath
	checkDevice := path == ""
	if checkDevice {
		path = constants.DefaultURandomPath
	}

	// os.Open sets O_CLOEXEC so the descriptor never leaks into children.
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	if checkDevice {
		fi, err := f.Stat()
		if err != nil {
			return 0, 0, err
		}
		if fi.Mode()&os.ModeCharDevice == 0 {
			return 0, 0, qerrors.ErrNotCharDevice
		}
	}

	got, err := io.ReadFull(f, buf[:n])
	if err != nil {
		return got, 0, qerrors.ErrShortRead
	}
	return got, randomDevFlags, nil
}
