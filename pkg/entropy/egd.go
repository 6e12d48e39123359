package entropy

import (
	"fmt"
	"io"
	"net"
	"time"

	"github.com/sanyaade-iot/libottery/internal/constants"
	qerrors "github.com/sanyaade-iot/libottery/internal/errors"
)

// EGD talks to an EGD-style entropy daemon at Config.EGDAddr.
//
// Each request is the two bytes {0x01, count} (non-blocking read of up to
// 255 bytes); the daemon answers with one byte giving how many bytes follow,
// then the bytes. Larger requests are split.
var EGD = Source{
	Name:  "egd",
	Flags: egdFlags,
	Available: func(cfg Config) bool {
		return cfg.EGDAddr != ""
	},
	Read: readEGD,
}

const (
	egdFlags              = FlagStrong | DomEGD | SrcEGD
	egdCmdReadNonBlocking = 0x01
)

func readEGD(cfg Config, buf []byte, n int) (int, Flag, error) {
	if cfg.EGDAddr == "" {
		return 0, 0, qerrors.ErrSourceNotConfigured
	}

	timeout := constants.EGDTimeoutSeconds * time.Second
	conn, err := net.DialTimeout(cfg.egdNetwork(), cfg.EGDAddr, timeout)
	if err != nil {
		return 0, 0, err
	}
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return 0, 0, err
	}

	got := 0
	for got < n {
		m := n - got
		if m > constants.EGDMaxRequest {
			m = constants.EGDMaxRequest
		}
		if _, err := conn.Write([]byte{egdCmdReadNonBlocking, byte(m)}); err != nil {
			return got, 0, err
		}
		var count [1]byte
		if _, err := io.ReadFull(conn, count[:]); err != nil {
			return got, 0, err
		}
		if int(count[0]) < m {
			return got, 0, fmt.Errorf("%w: daemon returned %d of %d bytes",
				qerrors.ErrShortRead, count[0], m)
		}
		if int(count[0]) > m {
			return got, 0, fmt.Errorf("egd: daemon returned %d bytes, asked for %d", count[0], m)
		}
		if _, err := io.ReadFull(conn, buf[got:got+m]); err != nil {
			return got, 0, err
		}
		got += m
	}
	return got, egdFlags, nil
}
