//go:build windows

package entropy

import (
	"golang.org/x/sys/windows"
)

// CryptGenRandom reads the Windows system RNG through an ephemeral
// verify-only CryptoAPI context.
var CryptGenRandom = Source{
	Name:  "cryptgenrandom",
	Flags: cryptGenRandomFlags,
	Read:  readCryptGenRandom,
}

const cryptGenRandomFlags = FlagStrong | DomOS | SrcCryptGenRandom

func readCryptGenRandom(_ Config, buf []byte, n int) (int, Flag, error) {
	if n == 0 {
		return 0, cryptGenRandomFlags, nil
	}

	var prov windows.Handle
	err := windows.CryptAcquireContext(&prov, nil, nil, windows.PROV_RSA_FULL,
		windows.CRYPT_VERIFYCONTEXT|windows.CRYPT_SILENT)
	if err != nil {
		return 0, 0, err
	}
	defer windows.CryptReleaseContext(prov, 0)

	if err := windows.CryptGenRandom(prov, uint32(n), &buf[0]); err != nil {
		return 0, 0, err
	}
	return n, cryptGenRandomFlags, nil
}

func osSources() []Source {
	return []Source{CryptGenRandom}
}
