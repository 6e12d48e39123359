package entropy

import (
	"fmt"

	qerrors "github.com/sanyaade-iot/libottery/internal/errors"
)

// Config configures the entropy sources.
type Config struct {
	// URandomPath overrides the random device. Empty means the default
	// device, which must then be a character device. An override is
	// trusted as given, so tests may point it at a regular file.
	URandomPath string

	// EGDNetwork is the network of the EGD socket ("unix", "tcp", ...).
	// Default: "unix"
	EGDNetwork string

	// EGDAddr is the address of an EGD-style entropy daemon. Empty
	// disables the EGD source.
	EGDAddr string

	// DisabledSources skips every source having any of these flags.
	DisabledSources Flag
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.EGDNetwork {
	case "", "unix", "unixpacket", "tcp", "tcp4", "tcp6":
	default:
		return fmt.Errorf("%w: unsupported EGD network %q", qerrors.ErrInvalidConfig, c.EGDNetwork)
	}
	if c.EGDNetwork != "" && c.EGDAddr == "" {
		return fmt.Errorf("%w: EGD network set without an address", qerrors.ErrInvalidConfig)
	}
	return nil
}

func (c Config) egdNetwork() string {
	if c.EGDNetwork == "" {
		return "unix"
	}
	return c.EGDNetwork
}
