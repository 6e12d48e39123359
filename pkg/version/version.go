// Package version reports the libottery release.
package version

import (
	"fmt"
	"runtime"
)

// Release components. Label is empty for final releases.
const (
	Major = 0
	Minor = 1
	Patch = 0
	Label = "alpha"
)

// String returns the release as vMAJOR.MINOR.PATCH[-LABEL].
func String() string {
	if Label == "" {
		return fmt.Sprintf("v%d.%d.%d", Major, Minor, Patch)
	}
	return fmt.Sprintf("v%d.%d.%d-%s", Major, Minor, Patch, Label)
}

// Full adds the toolchain and platform, as printed by otterygen info.
func Full() string {
	return fmt.Sprintf("libottery %s (%s %s/%s)", String(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
