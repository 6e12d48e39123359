package main

import (
	"fmt"
	"os"

	"github.com/sanyaade-iot/libottery/internal/memclear"
	"github.com/sanyaade-iot/libottery/pkg/cpucap"
	"github.com/sanyaade-iot/libottery/pkg/entropy"
	"github.com/sanyaade-iot/libottery/pkg/prf"
	pkgversion "github.com/sanyaade-iot/libottery/pkg/version"
)

func runInfo(gf generatorFlags) {
	fmt.Printf("otterygen %s\n", getVersion())
	fmt.Printf("%s\n\n", pkgversion.Full())

	caps := cpucap.Probe()
	fmt.Println("CPU:")
	fmt.Printf("  Capabilities: %s\n", caps)
	if d := cpucap.Disabled(); d != 0 {
		fmt.Printf("  Disabled: %s\n", d)
	}
	fmt.Printf("  Accelerated backends compiled in: %v\n", prf.SIMDEnabled())
	fmt.Println()

	selected, selErr := prf.SelectByName(*gf.prf, caps)

	fmt.Println("PRF implementations:")
	for _, p := range prf.All() {
		mark := " "
		if selErr == nil && p.Impl == selected.Impl {
			mark = "*"
		}
		usable := "usable"
		if !prf.Usable(p, caps) {
			usable = "needs " + p.RequiredCPUCap.String()
		}
		fmt.Printf("  %s %-20s %-10s state=%3d key=%2d block=%4d  %s\n",
			mark, p.Impl, p.Flavor, p.StateLen, p.StateBytes, p.OutputLen, usable)
	}
	if selErr != nil {
		fmt.Printf("  selection for %q failed: %v\n", *gf.prf, selErr)
	}
	fmt.Println()

	disabled, err := parseSources(*gf.disable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg := entropy.Config{
		URandomPath:     *gf.urandom,
		EGDNetwork:      *gf.egdNet,
		EGDAddr:         *gf.egdAddr,
		DisabledSources: disabled,
	}

	fmt.Println("Entropy sources:")
	for _, src := range entropy.Default.Sources() {
		state := "available"
		switch {
		case src.Flags&cfg.DisabledSources != 0:
			state = "disabled"
		case src.Available != nil && !src.Available(cfg):
			state = "unavailable"
		}
		fmt.Printf("  %-16s %-28s %s\n", src.Name, src.Flags, state)
	}

	buf := make([]byte, entropy.Default.BufSize(prf.ChaCha20Portable.StateBytes))
	n, flags, err := entropy.Default.Gather(cfg, 0, buf, prf.ChaCha20Portable.StateBytes)
	memclear.Clear(buf)
	if err != nil {
		fmt.Printf("  gather: FAILED (%v)\n", err)
	} else {
		fmt.Printf("  gather: %d bytes from %s\n", n, flags)
	}
}
