package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sanyaade-iot/libottery/pkg/cpucap"
	"github.com/sanyaade-iot/libottery/pkg/metrics"
	"github.com/sanyaade-iot/libottery/pkg/prf"
)

func runSelfTest(gf generatorFlags) {
	// newState installs the tracer chosen by -tracing, so it comes first.
	st, _ := newState(gf)
	_, endSpan := metrics.StartSpan(context.Background(), metrics.SpanSelfTest)
	failed := false

	res := prf.SelfTest()
	fmt.Println("PRF self test:")
	for _, impl := range res.Checked {
		fmt.Printf("  ✓ %s\n", impl)
	}
	for _, e := range res.Errors {
		fmt.Printf("  ✗ %s\n", e)
	}
	if !res.Passed {
		failed = true
	}

	caps := cpucap.Probe()
	fmt.Println("\nCross-implementation comparison:")
	for _, p := range prf.Accelerated() {
		if !prf.Usable(p, caps) {
			fmt.Printf("  - %s skipped (needs %s)\n", p.Impl, p.RequiredCPUCap)
			continue
		}
		ref, err := prf.Lookup(p.Name)
		if err != nil {
			fmt.Printf("  ✗ %s: %v\n", p.Impl, err)
			failed = true
			continue
		}
		if err := prf.CompareImplementations(ref, p); err != nil {
			fmt.Printf("  ✗ %s: %v\n", p.Impl, err)
			failed = true
			continue
		}
		fmt.Printf("  ✓ %s matches %s\n", p.Impl, ref.Impl)
	}

	fmt.Println("\nSeeding:")
	if err := st.HealthCheck()(); err != nil {
		fmt.Printf("  ✗ %v\n", err)
		failed = true
	} else {
		fmt.Printf("  ✓ %s seeded from %s\n", st.Implementation().Impl, st.EntropyFlags())
	}
	st.Wipe()

	fmt.Println()
	if failed {
		endSpan(errors.New("self test failed"))
		fmt.Println("⚠ Self test FAILED")
		os.Exit(1)
	}
	endSpan(nil)
	fmt.Println("✓ Self test passed")
}
