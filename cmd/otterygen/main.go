package main

import (
	"flag"
	"fmt"
	"os"

	pkgversion "github.com/sanyaade-iot/libottery/pkg/version"
)

// Build-time variables (set via -ldflags)
var (
	version   = ""        // Set via -ldflags "-X main.version=x.y.z"
	buildTime = "unknown" // Set via -ldflags "-X main.buildTime=..."
	gitCommit = "unknown" // Set via -ldflags "-X main.gitCommit=..."
)

func getVersion() string {
	if version != "" {
		return version
	}
	return pkgversion.String()
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "bytes":
		bytesCommand()
	case "bench":
		benchCommand()
	case "info":
		infoCommand()
	case "selftest":
		selftestCommand()
	case "version":
		fmt.Printf("otterygen version %s\n", getVersion())
		if buildTime != "unknown" {
			fmt.Printf("Built: %s\n", buildTime)
		}
		if gitCommit != "unknown" {
			fmt.Printf("Commit: %s\n", gitCommit)
		}
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`otterygen - libottery random byte generator and diagnostics

USAGE:
    otterygen <command> [options]

COMMANDS:
    bytes     Write random bytes to stdout
    bench     Measure generator throughput per PRF implementation
    info      Show CPU capabilities, PRF implementations and entropy sources
    selftest  Run the PRF known-answer tests and a seeding check
    version   Print version information
    help      Show this help message

Run 'otterygen <command> --help' for more information on a command.

EXAMPLES:
    # 32 random bytes as hex
    otterygen bytes --count 32 --format hex

    # 1 MiB of raw output from ChaCha8
    otterygen bytes --count 1MB --prf CHACHA8 > random.bin

    # Benchmark every usable implementation for 5 seconds each
    otterygen bench --duration 5s

    # Seed from a file instead of the system RNG (testing only)
    otterygen bytes --urandom ./seed.bin --disable getrandom,rdrand`)
}

// generatorFlags are the options shared by commands that build a state.
type generatorFlags struct {
	prf       *string
	urandom   *string
	disable   *string
	egdNet    *string
	egdAddr   *string
	logLevel  *string
	logFormat *string
	tracing   *string
}

func addGeneratorFlags(fs *flag.FlagSet) generatorFlags {
	return generatorFlags{
		prf:       fs.String("prf", "CHACHA20", "PRF algorithm (CHACHA8, CHACHA12, CHACHA20) or implementation name"),
		urandom:   fs.String("urandom", "", "Read seed material from this file instead of the random device"),
		disable:   fs.String("disable", "", "Comma-separated entropy sources to skip (randomdev, getrandom, rdrand, egd, cryptgenrandom)"),
		egdNet:    fs.String("egd-net", "unix", "Network of the EGD socket"),
		egdAddr:   fs.String("egd-addr", "", "Address of an EGD-style entropy daemon. Empty disables"),
		logLevel:  fs.String("log-level", "warn", "Log level: debug, info, warn, error, silent"),
		logFormat: fs.String("log-format", "text", "Log format: text or json"),
		tracing:   fs.String("tracing", "none", "Tracing mode: none, simple, otel (requires -tags otel)"),
	}
}

func bytesCommand() {
	fs := flag.NewFlagSet("bytes", flag.ExitOnError)
	count := fs.String("count", "32", "Number of bytes (e.g., 64, 4KB, 1MB)")
	format := fs.String("format", "hex", "Output format: raw, hex or base64")
	gf := addGeneratorFlags(fs)

	fs.Usage = func() {
		fmt.Println(`USAGE: otterygen bytes [options]

Write random bytes from a freshly seeded generator state to stdout.

OPTIONS:`)
		fs.PrintDefaults()
		fmt.Println(`
EXAMPLES:
    otterygen bytes --count 16
    otterygen bytes --count 1MB --format raw > random.bin
    otterygen bytes --format base64 --prf CHACHA12`)
	}

	_ = fs.Parse(os.Args[2:])

	runBytes(parseSize(*count), *format, gf)
}

func benchCommand() {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	duration := fs.String("duration", "2s", "Duration per implementation (e.g., 2s, 1m)")
	chunk := fs.String("chunk", "4KB", "Bytes requested per call")
	baseline := fs.Bool("baseline", true, "Also measure crypto/rand for comparison")
	obsAddr := fs.String("obs-addr", "", "Observability server address while benchmarking. Empty disables")

	fs.Usage = func() {
		fmt.Println(`USAGE: otterygen bench [options]

Measure the throughput of every PRF implementation usable on this CPU.

OPTIONS:`)
		fs.PrintDefaults()
		fmt.Println(`
EXAMPLES:
    otterygen bench
    otterygen bench --chunk 16 --duration 5s
    otterygen bench --obs-addr :9090`)
	}

	_ = fs.Parse(os.Args[2:])

	runBench(parseDuration(*duration), int(parseSize(*chunk)), *baseline, *obsAddr)
}

func infoCommand() {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	gf := addGeneratorFlags(fs)
	fs.Usage = func() {
		fmt.Println(`USAGE: otterygen info [options]

Show what the generator would run on this machine.

OPTIONS:`)
		fs.PrintDefaults()
	}

	_ = fs.Parse(os.Args[2:])

	runInfo(gf)
}

func selftestCommand() {
	fs := flag.NewFlagSet("selftest", flag.ExitOnError)
	gf := addGeneratorFlags(fs)
	fs.Usage = func() {
		fmt.Println(`USAGE: otterygen selftest [options]

Run the PRF known-answer tests, compare every usable implementation with
the portable reference, then seed a state and run its health check.
Exits non-zero on any failure.

OPTIONS:`)
		fs.PrintDefaults()
	}

	_ = fs.Parse(os.Args[2:])

	runSelfTest(gf)
}
