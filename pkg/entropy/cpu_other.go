//go:build !amd64

package entropy

func cpuSources() []Source { return nil }
