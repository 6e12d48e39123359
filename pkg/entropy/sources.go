package entropy

// defaultSources lists the compiled-in sources in the order they are
// consulted: operating system first, then the CPU, then EGD.
func defaultSources() []Source {
	var s []Source
	s = append(s, osSources()...)
	s = append(s, cpuSources()...)
	s = append(s, EGD)
	return s
}
