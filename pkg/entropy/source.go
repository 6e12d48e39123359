package entropy

// Source is one entropy collaborator.
type Source struct {
	// Name identifies the source in errors and logs.
	Name string

	// Flags combines strength hints, the domain and the source identity.
	Flags Flag

	// Granularity is the read unit of the source. A request for n bytes
	// occupies n rounded up to a multiple of Granularity. Zero means 1.
	Granularity int

	// Available reports whether the source can run under cfg at all. A nil
	// Available means always. Unavailable sources are skipped silently.
	Available func(cfg Config) bool

	// Read fills buf with at least n bytes and returns the number written
	// and the flags actually achieved. len(buf) is n rounded up to the
	// source's granularity.
	Read func(cfg Config, buf []byte, n int) (int, Flag, error)
}

// span returns how many buffer bytes a request for n bytes occupies.
func (s Source) span(n int) int {
	g := s.Granularity
	if g <= 1 {
		return n
	}
	return (n + g - 1) / g * g
}

func (s Source) available(cfg Config) bool {
	return s.Available == nil || s.Available(cfg)
}
