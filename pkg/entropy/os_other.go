//go:build !linux && !windows

package entropy

func osSources() []Source {
	return []Source{RandomDev}
}
