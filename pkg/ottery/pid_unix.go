//go:build unix

package ottery

import "golang.org/x/sys/unix"

func processID() int {
	return unix.Getpid()
}
