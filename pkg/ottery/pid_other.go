//go:build !unix

package ottery

import "os"

func processID() int {
	return os.Getpid()
}
