//go:build linux || darwin || freebsd || netbsd || openbsd

package pipesink

import (
	"errors"
	"io"
	"os"
	"syscall"
)

// openWriter opens the write end without blocking. The descriptor stays
// non-blocking so writes go through the runtime poller and Close can
// interrupt a write stuck on a full pipe.
func openWriter(path string) (io.WriteCloser, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|syscall.O_NONBLOCK, 0)
	if err != nil {
		if errors.Is(err, syscall.ENXIO) {
			return nil, errNoReader
		}
		return nil, err
	}
	return f, nil
}
