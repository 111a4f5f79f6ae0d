//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd

package pipesink

import (
	"io"
	"os"
)

func openWriter(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_WRONLY, 0)
}
