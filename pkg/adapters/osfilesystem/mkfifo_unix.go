//go:build linux || darwin || freebsd || netbsd || openbsd

package osfilesystem

import (
	"os"
	"syscall"
)

func mkfifo(path string, mode uint32) error {
	if err := syscall.Mkfifo(path, mode); err != nil {
		return &os.PathError{Op: "mkfifo", Path: path, Err: err}
	}
	return nil
}
