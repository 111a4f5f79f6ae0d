//go:build linux || darwin || freebsd || netbsd || openbsd

package ffmpeg

import "syscall"

func mkfifo(path string) error {
	return syscall.Mkfifo(path, 0600)
}
