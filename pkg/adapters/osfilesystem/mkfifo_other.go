//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd

package osfilesystem

func mkfifo(path string, mode uint32) error {
	return ErrFIFOUnsupported
}
