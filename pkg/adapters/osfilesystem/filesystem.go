// Package osfilesystem implements ports.FileSystem on top of the os package.
package osfilesystem

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/user/framecast/pkg/ports"
)

// ErrFIFOUnsupported is returned by Mkfifo on platforms without named pipes.
var ErrFIFOUnsupported = errors.New("osfilesystem: named pipes are not supported on this platform")

// FileSystem implements ports.FileSystem using the os package.
type FileSystem struct{}

// New creates a new FileSystem.
func New() *FileSystem {
	return &FileSystem{}
}

// ReadFile reads the entire contents of a file.
func (fs *FileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile replaces path with data, creating parent directories as needed.
// Readers never observe a partially written file.
func (fs *FileSystem) WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return writeFile(path, data, 0644)
}

// MkdirAll creates a directory and all parent directories.
func (fs *FileSystem) MkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

// MkdirTemp creates a new directory under os.TempDir.
func (fs *FileSystem) MkdirTemp(pattern string) (string, error) {
	return os.MkdirTemp("", pattern)
}

// Mkfifo creates a named pipe readable and writable by the owner.
func (fs *FileSystem) Mkfifo(path string) error {
	return mkfifo(path, 0600)
}

// Exists checks if a file or directory exists.
func (fs *FileSystem) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Remove deletes a file or empty directory.
func (fs *FileSystem) Remove(path string) error {
	return os.Remove(path)
}

// RemoveAll deletes path and any children.
func (fs *FileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

var _ ports.FileSystem = (*FileSystem)(nil)
