package osfilesystem

import "os"

// renameio cannot replace files atomically on Windows.
func writeFile(path string, data []byte, perm os.FileMode) error {
	return os.WriteFile(path, data, perm)
}
