package mocks

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/user/framecast/pkg/ports"
)

// FileSystem is a mock implementation of ports.FileSystem.
type FileSystem struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]bool
	fifos map[string]bool
	temps int

	ReadFileFunc  func(path string) ([]byte, error)
	WriteFileFunc func(path string, data []byte) error
	MkdirAllFunc  func(path string) error
	MkdirTempFunc func(pattern string) (string, error)
	MkfifoFunc    func(path string) error
	ExistsFunc    func(path string) (bool, error)
	RemoveFunc    func(path string) error
	RemoveAllFunc func(path string) error
}

// NewFileSystem creates a new mock FileSystem.
func NewFileSystem() *FileSystem {
	return &FileSystem{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
		fifos: make(map[string]bool),
	}
}

func (m *FileSystem) ReadFile(path string) ([]byte, error) {
	if m.ReadFileFunc != nil {
		return m.ReadFileFunc(path)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if data, ok := m.files[path]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("file not found: %s", path)
}

func (m *FileSystem) WriteFile(path string, data []byte) error {
	if m.WriteFileFunc != nil {
		return m.WriteFileFunc(path, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = data
	return nil
}

func (m *FileSystem) MkdirAll(path string) error {
	if m.MkdirAllFunc != nil {
		return m.MkdirAllFunc(path)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs[path] = true
	return nil
}

func (m *FileSystem) MkdirTemp(pattern string) (string, error) {
	if m.MkdirTempFunc != nil {
		return m.MkdirTempFunc(pattern)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.temps++
	dir := path.Join("/tmp", strings.Replace(pattern, "*", fmt.Sprint(m.temps), 1))
	m.dirs[dir] = true
	return dir, nil
}

func (m *FileSystem) Mkfifo(p string) error {
	if m.MkfifoFunc != nil {
		return m.MkfifoFunc(p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fifos[p] {
		return fmt.Errorf("fifo exists: %s", p)
	}
	m.fifos[p] = true
	return nil
}

func (m *FileSystem) Exists(path string) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(path)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.files[path]; ok {
		return true, nil
	}
	if _, ok := m.dirs[path]; ok {
		return true, nil
	}
	if _, ok := m.fifos[path]; ok {
		return true, nil
	}
	return false, nil
}

func (m *FileSystem) Remove(path string) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(path)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
	delete(m.dirs, path)
	delete(m.fifos, path)
	return nil
}

func (m *FileSystem) RemoveAll(dir string) error {
	if m.RemoveAllFunc != nil {
		return m.RemoveAllFunc(dir)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, set := range []map[string]bool{m.dirs, m.fifos} {
		for p := range set {
			if p == dir || strings.HasPrefix(p, dir+"/") {
				delete(set, p)
			}
		}
	}
	for p := range m.files {
		if p == dir || strings.HasPrefix(p, dir+"/") {
			delete(m.files, p)
		}
	}
	return nil
}

// Fifos returns the named pipes currently present (for test verification).
func (m *FileSystem) Fifos() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.fifos))
	for p := range m.fifos {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// GetFile returns the contents of a file (for test verification).
func (m *FileSystem) GetFile(path string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[path]
	return data, ok
}

// GetAllFiles returns all files (for test verification).
func (m *FileSystem) GetAllFiles() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(map[string][]byte)
	for k, v := range m.files {
		result[k] = v
	}
	return result
}

var _ ports.FileSystem = (*FileSystem)(nil)
