package mocks

import (
	"fmt"
	"sync"
	"syscall"

	"github.com/user/framecast/pkg/ports"
)

// StreamSink is a mock implementation of ports.StreamSink.
type StreamSink struct {
	mu sync.Mutex

	// FailAfter makes every write after the first FailAfter succeed ones fail
	// as if the reader had exited. Zero disables it.
	FailAfter int
	WriteFunc func(p []byte) (int, error)

	// Recorded calls for verification
	Writes     [][]byte
	CloseCalls int
	closed     bool
}

func (m *StreamSink) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ports.ErrSinkClosed
	}
	if m.FailAfter > 0 && len(m.Writes) >= m.FailAfter {
		return 0, fmt.Errorf("%w: %w", ports.ErrSinkClosed, syscall.EPIPE)
	}
	if m.WriteFunc != nil {
		if n, err := m.WriteFunc(p); err != nil {
			return n, err
		}
	}
	m.Writes = append(m.Writes, append([]byte(nil), p...))
	return len(p), nil
}

func (m *StreamSink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalls++
	m.closed = true
	return nil
}

// WriteCount returns the number of successful writes.
func (m *StreamSink) WriteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Writes)
}

// Closes returns the number of Close calls.
func (m *StreamSink) Closes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CloseCalls
}

// Bytes returns everything written, concatenated.
func (m *StreamSink) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []byte
	for _, w := range m.Writes {
		out = append(out, w...)
	}
	return out
}

var _ ports.StreamSink = (*StreamSink)(nil)
