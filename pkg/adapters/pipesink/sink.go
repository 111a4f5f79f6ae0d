// Package pipesink implements ports.StreamSink over process pipes and named pipes.
package pipesink

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/user/framecast/pkg/metrics"
	"github.com/user/framecast/pkg/ports"
)

// Sink writes to an already-open pipe such as a child's standard input.
type Sink struct {
	name string
	w    io.WriteCloser

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
	written   atomic.Int64
}

// New wraps w. The name labels errors and byte counters, e.g. "video".
func New(name string, w io.WriteCloser) *Sink {
	return &Sink{name: name, w: w}
}

// Write writes p in full. A reader that has gone away yields ports.ErrSinkClosed.
func (s *Sink) Write(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, fmt.Errorf("%s: %w", s.name, ports.ErrSinkClosed)
	}

	n, err := s.w.Write(p)
	if n > 0 {
		s.written.Add(int64(n))
		metrics.AddBytesSent(s.name, n)
	}
	if err != nil {
		if IsBrokenPipe(err) || s.closed.Load() {
			return n, fmt.Errorf("%s: %w: %w", s.name, ports.ErrSinkClosed, err)
		}
		return n, fmt.Errorf("%s: write: %w", s.name, err)
	}
	if n < len(p) {
		return n, fmt.Errorf("%s: %w", s.name, io.ErrShortWrite)
	}
	return n, nil
}

// Close closes the pipe once. A pipe the reader already abandoned closes cleanly.
func (s *Sink) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		if err := s.w.Close(); err != nil && !IsBrokenPipe(err) {
			s.closeErr = fmt.Errorf("%s: close: %w", s.name, err)
		}
	})
	return s.closeErr
}

// Written returns the number of bytes accepted by the pipe.
func (s *Sink) Written() int64 {
	return s.written.Load()
}

// IsBrokenPipe reports whether err means the reading end is gone.
func IsBrokenPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, fs.ErrClosed)
}

var _ ports.StreamSink = (*Sink)(nil)
