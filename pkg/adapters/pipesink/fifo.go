package pipesink

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/user/framecast/pkg/ports"
)

// errNoReader is returned by openWriter while nobody has the FIFO open for reading.
var errNoReader = errors.New("fifo has no reader")

// DefaultPollInterval is how often a FIFO sink retries opening while waiting for its reader.
const DefaultPollInterval = 20 * time.Millisecond

// FIFO is a sink over a named pipe. The pipe is opened on the first Write,
// retrying until the reading process opens its end, ctx is done, or the sink is closed.
type FIFO struct {
	name string
	path string
	ctx  context.Context
	poll time.Duration

	mu   sync.Mutex
	sink *Sink

	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// NewFIFO returns a sink for the named pipe at path. The pipe must already exist.
// ctx bounds how long the first Write waits for a reader; cancel it when the
// reading process exits.
func NewFIFO(ctx context.Context, name, path string) *FIFO {
	return &FIFO{
		name: name,
		path: path,
		ctx:  ctx,
		poll: DefaultPollInterval,
		done: make(chan struct{}),
	}
}

// Path returns the location of the named pipe.
func (f *FIFO) Path() string {
	return f.path
}

// Write opens the pipe if needed and writes p in full.
func (f *FIFO) Write(p []byte) (int, error) {
	s, err := f.open()
	if err != nil {
		return 0, err
	}
	return s.Write(p)
}

func (f *FIFO) open() (*Sink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sink != nil {
		return f.sink, nil
	}

	for {
		select {
		case <-f.done:
			return nil, fmt.Errorf("%s: %w", f.name, ports.ErrSinkClosed)
		default:
		}

		w, err := openWriter(f.path)
		if err == nil {
			f.sink = New(f.name, w)
			return f.sink, nil
		}
		if !errors.Is(err, errNoReader) {
			return nil, fmt.Errorf("%s: open %s: %w: %w", f.name, f.path, ports.ErrSinkClosed, err)
		}

		select {
		case <-f.done:
			return nil, fmt.Errorf("%s: %w", f.name, ports.ErrSinkClosed)
		case <-f.ctx.Done():
			return nil, fmt.Errorf("%s: waiting for reader: %w: %w", f.name, ports.ErrSinkClosed, f.ctx.Err())
		case <-time.After(f.poll):
		}
	}
}

// Close closes the pipe. If it was never opened, a reader already blocked
// in open is released with an immediate end of stream.
func (f *FIFO) Close() error {
	f.closeOnce.Do(func() {
		close(f.done)

		f.mu.Lock()
		defer f.mu.Unlock()

		if f.sink != nil {
			f.closeErr = f.sink.Close()
			return
		}
		if w, err := openWriter(f.path); err == nil {
			_ = w.Close()
		}
	})
	return f.closeErr
}

// Written returns the number of bytes accepted so far.
func (f *FIFO) Written() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sink == nil {
		return 0
	}
	return f.sink.Written()
}

var _ ports.StreamSink = (*FIFO)(nil)
