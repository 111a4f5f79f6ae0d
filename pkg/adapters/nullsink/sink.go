// Package nullsink provides a transcoder that accepts and discards every stream.
// It backs --dry-run, where pacing and chunking run without launching ffmpeg.
package nullsink

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/user/framecast/pkg/ports"
)

// Sink discards everything written to it.
type Sink struct {
	closed  atomic.Bool
	written atomic.Int64
}

// New creates a discarding sink.
func New() *Sink {
	return &Sink{}
}

// Write counts p and drops it. Writes after Close fail like a real pipe would.
func (s *Sink) Write(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, ports.ErrSinkClosed
	}
	s.written.Add(int64(len(p)))
	return len(p), nil
}

// Close marks the sink closed.
func (s *Sink) Close() error {
	s.closed.Store(true)
	return nil
}

// Written returns the number of bytes discarded.
func (s *Sink) Written() int64 {
	return s.written.Load()
}

// Transcoder launches sessions backed by discarding sinks.
type Transcoder struct {
	mu       sync.Mutex
	launched []ports.SessionSpec
}

// NewTranscoder creates a discarding transcoder.
func NewTranscoder() *Transcoder {
	return &Transcoder{}
}

// Launch returns a session whose sinks discard their input.
func (t *Transcoder) Launch(ctx context.Context, spec ports.SessionSpec) (ports.TranscodeSession, error) {
	t.mu.Lock()
	t.launched = append(t.launched, spec)
	t.mu.Unlock()

	s := &session{video: New()}
	if spec.Audio.Kind == ports.InputFIFO {
		s.audio = New()
	}
	s.state.Store(int32(ports.StateFeeding))
	return s, nil
}

// Launched returns the specs of every session started so far.
func (t *Transcoder) Launched() []ports.SessionSpec {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]ports.SessionSpec(nil), t.launched...)
}

type session struct {
	video *Sink
	audio *Sink
	state atomic.Int32
}

func (s *session) Video() ports.StreamSink { return s.video }

func (s *session) Audio() ports.StreamSink {
	if s.audio == nil {
		return nil
	}
	return s.audio
}

func (s *session) State() ports.SessionState { return ports.SessionState(s.state.Load()) }

func (s *session) Close(ctx context.Context) error {
	s.video.Close()
	if s.audio != nil {
		s.audio.Close()
	}
	s.state.Store(int32(ports.StateClosed))
	return nil
}

func (s *session) Diagnostics(n int) []string { return nil }

var (
	_ ports.StreamSink = (*Sink)(nil)
	_ ports.Transcoder = (*Transcoder)(nil)
)
