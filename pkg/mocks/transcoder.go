package mocks

import (
	"context"
	"sync"

	"github.com/user/framecast/pkg/ports"
)

// Transcoder is a mock implementation of ports.Transcoder.
type Transcoder struct {
	mu sync.Mutex

	LaunchFunc func(ctx context.Context, spec ports.SessionSpec) (ports.TranscodeSession, error)

	// VideoFailAfter configures the video sink of the n-th launched session
	// (zero-based) to fail after that many writes.
	VideoFailAfter map[int]int

	// AudioFailAfter does the same for the audio sink of FIFO sessions.
	AudioFailAfter map[int]int

	// CloseErr is returned by Close of the n-th launched session.
	CloseErr map[int]error

	// Recorded calls for verification
	Specs    []ports.SessionSpec
	Sessions []*Session
}

func (m *Transcoder) Launch(ctx context.Context, spec ports.SessionSpec) (ports.TranscodeSession, error) {
	m.mu.Lock()
	idx := len(m.Specs)
	m.Specs = append(m.Specs, spec)
	m.mu.Unlock()

	if m.LaunchFunc != nil {
		return m.LaunchFunc(ctx, spec)
	}

	s := &Session{
		Spec:      spec,
		VideoSink: &StreamSink{FailAfter: m.VideoFailAfter[idx]},
		CloseErr:  m.CloseErr[idx],
	}
	if spec.Audio.Kind == ports.InputFIFO {
		s.AudioSink = &StreamSink{FailAfter: m.AudioFailAfter[idx]}
	}
	s.state = ports.StateFeeding

	m.mu.Lock()
	m.Sessions = append(m.Sessions, s)
	m.mu.Unlock()
	return s, nil
}

// Launched returns the recorded sessions.
func (m *Transcoder) Launched() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Session(nil), m.Sessions...)
}

// Session is a mock implementation of ports.TranscodeSession.
type Session struct {
	mu sync.Mutex

	Spec      ports.SessionSpec
	VideoSink *StreamSink
	AudioSink *StreamSink
	CloseErr  error
	Lines     []string

	CloseCalls int
	state      ports.SessionState
}

func (s *Session) Video() ports.StreamSink { return s.VideoSink }

func (s *Session) Audio() ports.StreamSink {
	if s.AudioSink == nil {
		return nil
	}
	return s.AudioSink
}

func (s *Session) State() ports.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CloseCalls++
	if s.state == ports.StateClosed {
		return s.CloseErr
	}
	s.VideoSink.Close()
	if s.AudioSink != nil {
		s.AudioSink.Close()
	}
	s.state = ports.StateClosed
	return s.CloseErr
}

func (s *Session) Diagnostics(n int) []string {
	if len(s.Lines) <= n {
		return s.Lines
	}
	return s.Lines[len(s.Lines)-n:]
}

// Closes returns the number of Close calls.
func (s *Session) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.CloseCalls
}

var (
	_ ports.Transcoder       = (*Transcoder)(nil)
	_ ports.TranscodeSession = (*Session)(nil)
)
