package mocks

import (
	"context"
	"io"
	"sync"

	"github.com/user/framecast/pkg/ports"
)

// FrameSource is a mock implementation of ports.FrameSource serving Frames in order.
type FrameSource struct {
	mu sync.Mutex

	Media  ports.MediaInfo
	Frames []ports.Frame

	// NextErr, when set, is returned instead of the frame at index ErrAt.
	NextErr error
	ErrAt   int

	pos        int
	CloseCalls int
}

// NewFrameSource creates a source of n frames, each filled with its index.
func NewFrameSource(width, height int, fps float64, n int) *FrameSource {
	info := ports.MediaInfo{Width: width, Height: height, FPS: fps, FrameCount: n}
	frames := make([]ports.Frame, n)
	for i := range frames {
		f := make(ports.Frame, info.FrameSize())
		for j := range f {
			f[j] = byte(i)
		}
		frames[i] = f
	}
	return &FrameSource{Media: info, Frames: frames}
}

func (m *FrameSource) Info() ports.MediaInfo { return m.Media }

func (m *FrameSource) Next(ctx context.Context) (ports.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.NextErr != nil && m.pos == m.ErrAt {
		return nil, m.NextErr
	}
	if m.pos >= len(m.Frames) {
		return nil, io.EOF
	}
	f := m.Frames[m.pos]
	m.pos++
	return f, nil
}

func (m *FrameSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalls++
	return nil
}

// AudioSource is a mock implementation of ports.AudioSource serving Blocks in order.
type AudioSource struct {
	mu sync.Mutex

	Audio  ports.AudioInfo
	Blocks []ports.AudioBlock

	pos        int
	CloseCalls int
}

// NewAudioSource creates a 16-bit source of n blocks with blockFrames sample frames each.
func NewAudioSource(sampleRate, channels, blockFrames, n int) *AudioSource {
	info := ports.AudioInfo{SampleRate: sampleRate, Channels: channels, BitDepth: 16, Frames: blockFrames * n}
	blocks := make([]ports.AudioBlock, n)
	for i := range blocks {
		b := make(ports.AudioBlock, blockFrames*info.BytesPerFrame())
		for j := range b {
			b[j] = byte(i)
		}
		blocks[i] = b
	}
	return &AudioSource{Audio: info, Blocks: blocks}
}

func (m *AudioSource) Info() ports.AudioInfo { return m.Audio }

func (m *AudioSource) Next(ctx context.Context) (ports.AudioBlock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pos >= len(m.Blocks) {
		return nil, io.EOF
	}
	b := m.Blocks[m.pos]
	m.pos++
	return b, nil
}

func (m *AudioSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalls++
	return nil
}

// MediaProber is a mock implementation of ports.MediaProber.
type MediaProber struct {
	Info      ports.MediaInfo
	Err       error
	ProbeFunc func(ctx context.Context, path string) (ports.MediaInfo, error)

	Paths []string
}

func (m *MediaProber) Probe(ctx context.Context, path string) (ports.MediaInfo, error) {
	m.Paths = append(m.Paths, path)
	if m.ProbeFunc != nil {
		return m.ProbeFunc(ctx, path)
	}
	return m.Info, m.Err
}

var (
	_ ports.FrameSource = (*FrameSource)(nil)
	_ ports.AudioSource = (*AudioSource)(nil)
	_ ports.MediaProber = (*MediaProber)(nil)
)
