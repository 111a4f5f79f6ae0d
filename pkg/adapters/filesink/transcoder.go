// Package filesink provides a transcoder that dumps each session's raw input
// streams to disk instead of launching ffmpeg. Every session gets its own
// directory holding the raw streams and a manifest.yaml describing the
// ffmpeg invocation that would have been made.
package filesink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/user/framecast/pkg/adapters/ffmpeg"
	"github.com/user/framecast/pkg/adapters/pipesink"
	"github.com/user/framecast/pkg/ports"
)

const (
	VideoFile    = "video.bgr24"
	AudioFile    = "audio.s16le"
	ManifestFile = "manifest.yaml"
)

// Manifest records one dumped session.
type Manifest struct {
	Label         string   `yaml:"label"`
	Width         int      `yaml:"width"`
	Height        int      `yaml:"height"`
	FPS           float64  `yaml:"fps"`
	SampleRate    int      `yaml:"sample_rate,omitempty"`
	Channels      int      `yaml:"channels,omitempty"`
	OutputURL     string   `yaml:"output_url"`
	OutputOffset  float64  `yaml:"output_offset_seconds"`
	AudioPath     string   `yaml:"audio_path,omitempty"`
	AudioStart    float64  `yaml:"audio_start_seconds,omitempty"`
	AudioDuration float64  `yaml:"audio_duration_seconds,omitempty"`
	VideoBytes    int64    `yaml:"video_bytes"`
	AudioBytes    int64    `yaml:"audio_bytes,omitempty"`
	FFmpegArgs    []string `yaml:"ffmpeg_args"`
}

// Transcoder writes sessions below a dump directory.
type Transcoder struct {
	dir string
	fs  ports.FileSystem
	enc ffmpeg.Encoding

	mu sync.Mutex
	n  int
}

// NewTranscoder creates a dumping transcoder rooted at dir.
func NewTranscoder(dir string, fs ports.FileSystem) *Transcoder {
	return &Transcoder{dir: dir, fs: fs, enc: ffmpeg.DefaultEncoding()}
}

// Launch creates the session directory and opens its stream files.
func (t *Transcoder) Launch(ctx context.Context, spec ports.SessionSpec) (ports.TranscodeSession, error) {
	t.mu.Lock()
	t.n++
	n := t.n
	t.mu.Unlock()

	sdir := filepath.Join(t.dir, fmt.Sprintf("session-%03d", n))
	if err := t.fs.MkdirAll(sdir); err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrSinkLaunchFailed, err)
	}

	vf, err := os.Create(filepath.Join(sdir, VideoFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrSinkLaunchFailed, err)
	}

	s := &session{
		dir:   sdir,
		fs:    t.fs,
		video: pipesink.New("video", vf),
		manifest: Manifest{
			Label:        spec.Label,
			Width:        spec.Params.Width,
			Height:       spec.Params.Height,
			FPS:          spec.Params.FPS,
			SampleRate:   spec.Params.SampleRate,
			Channels:     spec.Params.Channels,
			OutputURL:    spec.OutputURL,
			OutputOffset: spec.OutputOffset.Seconds(),
			FFmpegArgs:   ffmpeg.BuildArgs(spec, t.enc, ""),
		},
	}
	if spec.Audio.Kind == ports.InputFile {
		s.manifest.AudioPath = spec.Audio.Path
		s.manifest.AudioStart = spec.Audio.Start.Seconds()
		s.manifest.AudioDuration = spec.Audio.Duration.Seconds()
	}
	if spec.Audio.Kind == ports.InputFIFO {
		af, err := os.Create(filepath.Join(sdir, AudioFile))
		if err != nil {
			_ = vf.Close()
			return nil, fmt.Errorf("%w: %w", ports.ErrSinkLaunchFailed, err)
		}
		s.audio = pipesink.New("audio", af)
	}
	s.state.Store(int32(ports.StateFeeding))
	return s, nil
}

// Sessions returns the number of sessions launched.
func (t *Transcoder) Sessions() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.n
}

type session struct {
	dir      string
	fs       ports.FileSystem
	video    *pipesink.Sink
	audio    *pipesink.Sink
	manifest Manifest
	state    atomic.Int32

	closeOnce sync.Once
	closeErr  error
}

func (s *session) Video() ports.StreamSink { return s.video }

func (s *session) Audio() ports.StreamSink {
	if s.audio == nil {
		return nil
	}
	return s.audio
}

func (s *session) State() ports.SessionState { return ports.SessionState(s.state.Load()) }

func (s *session) Diagnostics(n int) []string { return nil }

// Close closes the stream files and writes the manifest.
func (s *session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.state.Store(int32(ports.StateDraining))
		defer s.state.Store(int32(ports.StateClosed))

		if err := s.video.Close(); err != nil {
			s.closeErr = err
		}
		s.manifest.VideoBytes = s.video.Written()
		if s.audio != nil {
			if err := s.audio.Close(); err != nil && s.closeErr == nil {
				s.closeErr = err
			}
			s.manifest.AudioBytes = s.audio.Written()
		}

		data, err := yaml.Marshal(&s.manifest)
		if err != nil {
			s.closeErr = fmt.Errorf("marshal manifest: %w", err)
			return
		}
		if err := s.fs.WriteFile(filepath.Join(s.dir, ManifestFile), data); err != nil && s.closeErr == nil {
			s.closeErr = fmt.Errorf("write manifest: %w", err)
		}
	})
	return s.closeErr
}

var _ ports.Transcoder = (*Transcoder)(nil)
