package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/user/framecast/pkg/ports"
)

// Source decodes a media file into raw bgr24 frames through an ffmpeg child
// process. It implements ports.FrameSource.
type Source struct {
	path   string
	info   ports.MediaInfo
	cmd    *exec.Cmd
	stdout io.ReadCloser
	ring   *LineRing
	log    ports.Logger

	frames    int
	exhausted bool

	closeOnce sync.Once
	closeErr  error
}

// OpenSource starts decoding path. info must carry the frame dimensions,
// normally from a ports.MediaProber.
func OpenSource(ffmpegPath, path string, info ports.MediaInfo, log ports.Logger) (*Source, error) {
	if info.Width <= 0 || info.Height <= 0 {
		return nil, fmt.Errorf("%w: %s: unknown frame size", ports.ErrSourceUnavailable, path)
	}

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", path,
		"-an", "-sn",
		"-f", "rawvideo",
		"-pix_fmt", "bgr24",
		"-s", fmt.Sprintf("%dx%d", info.Width, info.Height),
		"-vsync", "passthrough",
		"pipe:1",
	}
	cmd := exec.Command(ffmpegPath, args...)
	setProcessGroup(cmd)

	ring := NewLineRing(50)
	cmd.Stderr = ring

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout pipe: %w", ports.ErrSourceUnavailable, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start decoder: %w", ports.ErrSourceUnavailable, err)
	}

	log.Debug("decoding %s as %dx%d bgr24", path, info.Width, info.Height)
	return &Source{
		path:   path,
		info:   info,
		cmd:    cmd,
		stdout: stdout,
		ring:   ring,
		log:    log,
	}, nil
}

// Info returns the metadata given at open.
func (s *Source) Info() ports.MediaInfo {
	return s.info
}

// Next reads one frame. A trailing partial frame is treated as end of stream.
// A decoder that produces no frames at all yields ports.ErrSourceUnavailable.
func (s *Source) Next(ctx context.Context) (ports.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.exhausted {
		return nil, io.EOF
	}

	frame := make(ports.Frame, s.info.FrameSize())
	_, err := io.ReadFull(s.stdout, frame)
	if err == nil {
		s.frames++
		return frame, nil
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		s.exhausted = true
		if errors.Is(err, io.ErrUnexpectedEOF) {
			s.log.Debug("%s: dropping partial trailing frame", s.path)
		}
		if s.frames == 0 {
			if werr := s.Close(); werr != nil {
				return nil, fmt.Errorf("%w: %s: %w", ports.ErrSourceUnavailable, s.path, werr)
			}
		}
		return nil, io.EOF
	}
	return nil, fmt.Errorf("read frame: %w", err)
}

// Frames returns the number of frames decoded so far.
func (s *Source) Frames() int {
	return s.frames
}

// Close stops the decoder. Stopping early is not an error.
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		early := !s.exhausted
		if early {
			_ = interruptProcess(s.cmd.Process)
		}
		_ = s.stdout.Close()

		err := s.cmd.Wait()
		if err == nil || early {
			return
		}
		if tail := s.ring.LastN(3); len(tail) > 0 {
			s.closeErr = fmt.Errorf("decoder: %w: %s", err, strings.Join(tail, " | "))
			return
		}
		s.closeErr = fmt.Errorf("decoder: %w", err)
	})
	return s.closeErr
}

var _ ports.FrameSource = (*Source)(nil)
