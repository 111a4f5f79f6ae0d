package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/user/framecast/pkg/adapters/pipesink"
	"github.com/user/framecast/pkg/metrics"
	"github.com/user/framecast/pkg/ports"
)

// Options configures how sessions are launched and torn down.
type Options struct {
	// Path is the ffmpeg executable.
	Path string

	// LogLevel is passed as -loglevel. Empty leaves ffmpeg's default.
	LogLevel string

	Encoding Encoding

	// ExitTimeout bounds how long Close waits for the process after closing
	// its inputs. Zero waits indefinitely.
	ExitTimeout time.Duration

	// KillGrace is the time between SIGTERM and SIGKILL once ExitTimeout expires.
	KillGrace time.Duration

	// DiagnosticLines is the number of stderr lines kept per session.
	DiagnosticLines int
}

// DefaultOptions returns options for the ffmpeg found in PATH.
func DefaultOptions() Options {
	return Options{
		Path:            "ffmpeg",
		LogLevel:        "warning",
		Encoding:        DefaultEncoding(),
		KillGrace:       2 * time.Second,
		DiagnosticLines: 200,
	}
}

// Launcher starts ffmpeg sessions. It implements ports.Transcoder.
type Launcher struct {
	opts Options
	log  ports.Logger
}

// NewLauncher creates a launcher.
func NewLauncher(opts Options, log ports.Logger) *Launcher {
	if opts.DiagnosticLines <= 0 {
		opts.DiagnosticLines = 200
	}
	if opts.KillGrace <= 0 {
		opts.KillGrace = 2 * time.Second
	}
	return &Launcher{opts: opts, log: log}
}

// Launch starts ffmpeg for spec and begins draining its stderr.
func (l *Launcher) Launch(ctx context.Context, spec ports.SessionSpec) (ports.TranscodeSession, error) {
	label := spec.Label
	if label == "" {
		label = "session"
	}
	args := BuildArgs(spec, l.opts.Encoding, l.opts.LogLevel)
	l.log.Debug("%s: %s %s", label, l.opts.Path, strings.Join(args, " "))

	cmd := exec.Command(l.opts.Path, args...)
	setProcessGroup(cmd)

	s := &Session{
		label:       label,
		cmd:         cmd,
		ring:        NewLineRing(l.opts.DiagnosticLines),
		log:         l.log.WithComponent("ffmpeg"),
		exitTimeout: l.opts.ExitTimeout,
		killGrace:   l.opts.KillGrace,
		exited:      make(chan struct{}),
	}
	s.state.Store(int32(ports.StateLaunching))

	var stdin io.WriteCloser
	var err error
	if spec.Video.Kind == ports.InputStdin || spec.Audio.Kind == ports.InputStdin {
		stdin, err = cmd.StdinPipe()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: stdin pipe: %w", ports.ErrSinkLaunchFailed, label, err)
		}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: stderr pipe: %w", ports.ErrSinkLaunchFailed, label, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ports.ErrSinkLaunchFailed, label, err)
	}
	s.started = time.Now()

	// FIFO opens give up once the process is gone.
	procCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	switch spec.Video.Kind {
	case ports.InputStdin:
		s.video = pipesink.New("video", stdin)
	case ports.InputFIFO:
		s.video = pipesink.NewFIFO(procCtx, "video", spec.Video.Path)
	}
	switch spec.Audio.Kind {
	case ports.InputStdin:
		s.audio = pipesink.New("audio", stdin)
	case ports.InputFIFO:
		s.audio = pipesink.NewFIFO(procCtx, "audio", spec.Audio.Path)
	}

	s.drain.Add(1)
	go s.drainStderr(stderr)
	go s.wait()

	s.state.Store(int32(ports.StateFeeding))
	l.log.Debug("%s: ffmpeg started (pid %d)", label, cmd.Process.Pid)
	return s, nil
}

// Session is one running ffmpeg process. It implements ports.TranscodeSession.
type Session struct {
	label string
	cmd   *exec.Cmd
	ring  *LineRing
	log   ports.Logger

	video ports.StreamSink
	audio ports.StreamSink

	exitTimeout time.Duration
	killGrace   time.Duration

	state   atomic.Int32
	started time.Time
	cancel  context.CancelFunc

	drain   sync.WaitGroup
	exited  chan struct{}
	waitErr error

	closeOnce sync.Once
	closeErr  error
}

// Video returns the raw frame sink.
func (s *Session) Video() ports.StreamSink { return s.video }

// Audio returns the raw PCM sink, or nil when audio is not fed through a pipe.
func (s *Session) Audio() ports.StreamSink {
	return s.audio
}

// State returns the current lifecycle state.
func (s *Session) State() ports.SessionState {
	return ports.SessionState(s.state.Load())
}

// Diagnostics returns the last n stderr lines.
func (s *Session) Diagnostics(n int) []string {
	return s.ring.LastN(n)
}

// Exited is closed once the process has exited and its stderr is drained.
func (s *Session) Exited() <-chan struct{} {
	return s.exited
}

func (s *Session) drainStderr(r io.Reader) {
	defer s.drain.Done()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	sc.Split(scanLines)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		s.ring.Add(line)
		s.log.Debug("%s: %s", s.label, line)
	}
	// keep the pipe empty so ffmpeg never blocks on a full stderr
	_, _ = io.Copy(io.Discard, r)
}

// wait reaps the process. exec requires all stderr reads to finish before Wait.
func (s *Session) wait() {
	s.drain.Wait()
	s.waitErr = s.cmd.Wait()
	s.cancel()
	close(s.exited)
}

// Close closes the inputs and waits for ffmpeg to exit.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.closeErr = s.close(ctx)
	})
	return s.closeErr
}

func (s *Session) close(ctx context.Context) error {
	s.state.Store(int32(ports.StateDraining))

	if s.video != nil {
		if err := s.video.Close(); err != nil {
			s.log.Debug("%s: closing video input: %v", s.label, err)
		}
	}
	if s.audio != nil && s.audio != s.video {
		if err := s.audio.Close(); err != nil {
			s.log.Debug("%s: closing audio input: %v", s.label, err)
		}
	}

	waitCtx := ctx
	if s.exitTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, s.exitTimeout)
		defer cancel()
	}

	select {
	case <-s.exited:
	case <-waitCtx.Done():
		s.log.Warn("%s: ffmpeg did not exit, terminating", s.label)
		s.terminate()
	}

	s.state.Store(int32(ports.StateClosed))
	metrics.ObserveSession(s.waitErr == nil, time.Since(s.started))

	if s.waitErr != nil {
		tail := s.ring.LastN(5)
		if len(tail) == 0 {
			return fmt.Errorf("%w: %s: %w", ports.ErrTranscodeFailed, s.label, s.waitErr)
		}
		return fmt.Errorf("%w: %s: %w: %s", ports.ErrTranscodeFailed, s.label, s.waitErr, strings.Join(tail, " | "))
	}
	return nil
}

// terminate sends SIGTERM to the process group, then SIGKILL after the grace period,
// and waits for the reaper.
func (s *Session) terminate() {
	p := s.cmd.Process
	if err := interruptProcess(p); err != nil {
		s.log.Debug("%s: interrupt: %v", s.label, err)
	}

	t := time.NewTimer(s.killGrace)
	defer t.Stop()
	select {
	case <-s.exited:
		return
	case <-t.C:
	}

	s.log.Warn("%s: ffmpeg ignored SIGTERM, killing", s.label)
	if err := killProcess(p); err != nil {
		s.log.Debug("%s: kill: %v", s.label, err)
	}
	<-s.exited
}

// scanLines splits on \n and on the bare \r ffmpeg uses for progress lines.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

var (
	_ ports.Transcoder       = (*Launcher)(nil)
	_ ports.TranscodeSession = (*Session)(nil)
)
