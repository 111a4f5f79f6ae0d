package ports

import (
	"context"
	"time"
)

// SessionState is the lifecycle position of a TranscodeSession.
type SessionState int32

const (
	StateLaunching SessionState = iota
	StateFeeding
	StateDraining
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateLaunching:
		return "launching"
	case StateFeeding:
		return "feeding"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// InputKind selects how a stream reaches the transcoder.
type InputKind int

const (
	// InputNone disables the stream.
	InputNone InputKind = iota
	// InputStdin feeds raw bytes through the process's standard input.
	InputStdin
	// InputFIFO feeds raw bytes through a named pipe at Path.
	InputFIFO
	// InputFile lets the transcoder read an encoded file at Path directly.
	InputFile
)

func (k InputKind) String() string {
	switch k {
	case InputNone:
		return "none"
	case InputStdin:
		return "stdin"
	case InputFIFO:
		return "fifo"
	case InputFile:
		return "file"
	default:
		return "unknown"
	}
}

// VideoInput locates the raw bgr24 video stream.
type VideoInput struct {
	Kind InputKind
	Path string
}

// AudioInput locates the audio stream. For InputFile, Start and Duration
// select a sub-range of the file; a zero Duration means "to the end".
type AudioInput struct {
	Kind     InputKind
	Path     string
	Start    time.Duration
	Duration time.Duration
}

// SessionSpec is everything needed to launch one transcoder process.
type SessionSpec struct {
	Params StreamParameters
	Video  VideoInput
	Audio  AudioInput

	OutputURL string

	// OutputOffset shifts output timestamps so consecutive sessions form
	// one continuous timeline.
	OutputOffset time.Duration

	// ForceKeyframes forces the first N frames of the session to be keyframes.
	ForceKeyframes int

	// Shortest ends the output when the shortest input ends.
	Shortest bool

	// Label identifies the session in logs and errors, e.g. "chunk 3".
	Label string
}

// Transcoder launches transcoder processes.
type Transcoder interface {
	// Launch starts a process for spec. A process that cannot be started
	// yields an error wrapping ErrSinkLaunchFailed.
	Launch(ctx context.Context, spec SessionSpec) (TranscodeSession, error)
}

// TranscodeSession is one transcoder process lifetime.
type TranscodeSession interface {
	// Video returns the sink for raw frames. Nil when SessionSpec.Video is InputNone.
	Video() StreamSink

	// Audio returns the sink for raw PCM. Nil unless audio is fed through a pipe.
	Audio() StreamSink

	State() SessionState

	// Close closes every input, then waits for the process to exit.
	// A non-zero exit yields an error wrapping ErrTranscodeFailed.
	// Close is idempotent; later calls return the first result.
	Close(ctx context.Context) error

	// Diagnostics returns up to n of the most recent stderr lines.
	Diagnostics(n int) []string
}
