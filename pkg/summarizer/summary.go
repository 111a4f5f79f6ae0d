package summarizer

import (
	"time"

	"github.com/user/framecast/pkg/pipeline"
)

// Summary contains all data collected during a streaming run.
type Summary struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string

	Stream   StreamInfo
	Delivery DeliveryInfo
	Chunks   []ChunkInfo

	// Outcome
	Interrupted bool
	Error       string
}

// StreamInfo describes what was sent and where.
type StreamInfo struct {
	Mode       string
	OutputURL  string
	Width      int
	Height     int
	FPS        float64
	SampleRate int // 0 when the stream has no audio
	Channels   int
	AudioPath  string
}

// DeliveryInfo contains counters collected while sending.
type DeliveryInfo struct {
	FramesSent  int
	AudioBlocks int
	VideoBytes  int64
	AudioBytes  int64
	Sessions    int
	LateTicks   int64
	Stalls      int64
	Elapsed     time.Duration
}

// ChunkInfo describes one chunk of a chunked run.
type ChunkInfo struct {
	Index         int
	Frames        int
	FramesWritten int
	Start         time.Duration
	Duration      time.Duration
	Error         string
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithRun copies everything the orchestrator reported.
func (b *Builder) WithRun(run pipeline.RunSummary) *Builder {
	s := b.summary
	s.RunID = run.RunID
	s.Stream.Mode = run.Mode
	s.Stream.OutputURL = run.OutputURL
	s.Stream.Width = run.Params.Width
	s.Stream.Height = run.Params.Height
	s.Stream.FPS = run.Params.FPS
	s.Stream.SampleRate = run.Params.SampleRate
	s.Stream.Channels = run.Params.Channels

	s.Delivery = DeliveryInfo{
		FramesSent:  run.FramesSent,
		AudioBlocks: run.AudioBlocks,
		VideoBytes:  run.VideoBytes,
		AudioBytes:  run.AudioBytes,
		Sessions:    run.Sessions,
		LateTicks:   run.LateTicks,
		Stalls:      run.Stalls,
		Elapsed:     run.Elapsed,
	}

	s.Chunks = s.Chunks[:0]
	for _, c := range run.Chunks {
		info := ChunkInfo{
			Index:         c.Index,
			Frames:        c.Frames,
			FramesWritten: c.FramesWritten,
			Start:         c.StartTime,
			Duration:      c.ActualDuration,
		}
		if c.Err != nil {
			info.Error = c.Err.Error()
		}
		s.Chunks = append(s.Chunks, info)
	}

	s.Interrupted = run.Interrupted
	if run.Err != nil {
		s.Error = run.Err.Error()
	}
	return b
}

// WithAudioPath records the audio file that was muxed in.
func (b *Builder) WithAudioPath(path string) *Builder {
	b.summary.Stream.AudioPath = path
	return b
}

// WithGeneratedAt overrides the report timestamp.
func (b *Builder) WithGeneratedAt(t time.Time) *Builder {
	b.summary.GeneratedAt = t
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}

// Failed reports whether the run stopped on an error.
func (s *Summary) Failed() bool {
	return s.Error != ""
}
