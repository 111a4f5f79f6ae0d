package pipeline

import (
	"fmt"
	"time"

	"github.com/user/framecast/pkg/pacer"
	"github.com/user/framecast/pkg/ports"
	"github.com/user/framecast/pkg/relay"
)

// =============================================================================
// Acquire Stage Types
// =============================================================================

// AcquireVideoInput configures the video producer.
type AcquireVideoInput struct {
	Source ports.FrameSource
	Relay  *relay.Relay

	// FramesPerItem batches consecutive frames into one relay item (default: 1).
	FramesPerItem int
}

// AcquireAudioInput configures the audio producer.
type AcquireAudioInput struct {
	Source ports.AudioSource
	Relay  *relay.Relay
}

// AcquireResult reports what a producer put into its relay.
type AcquireResult struct {
	Units int // frames or audio blocks read from the source
	Items int // relay items put
	Bytes int64
}

// =============================================================================
// Feed Stage Types
// =============================================================================

// FeedInput configures a paced writer draining one relay into one sink.
type FeedInput struct {
	Relay *relay.Relay
	Sink  ports.StreamSink
	Pacer *pacer.Pacer

	// UnitSize splits relay items into paced writes of this many bytes.
	// Zero writes each item as one unit.
	UnitSize int
}

// FeedResult reports what a writer delivered.
type FeedResult struct {
	Units int
	Bytes int64

	// Drained is set once the relay reached end of stream and every unit was written.
	Drained bool
}

// =============================================================================
// Chunk Stage Types
// =============================================================================

// Chunk is a time slice of the frame sequence handled by one transcode session.
type Chunk struct {
	Index  int
	Frames []ports.Frame

	// StartTime is the stream position of the first frame. It is also the
	// output timestamp offset of the chunk's session.
	StartTime time.Duration

	// ActualDuration is len(Frames)/fps; shorter than the configured chunk
	// duration only for the final chunk.
	ActualDuration time.Duration
}

// End returns the stream position just after the last frame.
func (c Chunk) End() time.Duration {
	return c.StartTime + c.ActualDuration
}

// ChunkInput is the frame sequence to partition and send.
type ChunkInput struct {
	Source ports.FrameSource
	Pacer  *pacer.Pacer
}

// ChunkReport describes one completed or failed chunk.
type ChunkReport struct {
	Index          int
	Frames         int
	FramesWritten  int
	StartTime      time.Duration
	ActualDuration time.Duration

	// Launched is false when the chunk's session never started.
	Launched bool
	Err      error
}

// ChunkResult summarizes a chunked run.
type ChunkResult struct {
	Chunks     []ChunkReport
	FramesSent int
	Sessions   int // sessions actually launched
}

// ChunkError is a chunk whose session failed. Chunks after it are not sent.
type ChunkError struct {
	Index         int
	FramesWritten int
	FramesTotal   int
	Err           error
}

func (e *ChunkError) Error() string {
	if e.FramesWritten < e.FramesTotal {
		return fmt.Sprintf("chunk %d: partial, %d of %d frames written: %v", e.Index, e.FramesWritten, e.FramesTotal, e.Err)
	}
	return fmt.Sprintf("chunk %d: %v", e.Index, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}

// Partial reports whether the chunk failed before all its frames were written.
func (e *ChunkError) Partial() bool {
	return e.FramesWritten < e.FramesTotal
}

// =============================================================================
// Run Summary
// =============================================================================

// RunSummary is the outcome of one streaming run.
type RunSummary struct {
	RunID       string
	Mode        string
	OutputURL   string
	Params      ports.StreamParameters
	StartedAt   time.Time
	Elapsed     time.Duration
	FramesSent  int
	AudioBlocks int
	VideoBytes  int64
	AudioBytes  int64
	Sessions    int
	Chunks      []ChunkReport
	LateTicks   int64
	Stalls      int64
	Interrupted bool
	Err         error
}
