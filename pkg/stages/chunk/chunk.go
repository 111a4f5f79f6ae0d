// Package chunk implements the chunk scheduler: the frame sequence is cut
// into fixed-duration chunks and every chunk is sent through its own
// transcode session, with output timestamps offset so the receiver sees
// one continuous stream.
package chunk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/user/framecast/pkg/metrics"
	"github.com/user/framecast/pkg/pacer"
	"github.com/user/framecast/pkg/pipeline"
	"github.com/user/framecast/pkg/ports"
)

const (
	// DefaultDuration is the configured length of one chunk.
	DefaultDuration = 5 * time.Second

	// DefaultForceKeyframes is the number of leading frames of every chunk encoded as keyframes.
	DefaultForceKeyframes = 3
)

// Config describes the chunked stream.
type Config struct {
	Params    ports.StreamParameters
	Duration  time.Duration
	OutputURL string

	// AudioPath is an audio file; each chunk's session reads only the
	// sub-range covering that chunk. Empty sends video only.
	AudioPath string

	ForceKeyframes int
}

// Scheduler sends chunks one session at a time. While chunk i is being fed,
// chunk i+1 is accumulated; no more than that is held in memory.
type Scheduler struct {
	transcoder ports.Transcoder
	cfg        Config
	logger     ports.Logger
}

// New creates a scheduler.
func New(transcoder ports.Transcoder, cfg Config, logger ports.Logger) *Scheduler {
	if cfg.Duration <= 0 {
		cfg.Duration = DefaultDuration
	}
	if cfg.ForceKeyframes <= 0 {
		cfg.ForceKeyframes = DefaultForceKeyframes
	}
	return &Scheduler{
		transcoder: transcoder,
		cfg:        cfg,
		logger:     logger.WithComponent("chunk"),
	}
}

// FramesPerChunk returns ceil(fps * d), at least 1.
func FramesPerChunk(fps float64, d time.Duration) int {
	n := int(math.Ceil(fps*d.Seconds() - 1e-9))
	if n < 1 {
		return 1
	}
	return n
}

// Plan returns the chunk layout for total frames without any frame data.
// Execute produces exactly this layout for a source of total frames.
func Plan(total int, fps float64, d time.Duration) []pipeline.Chunk {
	per := FramesPerChunk(fps, d)
	var chunks []pipeline.Chunk
	var start time.Duration
	for i := 0; total > 0; i++ {
		n := per
		if n > total {
			n = total
		}
		c := pipeline.Chunk{
			Index:          i,
			StartTime:      start,
			ActualDuration: ports.FramesDuration(n, fps),
		}
		chunks = append(chunks, c)
		start = c.End()
		total -= n
	}
	return chunks
}

// Execute partitions the source into chunks and sends each one. The first
// failing chunk ends the run with a *pipeline.ChunkError; chunks already sent
// are not retried and later chunks are not launched.
func (s *Scheduler) Execute(ctx context.Context, input pipeline.ChunkInput) (pipeline.ChunkResult, error) {
	var result pipeline.ChunkResult

	p := input.Pacer
	if p == nil {
		p = pacer.New(s.cfg.Params.FPS)
	}

	g, gctx := errgroup.WithContext(ctx)
	chunks := make(chan pipeline.Chunk)

	g.Go(func() error {
		defer close(chunks)
		return s.accumulate(gctx, input.Source, chunks)
	})

	g.Go(func() error {
		for c := range chunks {
			report, err := s.send(gctx, p, c)
			result.Chunks = append(result.Chunks, report)
			result.FramesSent += report.FramesWritten
			if report.Launched {
				result.Sessions++
			}
			if err != nil {
				return err
			}
		}
		return nil
	})

	err := g.Wait()
	return result, err
}

func (s *Scheduler) accumulate(ctx context.Context, src ports.FrameSource, out chan<- pipeline.Chunk) error {
	fps := s.cfg.Params.FPS
	per := FramesPerChunk(fps, s.cfg.Duration)

	var start time.Duration
	index := 0
	frames := make([]ports.Frame, 0, per)

	emit := func() error {
		c := pipeline.Chunk{
			Index:          index,
			Frames:         frames,
			StartTime:      start,
			ActualDuration: ports.FramesDuration(len(frames), fps),
		}
		select {
		case out <- c:
		case <-ctx.Done():
			return ctx.Err()
		}
		start = c.End()
		index++
		frames = make([]ports.Frame, 0, per)
		return nil
	}

	for {
		f, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			if len(frames) > 0 {
				return emit()
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}
		frames = append(frames, f)
		if len(frames) == per {
			if err := emit(); err != nil {
				return err
			}
		}
	}
}

// send runs one chunk through a fresh session. The session is always closed
// and awaited, even when ctx is cancelled, so the encoder flushes what it got.
func (s *Scheduler) send(ctx context.Context, p *pacer.Pacer, c pipeline.Chunk) (pipeline.ChunkReport, error) {
	report := pipeline.ChunkReport{
		Index:          c.Index,
		Frames:         len(c.Frames),
		StartTime:      c.StartTime,
		ActualDuration: c.ActualDuration,
	}

	spec := ports.SessionSpec{
		Params:         s.cfg.Params,
		Video:          ports.VideoInput{Kind: ports.InputStdin},
		OutputURL:      s.cfg.OutputURL,
		OutputOffset:   c.StartTime,
		ForceKeyframes: s.cfg.ForceKeyframes,
		Label:          fmt.Sprintf("chunk %d", c.Index),
	}
	if s.cfg.AudioPath != "" {
		spec.Audio = ports.AudioInput{
			Kind:     ports.InputFile,
			Path:     s.cfg.AudioPath,
			Start:    c.StartTime,
			Duration: c.ActualDuration,
		}
	}

	s.logger.Info("Chunk %d: %d frames, start %.3fs, duration %.3fs",
		c.Index, len(c.Frames), c.StartTime.Seconds(), c.ActualDuration.Seconds())

	sess, err := s.transcoder.Launch(ctx, spec)
	if err != nil {
		metrics.IncChunk(false)
		report.Err = err
		return report, &pipeline.ChunkError{Index: c.Index, FramesTotal: len(c.Frames), Err: err}
	}
	report.Launched = true

	written, writeErr := write(ctx, p, sess.Video(), c.Frames)
	report.FramesWritten = written
	closeErr := sess.Close(context.WithoutCancel(ctx))

	if ctx.Err() != nil && !errors.Is(writeErr, ports.ErrSinkClosed) {
		report.Err = ctx.Err()
		return report, ctx.Err()
	}

	failure := writeErr
	if failure == nil {
		failure = closeErr
	} else if closeErr != nil {
		s.logger.Debug("chunk %d: %v", c.Index, closeErr)
	}
	if failure != nil {
		metrics.IncChunk(false)
		if tail := sess.Diagnostics(5); len(tail) > 0 {
			s.logger.Debug("chunk %d ffmpeg output: %s", c.Index, strings.Join(tail, " | "))
		}
		report.Err = failure
		return report, &pipeline.ChunkError{
			Index:         c.Index,
			FramesWritten: written,
			FramesTotal:   len(c.Frames),
			Err:           failure,
		}
	}

	metrics.IncChunk(true)
	return report, nil
}

func write(ctx context.Context, p *pacer.Pacer, sink ports.StreamSink, frames []ports.Frame) (int, error) {
	if sink == nil {
		return 0, fmt.Errorf("session has no video input: %w", ports.ErrSinkClosed)
	}
	for i, f := range frames {
		if err := p.Wait(ctx); err != nil {
			return i, err
		}
		if _, err := sink.Write(f); err != nil {
			return i, err
		}
	}
	return len(frames), nil
}

var _ pipeline.Stage[pipeline.ChunkInput, pipeline.ChunkResult] = (*Scheduler)(nil)
