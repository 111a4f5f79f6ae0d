// Package orchestrator wires sources, relays, pacers and transcode sessions
// together for one streaming run.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/user/framecast/pkg/pacer"
	"github.com/user/framecast/pkg/pipeline"
	"github.com/user/framecast/pkg/ports"
	"github.com/user/framecast/pkg/relay"
	"github.com/user/framecast/pkg/stages/acquire"
	"github.com/user/framecast/pkg/stages/chunk"
	"github.com/user/framecast/pkg/stages/feed"
)

// Mode selects how frames reach the transcoder.
type Mode string

const (
	// ModeDirect runs one session fed through its standard input; audio is read from file.
	ModeDirect Mode = "direct"
	// ModeFIFO runs one session reading raw video and raw audio from two named pipes.
	ModeFIFO Mode = "fifo"
	// ModeChunked runs one short-lived session per chunk.
	ModeChunked Mode = "chunked"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDirect, ModeFIFO, ModeChunked:
		return Mode(s), nil
	case "":
		return ModeDirect, nil
	}
	return "", fmt.Errorf("unknown mode %q (want direct, fifo or chunked)", s)
}

// Config contains all configuration for the orchestrator.
type Config struct {
	Mode      Mode
	Params    ports.StreamParameters
	OutputURL string

	// AudioPath is the audio file handed to the transcoder in direct and
	// chunked modes. FIFO mode streams Sources.Audio instead.
	AudioPath string

	// StartDelay gives the receiver time to start listening.
	StartDelay time.Duration

	VideoFramesPerItem int
	AudioBlockFrames   int
	VideoRelayCapacity int
	AudioRelayCapacity int

	ChunkDuration  time.Duration
	ForceKeyframes int
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Mode:               ModeDirect,
		StartDelay:         3 * time.Second,
		VideoFramesPerItem: 4,
		AudioBlockFrames:   1024,
		VideoRelayCapacity: 60,
		AudioRelayCapacity: 200,
		ChunkDuration:      chunk.DefaultDuration,
		ForceKeyframes:     chunk.DefaultForceKeyframes,
	}
}

// Sources are the opened inputs of a run.
type Sources struct {
	Video ports.FrameSource
	Audio ports.AudioSource // FIFO mode only; may be nil
}

// Stages are the producer and writer stages used by the single-session modes.
type Stages struct {
	AcquireVideo pipeline.Stage[pipeline.AcquireVideoInput, pipeline.AcquireResult]
	AcquireAudio pipeline.Stage[pipeline.AcquireAudioInput, pipeline.AcquireResult]
	FeedVideo    pipeline.Stage[pipeline.FeedInput, pipeline.FeedResult]
	FeedAudio    pipeline.Stage[pipeline.FeedInput, pipeline.FeedResult]
}

// DefaultStages returns the standard stage implementations.
func DefaultStages(logger ports.Logger) Stages {
	return Stages{
		AcquireVideo: acquire.NewVideo(logger),
		AcquireAudio: acquire.NewAudio(logger),
		FeedVideo:    feed.New("video", logger),
		FeedAudio:    feed.New("audio", logger),
	}
}

// Orchestrator coordinates the execution of one streaming run.
type Orchestrator struct {
	stages     Stages
	transcoder ports.Transcoder
	fs         ports.FileSystem
	logger     ports.Logger
	clock      pacer.Clock
}

// New creates a new Orchestrator.
func New(stages Stages, transcoder ports.Transcoder, fs ports.FileSystem, logger ports.Logger) *Orchestrator {
	return &Orchestrator{
		stages:     stages,
		transcoder: transcoder,
		fs:         fs,
		logger:     logger,
		clock:      pacer.SystemClock(),
	}
}

// Run streams the sources to the transcoder.
//
// The returned error is reserved for failures before any data was sent
// (session launch, pipe creation). Failures once streaming has started are
// recorded in RunSummary.Err; an interrupt sets RunSummary.Interrupted.
func (o *Orchestrator) Run(ctx context.Context, config Config, src Sources) (pipeline.RunSummary, error) {
	summary := pipeline.RunSummary{
		RunID:     uuid.NewString(),
		Mode:      string(config.Mode),
		OutputURL: config.OutputURL,
		Params:    config.Params,
		StartedAt: o.clock.Now(),
	}
	defer func() {
		summary.Elapsed = o.clock.Now().Sub(summary.StartedAt)
	}()

	o.logger.Debug("run %s: mode %s", summary.RunID, summary.Mode)

	p := config.Params
	if p.HasAudio() {
		o.logger.Info("Streaming %dx%d @ %.2f fps with %d Hz %d ch audio to %s", p.Width, p.Height, p.FPS, p.SampleRate, p.Channels, config.OutputURL)
	} else {
		o.logger.Info("Streaming %dx%d @ %.2f fps to %s", p.Width, p.Height, p.FPS, config.OutputURL)
	}

	if config.StartDelay > 0 {
		o.logger.Info("Sending starts in %s", config.StartDelay)
		if err := o.clock.Sleep(ctx, config.StartDelay); err != nil {
			summary.Interrupted = true
			return summary, nil
		}
	}

	var err error
	switch config.Mode {
	case ModeFIFO:
		err = o.runFIFO(ctx, config, src, &summary)
	case ModeChunked:
		err = o.runChunked(ctx, config, src, &summary)
	default:
		err = o.runDirect(ctx, config, src, &summary)
	}
	if err != nil {
		return summary, err
	}

	if ctx.Err() != nil {
		summary.Interrupted = true
		o.logger.Info("Interrupted, stopping stream")
	}
	if summary.Err != nil {
		o.logger.Error("Stream stopped early: %v", summary.Err)
	}
	o.logger.Info("Sent %d frames (%.1f s)", summary.FramesSent, ports.FramesDuration(summary.FramesSent, p.FPS).Seconds())
	return summary, nil
}

func (o *Orchestrator) runDirect(ctx context.Context, config Config, src Sources, summary *pipeline.RunSummary) error {
	spec := ports.SessionSpec{
		Params:         config.Params,
		Video:          ports.VideoInput{Kind: ports.InputStdin},
		OutputURL:      config.OutputURL,
		ForceKeyframes: config.ForceKeyframes,
		Label:          "stream",
	}
	if config.AudioPath != "" {
		spec.Audio = ports.AudioInput{Kind: ports.InputFile, Path: config.AudioPath}
	}

	sess, err := o.transcoder.Launch(ctx, spec)
	if err != nil {
		return fmt.Errorf("launch transcoder: %w", err)
	}
	summary.Sessions = 1

	vr := relay.New("video", config.VideoRelayCapacity)
	vp := pacer.New(config.Params.FPS, pacer.WithClock(o.clock))

	var acquired pipeline.AcquireResult
	var fed pipeline.FeedResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		acquired, err = o.stages.AcquireVideo.Execute(gctx, pipeline.AcquireVideoInput{
			Source:        src.Video,
			Relay:         vr,
			FramesPerItem: config.VideoFramesPerItem,
		})
		return err
	})
	g.Go(func() error {
		var err error
		fed, err = o.stages.FeedVideo.Execute(gctx, pipeline.FeedInput{
			Relay:    vr,
			Sink:     sess.Video(),
			Pacer:    vp,
			UnitSize: config.Params.FrameSize(),
		})
		return err
	})
	streamErr := g.Wait()

	closeErr := o.closeSession(ctx, sess)

	summary.FramesSent = fed.Units
	summary.VideoBytes = fed.Bytes
	summary.LateTicks = vp.Late()
	summary.Stalls = vr.Stats().Stalls
	o.logger.Debug("video: %d frames acquired, %d sent", acquired.Units, fed.Units)
	summary.Err = streamFailure(ctx, streamErr, closeErr)
	return nil
}

func (o *Orchestrator) runFIFO(ctx context.Context, config Config, src Sources, summary *pipeline.RunSummary) error {
	dir, err := o.fs.MkdirTemp("framecast-*")
	if err != nil {
		return fmt.Errorf("create fifo dir: %w", err)
	}
	defer func() {
		if err := o.fs.RemoveAll(dir); err != nil {
			o.logger.Debug("remove %s: %v", dir, err)
		}
	}()

	hasAudio := src.Audio != nil && config.Params.HasAudio()

	videoPath := filepath.Join(dir, "video.fifo")
	if err := o.fs.Mkfifo(videoPath); err != nil {
		return fmt.Errorf("create video fifo: %w", err)
	}
	spec := ports.SessionSpec{
		Params:         config.Params,
		Video:          ports.VideoInput{Kind: ports.InputFIFO, Path: videoPath},
		OutputURL:      config.OutputURL,
		ForceKeyframes: config.ForceKeyframes,
		Shortest:       hasAudio,
		Label:          "stream",
	}
	if hasAudio {
		audioPath := filepath.Join(dir, "audio.fifo")
		if err := o.fs.Mkfifo(audioPath); err != nil {
			return fmt.Errorf("create audio fifo: %w", err)
		}
		spec.Audio = ports.AudioInput{Kind: ports.InputFIFO, Path: audioPath}
	}

	sess, err := o.transcoder.Launch(ctx, spec)
	if err != nil {
		return fmt.Errorf("launch transcoder: %w", err)
	}
	summary.Sessions = 1

	// both pacers share one origin so audio and video leave in step
	origin := o.clock.Now()
	vr := relay.New("video", config.VideoRelayCapacity)
	vp := pacer.New(config.Params.FPS, pacer.WithClock(o.clock), pacer.WithOrigin(origin))

	var videoFed, audioFed pipeline.FeedResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := o.stages.AcquireVideo.Execute(gctx, pipeline.AcquireVideoInput{
			Source:        src.Video,
			Relay:         vr,
			FramesPerItem: config.VideoFramesPerItem,
		})
		return err
	})
	g.Go(func() error {
		var err error
		videoFed, err = o.stages.FeedVideo.Execute(gctx, pipeline.FeedInput{
			Relay:    vr,
			Sink:     sess.Video(),
			Pacer:    vp,
			UnitSize: config.Params.FrameSize(),
		})
		return err
	})

	var ar *relay.Relay
	if hasAudio && sess.Audio() != nil {
		ar = relay.New("audio", config.AudioRelayCapacity)
		blockRate := float64(config.Params.SampleRate) / float64(max(config.AudioBlockFrames, 1))
		ap := pacer.New(blockRate, pacer.WithClock(o.clock), pacer.WithOrigin(origin))

		g.Go(func() error {
			_, err := o.stages.AcquireAudio.Execute(gctx, pipeline.AcquireAudioInput{
				Source: src.Audio,
				Relay:  ar,
			})
			return err
		})
		g.Go(func() error {
			var err error
			audioFed, err = o.stages.FeedAudio.Execute(gctx, pipeline.FeedInput{
				Relay: ar,
				Sink:  sess.Audio(),
				Pacer: ap,
			})
			return err
		})
	}
	streamErr := g.Wait()

	closeErr := o.closeSession(ctx, sess)

	// With -shortest ffmpeg stops reading the longer input once the other
	// ends, so its writer sees a broken pipe on a successful run.
	if spec.Shortest && errors.Is(streamErr, ports.ErrSinkClosed) &&
		(closeErr == nil || videoFed.Drained || audioFed.Drained) {
		o.logger.Debug("input closed at end of the shorter stream: %v", streamErr)
		streamErr = nil
	}

	summary.FramesSent = videoFed.Units
	summary.VideoBytes = videoFed.Bytes
	summary.AudioBlocks = audioFed.Units
	summary.AudioBytes = audioFed.Bytes
	summary.LateTicks = vp.Late()
	summary.Stalls = vr.Stats().Stalls
	if ar != nil {
		summary.Stalls += ar.Stats().Stalls
	}
	summary.Err = streamFailure(ctx, streamErr, closeErr)
	return nil
}

func (o *Orchestrator) runChunked(ctx context.Context, config Config, src Sources, summary *pipeline.RunSummary) error {
	scheduler := chunk.New(o.transcoder, chunk.Config{
		Params:         config.Params,
		Duration:       config.ChunkDuration,
		OutputURL:      config.OutputURL,
		AudioPath:      config.AudioPath,
		ForceKeyframes: config.ForceKeyframes,
	}, o.logger)

	if n := src.Video.Info().FrameCount; n > 0 {
		plan := chunk.Plan(n, config.Params.FPS, config.ChunkDuration)
		o.logger.Info("Sending %d frames in %d chunks", n, len(plan))
	}

	vp := pacer.New(config.Params.FPS, pacer.WithClock(o.clock))
	result, err := scheduler.Execute(ctx, pipeline.ChunkInput{Source: src.Video, Pacer: vp})

	summary.Chunks = result.Chunks
	summary.Sessions = result.Sessions
	summary.FramesSent = result.FramesSent
	summary.VideoBytes = int64(result.FramesSent) * int64(config.Params.FrameSize())
	summary.LateTicks = vp.Late()
	summary.Err = streamFailure(ctx, err, nil)
	return nil
}

// closeSession closes and awaits the session even when ctx is cancelled.
func (o *Orchestrator) closeSession(ctx context.Context, sess ports.TranscodeSession) error {
	err := sess.Close(context.WithoutCancel(ctx))
	if err != nil {
		for _, line := range sess.Diagnostics(5) {
			o.logger.Debug("ffmpeg: %s", line)
		}
	}
	return err
}

// streamFailure picks the error worth reporting. Cancellation is a graceful stop.
func streamFailure(ctx context.Context, streamErr, closeErr error) error {
	if ctx.Err() != nil {
		return nil
	}
	if streamErr != nil && !errors.Is(streamErr, context.Canceled) {
		return streamErr
	}
	return closeErr
}
