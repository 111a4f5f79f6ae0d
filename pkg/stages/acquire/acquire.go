// Package acquire implements the producer stages that read media sources
// into bounded relays.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/user/framecast/pkg/pipeline"
	"github.com/user/framecast/pkg/ports"
)

// VideoStage reads frames into a relay, batching FramesPerItem frames per item.
type VideoStage struct {
	logger ports.Logger
}

// NewVideo creates a video producer stage.
func NewVideo(logger ports.Logger) *VideoStage {
	return &VideoStage{logger: logger.WithComponent("acquire")}
}

// Execute reads the source to exhaustion. The relay is closed on every return
// path so the consumer always observes end of stream.
func (s *VideoStage) Execute(ctx context.Context, input pipeline.AcquireVideoInput) (pipeline.AcquireResult, error) {
	var result pipeline.AcquireResult
	defer input.Relay.CloseSend()

	per := input.FramesPerItem
	if per < 1 {
		per = 1
	}
	frameSize := input.Source.Info().FrameSize()

	var batch []byte
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := input.Relay.Put(ctx, batch); err != nil {
			return err
		}
		result.Items++
		result.Bytes += int64(len(batch))
		batch = nil
		return nil
	}

	for {
		frame, err := input.Source.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, fmt.Errorf("read frame %d: %w", result.Units, err)
		}
		if len(frame) != frameSize {
			return result, fmt.Errorf("frame %d: got %d bytes, want %d", result.Units, len(frame), frameSize)
		}

		if per == 1 {
			batch = frame
		} else {
			if batch == nil {
				batch = make([]byte, 0, per*frameSize)
			}
			batch = append(batch, frame...)
		}
		result.Units++

		if len(batch) >= per*frameSize {
			if err := flush(); err != nil {
				return result, err
			}
		}
	}

	if err := flush(); err != nil {
		return result, err
	}
	s.logger.Debug("video source exhausted after %d frames", result.Units)
	return result, nil
}

// AudioStage reads PCM blocks into a relay, one block per item.
type AudioStage struct {
	logger ports.Logger
}

// NewAudio creates an audio producer stage.
func NewAudio(logger ports.Logger) *AudioStage {
	return &AudioStage{logger: logger.WithComponent("acquire")}
}

// Execute reads the source to exhaustion and closes the relay.
func (s *AudioStage) Execute(ctx context.Context, input pipeline.AcquireAudioInput) (pipeline.AcquireResult, error) {
	var result pipeline.AcquireResult
	defer input.Relay.CloseSend()

	for {
		block, err := input.Source.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, fmt.Errorf("read audio block %d: %w", result.Units, err)
		}
		if err := input.Relay.Put(ctx, block); err != nil {
			return result, err
		}
		result.Units++
		result.Items++
		result.Bytes += int64(len(block))
	}

	s.logger.Debug("audio source exhausted after %d blocks", result.Units)
	return result, nil
}

var (
	_ pipeline.Stage[pipeline.AcquireVideoInput, pipeline.AcquireResult] = (*VideoStage)(nil)
	_ pipeline.Stage[pipeline.AcquireAudioInput, pipeline.AcquireResult] = (*AudioStage)(nil)
)
