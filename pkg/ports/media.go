package ports

import (
	"math"
	"time"
)

// BytesPerPixel is the size of one bgr24 pixel.
const BytesPerPixel = 3

// Frame is one decoded picture: width*height*3 bytes of bgr24, row-major, no padding.
// Frames are never mutated once produced; transforms return a new buffer.
type Frame []byte

// AudioBlock is interleaved signed 16-bit little-endian PCM. All blocks of a
// stream carry the same number of sample frames except possibly the last.
type AudioBlock []byte

// FrameTransform maps a frame to the frame actually transmitted.
// It runs once per frame on the acquisition goroutine.
type FrameTransform func(Frame) Frame

// MediaInfo describes a video input. It is constant for the whole run.
type MediaInfo struct {
	Width      int
	Height     int
	FPS        float64
	FrameCount int // 0 when the container does not say
	Duration   time.Duration
}

// FrameSize returns the byte length of one frame.
func (m MediaInfo) FrameSize() int {
	return m.Width * m.Height * BytesPerPixel
}

// AudioInfo describes a PCM audio input.
type AudioInfo struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Frames     int // total sample frames, 0 when unknown
}

// BytesPerFrame returns the size of one interleaved sample frame.
func (a AudioInfo) BytesPerFrame() int {
	return a.Channels * a.BitDepth / 8
}

// Duration returns the total playback time, or 0 when Frames is unknown.
func (a AudioInfo) Duration() time.Duration {
	if a.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(a.Frames) / float64(a.SampleRate) * float64(time.Second))
}

// StreamParameters is the negotiated description of the outgoing stream,
// computed once at startup from probe metadata and overrides.
type StreamParameters struct {
	Width  int
	Height int
	FPS    float64

	// Zero values mean no audio track.
	SampleRate int
	Channels   int
}

// HasAudio reports whether the stream carries an audio track.
func (p StreamParameters) HasAudio() bool {
	return p.SampleRate > 0 && p.Channels > 0
}

// FrameSize returns the byte length of one video frame.
func (p StreamParameters) FrameSize() int {
	return p.Width * p.Height * BytesPerPixel
}

// FramePeriod returns 1/fps.
func (p StreamParameters) FramePeriod() time.Duration {
	return PeriodFor(p.FPS)
}

// KeyframeInterval returns the GOP length: two seconds of frames, at least 1.
func (p StreamParameters) KeyframeInterval() int {
	k := int(math.Round(p.FPS * 2))
	if k < 1 {
		return 1
	}
	return k
}

// PeriodFor converts a rate in events per second to the interval between events.
func PeriodFor(rate float64) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / rate)
}

// FramesDuration returns the playback time of n frames at fps.
func FramesDuration(n int, fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(n) / fps * float64(time.Second))
}
