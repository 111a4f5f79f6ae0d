package ffmpeg

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/user/framecast/pkg/ports"
)

// hasSeq reports whether want appears in args as a contiguous run.
func hasSeq(args []string, want ...string) bool {
	for i := 0; i+len(want) <= len(args); i++ {
		match := true
		for j, w := range want {
			if args[i+j] != w {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func TestBuildArgs_DirectStdinWithAudioFile(t *testing.T) {
	spec := ports.SessionSpec{
		Params:         ports.StreamParameters{Width: 640, Height: 360, FPS: 30, SampleRate: 44100, Channels: 2},
		Video:          ports.VideoInput{Kind: ports.InputStdin},
		Audio:          ports.AudioInput{Kind: ports.InputFile, Path: "/media/track.wav"},
		OutputURL:      UDPURL("127.0.0.1", 5000, 1316),
		ForceKeyframes: 3,
	}
	args := BuildArgs(spec, DefaultEncoding(), "warning")

	assert.True(t, hasSeq(args, "-loglevel", "warning"))
	assert.True(t, hasSeq(args, "-f", "rawvideo", "-pix_fmt", "bgr24", "-video_size", "640x360", "-framerate", "30", "-i", "pipe:0"))
	assert.True(t, hasSeq(args, "-i", "/media/track.wav"))
	assert.True(t, hasSeq(args, "-map", "0:v:0", "-map", "1:a:0"))
	assert.True(t, hasSeq(args, "-c:v", "libx264", "-preset", "ultrafast", "-tune", "zerolatency"))
	assert.True(t, hasSeq(args, "-g", "60", "-keyint_min", "60"))
	assert.True(t, hasSeq(args, "-force_key_frames", "expr:lt(n,3)"))
	assert.True(t, hasSeq(args, "-vsync", "cfr", "-pix_fmt", "yuv420p"))
	assert.True(t, hasSeq(args, "-c:a", "aac", "-b:a", "128k"))
	assert.True(t, hasSeq(args, "-f", "mpegts", "-mpegts_flags", "resend_headers+initial_discontinuity"))
	assert.Equal(t, "udp://127.0.0.1:5000?pkt_size=1316", args[len(args)-1])

	assert.NotContains(t, args, "-ss")
	assert.NotContains(t, args, "-output_ts_offset")
	assert.NotContains(t, args, "-shortest")
}

func TestBuildArgs_ChunkSlicesAudioAndOffsetsTimestamps(t *testing.T) {
	spec := ports.SessionSpec{
		Params:         ports.StreamParameters{Width: 320, Height: 240, FPS: 29.97, SampleRate: 48000, Channels: 1},
		Video:          ports.VideoInput{Kind: ports.InputStdin},
		Audio:          ports.AudioInput{Kind: ports.InputFile, Path: "a.wav", Start: 5 * time.Second, Duration: 433 * time.Millisecond},
		OutputURL:      "udp://10.0.0.2:5004",
		OutputOffset:   5 * time.Second,
		ForceKeyframes: 3,
	}
	args := BuildArgs(spec, DefaultEncoding(), "")

	assert.NotContains(t, args, "-loglevel")
	assert.True(t, hasSeq(args, "-framerate", "29.97"))
	assert.True(t, hasSeq(args, "-ss", "5", "-t", "0.433", "-i", "a.wav"))
	assert.True(t, hasSeq(args, "-output_ts_offset", "5"))
	assert.True(t, hasSeq(args, "-g", "60", "-keyint_min", "60"))

	// audio slicing must precede its input
	ss := indexOf(args, "-ss")
	in := indexOf(args, "a.wav")
	assert.Less(t, ss, in)
}

func TestBuildArgs_FIFOInputs(t *testing.T) {
	spec := ports.SessionSpec{
		Params:    ports.StreamParameters{Width: 2, Height: 2, FPS: 24, SampleRate: 22050, Channels: 2},
		Video:     ports.VideoInput{Kind: ports.InputFIFO, Path: "/tmp/x/video_fifo"},
		Audio:     ports.AudioInput{Kind: ports.InputFIFO, Path: "/tmp/x/audio_fifo"},
		OutputURL: "udp://127.0.0.1:5000?pkt_size=1316",
		Shortest:  true,
	}
	args := BuildArgs(spec, DefaultEncoding(), "error")

	assert.True(t, hasSeq(args, "-i", "/tmp/x/video_fifo"))
	assert.True(t, hasSeq(args, "-f", "s16le", "-ar", "22050", "-ac", "2", "-i", "/tmp/x/audio_fifo"))
	assert.True(t, hasSeq(args, "-c:a", "aac", "-b:a", "128k", "-shortest"))
	assert.NotContains(t, args, "pipe:0")
	assert.NotContains(t, args, "-force_key_frames")
}

func TestBuildArgs_VideoOnly(t *testing.T) {
	spec := ports.SessionSpec{
		Params:    ports.StreamParameters{Width: 2, Height: 2, FPS: 0.2},
		Video:     ports.VideoInput{Kind: ports.InputStdin},
		OutputURL: "udp://127.0.0.1:5000",
	}
	args := BuildArgs(spec, DefaultEncoding(), "")

	assert.NotContains(t, args, "1:a:0")
	assert.NotContains(t, args, "-c:a")
	// keyframe interval never drops below one frame
	assert.True(t, hasSeq(args, "-g", "1", "-keyint_min", "1"))
}

func TestUDPURL(t *testing.T) {
	assert.Equal(t, "udp://127.0.0.1:5000?pkt_size=1316", UDPURL("127.0.0.1", 5000, 1316))
	assert.Equal(t, "udp://239.0.0.1:1234", UDPURL("239.0.0.1", 1234, 0))
	assert.True(t, strings.HasPrefix(UDPURL("::1", 5000, 1316), "udp://[::1]:5000"))
}

func indexOf(args []string, s string) int {
	for i, a := range args {
		if a == s {
			return i
		}
	}
	return -1
}
