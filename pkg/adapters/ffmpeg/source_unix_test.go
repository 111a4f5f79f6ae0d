//go:build linux || darwin || freebsd || netbsd || openbsd

package ffmpeg

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/framecast/pkg/adapters/logger"
	"github.com/user/framecast/pkg/ports"
)

var tinyInfo = ports.MediaInfo{Width: 2, Height: 1, FPS: 30}

func readAll(t *testing.T, src *Source) []string {
	t.Helper()
	var frames []string
	for {
		f, err := src.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return frames
		}
		require.NoError(t, err)
		frames = append(frames, string(f))
	}
}

func TestSource_ReadsFrames(t *testing.T) {
	bin := fakeFFmpeg(t, `printf 'abcdefghijkl'`)

	src, err := OpenSource(bin, "clip.mp4", tinyInfo, logger.NewNoop())
	require.NoError(t, err)

	assert.Equal(t, []string{"abcdef", "ghijkl"}, readAll(t, src))
	assert.Equal(t, 2, src.Frames())
	require.NoError(t, src.Close())

	_, err = src.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestSource_DropsPartialFrame(t *testing.T) {
	bin := fakeFFmpeg(t, `printf 'abcdefgh'`)

	src, err := OpenSource(bin, "clip.mp4", tinyInfo, logger.NewNoop())
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, []string{"abcdef"}, readAll(t, src))
}

func TestSource_DecoderFailure(t *testing.T) {
	bin := fakeFFmpeg(t, `echo "clip.mp4: No such file or directory" >&2
exit 1`)

	src, err := OpenSource(bin, "clip.mp4", tinyInfo, logger.NewNoop())
	require.NoError(t, err)

	_, err = src.Next(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrSourceUnavailable)
	assert.Contains(t, err.Error(), "No such file")
}

func TestSource_CloseEarly(t *testing.T) {
	bin := fakeFFmpeg(t, `while :; do printf 'abcdef'; done`)

	src, err := OpenSource(bin, "clip.mp4", tinyInfo, logger.NewNoop())
	require.NoError(t, err)

	f, err := src.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abcdef", string(f))

	assert.NoError(t, src.Close())
}

func TestSource_RejectsUnknownSize(t *testing.T) {
	_, err := OpenSource("ffmpeg", "clip.mp4", ports.MediaInfo{}, logger.NewNoop())
	assert.ErrorIs(t, err, ports.ErrSourceUnavailable)
}

func TestSource_MissingBinary(t *testing.T) {
	_, err := OpenSource("/nonexistent/ffmpeg", "clip.mp4", tinyInfo, logger.NewNoop())
	assert.ErrorIs(t, err, ports.ErrSourceUnavailable)
}
