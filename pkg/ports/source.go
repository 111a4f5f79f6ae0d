package ports

import "context"

// FrameSource yields decoded video frames in presentation order.
// Next returns io.EOF once the source is exhausted; it is not safe for
// concurrent use and is read by a single acquisition goroutine.
type FrameSource interface {
	Info() MediaInfo
	Next(ctx context.Context) (Frame, error)
	Close() error
}

// AudioSource yields fixed-size PCM blocks. Next returns io.EOF after the last block.
type AudioSource interface {
	Info() AudioInfo
	Next(ctx context.Context) (AudioBlock, error)
	Close() error
}

// MediaProber extracts stream metadata from a media file without decoding it.
type MediaProber interface {
	Probe(ctx context.Context, path string) (MediaInfo, error)
}
