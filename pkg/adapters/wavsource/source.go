// Package wavsource reads 16-bit PCM WAV files as fixed-size audio blocks.
package wavsource

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"

	"github.com/user/framecast/pkg/ports"
)

const (
	formatPCM        = 1
	formatExtensible = 0xFFFE
)

// DefaultBlockFrames is the number of sample frames per block.
const DefaultBlockFrames = 1024

// Source implements ports.AudioSource over a WAV file.
type Source struct {
	f          *os.File
	info       ports.AudioInfo
	pcm        io.Reader
	blockBytes int
}

// Open validates path as 16-bit PCM and positions the reader at the sample data.
// Blocks carry blockFrames sample frames each.
func Open(path string, blockFrames int) (*Source, error) {
	if blockFrames <= 0 {
		blockFrames = DefaultBlockFrames
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrSourceUnavailable, err)
	}

	dec, info, err := readHeader(f, path)
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := dec.FwdToPCM(); err != nil || dec.PCMChunk == nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: no PCM data", ports.ErrSourceUnavailable, path)
	}
	info.Frames = dec.PCMSize / info.BytesPerFrame()

	return &Source{
		f:          f,
		info:       info,
		pcm:        dec.PCMChunk.R,
		blockBytes: blockFrames * info.BytesPerFrame(),
	}, nil
}

// Probe reads only the header of the WAV file at path.
func Probe(path string) (ports.AudioInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return ports.AudioInfo{}, fmt.Errorf("%w: %w", ports.ErrSourceUnavailable, err)
	}
	defer f.Close()

	dec, info, err := readHeader(f, path)
	if err != nil {
		return ports.AudioInfo{}, err
	}
	if err := dec.FwdToPCM(); err == nil && dec.PCMChunk != nil {
		info.Frames = dec.PCMSize / info.BytesPerFrame()
	}
	return info, nil
}

func readHeader(f *os.File, path string) (*wav.Decoder, ports.AudioInfo, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, ports.AudioInfo{}, fmt.Errorf("%w: %s: not a readable WAV file", ports.ErrSourceUnavailable, path)
	}
	if dec.WavAudioFormat != formatPCM && dec.WavAudioFormat != formatExtensible {
		return nil, ports.AudioInfo{}, fmt.Errorf("%w: %s: WAV format tag %d is not PCM", ports.ErrUnsupportedFormat, path, dec.WavAudioFormat)
	}
	if dec.BitDepth != 16 {
		return nil, ports.AudioInfo{}, fmt.Errorf("%w: %s: %d-bit samples, only 16-bit PCM is supported", ports.ErrUnsupportedFormat, path, dec.BitDepth)
	}
	return dec, ports.AudioInfo{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}, nil
}

// Info returns the stream format.
func (s *Source) Info() ports.AudioInfo {
	return s.info
}

// BlockBytes returns the size of a full block.
func (s *Source) BlockBytes() int {
	return s.blockBytes
}

// Next returns the next block of interleaved s16le samples. The final block
// may be shorter; a trailing partial sample frame is dropped.
func (s *Source) Next(ctx context.Context) (ports.AudioBlock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buf := make(ports.AudioBlock, s.blockBytes)
	n, err := io.ReadFull(s.pcm, buf)
	switch err {
	case nil:
		return buf, nil
	case io.EOF:
		return nil, io.EOF
	case io.ErrUnexpectedEOF:
		n -= n % s.info.BytesPerFrame()
		if n == 0 {
			return nil, io.EOF
		}
		return buf[:n], nil
	default:
		return nil, fmt.Errorf("read pcm: %w", err)
	}
}

// Close closes the file.
func (s *Source) Close() error {
	return s.f.Close()
}

var _ ports.AudioSource = (*Source)(nil)
