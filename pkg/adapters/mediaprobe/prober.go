// Package mediaprobe extracts video metadata (dimensions, frame rate, frame count)
// without decoding. MP4 containers are read directly; anything else, or an MP4
// that cannot be parsed, goes through ffprobe.
package mediaprobe

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/user/framecast/pkg/ports"
)

// Prober implements ports.MediaProber.
type Prober struct {
	ffprobePath string
	log         ports.Logger
}

// New creates a prober. An empty ffprobePath disables the ffprobe fallback.
func New(ffprobePath string, log ports.Logger) *Prober {
	return &Prober{ffprobePath: ffprobePath, log: log}
}

// Probe returns the metadata of the first video stream in path.
func (p *Prober) Probe(ctx context.Context, path string) (ports.MediaInfo, error) {
	if isMP4(path) {
		info, err := ProbeMP4File(path)
		if err == nil && info.FPS > 0 {
			return info, nil
		}
		if p.ffprobePath == "" {
			if err == nil {
				return info, nil
			}
			return ports.MediaInfo{}, fmt.Errorf("%w: %s: %w", ports.ErrSourceUnavailable, path, err)
		}
		if err != nil {
			p.log.Debug("mp4 probe failed for %s, trying ffprobe: %v", path, err)
		}
	}

	if p.ffprobePath == "" {
		return ports.MediaInfo{}, fmt.Errorf("%w: %s: not an MP4 file and ffprobe is unavailable", ports.ErrSourceUnavailable, path)
	}
	info, err := ProbeFFprobe(ctx, p.ffprobePath, path)
	if err != nil {
		return ports.MediaInfo{}, fmt.Errorf("%w: %s: %w", ports.ErrSourceUnavailable, path, err)
	}
	return info, nil
}

func isMP4(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".m4v", ".mov":
		return true
	}
	return false
}

var _ ports.MediaProber = (*Prober)(nil)
