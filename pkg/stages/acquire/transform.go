package acquire

import (
	"context"

	"github.com/user/framecast/pkg/ports"
)

type transformed struct {
	ports.FrameSource
	fn ports.FrameTransform
}

// Transformed returns a source applying fn to every frame of src.
// A nil fn returns src unchanged.
func Transformed(src ports.FrameSource, fn ports.FrameTransform) ports.FrameSource {
	if fn == nil {
		return src
	}
	return &transformed{FrameSource: src, fn: fn}
}

func (t *transformed) Next(ctx context.Context) (ports.Frame, error) {
	f, err := t.FrameSource.Next(ctx)
	if err != nil {
		return nil, err
	}
	return t.fn(f), nil
}
