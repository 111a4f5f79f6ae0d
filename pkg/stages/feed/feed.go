// Package feed implements the paced writer stage that drains a relay into a
// transcoder input.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/user/framecast/pkg/pipeline"
	"github.com/user/framecast/pkg/ports"
)

// Stage writes relay items to a sink at the pacer's rate.
type Stage struct {
	name   string
	logger ports.Logger
}

// New creates a feed stage. name labels log lines, e.g. "video".
func New(name string, logger ports.Logger) *Stage {
	return &Stage{name: name, logger: logger.WithComponent("feed")}
}

// Execute writes every relay item until end of stream. Each unit waits for
// its pacer tick. The sink is closed on every return path so the reading
// process sees end of input.
func (s *Stage) Execute(ctx context.Context, input pipeline.FeedInput) (pipeline.FeedResult, error) {
	var result pipeline.FeedResult
	defer func() {
		if err := input.Sink.Close(); err != nil {
			s.logger.Debug("%s: close sink: %v", s.name, err)
		}
	}()

	for {
		item, err := input.Relay.Get(ctx)
		if errors.Is(err, io.EOF) {
			s.logger.Debug("%s: end of stream after %d units", s.name, result.Units)
			result.Drained = true
			return result, nil
		}
		if err != nil {
			return result, err
		}

		for _, unit := range split(item, input.UnitSize) {
			if err := input.Pacer.Wait(ctx); err != nil {
				return result, err
			}
			n, err := input.Sink.Write(unit)
			result.Bytes += int64(n)
			if err != nil {
				if errors.Is(err, ports.ErrSinkClosed) {
					s.logger.Info("%s: receiver stopped after %d units", s.name, result.Units)
				}
				return result, fmt.Errorf("%s: unit %d: %w", s.name, result.Units, err)
			}
			result.Units++
		}
	}
}

// split cuts item into size-byte units. A trailing remainder becomes its own unit.
func split(item []byte, size int) [][]byte {
	if size <= 0 || len(item) <= size {
		return [][]byte{item}
	}
	units := make([][]byte, 0, (len(item)+size-1)/size)
	for len(item) > 0 {
		n := size
		if n > len(item) {
			n = len(item)
		}
		units = append(units, item[:n:n])
		item = item[n:]
	}
	return units
}

var _ pipeline.Stage[pipeline.FeedInput, pipeline.FeedResult] = (*Stage)(nil)
