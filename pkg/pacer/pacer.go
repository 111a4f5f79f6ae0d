// Package pacer releases events at a fixed wall-clock rate.
package pacer

import (
	"context"
	"time"

	"github.com/user/framecast/pkg/metrics"
)

// Clock is the time source used by a Pacer.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done.
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SystemClock returns the wall clock.
func SystemClock() Clock {
	return systemClock{}
}

// Pacer schedules ticks on an absolute timeline: tick k is due at
// origin + k/rate. A tick that is released late does not push back the
// ones after it, so timing error never accumulates.
type Pacer struct {
	clock  Clock
	rate   float64
	origin time.Time
	ticks  int64
	late   int64
}

// Option configures a Pacer.
type Option func(*Pacer)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(p *Pacer) {
		p.clock = c
	}
}

// WithOrigin anchors the schedule at t instead of the instant New is called.
// Pacers sharing an origin stay aligned with each other.
func WithOrigin(t time.Time) Option {
	return func(p *Pacer) {
		p.origin = t
	}
}

// New creates a pacer releasing rate ticks per second, anchored at the current instant
// unless WithOrigin says otherwise.
// A non-positive rate disables pacing.
func New(rate float64, opts ...Option) *Pacer {
	p := &Pacer{
		clock: systemClock{},
		rate:  rate,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.origin.IsZero() {
		p.origin = p.clock.Now()
	}
	return p
}

// Reset re-anchors the schedule at the current instant and clears counters.
func (p *Pacer) Reset() {
	p.origin = p.clock.Now()
	p.ticks = 0
	p.late = 0
}

// Next returns the instant the next tick is due.
func (p *Pacer) Next() time.Time {
	return p.origin.Add(p.offset(p.ticks))
}

// Wait blocks until the next tick is due, then advances the schedule by one period.
// It returns ctx.Err() if cancelled while sleeping; the schedule is not advanced in that case.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.rate <= 0 {
		p.ticks++
		return nil
	}

	due := p.Next()
	now := p.clock.Now()
	if now.Before(due) {
		if err := p.clock.Sleep(ctx, due.Sub(now)); err != nil {
			return err
		}
	} else if p.ticks > 0 && now.After(due) {
		p.late++
		metrics.IncPacerLate()
	}
	p.ticks++
	return nil
}

// Ticks returns the number of ticks released so far.
func (p *Pacer) Ticks() int64 {
	return p.ticks
}

// Late returns the number of ticks that were already overdue when requested.
func (p *Pacer) Late() int64 {
	return p.late
}

func (p *Pacer) offset(k int64) time.Duration {
	if p.rate <= 0 {
		return 0
	}
	return time.Duration(float64(k) / p.rate * float64(time.Second))
}
