package pacer

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeClock advances only when slept on or stepped.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) step(d time.Duration) { c.now = c.now.Add(d) }

func TestPacer_RealClockMinimumElapsed(t *testing.T) {
	const fps = 25.0
	const n = 10

	p := New(fps)
	start := time.Now()
	for i := 0; i < n; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}
	elapsed := time.Since(start)

	min := time.Duration(float64(n-1) / fps * float64(time.Second))
	if elapsed < min {
		t.Errorf("expected at least %v for %d frames, got %v", min, n, elapsed)
	}
}

func TestPacer_FirstTickImmediate(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	p := New(30, WithClock(clock))

	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if !clock.now.Equal(time.Unix(1000, 0)) {
		t.Errorf("first tick should not sleep, clock moved to %v", clock.now)
	}
}

func TestPacer_NoDriftAfterOverrun(t *testing.T) {
	origin := time.Unix(0, 0)
	clock := &fakeClock{now: origin}
	p := New(10, WithClock(clock))
	period := 100 * time.Millisecond

	var emitted []time.Duration
	for i := 0; i < 10; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("Wait %d failed: %v", i, err)
		}
		emitted = append(emitted, clock.now.Sub(origin))
		if i == 2 {
			// frame 2 takes 2.5 periods to send
			clock.step(250 * time.Millisecond)
		}
	}

	want := []time.Duration{
		0, 100 * time.Millisecond, 200 * time.Millisecond,
		450 * time.Millisecond, 450 * time.Millisecond,
	}
	for i, w := range want {
		if emitted[i] != w {
			t.Errorf("tick %d: expected %v, got %v", i, w, emitted[i])
		}
	}
	for i := 5; i < len(emitted); i++ {
		if w := time.Duration(i) * period; emitted[i] != w {
			t.Errorf("tick %d: expected schedule to recover to %v, got %v", i, w, emitted[i])
		}
	}
	if p.Late() != 2 {
		t.Errorf("expected 2 late ticks, got %d", p.Late())
	}
}

func TestPacer_ScheduleIsAbsolute(t *testing.T) {
	origin := time.Unix(0, 0)
	clock := &fakeClock{now: origin}
	p := New(30, WithClock(clock))

	const n = 3000
	for i := 0; i < n; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
		clock.step(time.Millisecond)
	}

	// tick n-1 is due at (n-1)/30 s, plus the 1ms of work after it
	want := time.Duration(float64(n-1)/30*float64(time.Second)) + time.Millisecond
	if got := clock.now.Sub(origin); got != want {
		t.Errorf("expected %v after %d ticks, got %v", want, n, got)
	}
}

func TestPacer_Cancelled(t *testing.T) {
	p := New(1)
	ctx, cancel := context.WithCancel(context.Background())

	if err := p.Wait(ctx); err != nil {
		t.Fatalf("first Wait failed: %v", err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := p.Wait(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Errorf("cancellation took too long: %v", time.Since(start))
	}
	if p.Ticks() != 1 {
		t.Errorf("cancelled wait must not advance the schedule, ticks=%d", p.Ticks())
	}
}

func TestPacer_ZeroRateDoesNotSleep(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	p := New(0, WithClock(clock))
	for i := 0; i < 5; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}
	if !clock.now.Equal(time.Unix(0, 0)) {
		t.Errorf("zero rate should never sleep")
	}
}

func TestPacer_Reset(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	p := New(10, WithClock(clock))
	_ = p.Wait(context.Background())
	_ = p.Wait(context.Background())

	clock.step(5 * time.Second)
	p.Reset()

	if !p.Next().Equal(clock.now) {
		t.Errorf("expected next tick at %v after reset, got %v", clock.now, p.Next())
	}
	if p.Ticks() != 0 {
		t.Errorf("expected tick counter cleared, got %d", p.Ticks())
	}
}

func TestPacer_SharedOrigin(t *testing.T) {
	origin := time.Unix(50, 0)
	clock := &fakeClock{now: origin.Add(30 * time.Millisecond)}

	// a pacer created after the shared origin still targets origin + k/rate
	p := New(10, WithClock(clock), WithOrigin(origin))
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if want := origin.Add(100 * time.Millisecond); !clock.now.Equal(want) {
		t.Errorf("expected second tick at %v, got %v", want, clock.now)
	}
}
