// Package relay provides the bounded single-producer/single-consumer queue
// that decouples media acquisition from paced transmission.
package relay

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/user/framecast/pkg/metrics"
)

// ErrClosed is returned by Put after CloseSend.
var ErrClosed = errors.New("relay: closed for sending")

// Relay is a fixed-capacity FIFO of opaque payloads.
//
// Exactly one goroutine may call Put and CloseSend, and exactly one goroutine
// may call Get. Items are delivered in the order they were put; after the
// producer calls CloseSend the consumer receives every queued item and then io.EOF.
type Relay struct {
	name string
	ch   chan []byte

	closeOnce sync.Once
	closed    atomic.Bool

	puts   atomic.Int64
	stalls atomic.Int64
}

// New creates a relay holding at most capacity items. Capacities below 1 are raised to 1.
func New(name string, capacity int) *Relay {
	if capacity < 1 {
		capacity = 1
	}
	return &Relay{
		name: name,
		ch:   make(chan []byte, capacity),
	}
}

// Name returns the relay name used in logs and metrics.
func (r *Relay) Name() string {
	return r.name
}

// Cap returns the relay capacity.
func (r *Relay) Cap() int {
	return cap(r.ch)
}

// Len returns the number of queued items.
func (r *Relay) Len() int {
	return len(r.ch)
}

// Put enqueues item, blocking while the relay is full.
// It returns ctx.Err() if ctx is cancelled before space frees up.
func (r *Relay) Put(ctx context.Context, item []byte) error {
	if r.closed.Load() {
		return ErrClosed
	}

	select {
	case r.ch <- item:
	default:
		r.stalls.Add(1)
		metrics.IncRelayStall(r.name)
		select {
		case r.ch <- item:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	r.puts.Add(1)
	metrics.SetRelayDepth(r.name, len(r.ch))
	return nil
}

// CloseSend marks the end of the stream. Only the first call has an effect.
func (r *Relay) CloseSend() {
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		close(r.ch)
	})
}

// Get dequeues the next item, blocking until one is available.
// Once the producer has closed the relay and the queue is empty it returns io.EOF.
func (r *Relay) Get(ctx context.Context) ([]byte, error) {
	select {
	case item, ok := <-r.ch:
		if !ok {
			return nil, io.EOF
		}
		metrics.SetRelayDepth(r.name, len(r.ch))
		return item, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Stats is a snapshot of relay counters.
type Stats struct {
	Name   string
	Puts   int64
	Stalls int64
}

// Stats returns the current counters.
func (r *Relay) Stats() Stats {
	return Stats{
		Name:   r.name,
		Puts:   r.puts.Load(),
		Stalls: r.stalls.Load(),
	}
}
