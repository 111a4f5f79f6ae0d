// Package metrics exposes Prometheus instrumentation for the streaming pipeline.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RelayDepth is the number of items queued in each relay.
	RelayDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "framecast_relay_depth",
		Help: "Items currently queued in a relay",
	}, []string{"relay"})

	// RelayStallsTotal counts Put calls that had to wait for free space.
	RelayStallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "framecast_relay_stalls_total",
		Help: "Producer puts that blocked on a full relay",
	}, []string{"relay"})

	// BytesSentTotal counts bytes handed to transcoder inputs.
	BytesSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "framecast_bytes_sent_total",
		Help: "Bytes written to transcoder inputs",
	}, []string{"stream"})

	// PacerLateTotal counts ticks emitted after their scheduled instant.
	PacerLateTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "framecast_pacer_late_total",
		Help: "Pacer ticks that were already due when requested",
	})

	// SessionsTotal counts transcoder sessions by outcome.
	SessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "framecast_sessions_total",
		Help: "Transcoder sessions by result",
	}, []string{"result"})

	// ChunksTotal counts chunks by outcome.
	ChunksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "framecast_chunks_total",
		Help: "Chunks handed to transcoder sessions by result",
	}, []string{"result"})

	// SessionDuration observes how long each transcoder process lived.
	SessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "framecast_session_duration_seconds",
		Help:    "Lifetime of transcoder sessions",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 300, 1800},
	})
)

// SetRelayDepth records the queue length of a relay.
func SetRelayDepth(relay string, n int) {
	RelayDepth.WithLabelValues(relay).Set(float64(n))
}

// IncRelayStall records a blocked Put.
func IncRelayStall(relay string) {
	RelayStallsTotal.WithLabelValues(relay).Inc()
}

// AddBytesSent records bytes written to a transcoder input.
func AddBytesSent(stream string, n int) {
	BytesSentTotal.WithLabelValues(stream).Add(float64(n))
}

// IncPacerLate records a tick that was already overdue.
func IncPacerLate() {
	PacerLateTotal.Inc()
}

// ObserveSession records a finished transcoder session.
func ObserveSession(success bool, lifetime time.Duration) {
	SessionsTotal.WithLabelValues(result(success)).Inc()
	SessionDuration.Observe(lifetime.Seconds())
}

// IncChunk records a finished chunk.
func IncChunk(success bool) {
	ChunksTotal.WithLabelValues(result(success)).Inc()
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
