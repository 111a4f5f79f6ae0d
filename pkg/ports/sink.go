package ports

// StreamSink accepts raw stream bytes on behalf of a consumer, usually an
// encoder process reading a pipe.
type StreamSink interface {
	// Write delivers p in full or fails. Once the consumer has gone away it
	// returns an error wrapping ErrSinkClosed.
	Write(p []byte) (int, error)

	// Close releases the sink. It is idempotent and safe to call on every
	// exit path, including after a failed Write.
	Close() error
}
