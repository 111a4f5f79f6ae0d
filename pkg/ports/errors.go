package ports

import "errors"

var (
	// ErrSourceUnavailable is returned when an input cannot be opened or probed.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrUnsupportedFormat is returned for audio that is not 16-bit PCM.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrSinkLaunchFailed is returned when the transcoder process cannot be started.
	ErrSinkLaunchFailed = errors.New("sink launch failed")

	// ErrSinkClosed is returned by writes after the consumer has gone away.
	ErrSinkClosed = errors.New("sink closed")

	// ErrTranscodeFailed is returned when the transcoder exits unsuccessfully.
	ErrTranscodeFailed = errors.New("transcode failed")
)
