package logger

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/user/framecast/pkg/ports"
)

// JSONLogger writes one JSON object per line for log collectors.
// Messages are not translated so the output stays stable across locales.
type JSONLogger struct {
	zl zerolog.Logger
}

// NewJSON creates a JSON logger writing to w.
func NewJSON(level ports.LogLevel, w io.Writer) *JSONLogger {
	zl := zerolog.New(w).With().
		Timestamp().
		Str("service", "framecast").
		Logger().
		Level(zerologLevel(level))
	return &JSONLogger{zl: zl}
}

func (l *JSONLogger) Debug(msg string, args ...interface{}) { l.zl.Debug().Msgf(msg, args...) }
func (l *JSONLogger) Info(msg string, args ...interface{})  { l.zl.Info().Msgf(msg, args...) }
func (l *JSONLogger) Warn(msg string, args ...interface{})  { l.zl.Warn().Msgf(msg, args...) }
func (l *JSONLogger) Error(msg string, args ...interface{}) { l.zl.Error().Msgf(msg, args...) }

// WithComponent adds a "component" field to every entry.
func (l *JSONLogger) WithComponent(component string) ports.Logger {
	return &JSONLogger{zl: l.zl.With().Str("component", component).Logger()}
}

func zerologLevel(level ports.LogLevel) zerolog.Level {
	switch level {
	case ports.LevelDebug:
		return zerolog.DebugLevel
	case ports.LevelWarn:
		return zerolog.WarnLevel
	case ports.LevelError:
		return zerolog.ErrorLevel
	case ports.LevelQuiet:
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

var _ ports.Logger = (*JSONLogger)(nil)
