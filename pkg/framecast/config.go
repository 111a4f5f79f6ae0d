// Package framecast provides a high-level API for configuring a paced stream.
package framecast

import (
	"errors"
	"fmt"
	"time"

	"github.com/user/framecast/pkg/adapters/ffmpeg"
	"github.com/user/framecast/pkg/orchestrator"
	"github.com/user/framecast/pkg/ports"
	"github.com/user/framecast/pkg/stages/chunk"
)

const (
	DefaultHost       = "127.0.0.1"
	DefaultPort       = 5000
	DefaultPacketSize = 1316 // seven 188-byte TS packets
	DefaultFPS        = 30.0
)

// Config represents the configuration for one streaming run.
type Config struct {
	Mode orchestrator.Mode

	// Destination. URL overrides Host/Port when set.
	Host       string
	Port       int
	URL        string
	PacketSize int

	// FPS overrides the frame rate found in the media. 0 uses the media's.
	FPS float64

	AudioPath string

	StartDelay     time.Duration
	ChunkDuration  time.Duration
	ForceKeyframes int
	ExitTimeout    time.Duration // 0 waits for ffmpeg indefinitely

	// Relay sizing
	VideoFramesPerItem int
	AudioBlockFrames   int
	VideoRelayCapacity int
	AudioRelayCapacity int
}

// DefaultConfig returns the defaults used by NewConfigBuilder.
func DefaultConfig() Config {
	o := orchestrator.DefaultConfig()
	return Config{
		Mode:               o.Mode,
		Host:               DefaultHost,
		Port:               DefaultPort,
		PacketSize:         DefaultPacketSize,
		StartDelay:         o.StartDelay,
		ChunkDuration:      o.ChunkDuration,
		ForceKeyframes:     o.ForceKeyframes,
		VideoFramesPerItem: o.VideoFramesPerItem,
		AudioBlockFrames:   o.AudioBlockFrames,
		VideoRelayCapacity: o.VideoRelayCapacity,
		AudioRelayCapacity: o.AudioRelayCapacity,
	}
}

// ConfigBuilder provides a fluent interface for building Config.
type ConfigBuilder struct {
	config Config
}

// NewConfigBuilder creates a new ConfigBuilder with default values.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{config: DefaultConfig()}
}

// Build validates the configuration and returns it.
// Sizes below 1 are raised to 1; out-of-range values are errors.
func (b *ConfigBuilder) Build() (Config, error) {
	cfg := b.config

	mode, err := orchestrator.ParseMode(string(cfg.Mode))
	if err != nil {
		return cfg, err
	}
	cfg.Mode = mode

	if cfg.URL == "" {
		if cfg.Host == "" {
			return cfg, errors.New("host must not be empty")
		}
		if cfg.Port < 1 || cfg.Port > 65535 {
			return cfg, fmt.Errorf("port %d out of range 1-65535", cfg.Port)
		}
	}
	if cfg.FPS < 0 {
		return cfg, fmt.Errorf("fps must not be negative, got %g", cfg.FPS)
	}
	if cfg.StartDelay < 0 || cfg.ExitTimeout < 0 {
		return cfg, errors.New("delays must not be negative")
	}
	if cfg.Mode == orchestrator.ModeChunked && cfg.ChunkDuration <= 0 {
		return cfg, fmt.Errorf("chunk duration must be positive, got %s", cfg.ChunkDuration)
	}
	if cfg.ChunkDuration <= 0 {
		cfg.ChunkDuration = chunk.DefaultDuration
	}
	if cfg.ForceKeyframes < 0 {
		cfg.ForceKeyframes = 0
	}

	cfg.VideoFramesPerItem = max(cfg.VideoFramesPerItem, 1)
	cfg.AudioBlockFrames = max(cfg.AudioBlockFrames, 1)
	cfg.VideoRelayCapacity = max(cfg.VideoRelayCapacity, 1)
	cfg.AudioRelayCapacity = max(cfg.AudioRelayCapacity, 1)

	return cfg, nil
}

// WithMode sets how frames reach ffmpeg (direct, fifo, chunked).
func (b *ConfigBuilder) WithMode(mode orchestrator.Mode) *ConfigBuilder {
	b.config.Mode = mode
	return b
}

// WithHost sets the UDP destination host.
func (b *ConfigBuilder) WithHost(host string) *ConfigBuilder {
	b.config.Host = host
	return b
}

// WithPort sets the UDP destination port.
func (b *ConfigBuilder) WithPort(port int) *ConfigBuilder {
	b.config.Port = port
	return b
}

// WithURL sets a complete output URL, bypassing host and port.
func (b *ConfigBuilder) WithURL(url string) *ConfigBuilder {
	b.config.URL = url
	return b
}

// WithFPS overrides the frame rate reported by the media.
func (b *ConfigBuilder) WithFPS(fps float64) *ConfigBuilder {
	b.config.FPS = fps
	return b
}

// WithAudio sets the WAV file muxed into the stream.
func (b *ConfigBuilder) WithAudio(path string) *ConfigBuilder {
	b.config.AudioPath = path
	return b
}

// WithStartDelay sets the pause before the first frame is sent.
func (b *ConfigBuilder) WithStartDelay(d time.Duration) *ConfigBuilder {
	b.config.StartDelay = d
	return b
}

// WithChunkDuration sets the target length of each chunk in chunked mode.
func (b *ConfigBuilder) WithChunkDuration(d time.Duration) *ConfigBuilder {
	b.config.ChunkDuration = d
	return b
}

// WithForceKeyframes sets how many leading frames of a session are forced keyframes.
func (b *ConfigBuilder) WithForceKeyframes(n int) *ConfigBuilder {
	b.config.ForceKeyframes = n
	return b
}

// WithExitTimeout bounds how long ffmpeg may take to exit after its inputs close.
func (b *ConfigBuilder) WithExitTimeout(d time.Duration) *ConfigBuilder {
	b.config.ExitTimeout = d
	return b
}

// WithVideoFramesPerItem sets how many frames travel together through the video relay.
func (b *ConfigBuilder) WithVideoFramesPerItem(n int) *ConfigBuilder {
	b.config.VideoFramesPerItem = n
	return b
}

// WithAudioBlockFrames sets the sample frames per audio block.
func (b *ConfigBuilder) WithAudioBlockFrames(n int) *ConfigBuilder {
	b.config.AudioBlockFrames = n
	return b
}

// WithVideoRelayCapacity sets the video relay size in items.
func (b *ConfigBuilder) WithVideoRelayCapacity(n int) *ConfigBuilder {
	b.config.VideoRelayCapacity = n
	return b
}

// WithAudioRelayCapacity sets the audio relay size in blocks.
func (b *ConfigBuilder) WithAudioRelayCapacity(n int) *ConfigBuilder {
	b.config.AudioRelayCapacity = n
	return b
}

// OutputURL returns the ffmpeg output target.
func (c Config) OutputURL() string {
	if c.URL != "" {
		return c.URL
	}
	return ffmpeg.UDPURL(c.Host, c.Port, c.PacketSize)
}

// PlayerURL returns the address a local player listens on, e.g. udp://@:5000.
func (c Config) PlayerURL() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("udp://@:%d", c.Port)
}

// StreamParameters combines the probed media with the configured overrides.
// A zero audio info means the stream has no audio track.
func (c Config) StreamParameters(video ports.MediaInfo, audio ports.AudioInfo) ports.StreamParameters {
	fps := c.FPS
	if fps <= 0 {
		fps = video.FPS
	}
	if fps <= 0 {
		fps = DefaultFPS
	}
	return ports.StreamParameters{
		Width:      video.Width,
		Height:     video.Height,
		FPS:        fps,
		SampleRate: audio.SampleRate,
		Channels:   audio.Channels,
	}
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
func (c Config) ToOrchestratorConfig(params ports.StreamParameters) orchestrator.Config {
	return orchestrator.Config{
		Mode:      c.Mode,
		Params:    params,
		OutputURL: c.OutputURL(),
		AudioPath: c.AudioPath,

		StartDelay: c.StartDelay,

		VideoFramesPerItem: c.VideoFramesPerItem,
		AudioBlockFrames:   c.AudioBlockFrames,
		VideoRelayCapacity: c.VideoRelayCapacity,
		AudioRelayCapacity: c.AudioRelayCapacity,

		ChunkDuration:  c.ChunkDuration,
		ForceKeyframes: c.ForceKeyframes,
	}
}
