// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/user/framecast/pkg/adapters/overlay"
	"github.com/user/framecast/pkg/framecast"
	"github.com/user/framecast/pkg/orchestrator"
)

// Config represents the full configuration file for framecast.
type Config struct {
	// Tools
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`

	// Destination
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	URL  string `yaml:"url"`

	// Stream
	Mode           string        `yaml:"mode"`
	FPS            float64       `yaml:"fps"`
	Audio          string        `yaml:"audio"`
	StartDelay     time.Duration `yaml:"start_delay"`
	ChunkDuration  time.Duration `yaml:"chunk_duration"`
	ForceKeyframes int           `yaml:"force_keyframes"`
	ExitTimeout    time.Duration `yaml:"exit_timeout"`

	Relay   RelayConfig   `yaml:"relay"`
	Overlay OverlayConfig `yaml:"overlay"`

	// Output side channels
	MetricsAddr string `yaml:"metrics_addr"`
	Summary     string `yaml:"summary"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"` // text or json
}

// RelayConfig sizes the producer/writer hand-off.
type RelayConfig struct {
	VideoFramesPerItem int `yaml:"video_frames_per_item"`
	AudioBlockFrames   int `yaml:"audio_block_frames"`
	VideoCapacity      int `yaml:"video_capacity"`
	AudioCapacity      int `yaml:"audio_capacity"`
}

// OverlayConfig represents the caption drawn over every frame.
// An empty Text disables the overlay.
type OverlayConfig struct {
	Text       string  `yaml:"text"`
	Position   string  `yaml:"position"`
	Color      string  `yaml:"color"`
	Background string  `yaml:"background"`
	FontPath   string  `yaml:"font_path"`
	FontSize   float64 `yaml:"font_size"`
	Margin     int     `yaml:"margin"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	fc := framecast.DefaultConfig()
	style := overlay.DefaultStyle()
	return Config{
		Host: fc.Host,
		Port: fc.Port,

		Mode:           string(fc.Mode),
		StartDelay:     fc.StartDelay,
		ChunkDuration:  fc.ChunkDuration,
		ForceKeyframes: fc.ForceKeyframes,

		Relay: RelayConfig{
			VideoFramesPerItem: fc.VideoFramesPerItem,
			AudioBlockFrames:   fc.AudioBlockFrames,
			VideoCapacity:      fc.VideoRelayCapacity,
			AudioCapacity:      fc.AudioRelayCapacity,
		},
		Overlay: OverlayConfig{
			Position:   "top-left",
			Color:      "#ffffff",
			Background: "#000000a0",
			FontSize:   style.FontSize,
			Margin:     style.Margin,
		},

		LogLevel:  "info",
		LogFormat: "text",
	}
}

// LoadFromFile loads configuration from a YAML file on top of Defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Builder returns a ConfigBuilder seeded with the file's stream settings.
func (c Config) Builder() *framecast.ConfigBuilder {
	return framecast.NewConfigBuilder().
		WithMode(orchestrator.Mode(c.Mode)).
		WithHost(c.Host).
		WithPort(c.Port).
		WithURL(c.URL).
		WithFPS(c.FPS).
		WithAudio(c.Audio).
		WithStartDelay(c.StartDelay).
		WithChunkDuration(c.ChunkDuration).
		WithForceKeyframes(c.ForceKeyframes).
		WithExitTimeout(c.ExitTimeout).
		WithVideoFramesPerItem(c.Relay.VideoFramesPerItem).
		WithAudioBlockFrames(c.Relay.AudioBlockFrames).
		WithVideoRelayCapacity(c.Relay.VideoCapacity).
		WithAudioRelayCapacity(c.Relay.AudioCapacity)
}

// OverlayStyle converts the overlay section to a drawing style.
func (c Config) OverlayStyle() (overlay.Style, error) {
	pos, err := overlay.ParsePosition(c.Overlay.Position)
	if err != nil {
		return overlay.Style{}, err
	}
	style := overlay.DefaultStyle()
	style.Position = pos
	style.Color = ParseColor(c.Overlay.Color)
	if c.Overlay.Background == "" || strings.EqualFold(c.Overlay.Background, "none") {
		style.Background = nil
	} else {
		style.Background = ParseColor(c.Overlay.Background)
	}
	style.FontPath = c.Overlay.FontPath
	if c.Overlay.FontSize > 0 {
		style.FontSize = c.Overlay.FontSize
	}
	if c.Overlay.Margin > 0 {
		style.Margin = c.Overlay.Margin
	}
	return style, nil
}

// ParseColor parses #rrggbb or #rrggbbaa. Anything else is black.
func ParseColor(hex string) color.Color {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.Black
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.Black
	}
	if len(hex) == 6 {
		v = v<<8 | 0xff
	}

	// premultiplied, as color.RGBA requires
	a := uint8(v)
	c := color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: a}
	return color.RGBAModel.Convert(c)
}
