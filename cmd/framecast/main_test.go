package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kong"

	"github.com/user/framecast/pkg/adapters/logger"
	"github.com/user/framecast/pkg/config"
	"github.com/user/framecast/pkg/framecast"
	"github.com/user/framecast/pkg/mocks"
	"github.com/user/framecast/pkg/orchestrator"
	"github.com/user/framecast/pkg/ports"
)

func parse(t *testing.T, args ...string) *StreamCmd {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, helpVars())
	if err != nil {
		t.Fatalf("kong.New failed: %v", err)
	}
	if _, err := parser.Parse(args); err != nil {
		t.Fatalf("Parse(%v) failed: %v", args, err)
	}
	return &cli.Stream
}

func TestStreamCmd_DefaultCommand(t *testing.T) {
	cmd := parse(t, "movie.mp4")
	if cmd.Input != "movie.mp4" {
		t.Errorf("expected input movie.mp4, got %q", cmd.Input)
	}
	if cmd.Port != nil || cmd.Mode != nil {
		t.Error("unset flags should stay nil")
	}
}

func TestStreamCmd_BuildConfig(t *testing.T) {
	cmd := parse(t, "stream", "movie.mp4",
		"--mode", "chunked",
		"--port", "6001",
		"--fps", "24",
		"--chunk-duration", "2s",
		"--start-delay", "0s",
		"--exit-timeout", "10s",
		"--audio-relay-capacity", "50",
	)

	file := config.Defaults()
	file.Audio = "from-file.wav"
	file.Relay.VideoCapacity = 30

	cfg, err := cmd.buildConfig(file, logger.NewNoop()).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if cfg.Mode != orchestrator.ModeChunked || cfg.Port != 6001 || cfg.FPS != 24 {
		t.Errorf("flags not applied: %+v", cfg)
	}
	if cfg.ChunkDuration != 2*time.Second || cfg.StartDelay != 0 || cfg.ExitTimeout != 10*time.Second {
		t.Errorf("durations not applied: %+v", cfg)
	}
	// file values survive where no flag was given
	if cfg.AudioPath != "from-file.wav" || cfg.VideoRelayCapacity != 30 {
		t.Errorf("file values lost: %+v", cfg)
	}
	if cfg.AudioRelayCapacity != 50 {
		t.Errorf("expected audio relay capacity 50, got %d", cfg.AudioRelayCapacity)
	}
}

func TestStreamCmd_EnvDestination(t *testing.T) {
	t.Setenv("STREAM_HOST", "10.1.2.3")
	t.Setenv("STREAM_PORT", "7000")

	cmd := parse(t, "movie.mp4")
	cfg, err := cmd.buildConfig(config.Defaults(), logger.NewNoop()).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if got := cfg.OutputURL(); got != "udp://10.1.2.3:7000?pkt_size=1316" {
		t.Errorf("OutputURL() = %q", got)
	}
}

func TestStreamCmd_InvalidEnvPortFallsBack(t *testing.T) {
	t.Setenv("STREAM_PORT", "not-a-port")

	var out, errOut bytes.Buffer
	log := logger.NewConsoleWriter(ports.LevelInfo, &out, &errOut)

	cmd := parse(t, "movie.mp4")
	file := config.Defaults()
	cfg, err := cmd.buildConfig(file, log).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if cfg.Port != file.Port {
		t.Errorf("expected the configured port %d, got %d", file.Port, cfg.Port)
	}
	if !strings.Contains(errOut.String(), "STREAM_PORT") {
		t.Errorf("expected a warning about STREAM_PORT, got %q", errOut.String())
	}
}

func TestStreamCmd_PortFlagBeatsEnv(t *testing.T) {
	t.Setenv("STREAM_PORT", "7000")

	cmd := parse(t, "movie.mp4", "--port", "6001")
	cfg, err := cmd.buildConfig(config.Defaults(), logger.NewNoop()).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if cfg.Port != 6001 {
		t.Errorf("expected flag port 6001, got %d", cfg.Port)
	}
}

func TestProbeInput(t *testing.T) {
	prober := &mocks.MediaProber{Info: ports.MediaInfo{Width: 640, Height: 360, FPS: 29.97, FrameCount: 300}}

	cfg, err := framecast.NewConfigBuilder().WithFPS(25).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	audio := ports.AudioInfo{SampleRate: 48000, Channels: 2, BitDepth: 16}

	media, params, err := probeInput(context.Background(), prober, "movie.mp4", cfg, audio)
	if err != nil {
		t.Fatalf("probeInput failed: %v", err)
	}
	if len(prober.Paths) != 1 || prober.Paths[0] != "movie.mp4" {
		t.Errorf("unexpected probe calls %v", prober.Paths)
	}
	if params.FPS != 25 || media.FPS != 25 {
		t.Errorf("fps override not applied: media %v, params %v", media.FPS, params.FPS)
	}
	if params.Width != 640 || params.Height != 360 || params.SampleRate != 48000 || params.Channels != 2 {
		t.Errorf("unexpected params %+v", params)
	}
}

func TestProbeInput_Unavailable(t *testing.T) {
	prober := &mocks.MediaProber{Err: ports.ErrSourceUnavailable}

	_, _, err := probeInput(context.Background(), prober, "missing.mp4", framecast.DefaultConfig(), ports.AudioInfo{})
	if !errors.Is(err, ports.ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestStreamCmd_InvalidMode(t *testing.T) {
	cmd := parse(t, "movie.mp4", "--mode", "multicast")
	if _, err := cmd.buildConfig(config.Defaults(), logger.NewNoop()).Build(); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestStreamCmd_Overrides(t *testing.T) {
	cmd := parse(t, "movie.mp4", "--overlay", "{time}", "--summary", "out/run.md")
	file := config.Defaults()
	file.Overlay.Text = "ignored"
	file.Summary = "ignored.md"

	if got := cmd.overlayText(file); got != "{time}" {
		t.Errorf("overlayText() = %q", got)
	}
	if got := cmd.summaryPath(file); got != "out/run.md" {
		t.Errorf("summaryPath() = %q", got)
	}
	if got := cmd.metricsAddr(file); got != "" {
		t.Errorf("metricsAddr() = %q, want empty", got)
	}
}
