// Package main provides the CLI entry point for framecast.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/ideamans/go-l10n"

	"github.com/user/framecast/pkg/adapters/ffmpeg"
	"github.com/user/framecast/pkg/adapters/filesink"
	"github.com/user/framecast/pkg/adapters/logger"
	"github.com/user/framecast/pkg/adapters/mediaprobe"
	"github.com/user/framecast/pkg/adapters/nullsink"
	"github.com/user/framecast/pkg/adapters/osfilesystem"
	"github.com/user/framecast/pkg/adapters/overlay"
	"github.com/user/framecast/pkg/adapters/wavsource"
	"github.com/user/framecast/pkg/config"
	"github.com/user/framecast/pkg/framecast"
	"github.com/user/framecast/pkg/metrics"
	"github.com/user/framecast/pkg/orchestrator"
	"github.com/user/framecast/pkg/ports"
	"github.com/user/framecast/pkg/stages/acquire"
	"github.com/user/framecast/pkg/summarizer"
)

// CLI defines the command-line interface with subcommands.
type CLI struct {
	Stream  StreamCmd  `cmd:"" default:"withargs" help:"${help_stream}"`
	Version VersionCmd `cmd:"" help:"${help_version}"`
}

// StreamCmd defines the stream subcommand.
type StreamCmd struct {
	// Required arguments
	Input string `arg:"" help:"${help_input}"`

	// Config file, overridden by flags
	Config string `short:"c" type:"existingfile" help:"${help_config}"`

	// Destination
	Host *string `env:"STREAM_HOST" help:"${help_host}"`
	Port *int    `short:"p" help:"${help_port}"`
	URL  *string `name:"url" help:"${help_url}"`

	// Stream
	Mode           *string        `short:"m" placeholder:"direct|fifo|chunked" help:"${help_mode}"`
	FPS            *float64       `name:"fps" help:"${help_fps}"`
	Audio          *string        `short:"a" help:"${help_audio}"`
	StartDelay     *time.Duration `help:"${help_start_delay}"`
	ChunkDuration  *time.Duration `help:"${help_chunk_duration}"`
	ForceKeyframes *int           `help:"${help_force_keyframes}"`

	// Relays
	VideoFramesPerItem *int `help:"${help_video_frames_per_item}"`
	AudioBlockFrames   *int `help:"${help_audio_block_frames}"`
	VideoRelayCapacity *int `help:"${help_video_relay_capacity}"`
	AudioRelayCapacity *int `help:"${help_audio_relay_capacity}"`

	// ffmpeg
	FFmpeg      string         `name:"ffmpeg" help:"${help_ffmpeg}"`
	ExitTimeout *time.Duration `help:"${help_exit_timeout}"`

	// Overlay
	Overlay         *string `help:"${help_overlay}"`
	OverlayPosition *string `placeholder:"top-left" help:"${help_overlay_position}"`

	// Outputs other than the stream
	DryRun      bool    `help:"${help_dry_run}"`
	Dump        string  `type:"path" help:"${help_dump}"`
	MetricsAddr *string `help:"${help_metrics_addr}"`
	Summary     *string `short:"s" help:"${help_summary}"`

	// Logging
	LogLevel  *string `short:"l" placeholder:"info" help:"${help_log_level}"`
	LogFormat *string `placeholder:"text" help:"${help_log_format}"`
	Quiet     bool    `short:"Q" help:"${help_quiet}"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

var version = "dev"

func main() {
	cli := CLI{}

	ctx := kong.Parse(&cli,
		kong.Name("framecast"),
		kong.Description(l10n.T("Stream a video file as paced MPEG-TS over UDP through ffmpeg")),
		kong.UsageOnError(),
		helpVars(),
	)

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

// Run executes the stream command. Any returned error is a startup failure.
func (cmd *StreamCmd) Run() error {
	file, err := cmd.loadConfig()
	if err != nil {
		return err
	}

	log := cmd.newLogger(file)

	cfg, err := cmd.buildConfig(file, log).Build()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	if addr := cmd.metricsAddr(file); addr != "" {
		log.Info("Metrics available at http://%s/metrics", addr)
		go func() {
			if err := metrics.Serve(ctx, addr); err != nil {
				log.Warn("Metrics server stopped: %v", err)
			}
		}()
	}

	ffmpegPath, err := ffmpeg.Locate(firstNonEmpty(cmd.FFmpeg, file.FFmpegPath))
	if err != nil {
		return err
	}
	log.Debug("ffmpeg: %s", ffmpegPath)

	probePath := file.FFprobePath
	if probePath == "" {
		if p, err := ffmpeg.LocateProbe(ffmpegPath); err == nil {
			probePath = p
		} else {
			log.Debug("ffprobe not found, only MP4 files can be probed")
		}
	}

	// Probe inputs
	var audioInfo ports.AudioInfo
	if cfg.AudioPath != "" {
		audioInfo, err = wavsource.Probe(cfg.AudioPath)
		if err != nil {
			return err
		}
		log.Info("Audio: %d Hz, %d ch, %.1f s", audioInfo.SampleRate, audioInfo.Channels, audioInfo.Duration().Seconds())
	}

	media, params, err := probeInput(ctx, mediaprobe.New(probePath, log), cmd.Input, cfg, audioInfo)
	if err != nil {
		return err
	}
	log.Info("Input: %dx%d @ %.2f fps, %d frames", media.Width, media.Height, media.FPS, media.FrameCount)

	// Open sources
	video, err := ffmpeg.OpenSource(ffmpegPath, cmd.Input, media, log)
	if err != nil {
		return err
	}
	defer video.Close()

	src := orchestrator.Sources{Video: video}
	if text := cmd.overlayText(file); text != "" {
		ov, err := cmd.newOverlay(file, params, text)
		if err != nil {
			return err
		}
		src.Video = acquire.Transformed(video, ov.Transform())
	}
	if cfg.Mode == orchestrator.ModeFIFO && cfg.AudioPath != "" {
		audio, err := wavsource.Open(cfg.AudioPath, cfg.AudioBlockFrames)
		if err != nil {
			return err
		}
		defer audio.Close()
		src.Audio = audio
	}

	// Create adapters
	fs := osfilesystem.New()
	var transcoder ports.Transcoder
	switch {
	case cmd.DryRun:
		log.Info("Dry run: no ffmpeg process will be started")
		transcoder = nullsink.NewTranscoder()
	case cmd.Dump != "":
		log.Info("Dumping raw streams to %s", cmd.Dump)
		transcoder = filesink.NewTranscoder(cmd.Dump, fs)
	default:
		opts := ffmpeg.DefaultOptions()
		opts.Path = ffmpegPath
		opts.ExitTimeout = cfg.ExitTimeout
		transcoder = ffmpeg.NewLauncher(opts, log)
	}

	orch := orchestrator.New(orchestrator.DefaultStages(log), transcoder, fs, log)

	log.Info("Open %s in your player, e.g. ffplay -fflags nobuffer %s", cfg.PlayerURL(), cfg.PlayerURL())

	run, err := orch.Run(ctx, cfg.ToOrchestratorConfig(params), src)
	if err != nil {
		return err
	}

	if path := cmd.summaryPath(file); path != "" {
		s := summarizer.NewBuilder().WithRun(run).WithAudioPath(cfg.AudioPath).Build()
		w := summarizer.NewWriter(summarizer.NewMarkdownFormatter(
			summarizer.WithTranslator(l10n.T),
			summarizer.WithVersion(version),
		), fs)
		if err := w.Write(path, s); err != nil {
			log.Warn("Failed to write summary: %s", err)
		} else {
			log.Info("Summary saved to %s", path)
		}
	}

	// stream failures were reported by the orchestrator and do not change the exit code
	return nil
}

func (cmd *StreamCmd) loadConfig() (config.Config, error) {
	if cmd.Config == "" {
		return config.Defaults(), nil
	}
	return config.LoadFromFile(cmd.Config)
}

// buildConfig layers the environment and command-line overrides on top of the config file.
func (cmd *StreamCmd) buildConfig(file config.Config, log ports.Logger) *framecast.ConfigBuilder {
	builder := file.Builder()

	if cmd.Host != nil {
		builder.WithHost(*cmd.Host)
	}
	if cmd.Port != nil {
		builder.WithPort(*cmd.Port)
	} else if port, ok := envPort(log); ok {
		builder.WithPort(port)
	}
	if cmd.URL != nil {
		builder.WithURL(*cmd.URL)
	}
	if cmd.Mode != nil {
		builder.WithMode(orchestrator.Mode(*cmd.Mode))
	}
	if cmd.FPS != nil {
		builder.WithFPS(*cmd.FPS)
	}
	if cmd.Audio != nil {
		builder.WithAudio(*cmd.Audio)
	}
	if cmd.StartDelay != nil {
		builder.WithStartDelay(*cmd.StartDelay)
	}
	if cmd.ChunkDuration != nil {
		builder.WithChunkDuration(*cmd.ChunkDuration)
	}
	if cmd.ForceKeyframes != nil {
		builder.WithForceKeyframes(*cmd.ForceKeyframes)
	}
	if cmd.ExitTimeout != nil {
		builder.WithExitTimeout(*cmd.ExitTimeout)
	}
	if cmd.VideoFramesPerItem != nil {
		builder.WithVideoFramesPerItem(*cmd.VideoFramesPerItem)
	}
	if cmd.AudioBlockFrames != nil {
		builder.WithAudioBlockFrames(*cmd.AudioBlockFrames)
	}
	if cmd.VideoRelayCapacity != nil {
		builder.WithVideoRelayCapacity(*cmd.VideoRelayCapacity)
	}
	if cmd.AudioRelayCapacity != nil {
		builder.WithAudioRelayCapacity(*cmd.AudioRelayCapacity)
	}

	return builder
}

// envPort reads STREAM_PORT. A value that is not a usable port is ignored
// with a warning and the configured port stays in effect.
func envPort(log ports.Logger) (int, bool) {
	v := strings.TrimSpace(os.Getenv("STREAM_PORT"))
	if v == "" {
		return 0, false
	}
	port, err := strconv.Atoi(v)
	if err != nil || port < 1 || port > 65535 {
		log.Warn("Ignoring STREAM_PORT=%q: not a valid port", v)
		return 0, false
	}
	return port, true
}

// probeInput reads the stream metadata of path and resolves the frame rate.
func probeInput(ctx context.Context, prober ports.MediaProber, path string, cfg framecast.Config, audio ports.AudioInfo) (ports.MediaInfo, ports.StreamParameters, error) {
	media, err := prober.Probe(ctx, path)
	if err != nil {
		return ports.MediaInfo{}, ports.StreamParameters{}, err
	}
	params := cfg.StreamParameters(media, audio)
	media.FPS = params.FPS
	return media, params, nil
}

func (cmd *StreamCmd) newLogger(file config.Config) ports.Logger {
	level, format := file.LogLevel, file.LogFormat
	if cmd.LogLevel != nil {
		level = *cmd.LogLevel
	}
	if cmd.LogFormat != nil {
		format = *cmd.LogFormat
	}
	if format == "json" && !cmd.Quiet {
		return logger.NewJSON(ports.ParseLogLevel(level), os.Stderr)
	}
	return logger.New(ports.ParseLogLevel(level), cmd.Quiet)
}

func (cmd *StreamCmd) overlayText(file config.Config) string {
	if cmd.Overlay != nil {
		return *cmd.Overlay
	}
	return file.Overlay.Text
}

func (cmd *StreamCmd) newOverlay(file config.Config, params ports.StreamParameters, text string) (*overlay.Overlay, error) {
	if cmd.OverlayPosition != nil {
		file.Overlay.Position = *cmd.OverlayPosition
	}
	style, err := file.OverlayStyle()
	if err != nil {
		return nil, err
	}
	return overlay.New(params.Width, params.Height, params.FPS, text, style)
}

func (cmd *StreamCmd) metricsAddr(file config.Config) string {
	if cmd.MetricsAddr != nil {
		return *cmd.MetricsAddr
	}
	return file.MetricsAddr
}

func (cmd *StreamCmd) summaryPath(file config.Config) string {
	if cmd.Summary != nil {
		return *cmd.Summary
	}
	return file.Summary
}

// Run executes the version command.
func (cmd *VersionCmd) Run() error {
	fmt.Println(l10n.F("framecast version %s", version))
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
