package ffmpeg

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/user/framecast/pkg/ports"
)

// Encoding holds the output codec settings shared by every session.
type Encoding struct {
	VideoCodec   string
	Preset       string
	Tune         string
	AudioCodec   string
	AudioBitrate string
	Format       string
	MPEGTSFlags  string
}

// DefaultEncoding returns low-latency H.264/AAC in MPEG-TS.
func DefaultEncoding() Encoding {
	return Encoding{
		VideoCodec:   "libx264",
		Preset:       "ultrafast",
		Tune:         "zerolatency",
		AudioCodec:   "aac",
		AudioBitrate: "128k",
		Format:       "mpegts",
		MPEGTSFlags:  "resend_headers+initial_discontinuity",
	}
}

// BuildArgs returns the ffmpeg command line for spec, without the executable.
func BuildArgs(spec ports.SessionSpec, enc Encoding, logLevel string) []string {
	p := spec.Params
	args := []string{"-hide_banner"}
	if logLevel != "" {
		args = append(args, "-loglevel", logLevel)
	}

	// input 0: raw video
	videoSrc := "pipe:0"
	if spec.Video.Kind == ports.InputFIFO {
		videoSrc = spec.Video.Path
	}
	args = append(args,
		"-f", "rawvideo",
		"-pix_fmt", "bgr24",
		"-video_size", fmt.Sprintf("%dx%d", p.Width, p.Height),
		"-framerate", formatFloat(p.FPS),
		"-i", videoSrc,
	)

	// input 1: audio
	hasAudio := spec.Audio.Kind != ports.InputNone
	switch spec.Audio.Kind {
	case ports.InputFIFO, ports.InputStdin:
		src := spec.Audio.Path
		if spec.Audio.Kind == ports.InputStdin {
			src = "pipe:0"
		}
		args = append(args,
			"-f", "s16le",
			"-ar", strconv.Itoa(p.SampleRate),
			"-ac", strconv.Itoa(p.Channels),
			"-i", src,
		)
	case ports.InputFile:
		if spec.Audio.Start > 0 {
			args = append(args, "-ss", formatSeconds(spec.Audio.Start))
		}
		if spec.Audio.Duration > 0 {
			args = append(args, "-t", formatSeconds(spec.Audio.Duration))
		}
		args = append(args, "-i", spec.Audio.Path)
	}

	args = append(args, "-map", "0:v:0")
	if hasAudio {
		args = append(args, "-map", "1:a:0")
	}

	gop := strconv.Itoa(p.KeyframeInterval())
	args = append(args,
		"-c:v", enc.VideoCodec,
		"-preset", enc.Preset,
		"-tune", enc.Tune,
		"-g", gop,
		"-keyint_min", gop,
	)
	if spec.ForceKeyframes > 0 {
		args = append(args, "-force_key_frames", fmt.Sprintf("expr:lt(n,%d)", spec.ForceKeyframes))
	}
	args = append(args,
		"-vsync", "cfr",
		"-pix_fmt", "yuv420p",
	)

	if hasAudio {
		args = append(args, "-c:a", enc.AudioCodec, "-b:a", enc.AudioBitrate)
		if spec.Shortest {
			args = append(args, "-shortest")
		}
	}

	if spec.OutputOffset > 0 {
		args = append(args, "-output_ts_offset", formatSeconds(spec.OutputOffset))
	}

	args = append(args, "-f", enc.Format)
	if enc.Format == "mpegts" && enc.MPEGTSFlags != "" {
		args = append(args, "-mpegts_flags", enc.MPEGTSFlags)
	}
	return append(args, spec.OutputURL)
}

// UDPURL returns the MPEG-TS over UDP destination for host:port.
func UDPURL(host string, port, packetSize int) string {
	u := "udp://" + net.JoinHostPort(host, strconv.Itoa(port))
	if packetSize > 0 {
		u += "?pkt_size=" + strconv.Itoa(packetSize)
	}
	return u
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
