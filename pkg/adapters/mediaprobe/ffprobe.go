package mediaprobe

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/user/framecast/pkg/ports"
)

type ffprobeOutput struct {
	Streams []struct {
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
		RFrameRate   string `json:"r_frame_rate"`
		NbFrames     string `json:"nb_frames"`
		Duration     string `json:"duration"`
	} `json:"streams"`
}

// ProbeFFprobe runs ffprobe on the first video stream of path.
func ProbeFFprobe(ctx context.Context, ffprobePath, path string) (ports.MediaInfo, error) {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}

	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,avg_frame_rate,r_frame_rate,nb_frames,duration",
		"-of", "json",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		detail := ""
		if ee, ok := err.(*exec.ExitError); ok {
			detail = strings.TrimSpace(string(ee.Stderr))
		}
		if detail != "" {
			return ports.MediaInfo{}, fmt.Errorf("ffprobe: %w: %s", err, detail)
		}
		return ports.MediaInfo{}, fmt.Errorf("ffprobe: %w", err)
	}
	return parseFFprobe(out)
}

func parseFFprobe(out []byte) (ports.MediaInfo, error) {
	var data ffprobeOutput
	if err := json.Unmarshal(out, &data); err != nil {
		return ports.MediaInfo{}, fmt.Errorf("ffprobe json: %w", err)
	}
	if len(data.Streams) == 0 {
		return ports.MediaInfo{}, fmt.Errorf("no video stream found")
	}

	s := data.Streams[0]
	info := ports.MediaInfo{Width: s.Width, Height: s.Height}

	info.FPS = parseRate(s.AvgFrameRate)
	if info.FPS == 0 {
		info.FPS = parseRate(s.RFrameRate)
	}
	if n, err := strconv.Atoi(s.NbFrames); err == nil {
		info.FrameCount = n
	}
	if d, err := strconv.ParseFloat(s.Duration, 64); err == nil && d > 0 {
		info.Duration = time.Duration(d * float64(time.Second))
		if info.FrameCount == 0 && info.FPS > 0 {
			info.FrameCount = int(d*info.FPS + 0.5)
		}
	}

	if info.Width == 0 || info.Height == 0 {
		return info, fmt.Errorf("video stream has no dimensions")
	}
	return info, nil
}

// parseRate parses ffprobe rates such as "30000/1001" or "25". It returns 0 for "0/0".
func parseRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !ok {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}
