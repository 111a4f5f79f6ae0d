// Package ffmpeg runs ffmpeg processes as transcode sessions.
package ffmpeg

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

func execName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

// Locate finds the ffmpeg executable.
// Priority: 1) custom (a path or a name looked up in PATH), 2) FFMPEG_PATH env, 3) PATH, 4) common locations.
func Locate(custom string) (string, error) {
	if custom != "" && custom != "ffmpeg" {
		if p, err := exec.LookPath(custom); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("%w: %s", ErrFFmpegNotFound, custom)
	}

	if envPath := os.Getenv("FFMPEG_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("%w: FFMPEG_PATH %s not found", ErrFFmpegNotFound, envPath)
	}

	if p, err := exec.LookPath(execName("ffmpeg")); err == nil {
		return p, nil
	}

	for _, p := range commonPaths("ffmpeg") {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", ErrFFmpegNotFound
}

// LocateProbe finds ffprobe, preferring the one installed next to ffmpegPath.
func LocateProbe(ffmpegPath string) (string, error) {
	if ffmpegPath != "" {
		sibling := filepath.Join(filepath.Dir(ffmpegPath), execName("ffprobe"))
		if _, err := os.Stat(sibling); err == nil {
			return sibling, nil
		}
	}
	if p, err := exec.LookPath(execName("ffprobe")); err == nil {
		return p, nil
	}
	for _, p := range commonPaths("ffprobe") {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", ErrFFprobeNotFound
}

func commonPaths(name string) []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			`C:\ffmpeg\bin\` + name + `.exe`,
			`C:\Program Files\ffmpeg\bin\` + name + `.exe`,
		}
	case "darwin":
		return []string{
			"/opt/homebrew/bin/" + name,
			"/usr/local/bin/" + name,
			"/usr/bin/" + name,
		}
	default:
		return []string{
			"/usr/bin/" + name,
			"/usr/local/bin/" + name,
			"/snap/bin/" + name,
		}
	}
}
