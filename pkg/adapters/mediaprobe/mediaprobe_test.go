package mediaprobe

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/framecast/pkg/adapters/logger"
	"github.com/user/framecast/pkg/ports"
)

// buildFragmentedMP4 writes a single-fragment MP4 with n video samples at fps.
func buildFragmentedMP4(t *testing.T, width, height, fps, n int) []byte {
	t.Helper()

	timescale := uint32(fps * 1000)
	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(timescale, "video", "en")
	trak := init.Moov.Trak

	avc1 := mp4.CreateVisualSampleEntryBox("avc1", uint16(width), uint16(height), nil)
	trak.Mdia.Minf.Stbl.Stsd.AddChild(avc1)
	trak.Tkhd.Width = mp4.Fixed32(width << 16)
	trak.Tkhd.Height = mp4.Fixed32(height << 16)

	frag, err := mp4.CreateFragment(1, 1)
	if err != nil {
		t.Fatalf("create fragment: %v", err)
	}
	dur := timescale / uint32(fps)
	for i := 0; i < n; i++ {
		data := []byte{0, 0, 0, 1, byte(i)}
		flags := mp4.NonSyncSampleFlags
		if i == 0 {
			flags = mp4.SyncSampleFlags
		}
		frag.AddFullSample(mp4.FullSample{
			Sample:     mp4.Sample{Flags: flags, Size: uint32(len(data)), Dur: dur},
			DecodeTime: uint64(i) * uint64(dur),
			Data:       data,
		})
	}

	var buf bytes.Buffer
	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso2", "avc1", "mp41"})
	if err := ftyp.Encode(&buf); err != nil {
		t.Fatalf("encode ftyp: %v", err)
	}
	if err := init.Moov.Encode(&buf); err != nil {
		t.Fatalf("encode moov: %v", err)
	}
	if err := frag.Encode(&buf); err != nil {
		t.Fatalf("encode fragment: %v", err)
	}
	return buf.Bytes()
}

func TestProbeMP4_Fragmented(t *testing.T) {
	data := buildFragmentedMP4(t, 320, 240, 30, 45)

	info, err := ProbeMP4(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ProbeMP4 failed: %v", err)
	}
	if info.Width != 320 || info.Height != 240 {
		t.Errorf("expected 320x240, got %dx%d", info.Width, info.Height)
	}
	if info.FrameCount != 45 {
		t.Errorf("expected 45 frames, got %d", info.FrameCount)
	}
	if math.Abs(info.FPS-30) > 1e-9 {
		t.Errorf("expected 30 fps, got %v", info.FPS)
	}
	if info.Duration.Milliseconds() != 1500 {
		t.Errorf("expected 1.5s, got %v", info.Duration)
	}
}

func TestProbeMP4_Garbage(t *testing.T) {
	if _, err := ProbeMP4(bytes.NewReader([]byte("not an mp4 at all"))); err == nil {
		t.Error("expected error for garbage input")
	}
}

func TestParseFFprobe(t *testing.T) {
	tests := []struct {
		name       string
		json       string
		wantW      int
		wantH      int
		wantFPS    float64
		wantFrames int
		wantErr    bool
	}{
		{
			name:       "ntsc",
			json:       `{"streams":[{"width":1920,"height":1080,"avg_frame_rate":"30000/1001","r_frame_rate":"30000/1001","nb_frames":"300","duration":"10.010000"}]}`,
			wantW:      1920,
			wantH:      1080,
			wantFPS:    30000.0 / 1001.0,
			wantFrames: 300,
		},
		{
			name:       "avg rate unknown",
			json:       `{"streams":[{"width":640,"height":360,"avg_frame_rate":"0/0","r_frame_rate":"25/1","duration":"2.0"}]}`,
			wantW:      640,
			wantH:      360,
			wantFPS:    25,
			wantFrames: 50,
		},
		{
			name:    "no streams",
			json:    `{"streams":[]}`,
			wantErr: true,
		},
		{
			name:    "invalid json",
			json:    `{`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := parseFFprobe([]byte(tt.json))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if info.Width != tt.wantW || info.Height != tt.wantH {
				t.Errorf("expected %dx%d, got %dx%d", tt.wantW, tt.wantH, info.Width, info.Height)
			}
			if math.Abs(info.FPS-tt.wantFPS) > 1e-9 {
				t.Errorf("expected fps %v, got %v", tt.wantFPS, info.FPS)
			}
			if info.FrameCount != tt.wantFrames {
				t.Errorf("expected %d frames, got %d", tt.wantFrames, info.FrameCount)
			}
		})
	}
}

func TestParseRate(t *testing.T) {
	tests := map[string]float64{
		"25/1":       25,
		"30000/1001": 30000.0 / 1001.0,
		"24":         24,
		"0/0":        0,
		"":           0,
		"x/1":        0,
	}
	for in, want := range tests {
		if got := parseRate(in); math.Abs(got-want) > 1e-9 {
			t.Errorf("parseRate(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestProber_MP4(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, buildFragmentedMP4(t, 64, 48, 25, 10), 0644); err != nil {
		t.Fatal(err)
	}

	p := New("", logger.NewNoop())
	info, err := p.Probe(context.Background(), path)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if info.Width != 64 || info.Height != 48 || info.FrameCount != 10 {
		t.Errorf("unexpected info %+v", info)
	}
}

func TestProber_MissingFileWithoutFFprobe(t *testing.T) {
	p := New("", logger.NewNoop())
	_, err := p.Probe(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"))
	if !errors.Is(err, ports.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}

	_, err = p.Probe(context.Background(), filepath.Join(t.TempDir(), "clip.mkv"))
	if !errors.Is(err, ports.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable for non-mp4, got %v", err)
	}
}

func TestProber_FFprobeFallback(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script in place of ffprobe")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "ffprobe")
	body := "#!/bin/sh\necho '{\"streams\":[{\"width\":1280,\"height\":720,\"avg_frame_rate\":\"24/1\",\"nb_frames\":\"48\"}]}'\n"
	if err := os.WriteFile(script, []byte(body), 0755); err != nil {
		t.Fatal(err)
	}

	p := New(script, logger.NewNoop())
	info, err := p.Probe(context.Background(), filepath.Join(dir, "clip.mkv"))
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if info.Width != 1280 || info.Height != 720 || info.FPS != 24 || info.FrameCount != 48 {
		t.Errorf("unexpected info %+v", info)
	}

	failing := filepath.Join(dir, "ffprobe-fail")
	if err := os.WriteFile(failing, []byte("#!/bin/sh\necho 'No such file' >&2\nexit 1\n"), 0755); err != nil {
		t.Fatal(err)
	}
	p = New(failing, logger.NewNoop())
	if _, err := p.Probe(context.Background(), filepath.Join(dir, "clip.mkv")); !errors.Is(err, ports.ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable, got %v", err)
	}
}
