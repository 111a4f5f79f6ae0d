package overlay

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/user/framecast/pkg/ports"
)

func grayFrame(w, h int, v byte) ports.Frame {
	return ports.Frame(bytes.Repeat([]byte{v}, w*h*ports.BytesPerPixel))
}

func pixel(f ports.Frame, w, x, y int) [3]byte {
	i := (y*w + x) * 3
	return [3]byte{f[i], f[i+1], f[i+2]}
}

func TestFrameImageRoundTrip(t *testing.T) {
	f := ports.Frame{
		10, 20, 30, 40, 50, 60,
		70, 80, 90, 100, 110, 120,
	}
	img := FrameToImage(f, 2, 2)

	// bgr24 -> RGBA swaps the outer channels
	if got := img.RGBAAt(0, 0); got != (color.RGBA{30, 20, 10, 255}) {
		t.Errorf("unexpected pixel %v", got)
	}
	if got := ImageToFrame(img); !bytes.Equal(got, f) {
		t.Errorf("round trip mismatch: %v", got)
	}
}

func TestApply_DrawsCaption(t *testing.T) {
	const w, h = 64, 32
	o, err := New(w, h, 25, "{frame}", DefaultStyle())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	in := grayFrame(w, h, 100)
	out := o.Transform()(in)

	if len(out) != len(in) {
		t.Fatalf("frame size changed: %d != %d", len(out), len(in))
	}
	if !bytes.Equal(in, grayFrame(w, h, 100)) {
		t.Error("input frame was modified")
	}
	if pixel(out, w, 9, 9) == [3]byte{100, 100, 100} {
		t.Error("expected caption box at (9,9)")
	}
	if pixel(out, w, w-1, h-1) != [3]byte{100, 100, 100} {
		t.Error("expected pixels outside the caption to be unchanged")
	}
}

func TestApply_BottomRight(t *testing.T) {
	const w, h = 64, 32
	style := DefaultStyle()
	style.Position = BottomRight
	o, err := New(w, h, 25, "x", style)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	out := o.Apply(grayFrame(w, h, 100))
	if pixel(out, w, 0, 0) != [3]byte{100, 100, 100} {
		t.Error("expected top-left corner untouched")
	}
	if pixel(out, w, w-10, h-10) == [3]byte{100, 100, 100} {
		t.Error("expected caption near bottom-right corner")
	}
}

func TestApply_WrongSizePassesThrough(t *testing.T) {
	o, err := New(4, 4, 25, "x", DefaultStyle())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	in := ports.Frame{1, 2, 3}
	if out := o.Apply(in); !bytes.Equal(out, in) {
		t.Errorf("expected passthrough, got %v", out)
	}
}

func TestCaption(t *testing.T) {
	o, err := New(4, 4, 25, "frame {frame} @ {time}", DefaultStyle())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if got := o.Caption(50); got != "frame 50 @ 00:00:02.000" {
		t.Errorf("unexpected caption %q", got)
	}
}

func TestParsePosition(t *testing.T) {
	tests := map[string]Position{
		"":             TopLeft,
		"top-left":     TopLeft,
		"Top-Right":    TopRight,
		"bottom-left":  BottomLeft,
		"bottom-right": BottomRight,
	}
	for in, want := range tests {
		got, err := ParsePosition(in)
		if err != nil || got != want {
			t.Errorf("ParsePosition(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParsePosition("middle"); err == nil {
		t.Error("expected error for unknown position")
	}
}

func TestFormatClock(t *testing.T) {
	d := time.Hour + 2*time.Minute + 3*time.Second + 45*time.Millisecond
	if got := formatClock(d); got != "01:02:03.045" {
		t.Errorf("unexpected clock %q", got)
	}
}

func TestNew_InvalidSize(t *testing.T) {
	if _, err := New(0, 10, 25, "x", DefaultStyle()); err == nil {
		t.Error("expected error for zero width")
	}
}

func TestNew_FontLoadedOnce(t *testing.T) {
	const w, h = 96, 48
	path := filepath.Join(t.TempDir(), "regular.ttf")
	if err := os.WriteFile(path, goregular.TTF, 0644); err != nil {
		t.Fatal(err)
	}

	style := DefaultStyle()
	style.FontPath = path
	style.FontSize = 12
	o, err := New(w, h, 25, "{frame}", style)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	bitmap, err := New(w, h, 25, "{frame}", DefaultStyle())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// frames are drawn from the face parsed in New, not from the file
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		out := o.Apply(grayFrame(w, h, 100))
		if pixel(out, w, 9, 9) == [3]byte{100, 100, 100} {
			t.Fatalf("frame %d: expected caption box at (9,9)", i)
		}
		if bytes.Equal(out, bitmap.Apply(grayFrame(w, h, 100))) {
			t.Fatalf("frame %d: drawn with the bitmap face instead of the TrueType font", i)
		}
	}
}

func TestNew_MissingFont(t *testing.T) {
	style := DefaultStyle()
	style.FontPath = filepath.Join(t.TempDir(), "missing.ttf")
	if _, err := New(64, 32, 25, "x", style); err == nil {
		t.Error("expected error for a missing font file")
	}
}
