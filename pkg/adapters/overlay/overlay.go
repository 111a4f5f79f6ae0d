// Package overlay draws a text caption onto bgr24 frames using the gg library.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/user/framecast/pkg/ports"
)

// Position is the corner the caption is anchored to.
type Position int

const (
	TopLeft Position = iota
	TopRight
	BottomLeft
	BottomRight
)

// ParsePosition parses "top-left", "top-right", "bottom-left" or "bottom-right".
func ParsePosition(s string) (Position, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "top-left":
		return TopLeft, nil
	case "top-right":
		return TopRight, nil
	case "bottom-left":
		return BottomLeft, nil
	case "bottom-right":
		return BottomRight, nil
	}
	return TopLeft, fmt.Errorf("unknown overlay position %q", s)
}

// Style controls caption appearance.
type Style struct {
	Color      color.Color
	Background color.Color // nil for no box
	Position   Position
	Margin     int

	// FontPath is a TrueType font. Empty uses the built-in 7x13 bitmap face.
	FontPath string
	FontSize float64
}

// DefaultStyle returns white text on a translucent black box in the top-left corner.
func DefaultStyle() Style {
	return Style{
		Color:      color.White,
		Background: color.RGBA{0, 0, 0, 160},
		Position:   TopLeft,
		Margin:     8,
		FontSize:   16,
	}
}

// Overlay renders a caption template onto frames of a fixed size.
//
// The template may contain {frame} (zero-based frame number) and {time}
// (stream position as HH:MM:SS.mmm).
type Overlay struct {
	width, height int
	fps           float64
	template      string
	style         Style
	face          font.Face
	frame         int
}

// New creates an overlay for width x height frames at fps.
func New(width, height int, fps float64, template string, style Style) (*Overlay, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	var face font.Face = basicfont.Face7x13
	if style.FontPath != "" {
		f, err := gg.LoadFontFace(style.FontPath, style.FontSize)
		if err != nil {
			return nil, fmt.Errorf("load font: %w", err)
		}
		face = f
	}
	return &Overlay{width: width, height: height, fps: fps, template: template, style: style, face: face}, nil
}

// Transform returns the overlay as a frame transform. The returned function
// keeps a frame counter and must be used by a single goroutine.
func (o *Overlay) Transform() ports.FrameTransform {
	return o.Apply
}

// Apply draws the caption for the next frame and returns a new frame.
func (o *Overlay) Apply(f ports.Frame) ports.Frame {
	n := o.frame
	o.frame++
	if len(f) != o.width*o.height*ports.BytesPerPixel {
		return f
	}

	img := FrameToImage(f, o.width, o.height)
	dc := gg.NewContextForRGBA(img)
	o.draw(dc, o.Caption(n))
	return ImageToFrame(img)
}

// Caption expands the template for frame n.
func (o *Overlay) Caption(n int) string {
	s := strings.ReplaceAll(o.template, "{frame}", strconv.Itoa(n))
	if strings.Contains(s, "{time}") {
		s = strings.ReplaceAll(s, "{time}", formatClock(ports.FramesDuration(n, o.fps)))
	}
	return s
}

func (o *Overlay) draw(dc *gg.Context, text string) {
	if text == "" {
		return
	}
	dc.SetFontFace(o.face)

	tw, th := dc.MeasureString(text)
	pad := 4.0
	m := float64(o.style.Margin)
	boxW, boxH := tw+2*pad, th+2*pad

	x, y := m, m
	switch o.style.Position {
	case TopRight:
		x = float64(o.width) - m - boxW
	case BottomLeft:
		y = float64(o.height) - m - boxH
	case BottomRight:
		x = float64(o.width) - m - boxW
		y = float64(o.height) - m - boxH
	}

	if o.style.Background != nil {
		dc.SetColor(o.style.Background)
		dc.DrawRectangle(x, y, boxW, boxH)
		dc.Fill()
	}
	dc.SetColor(o.style.Color)
	dc.DrawStringAnchored(text, x+pad, y+boxH/2, 0, 0.5)
}

// FrameToImage converts a bgr24 frame to RGBA.
func FrameToImage(f ports.Frame, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, j := 0, 0; i+2 < len(f) && j+3 < len(img.Pix); i, j = i+3, j+4 {
		img.Pix[j] = f[i+2]
		img.Pix[j+1] = f[i+1]
		img.Pix[j+2] = f[i]
		img.Pix[j+3] = 0xff
	}
	return img
}

// ImageToFrame converts an RGBA image to a new bgr24 frame.
func ImageToFrame(img *image.RGBA) ports.Frame {
	b := img.Bounds()
	f := make(ports.Frame, b.Dx()*b.Dy()*ports.BytesPerPixel)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride:]
		for x := 0; x < b.Dx(); x++ {
			p := row[x*4:]
			f[i] = p[2]
			f[i+1] = p[1]
			f[i+2] = p[0]
			i += 3
		}
	}
	return f
}

func formatClock(d time.Duration) string {
	d = d.Round(time.Millisecond)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, d/time.Millisecond)
}
