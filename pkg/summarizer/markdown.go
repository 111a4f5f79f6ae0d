package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter renders a Summary as a Markdown report.
type MarkdownFormatter struct {
	t       func(string) string
	version string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator translates headings and labels, e.g. l10n.T.
func WithTranslator(t func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.t = t
	}
}

// WithVersion adds the program version to the report footer.
func WithVersion(v string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.version = v
	}
}

// NewMarkdownFormatter creates a formatter with English labels.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{t: func(s string) string { return s }}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	var b strings.Builder
	t := f.t

	fmt.Fprintf(&b, "# %s\n\n", t("Stream Summary"))

	fmt.Fprintf(&b, "## %s\n\n", t("Result"))
	switch {
	case s.Failed():
		fmt.Fprintf(&b, "**%s**: %s\n\n", t("Failed"), s.Error)
	case s.Interrupted:
		fmt.Fprintf(&b, "**%s**\n\n", t("Interrupted"))
	default:
		fmt.Fprintf(&b, "**%s**\n\n", t("Completed"))
	}

	fmt.Fprintf(&b, "## %s\n\n", t("Stream"))
	f.tableHeader(&b)
	if s.RunID != "" {
		f.row(&b, "Run ID", s.RunID)
	}
	f.row(&b, "Mode", s.Stream.Mode)
	f.row(&b, "Destination", s.Stream.OutputURL)
	f.row(&b, "Video", fmt.Sprintf("%dx%d @ %.2f fps", s.Stream.Width, s.Stream.Height, s.Stream.FPS))
	if s.Stream.SampleRate > 0 {
		audio := fmt.Sprintf("%d Hz, %d ch", s.Stream.SampleRate, s.Stream.Channels)
		if s.Stream.AudioPath != "" {
			audio += " (" + s.Stream.AudioPath + ")"
		}
		f.row(&b, "Audio", audio)
	} else {
		f.row(&b, "Audio", t("None"))
	}
	b.WriteString("\n")

	d := s.Delivery
	fmt.Fprintf(&b, "## %s\n\n", t("Delivery"))
	f.tableHeader(&b)
	f.row(&b, "Frames Sent", fmt.Sprintf("%d (%s)", d.FramesSent, formatSeconds(framesDuration(d.FramesSent, s.Stream.FPS))))
	if d.AudioBlocks > 0 {
		f.row(&b, "Audio Blocks", fmt.Sprintf("%d", d.AudioBlocks))
	}
	f.row(&b, "Video Data", formatBytes(d.VideoBytes))
	if d.AudioBytes > 0 {
		f.row(&b, "Audio Data", formatBytes(d.AudioBytes))
	}
	f.row(&b, "Sessions", fmt.Sprintf("%d", d.Sessions))
	f.row(&b, "Late Frames", fmt.Sprintf("%d", d.LateTicks))
	f.row(&b, "Relay Stalls", fmt.Sprintf("%d", d.Stalls))
	f.row(&b, "Elapsed", formatSeconds(d.Elapsed))
	b.WriteString("\n")

	if len(s.Chunks) > 0 {
		fmt.Fprintf(&b, "## %s\n\n", t("Chunks"))
		fmt.Fprintf(&b, "| # | %s | %s | %s | %s |\n", t("Frames"), t("Start"), t("Duration"), t("Result"))
		b.WriteString("|---|---|---|---|---|\n")
		for _, c := range s.Chunks {
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
				c.Index, f.chunkFrames(c), formatSeconds(c.Start), formatSeconds(c.Duration), f.chunkResult(c))
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n\n")
	footer := fmt.Sprintf("%s %s", t("Generated at"), s.GeneratedAt.Format(time.RFC3339))
	if f.version != "" {
		footer += " · framecast " + f.version
	}
	b.WriteString(footer + "\n")

	return b.String()
}

func (f *MarkdownFormatter) tableHeader(b *strings.Builder) {
	fmt.Fprintf(b, "| %s | %s |\n|---|---|\n", f.t("Item"), f.t("Value"))
}

func (f *MarkdownFormatter) row(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "| %s | %s |\n", f.t(label), value)
}

func (f *MarkdownFormatter) chunkFrames(c ChunkInfo) string {
	if c.Error != "" && c.FramesWritten < c.Frames {
		return fmt.Sprintf("%d / %d", c.FramesWritten, c.Frames)
	}
	return fmt.Sprintf("%d", c.Frames)
}

func (f *MarkdownFormatter) chunkResult(c ChunkInfo) string {
	if c.Error == "" {
		return f.t("OK")
	}
	// keep the table intact
	msg := strings.ReplaceAll(c.Error, "|", "\\|")
	if c.FramesWritten < c.Frames {
		return f.t("Partial") + ": " + msg
	}
	return f.t("Failed") + ": " + msg
}

func framesDuration(n int, fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(n) / fps * float64(time.Second))
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.3f s", d.Seconds())
}

// formatBytes formats a byte count using 1024-based units.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 2; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(n)/float64(div), "KMG"[exp])
}
