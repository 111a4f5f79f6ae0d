package ffmpeg

import (
	"strings"
	"sync"
)

// LineRing keeps the most recent lines of a process's diagnostic output.
// It is safe for concurrent use: the stderr drain adds lines while callers read them.
type LineRing struct {
	mu      sync.Mutex
	lines   []string
	next    int
	full    bool
	partial strings.Builder
}

// NewLineRing creates a ring holding up to capacity lines.
func NewLineRing(capacity int) *LineRing {
	if capacity < 1 {
		capacity = 50
	}
	return &LineRing{lines: make([]string, capacity)}
}

// Add stores one line, evicting the oldest when full. Blank lines are ignored.
func (r *LineRing) Add(line string) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(line)
}

func (r *LineRing) add(line string) {
	r.lines[r.next] = line
	r.next = (r.next + 1) % len(r.lines)
	if r.next == 0 {
		r.full = true
	}
}

// Write implements io.Writer. Input is split on newlines and carriage returns;
// a trailing fragment is held until the rest of its line arrives.
func (r *LineRing) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, b := range p {
		if b == '\n' || b == '\r' {
			if s := r.partial.String(); strings.TrimSpace(s) != "" {
				r.add(s)
			}
			r.partial.Reset()
			continue
		}
		r.partial.WriteByte(b)
	}
	return len(p), nil
}

// LastN returns up to n of the most recent lines, oldest first.
func (r *LineRing) LastN(n int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ordered []string
	if r.full {
		ordered = append(ordered, r.lines[r.next:]...)
	}
	ordered = append(ordered, r.lines[:r.next]...)

	if n < 0 || n >= len(ordered) {
		return ordered
	}
	return ordered[len(ordered)-n:]
}
