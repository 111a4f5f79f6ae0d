package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/user/framecast/pkg/ports"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		entries = append(entries, m)
	}
	return entries
}

func TestJSONLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSON(ports.LevelInfo, &buf)

	log.WithComponent("chunk").Info("Chunk %d: %d frames, start %.3fs, duration %.3fs", 1, 150, 5.0, 5.0)

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e["level"] != "info" || e["component"] != "chunk" || e["service"] != "framecast" {
		t.Errorf("unexpected fields %v", e)
	}
	if e["message"] != "Chunk 1: 150 frames, start 5.000s, duration 5.000s" {
		t.Errorf("unexpected message %q", e["message"])
	}
	if _, ok := e["time"]; !ok {
		t.Error("expected a timestamp")
	}
}

func TestJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSON(ports.LevelWarn, &buf)

	log.Debug("hidden")
	log.Info("hidden")
	log.Warn("kept %d", 1)
	log.Error("kept %d", 2)

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %s", len(entries), buf.String())
	}
	if entries[0]["level"] != "warn" || entries[1]["level"] != "error" {
		t.Errorf("unexpected levels %v / %v", entries[0]["level"], entries[1]["level"])
	}
}

func TestJSONLogger_Quiet(t *testing.T) {
	var buf bytes.Buffer
	NewJSON(ports.LevelQuiet, &buf).Error("nothing")
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}
