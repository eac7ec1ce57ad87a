package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level string
		want  []string
	}{
		{level: "DEBUG", want: []string{"DEBUG", "INFO", "WARN", "ERROR"}},
		{level: "info", want: []string{"INFO", "WARN", "ERROR"}},
		{level: "WARN", want: []string{"WARN", "ERROR"}},
		{level: "ERROR", want: []string{"ERROR"}},
		{level: "bogus", want: []string{"INFO", "WARN", "ERROR"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewWithWriter(&buf, tt.level)
			l.Debug("d")
			l.Info("i")
			l.Warn("w")
			l.Error("e")

			entries := decodeLines(t, &buf)
			if len(entries) != len(tt.want) {
				t.Fatalf("got %d entries, want %d", len(entries), len(tt.want))
			}
			for i, entry := range entries {
				if entry["level"] != tt.want[i] {
					t.Errorf("entry %d level = %v, want %s", i, entry["level"], tt.want[i])
				}
			}
		})
	}
}

func TestLogger_WithAddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "INFO").WithComponent("sync").With("trigger", "background")
	l.Info("sync complete", "events", 4)

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e["component"] != "sync" || e["trigger"] != "background" {
		t.Errorf("missing persistent attributes: %v", e)
	}
	if e["events"] != float64(4) {
		t.Errorf("events = %v, want 4", e["events"])
	}
	if e["msg"] != "sync complete" {
		t.Errorf("msg = %v", e["msg"])
	}
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "focuslog.log")
	l, err := New(Options{Level: "INFO", File: path, MaxSizeMB: 1, MaxBackups: 1})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	l.Info("hello", "k", "v")
	if err := l.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) {
		t.Errorf("log file does not contain entry: %s", data)
	}
}

func TestNopAndOrNop(t *testing.T) {
	Nop().Error("discarded")
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
	l := Nop()
	if OrNop(l) != l {
		t.Error("OrNop(l) should return l")
	}
	if err := Nop().Close(); err != nil {
		t.Errorf("Close() on stderr logger failed: %v", err)
	}
}
