package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  LogLevel
	}{
		{"debug", LogLevelDebug},
		{"DEBUG", LogLevelDebug},
		{" warn ", LogLevelWarn},
		{"error", LogLevelError},
		{"info", LogLevelInfo},
		{"", LogLevelInfo},
		{"verbose", LogLevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLogLevel(tt.input); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestWriterLogger_JSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newWriterLogger(&buf, LogLevelWarn, false)

	logger.Info("hidden")
	logger.Warn("visible", "frames", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "visible" {
		t.Errorf("expected msg 'visible', got %v", entry["msg"])
	}
	if entry["frames"] != float64(3) {
		t.Errorf("expected frames=3, got %v", entry["frames"])
	}
}

func TestWriterLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := newWriterLogger(&buf, LogLevelDebug, true)

	logger.Debug("decoded frame", "index", 7)

	out := buf.String()
	if !strings.Contains(out, "msg=\"decoded frame\"") || !strings.Contains(out, "index=7") {
		t.Errorf("unexpected text output: %q", out)
	}
}

func TestDailyRotatingWriter_RotatesOnDateChange(t *testing.T) {
	dir := t.TempDir()
	w := newDailyRotatingWriter(dir, "clipshot")
	defer w.Close()

	day := time.Date(2024, 3, 1, 23, 59, 0, 0, time.Local)
	w.now = func() time.Time { return day }

	if _, err := w.Write([]byte("first\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	day = day.Add(2 * time.Minute)
	if _, err := w.Write([]byte("second\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	for _, name := range []string{"clipshot-2024-03-01.log", "clipshot-2024-03-02.log"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected log file %s: %v", name, err)
		}
	}
}

func TestCreateLogger_WritesToDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	logger := CreateLogger(LogLevelInfo, dir, "clipshot")

	logger.Info("hello")

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("log directory not created: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one log file, got %d", len(entries))
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) != NopLogger {
		t.Error("expected NopLogger for nil logger")
	}

	var buf bytes.Buffer
	logger := newWriterLogger(&buf, LogLevelInfo, false)
	if OrNop(logger) != logger {
		t.Error("expected the given logger to be returned")
	}
}
