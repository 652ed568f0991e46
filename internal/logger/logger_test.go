package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestLogger(t *testing.T, level Level, maxSize int64) (*DefaultLogger, string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "test.log")

	l, err := NewDefaultLogger(&Config{
		LogFilePath: logPath,
		MaxFileSize: maxSize,
		MaxBackups:  3,
		Level:       level,
		StackTraces: true,
	})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	return l, logPath
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	return string(content)
}

func TestNewDefaultLogger(t *testing.T) {
	l, logPath := newTestLogger(t, LevelDebug, 1024)
	defer l.Close()

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		t.Error("Log file was not created")
	}
}

func TestNewDefaultLogger_NoFile(t *testing.T) {
	var console bytes.Buffer
	l, err := NewDefaultLogger(&Config{Level: LevelInfo, Console: &console})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	l.Info("console only", String("stage", "align"))
	if err := l.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	if !strings.Contains(console.String(), "[INFO] console only stage=align") {
		t.Errorf("unexpected console output %q", console.String())
	}
}

func TestLogLevels(t *testing.T) {
	l, logPath := newTestLogger(t, LevelDebug, 1024*1024)

	l.Debug("debug message", String("key", "value"))
	l.Info("info message", Int("count", 42))
	l.Warn("warn message", Bool("flag", true))
	l.Error("error message", errors.New("test error"))
	l.Close()

	content := readLog(t, logPath)
	for _, want := range []string{
		"[DEBUG] debug message key=value",
		"[INFO] info message count=42",
		"[WARN] warn message flag=true",
		`[ERROR] error message error="test error"`,
		"Stack trace:",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("log does not contain %q", want)
		}
	}
}

func TestLogLevelFiltering(t *testing.T) {
	l, logPath := newTestLogger(t, LevelWarn, 1024*1024)

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message", nil)
	l.Close()

	content := readLog(t, logPath)
	if strings.Contains(content, "[DEBUG]") || strings.Contains(content, "[INFO]") {
		t.Error("Debug and Info messages should be filtered out")
	}
	if !strings.Contains(content, "[WARN]") || !strings.Contains(content, "[ERROR]") {
		t.Error("Warn and Error messages should be present")
	}
}

func TestSetLevel(t *testing.T) {
	l, logPath := newTestLogger(t, LevelDebug, 1024*1024)

	l.Debug("debug before")
	l.SetLevel(LevelError)
	l.Debug("debug after")
	l.Warn("warn after")
	l.Error("error after", nil)
	l.Close()

	content := readLog(t, logPath)
	if !strings.Contains(content, "debug before") {
		t.Error("Debug before level change should be present")
	}
	if strings.Contains(content, "debug after") || strings.Contains(content, "warn after") {
		t.Error("messages below the new level should be filtered")
	}
	if !strings.Contains(content, "error after") {
		t.Error("Error after level change should be present")
	}
}

func TestLogRotation(t *testing.T) {
	l, logPath := newTestLogger(t, LevelDebug, 100)

	for i := 0; i < 20; i++ {
		l.Info("This is a test message that should trigger log rotation eventually")
	}
	l.Close()

	if _, err := os.Stat(logPath + ".1"); os.IsNotExist(err) {
		t.Error("Backup log file was not created after rotation")
	}
	if _, err := os.Stat(logPath + ".4"); !os.IsNotExist(err) {
		t.Error("rotation kept more backups than configured")
	}
}

func TestFormatEntry(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		level  Level
		err    error
		fields []Field
		want   string
	}{
		{
			name:  "plain",
			level: LevelInfo,
			want:  "2024-03-01 12:30:00.000 [INFO] msg\n",
		},
		{
			name:   "quoted values",
			level:  LevelWarn,
			fields: []Field{String("text", `a b`), Int("offset", 7), String("empty", "")},
			want:   "2024-03-01 12:30:00.000 [WARN] msg text=\"a b\" offset=7 empty=\"\"\n",
		},
		{
			name:  "error",
			level: LevelError,
			err:   errors.New("boom"),
			want:  "2024-03-01 12:30:00.000 [ERROR] msg error=\"boom\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatEntry(ts, tt.level, "msg", tt.err, tt.fields)
			if got != tt.want {
				t.Errorf("FormatEntry() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		" error ": LevelError,
		"bogus":   LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestGlobalLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "global.log")

	if err := Init(&Config{LogFilePath: logPath, MaxFileSize: 1024 * 1024, Level: LevelDebug}); err != nil {
		t.Fatalf("Failed to initialize global logger: %v", err)
	}

	Debug("global debug")
	Info("global info")
	Warn("global warn")
	Error("global error", errors.New("global test error"))
	Close()

	content := readLog(t, logPath)
	for _, want := range []string{"global debug", "global info", "global warn", "global error"} {
		if !strings.Contains(content, want) {
			t.Errorf("global log does not contain %q", want)
		}
	}
}

func TestNoopLogger(t *testing.T) {
	prev := SetGlobalLogger(nil)
	defer SetGlobalLogger(prev)

	// Must not panic without an installed logger.
	Debug("debug")
	Info("info")
	Warn("warn")
	Error("error", nil)
	if err := GetLogger().Close(); err != nil {
		t.Errorf("noop Close() error = %v", err)
	}
}

func TestRecorder(t *testing.T) {
	var console bytes.Buffer
	next, err := NewDefaultLogger(&Config{Level: LevelDebug, Console: &console})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	rec := NewRecorder(next)
	rec.SetLevel(LevelInfo)
	rec.Debug("dropped")
	rec.Info("kept")
	rec.Warn("orphan closing bracket", Int("offset", 3))
	rec.Error("failed", errors.New("x"))

	entries := rec.Entries()
	if len(entries) != 3 {
		t.Fatalf("len(Entries()) = %d, want 3", len(entries))
	}

	warnings := rec.Warnings()
	if len(warnings) != 1 {
		t.Fatalf("len(Warnings()) = %d, want 1", len(warnings))
	}
	if v, ok := warnings[0].Field("offset"); !ok || v != 3 {
		t.Errorf("offset field = %v, %v", v, ok)
	}
	if _, ok := warnings[0].Field("missing"); ok {
		t.Error("unexpected field")
	}

	// Everything is forwarded, including the entry below the recorder level.
	if !strings.Contains(console.String(), "dropped") || !strings.Contains(console.String(), "orphan closing bracket") {
		t.Errorf("forwarded output missing entries: %q", console.String())
	}

	rec.Reset()
	if len(rec.Entries()) != 0 {
		t.Error("Reset() did not clear entries")
	}
}
