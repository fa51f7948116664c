package log

import (
	"bytes"
	"encoding/json"
	stdlog "log"
	"strings"
	"testing"
	"time"
)

func newBufferLogger(level Level) (*BaseLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := NewLogger(
		WithLevel(level),
		WithFormatter(NewTextFormatter()),
		WithOutput(NewWriterOutput(&buf)),
	)
	return logger.(*BaseLogger), &buf
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"", InfoLevel, false},
		{"warning", WarnLevel, false},
		{"err", ErrorLevel, false},
		{"fatal", FatalLevel, false},
		{"verbose", InfoLevel, true},
	}
	for _, tc := range cases {
		got, err := ParseLevel(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseLevel(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseLevel(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(WarnLevel)

	logger.Debug("too quiet")
	logger.Info("still too quiet")
	logger.Warn("loud enough")
	logger.Error("definitely loud")

	out := buf.String()
	if strings.Contains(out, "too quiet") {
		t.Errorf("suppressed levels leaked into output: %q", out)
	}
	if !strings.Contains(out, "loud enough") || !strings.Contains(out, "definitely loud") {
		t.Errorf("expected warn and error entries, got: %q", out)
	}
}

func TestWithFieldsAttach(t *testing.T) {
	logger, buf := newBufferLogger(InfoLevel)

	derived := logger.With(Component("broker"), Int("port", 7381))
	derived.Info("listening")

	line := buf.String()
	if !strings.Contains(line, "component=broker") {
		t.Errorf("missing component field: %q", line)
	}
	if !strings.Contains(line, "port=7381") {
		t.Errorf("missing port field: %q", line)
	}

	buf.Reset()
	logger.Info("plain")
	if strings.Contains(buf.String(), "component=broker") {
		t.Errorf("parent logger picked up derived fields: %q", buf.String())
	}
}

func TestSetLevelSharedAcrossFamily(t *testing.T) {
	logger, buf := newBufferLogger(InfoLevel)
	derived := logger.With(Component("worker"))

	derived.SetLevel(DebugLevel)
	logger.Debug("now visible")

	if !strings.Contains(buf.String(), "now visible") {
		t.Errorf("SetLevel on derived logger did not affect root: %q", buf.String())
	}
}

func TestTextFormatter(t *testing.T) {
	f := NewTextFormatter()
	ts := time.Date(2026, 8, 25, 9, 30, 0, 0, time.UTC)
	entry := &Entry{
		Timestamp: ts,
		Level:     InfoLevel,
		Message:   "queue ready",
		Fields:    []Field{Str("component", "broker"), Int("capacity", 0), Str("note", "a b")},
	}
	b, err := f.Format(entry)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	got := string(b)
	want := "2026-08-25T09:30:00.000Z INFO  queue ready component=broker capacity=0 note=\"a b\"\n"
	if got != want {
		t.Errorf("text format mismatch:\n got: %q\nwant: %q", got, want)
	}
}

func TestJSONFormatter(t *testing.T) {
	f := NewJSONFormatter()
	entry := &Entry{
		Timestamp: time.Date(2026, 8, 25, 9, 30, 0, 0, time.UTC),
		Level:     ErrorLevel,
		Message:   "broker unreachable",
		Fields: []Field{
			Str("endpoint", "127.0.0.1:7381"),
			Dur("elapsed", 1500*time.Millisecond),
			Str("msg", "collides"),
		},
	}
	b, err := f.Format(entry)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal formatted entry: %v", err)
	}
	if m["level"] != "error" || m["msg"] != "broker unreachable" {
		t.Errorf("unexpected reserved keys: %v", m)
	}
	if m["elapsed"] != "1.5s" {
		t.Errorf("duration not normalized: %v", m["elapsed"])
	}
	if m["field.msg"] != "collides" {
		t.Errorf("reserved-key collision not prefixed: %v", m)
	}
}

func TestFatalWritesThenExits(t *testing.T) {
	logger, buf := newBufferLogger(InfoLevel)
	exitCode := -1
	logger.state.exit = func(code int) { exitCode = code }

	logger.Fatal("unrecoverable", Str("reason", "test"))

	if exitCode != 1 {
		t.Errorf("Fatal exit code = %d, want 1", exitCode)
	}
	if !strings.Contains(buf.String(), "FATAL") || !strings.Contains(buf.String(), "unrecoverable") {
		t.Errorf("fatal entry not written before exit: %q", buf.String())
	}
}

func TestApplyConfig(t *testing.T) {
	logger, err := ApplyConfig(Config{Level: "debug", Format: "json"})
	if err != nil {
		t.Fatalf("apply config: %v", err)
	}
	if logger.GetLevel() != DebugLevel {
		t.Errorf("level = %v, want debug", logger.GetLevel())
	}
	if _, err := ApplyConfig(Config{Format: "xml"}); err == nil {
		t.Errorf("expected error for unknown format")
	}
}

func TestRedirectStdLog(t *testing.T) {
	logger, buf := newBufferLogger(InfoLevel)
	restore := RedirectStdLog(logger)
	defer restore()

	stdlog.Print("legacy line")

	if !strings.Contains(buf.String(), "legacy line") {
		t.Errorf("stdlib log output not captured: %q", buf.String())
	}
}
