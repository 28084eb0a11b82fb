package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
		" DEBUG ": slog.LevelDebug,
	}

	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	Init("json", "debug", &buf)
	defer Init("text", "info", nil)

	L("test").Debug("hello", "key", "value")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log output, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "hello" {
		t.Errorf("expected msg %q, got %v", "hello", entry["msg"])
	}
	if entry[KeyComponent] != "test" {
		t.Errorf("expected component %q, got %v", "test", entry[KeyComponent])
	}
}

func TestPreInitLoggerPicksUpConfiguredHandler(t *testing.T) {
	logger := L("early")

	var buf bytes.Buffer
	Init("text", "info", &buf)
	defer Init("text", "info", nil)

	logger.Info("after init")

	if !strings.Contains(buf.String(), "after init") {
		t.Errorf("pre-init logger did not write through configured handler: %q", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init("text", "error", &buf)
	defer Init("text", "info", nil)

	L("test").Info("suppressed")
	if buf.Len() != 0 {
		t.Errorf("expected info log to be suppressed at error level, got %q", buf.String())
	}

	L("test").Error("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("expected error log to be emitted, got %q", buf.String())
	}
}
