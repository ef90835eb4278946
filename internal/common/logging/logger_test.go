package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func newTestLogger(t *testing.T, level LogLevel) (Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	logger, err := NewZapLogger(LogConfig{Level: level, Output: buf})
	if err != nil {
		t.Fatalf("NewZapLogger() error = %v", err)
	}
	return logger, buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  LogLevel
	}{
		{"debug", DebugLevel},
		{"INFO", InfoLevel},
		{"Warn", WarnLevel},
		{"WARNING", WarnLevel},
		{"error", ErrorLevel},
		{"bogus", InfoLevel},
		{"", InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestZapAdapter_Levels(t *testing.T) {
	logger, buf := newTestLogger(t, WarnLevel)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message", errors.New("boom"))

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("messages below WarnLevel were logged: %s", out)
	}
	if !strings.Contains(out, "warn message") {
		t.Errorf("warn message missing from output: %s", out)
	}
	if !strings.Contains(out, "error message") || !strings.Contains(out, "boom") {
		t.Errorf("error message or cause missing from output: %s", out)
	}
}

func TestZapAdapter_Fields(t *testing.T) {
	logger, buf := newTestLogger(t, InfoLevel)

	logger.Info("request denied",
		Field{"client_addr", "1.2.3.4"},
		Field{"scope", "api"},
	)

	out := buf.String()
	if !strings.Contains(out, "1.2.3.4") || !strings.Contains(out, "api") {
		t.Errorf("structured fields missing from output: %s", out)
	}
}

func TestZapAdapter_WithFields(t *testing.T) {
	logger, buf := newTestLogger(t, InfoLevel)

	child := logger.WithFields(Field{"component", "gatekeeper"})
	child.Info("started")

	if !strings.Contains(buf.String(), "gatekeeper") {
		t.Errorf("inherited field missing from output: %s", buf.String())
	}
}

func TestGlobalLogger(t *testing.T) {
	logger, buf := newTestLogger(t, InfoLevel)
	old := GetGlobalLogger()
	SetGlobalLogger(logger)
	defer SetGlobalLogger(old)

	Info("global message", Field{"k", "v"})

	if !strings.Contains(buf.String(), "global message") {
		t.Errorf("global logger did not write: %s", buf.String())
	}
}
