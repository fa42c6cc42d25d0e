package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"notice", LevelNotice},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNoticeLevelLabel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, Config{Format: "text", Level: "info"}))

	logger.Log(context.Background(), LevelNotice, "restarted service", "unit", "krb5kdc")

	out := buf.String()
	if !strings.Contains(out, "level=NOTICE") {
		t.Errorf("log line %q should carry the NOTICE label", out)
	}
	if strings.Contains(out, "INFO+2") {
		t.Errorf("log line %q leaks the raw slog level", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, Config{Format: "json", Level: "info"}))

	logger.Info("hello")

	if !strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Errorf("expected JSON output, got %q", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, Config{Format: "text", Level: "error"}))

	logger.Info("quiet")
	if buf.Len() != 0 {
		t.Errorf("info line should be filtered at error level, got %q", buf.String())
	}

	logger.Error("loud")
	if buf.Len() == 0 {
		t.Error("error line should pass at error level")
	}
}
