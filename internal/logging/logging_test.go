package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLoggerTo(Config{Level: "warn"}, buf)

	logger.Info().Msg("chatter")
	logger.Warn().Msg("trouble")

	out := buf.String()
	if strings.Contains(out, "chatter") {
		t.Fatalf("info should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "trouble") {
		t.Fatalf("warn should pass: %s", out)
	}
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLoggerTo(Config{Level: "loudest"}, buf)

	logger.Debug().Msg("hidden")
	logger.Info().Msg("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "visible") {
		t.Fatalf("fallback level wrong: %s", out)
	}
}
