package obs

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestJSONLoggerOutsideDev(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "prod", slog.LevelInfo).Info("flushed", "reservations", 3)
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", buf.String(), err)
	}
	if line["msg"] != "flushed" {
		t.Fatalf("expected msg flushed, got %v", line["msg"])
	}
}

func TestTintLoggerInDev(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "dev", slog.LevelInfo).Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected debug suppressed, got %q", buf.String())
	}
	newLogger(&buf, "dev", slog.LevelInfo).Info("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("expected message in output, got %q", buf.String())
	}
}
