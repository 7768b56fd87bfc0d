package corelog

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewWritesStructuredJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "CA_STAR")

	l.Info("planning started", "horizon", 50)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if entry["algorithm"] != "CA_STAR" {
		t.Errorf("algorithm = %v, want CA_STAR", entry["algorithm"])
	}
	if entry["run_id"] != l.RunID() || l.RunID() == "" {
		t.Errorf("run_id = %v, want %v", entry["run_id"], l.RunID())
	}
	if entry["msg"] != "planning started" {
		t.Errorf("msg = %v, want %q", entry["msg"], "planning started")
	}
	if _, ok := entry["horizon"]; !ok {
		t.Errorf("expected horizon attribute in %v", entry)
	}
}

func TestTickAttachesTickAttribute(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "TOKEN_PASSING")

	l.Tick(7).Info("step")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if tick, ok := entry["tick"].(float64); !ok || tick != 7 {
		t.Errorf("tick = %v, want 7", entry["tick"])
	}
	if l.RunID() == "" {
		t.Errorf("expected non-empty run id on the original logger")
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger

	l.Info("should not panic")
	l.Warn("should not panic")
	l.Error("should not panic")
	l.Debug("should not panic")

	if got := l.RunID(); got != "" {
		t.Errorf("RunID() on nil logger = %q, want empty", got)
	}
	if got := l.Tick(1); got != nil {
		t.Errorf("Tick() on nil logger = %v, want nil", got)
	}
}

func TestNopLoggerDiscardsOutput(t *testing.T) {
	l := NopLogger()
	l.Info("discarded")

	if l.RunID() == "" {
		t.Errorf("expected NopLogger to still carry a run id")
	}
}

func TestDefaultDoesNotPanic(t *testing.T) {
	l := Default("CA_STAR")
	if l == nil {
		t.Fatal("Default returned nil")
	}
	if !strings.Contains(l.RunID(), "-") {
		t.Errorf("expected a uuid-shaped run id, got %q", l.RunID())
	}
}
