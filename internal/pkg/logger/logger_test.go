package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{
		Level:       "info",
		Format:      "json",
		Output:      &buf,
		ServiceName: "test-svc",
	})

	log.Info("hello", "key", "value")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected valid JSON log line, got error: %v", err)
	}
	if entry["msg"] != "hello" {
		t.Errorf("expected msg=hello, got %v", entry["msg"])
	}
	if entry["service"] != "test-svc" {
		t.Errorf("expected service=test-svc, got %v", entry["service"])
	}
	if entry["key"] != "value" {
		t.Errorf("expected key=value, got %v", entry["key"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "json", Output: &buf})

	log.Info("should be filtered")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered at warn level, got: %s", buf.String())
	}

	log.Warn("should appear")
	if buf.Len() == 0 {
		t.Error("expected warn to be logged at warn level")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "DEBUG"},
		{"info", "INFO"},
		{"WARN", "WARN"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"bogus", "INFO"},
		{"", "INFO"},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in).String(); got != tt.want {
			t.Errorf("parseLevel(%q): expected %s, got %s", tt.in, tt.want, got)
		}
	}
}

func TestWithJobID(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "json", Output: &buf})

	log.WithJobID("job-123").Info("processing")

	if !strings.Contains(buf.String(), `"job_id":"job-123"`) {
		t.Errorf("expected job_id attribute, got: %s", buf.String())
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "json", Output: &buf})

	ctx := ContextWithJobID(context.Background(), "job-42")
	ctx = ContextWithPromptID(ctx, "prompt-7")
	ctx = ContextWithRequestID(ctx, "req-1")

	log.FromContext(ctx).Info("enriched")

	out := buf.String()
	for _, want := range []string{`"job_id":"job-42"`, `"prompt_id":"prompt-7"`, `"request_id":"req-1"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in log output, got: %s", want, out)
		}
	}
}

func TestWithErrorNil(t *testing.T) {
	log := NewDefault()
	if log.WithError(nil) != log {
		t.Error("expected WithError(nil) to return the same logger")
	}
}
