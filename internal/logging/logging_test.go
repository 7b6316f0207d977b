package logging

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testStringer string

func (s testStringer) String() string { return string(s) }

func TestInitAndLoggingToFile(t *testing.T) {
	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "nested", "panchakarma.log")

	if err := Init(logPath); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close()
	})

	LogEvent("hello %s", "world")
	LogWarning("careful %d", 1)
	NewReporter().Status("indexed %d chunks", 3)
	_ = Close()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "hello world") {
		t.Fatalf("expected LogEvent content, got: %s", content)
	}
	if !strings.Contains(content, "careful 1") {
		t.Fatalf("expected LogWarning content, got: %s", content)
	}
	if !strings.Contains(content, "indexed 3 chunks") {
		t.Fatalf("expected Reporter content, got: %s", content)
	}
}

func TestBuildRequestMessageDefaults(t *testing.T) {
	msg := buildRequestMessage(" app->llm ", " ", "", map[string]any{"ok": true})
	if !strings.Contains(msg, "[APP->LLM]") {
		t.Fatalf("expected uppercased direction, got: %s", msg)
	}
	if !strings.Contains(msg, "host=unknown") {
		t.Fatalf("expected default host, got: %s", msg)
	}
	if !strings.Contains(msg, "model=unknown") {
		t.Fatalf("expected default model, got: %s", msg)
	}
	if !strings.Contains(msg, "payload={\"ok\":true}") {
		t.Fatalf("expected payload json, got: %s", msg)
	}
}

func TestFormatPayloadVariants(t *testing.T) {
	if got := formatPayload(nil); got != "null" {
		t.Fatalf("nil payload: %s", got)
	}
	if got := formatPayload(" "); got != `""` {
		t.Fatalf("empty string payload: %s", got)
	}
	if got := formatPayload([]byte("hi")); got != "hi" {
		t.Fatalf("byte payload: %s", got)
	}
	if got := formatPayload(testStringer("ok")); got != "ok" {
		t.Fatalf("stringer payload: %s", got)
	}
}

func TestReporterPrefixesElapsed(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	NewReporter().Status("pages=%d", 2)
	if !strings.Contains(buf.String(), "] pages=2") {
		t.Fatalf("expected elapsed prefix, got: %s", buf.String())
	}
}

func TestFileOnlyKeepsFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "panchakarma.log")
	if err := Init(logPath); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	t.Cleanup(func() { _ = Close() })

	FileOnly()
	LogEvent("quiet line")
	_ = Close()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "quiet line") {
		t.Fatalf("expected file to receive log line, got: %s", data)
	}
}
