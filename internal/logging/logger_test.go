package logging_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ytqueue/internal/logging"
)

func TestConsoleHandlerFormatsComponentAndAttrs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	logger, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	tagged := logging.WithComponent(logger, "orchestrator")
	tagged.Info("download finished",
		logging.Args(
			logging.String(logging.FieldJobID, "job-1"),
			logging.Int(logging.FieldExitCode, 0),
			logging.String("title", "two words"),
		)...)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := strings.TrimSpace(string(data))

	if !strings.Contains(line, " INFO ") {
		t.Fatalf("missing level label: %q", line)
	}
	if !strings.Contains(line, "orchestrator: download finished") {
		t.Fatalf("component prefix missing: %q", line)
	}
	if !strings.Contains(line, "job_id=job-1") || !strings.Contains(line, "exit_code=0") {
		t.Fatalf("attrs missing: %q", line)
	}
	if !strings.Contains(line, `title="two words"`) {
		t.Fatalf("value with spaces not quoted: %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should be a prefix, not an attr: %q", line)
	}
}

func TestJSONHandlerRewritesTimestampAndLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Warn("queue stalled", logging.Args(logging.String("reason", "boom"))...)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}

	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, data)
	}
	if record["level"] != "warn" {
		t.Fatalf("level not lowercased: %v", record["level"])
	}
	if _, ok := record["ts"].(string); !ok {
		t.Fatalf("timestamp key not rewritten: %v", record)
	}
	if record["msg"] != "queue stalled" {
		t.Fatalf("unexpected message: %v", record["msg"])
	}
	if record["reason"] != "boom" {
		t.Fatalf("reason attr missing: %v", record)
	}
}

func TestLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "warn", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("hidden")
	logger.Warn("visible")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line leaked past warn level: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("warn line missing: %q", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected unknown format to be rejected")
	}
}

func TestNopLoggerDiscardsEverything(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("nothing happens", logging.Args(logging.Bool("flag", true))...)
	if logger.Enabled(nil, 0) {
		t.Fatal("nop logger should report disabled")
	}
}
